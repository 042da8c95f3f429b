// Package agent holds the bot-controlled players known to the framework and
// their bus subscriptions.
//
// Every agent is an agent-bound subscriber on each bus it listens to, keyed
// by its EntityID, so Family.UnsubscribeAll removes it everywhere at once.
// Group-bus membership follows the agent's group: it is dropped when the
// group disbands or the agent leaves, and restored on invite or join.
package agent

import (
	"sync"
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
)

// recentCap bounds the per-agent recent-event ring.
const recentCap = 128

// Received is one event as an agent saw it.
type Received struct {
	At    time.Time
	Bus   string
	Type  string
	Event any
}

// Handler is the agent's decision code. e is the concrete domain event
// (group.Event, combat.Event, ...). Handlers run on the publishing goroutine
// and must not block.
type Handler func(a *Agent, bus string, e any)

// Agent is one bot-controlled player.
type Agent struct {
	id      ident.EntityID
	handler Handler
	now     func() time.Time

	mu         sync.Mutex
	group      ident.EntityID
	received   map[string]uint64 // per bus
	recent     []Received
	next       int
	ticks      uint64
	autonomous uint64
}

func newAgent(id ident.EntityID, h Handler, now func() time.Time) *Agent {
	return &Agent{
		id:       id,
		handler:  h,
		now:      now,
		received: make(map[string]uint64),
		recent:   make([]Received, 0, recentCap),
	}
}

func (a *Agent) ID() ident.EntityID { return a.id }

// Group is the group the agent is tracked in, Empty when ungrouped.
func (a *Agent) Group() ident.EntityID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.group
}

func (a *Agent) setGroup(g ident.EntityID) {
	a.mu.Lock()
	a.group = g
	a.mu.Unlock()
}

// deliver records e and hands it to the handler.
func (a *Agent) deliver(bus, typ string, e any) {
	r := Received{At: a.now(), Bus: bus, Type: typ, Event: e}
	a.mu.Lock()
	a.received[bus]++
	if len(a.recent) < recentCap {
		a.recent = append(a.recent, r)
	} else {
		a.recent[a.next] = r
		a.next = (a.next + 1) % recentCap
	}
	a.mu.Unlock()
	if a.handler != nil {
		a.handler(a, bus, e)
	}
}

// Received returns how many events arrived from bus.
func (a *Agent) Received(bus string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.received[bus]
}

// Recent returns the last events received, oldest first.
func (a *Agent) Recent() []Received {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Received, 0, len(a.recent))
	out = append(out, a.recent[a.next:]...)
	out = append(out, a.recent[:a.next]...)
	return out
}

// Trace returns the type names of the recent events from bus, oldest first.
func (a *Agent) Trace(bus string) []string {
	var out []string
	for _, r := range a.Recent() {
		if r.Bus == bus {
			out = append(out, r.Type)
		}
	}
	return out
}

// Ticks reports ticks run and how many of them autonomy handled.
func (a *Agent) Ticks() (total, autonomous uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ticks, a.autonomous
}

func (a *Agent) countTick(handled bool) {
	a.mu.Lock()
	a.ticks++
	if handled {
		a.autonomous++
	}
	a.mu.Unlock()
}
