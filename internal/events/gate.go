package events

import (
	"sync"
	"time"
)

// DefaultGateWindow is a little more than one world tick.
const DefaultGateWindow = 250 * time.Millisecond

// Gate remembers keys for a short window so a broadcast that reaches many
// agents, or reaches the framework through both a hook and a packet, turns
// into one event. Keys must be comparable.
type Gate struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	seen   map[any]*gateEntry
	hits   uint64
}

// gateEntry counts how often each receiver saw one key. The n-th copy a
// receiver sees is a new packet only when no receiver has seen n copies yet.
type gateEntry struct {
	at        time.Time
	copies    int
	receivers map[uint64]int
}

func NewGate(window time.Duration, now func() time.Time) *Gate {
	if window <= 0 {
		window = DefaultGateWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Gate{window: window, now: now, seen: make(map[any]*gateEntry)}
}

// First reports whether key has not been seen within the window, and marks
// it seen.
func (g *Gate) First(key any) bool {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.seen[key]; ok && now.Sub(e.at) < g.window {
		g.hits++
		return false
	}
	g.seen[key] = &gateEntry{at: now, copies: 1}
	return true
}

// FirstFor is First for a key delivered to many receivers. A receiver that
// sees the key again inside the window got a second packet, so the repeat
// passes; a copy of the same packet arriving at another receiver does not.
func (g *Gate) FirstFor(key any, receiver uint64) bool {
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.seen[key]
	if !ok || now.Sub(e.at) >= g.window || e.receivers == nil {
		g.seen[key] = &gateEntry{at: now, copies: 1, receivers: map[uint64]int{receiver: 1}}
		return true
	}
	e.at = now
	n := e.receivers[receiver] + 1
	e.receivers[receiver] = n
	if n > e.copies {
		e.copies = n
		return true
	}
	g.hits++
	return false
}

// Sweep forgets keys older than the window. Called once per tick.
func (g *Gate) Sweep() {
	now := g.now()
	g.mu.Lock()
	for k, e := range g.seen {
		if now.Sub(e.at) >= g.window {
			delete(g.seen, k)
		}
	}
	g.mu.Unlock()
}

// Suppressed counts keys rejected as repeats.
func (g *Gate) Suppressed() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hits
}

func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}
