// Package events bundles the domain buses into one Family value that the
// sniffer, the bridge and the agents share.
package events

import (
	"io"
	"time"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/events/auction"
	"github.com/l1jgo/playerbot/internal/events/aura"
	"github.com/l1jgo/playerbot/internal/events/combat"
	"github.com/l1jgo/playerbot/internal/events/cooldown"
	"github.com/l1jgo/playerbot/internal/events/group"
	"github.com/l1jgo/playerbot/internal/events/instance"
	"github.com/l1jgo/playerbot/internal/events/loot"
	"github.com/l1jgo/playerbot/internal/events/npc"
	"github.com/l1jgo/playerbot/internal/events/quest"
	"github.com/l1jgo/playerbot/internal/events/resource"
	"github.com/l1jgo/playerbot/internal/events/social"
)

// Member is the type-independent surface every domain bus exposes.
type Member interface {
	Name() string
	Stats() event.Stats
	ResetStats()
	Pending() int
	SubscriberCount() int
	ProcessEvents(diff time.Duration, max int) int
	ProcessGroupEvents(group ident.EntityID, diff time.Duration) int
	SetObserver(o event.Observer)
	UnsubscribeID(id ident.EntityID) bool
	IsSubscribed(id ident.EntityID) bool
}

// Family holds one bus per event domain. Buses never cross-deliver; an
// event's priority only orders it against events on the same bus.
type Family struct {
	Group    *group.Bus
	Combat   *combat.Bus
	Cooldown *cooldown.Bus
	Loot     *loot.Bus
	Quest    *quest.Bus
	Aura     *aura.Bus
	Resource *resource.Bus
	Social   *social.Bus
	Auction  *auction.Bus
	NPC      *npc.Bus
	Instance *instance.Bus

	// Gate suppresses repeats of broadcast events within one tick.
	Gate *Gate
}

// NewFamily builds every bus with the same options.
func NewFamily(opts event.Options, gateWindow time.Duration) *Family {
	return &Family{
		Group:    group.NewBus(opts),
		Combat:   combat.NewBus(opts),
		Cooldown: cooldown.NewBus(opts),
		Loot:     loot.NewBus(opts),
		Quest:    quest.NewBus(opts),
		Aura:     aura.NewBus(opts),
		Resource: resource.NewBus(opts),
		Social:   social.NewBus(opts),
		Auction:  auction.NewBus(opts),
		NPC:      npc.NewBus(opts),
		Instance: instance.NewBus(opts),
		Gate:     NewGate(gateWindow, opts.Now),
	}
}

// Buses lists the members in a fixed order.
func (f *Family) Buses() []Member {
	return []Member{
		f.Group, f.Combat, f.Cooldown, f.Loot, f.Quest, f.Aura,
		f.Resource, f.Social, f.Auction, f.NPC, f.Instance,
	}
}

// PublishGroup publishes a group event once per gate window. Host hooks and
// packet translators both report group lifecycle changes; whichever arrives
// first wins.
func (f *Family) PublishGroup(e group.Event) bool {
	if !f.Gate.First(e.Key()) {
		return false
	}
	return f.Group.Publish(e)
}

// ProcessEvents drains queued batch events on every bus.
func (f *Family) ProcessEvents(diff time.Duration, max int) int {
	n := 0
	for _, b := range f.Buses() {
		n += b.ProcessEvents(diff, max)
	}
	return n
}

// ProcessGroupEvents drains the batch events of one group on every bus.
func (f *Family) ProcessGroupEvents(g ident.EntityID, diff time.Duration) int {
	n := 0
	for _, b := range f.Buses() {
		n += b.ProcessGroupEvents(g, diff)
	}
	return n
}

// Stats returns one snapshot per bus in Buses order.
func (f *Family) Stats() []event.Stats {
	buses := f.Buses()
	out := make([]event.Stats, len(buses))
	for i, b := range buses {
		out[i] = b.Stats()
	}
	return out
}

func (f *Family) ResetStats() {
	for _, b := range f.Buses() {
		b.ResetStats()
	}
}

// SetObserver attaches o to every bus.
func (f *Family) SetObserver(o event.Observer) {
	for _, b := range f.Buses() {
		b.SetObserver(o)
	}
}

// UnsubscribeAll removes id's agent-bound subscription from every bus and
// returns how many buses had one.
func (f *Family) UnsubscribeAll(id ident.EntityID) int {
	n := 0
	for _, b := range f.Buses() {
		if b.UnsubscribeID(id) {
			n++
		}
	}
	return n
}

// WriteStats prints one line per bus.
func (f *Family) WriteStats(w io.Writer) error {
	for _, s := range f.Stats() {
		if _, err := s.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}
