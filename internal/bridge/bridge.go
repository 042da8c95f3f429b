// Package bridge connects the host's group and instance script hooks to the
// event buses, and polls the parts of group state the host never reports
// through a hook.
//
// The bridge keeps no state of its own beyond the GroupState cache. Events
// are collected while the cache lock is held and published after it is
// released, because the bridge also listens to the buses it publishes on.
package bridge

import (
	"sync"
	"time"

	"github.com/l1jgo/playerbot/internal/autonomy"
	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/dungeon"
	"github.com/l1jgo/playerbot/internal/events"
	"github.com/l1jgo/playerbot/internal/events/combat"
	"github.com/l1jgo/playerbot/internal/events/group"
	"github.com/l1jgo/playerbot/internal/events/instance"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/world"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often OnUpdate diffs host group state.
const DefaultPollInterval = 100 * time.Millisecond

// Config configures a Bridge.
type Config struct {
	PollInterval time.Duration
	// AutoEnable turns autonomy on for a group when one of its members
	// enters a dungeon.
	AutoEnable bool
	Now        func() time.Time
}

// Bridge is the host-hook adapter.
type Bridge struct {
	world    host.World
	buses    *events.Family
	autonomy *autonomy.Manager // may be nil
	scripts  *dungeon.Registry // may be nil
	log      *zap.Logger
	cfg      Config

	mu        sync.Mutex
	states    *world.GroupStates
	inDungeon map[ident.EntityID]uint32 // player → dungeon map
	elapsed   time.Duration
	polls     uint64

	groupSub    event.SubscriptionID
	instanceSub event.SubscriptionID
}

func New(w host.World, buses *events.Family, am *autonomy.Manager, reg *dungeon.Registry, log *zap.Logger, cfg Config) *Bridge {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	b := &Bridge{
		world:     w,
		buses:     buses,
		autonomy:  am,
		scripts:   reg,
		log:       log.Named("bridge"),
		cfg:       cfg,
		states:    world.NewGroupStates(),
		inDungeon: make(map[ident.EntityID]uint32),
	}
	b.groupSub = buses.Group.SubscribeCallback(b.onGroupEvent,
		group.MemberJoined, group.MemberLeft, group.LeaderChanged, group.GroupDisbanded,
		group.ReadyCheckStarted, group.ReadyCheckResponse, group.StateSync)
	b.instanceSub = buses.Instance.SubscribeCallback(b.onInstanceEvent,
		instance.EncounterStarted, instance.EncounterEnded, instance.BossKilled)
	return b
}

// Close removes the bridge's bus subscriptions.
func (b *Bridge) Close() {
	b.buses.Group.UnsubscribeCallback(b.groupSub)
	b.buses.Instance.UnsubscribeCallback(b.instanceSub)
}

func (b *Bridge) leaderOf(g ident.EntityID) ident.EntityID {
	if hg, ok := b.world.Group(g); ok {
		return hg.Leader
	}
	return ident.Empty
}

// ---------- group hooks ----------

func (b *Bridge) OnAddMember(g, member ident.EntityID) {
	b.buses.PublishGroup(group.NewMemberJoined(g, member, b.leaderOf(g)))
}

func (b *Bridge) OnInviteMember(g, invitee ident.EntityID) {
	b.buses.PublishGroup(group.NewInviteReceived(g, b.leaderOf(g), invitee))
}

func (b *Bridge) OnRemoveMember(g, member ident.EntityID, method uint8, kicker ident.EntityID, reason string) {
	b.buses.PublishGroup(group.NewMemberLeft(g, member, kicker, method, reason))
}

func (b *Bridge) OnChangeLeader(g, newLeader, oldLeader ident.EntityID) {
	b.buses.PublishGroup(group.NewLeaderChanged(g, newLeader, oldLeader))
}

// OnDisband publishes the disband. Cleanup runs from the group bus callback
// so a disband that arrives as a packet is handled the same way.
func (b *Bridge) OnDisband(g ident.EntityID) {
	leader := b.leaderOf(g)
	if leader.IsEmpty() {
		b.mu.Lock()
		if st := b.states.Get(g); st != nil {
			leader = st.Leader
		}
		b.mu.Unlock()
	}
	if !b.buses.PublishGroup(group.NewGroupDisbanded(g, leader)) {
		// 已由封包回報，或事件無效；仍確保清理
		b.cleanup(g)
	}
}

func (b *Bridge) OnInviteDeclined(g, invitee ident.EntityID) {
	b.buses.PublishGroup(group.NewInviteDeclined(g, invitee, b.leaderOf(g)))
}

func (b *Bridge) OnReadyCheckStart(g, initiator ident.EntityID, d time.Duration) {
	b.buses.PublishGroup(group.NewReadyCheckStarted(g, initiator, d))
}

// cleanup drops everything the framework holds for a dissolved group.
// Terrain and spatial caches are shared by every group and stay.
func (b *Bridge) cleanup(g ident.EntityID) {
	b.mu.Lock()
	b.states.Dissolve(g)
	b.mu.Unlock()
	if b.autonomy != nil {
		b.autonomy.OnGroupDisbanded(g)
	}
}

// onGroupEvent keeps the cache in step with group traffic from any source.
func (b *Bridge) onGroupEvent(e group.Event) {
	if e.Type == group.GroupDisbanded {
		b.cleanup(e.Group)
		b.log.Info("隊伍已解散", zap.String("group", e.Group.Short()))
		return
	}
	now := b.cfg.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	switch e.Type {
	case group.MemberJoined:
		b.states.AddMember(e.Group, e.Target)
	case group.MemberLeft:
		if st := b.states.Get(e.Group); st != nil && st.HasMember(e.Target) {
			b.states.RemoveMember(e.Target)
		}
	case group.LeaderChanged:
		b.states.Ensure(e.Group).Leader = e.Target
	case group.StateSync:
		st := b.states.Ensure(e.Group)
		st.Leader = e.Source
		for _, m := range e.Members {
			b.states.AddMember(e.Group, m)
		}
	case group.ReadyCheckStarted:
		st := b.states.Ensure(e.Group)
		if !st.ReadyCheckActive {
			st.BeginReadyCheck(e.Source, now, e.Duration)
		}
	case group.ReadyCheckResponse:
		if st := b.states.Get(e.Group); st != nil {
			st.RecordReady(e.Target, e.Ready)
		}
	}
}

// ---------- instance hooks ----------

// OnDungeonEnter reports player entering a dungeon instance.
func (b *Bridge) OnDungeonEnter(player ident.EntityID, mapID, instanceID uint32, difficulty uint8) {
	g, _ := b.world.GroupOf(player)
	b.mu.Lock()
	b.inDungeon[player] = mapID
	b.mu.Unlock()

	b.buses.Instance.Publish(instance.NewInstanceEntered(player, g, mapID, instanceID, difficulty))
	if b.scripts != nil {
		b.scripts.EnterDungeon(player, mapID)
	}
	if b.cfg.AutoEnable && b.autonomy != nil && !g.IsEmpty() {
		if st, ok := b.autonomy.Snapshot(g); !ok || st.Underlying == autonomy.StateDisabled {
			b.autonomy.Enable(g, autonomy.Config{})
		}
	}
}

// OnDungeonExit reports player leaving. When the last member of a group has
// left, the group's autonomy is disabled.
func (b *Bridge) OnDungeonExit(player ident.EntityID) {
	g, grouped := b.world.GroupOf(player)
	b.mu.Lock()
	mapID, ok := b.inDungeon[player]
	delete(b.inDungeon, player)
	others := false
	if grouped {
		if hg, found := b.world.Group(g); found {
			for _, m := range hg.Members {
				if _, in := b.inDungeon[m.ID]; in {
					others = true
					break
				}
			}
		}
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	b.buses.Instance.Publish(instance.NewInstanceLeft(player, g, mapID))
	if b.scripts != nil {
		b.scripts.ExitDungeon(player, mapID)
	}
	if grouped && !others && b.autonomy != nil {
		b.autonomy.OnLeaveDungeon(g)
	}
}

// DungeonMaps lists the maps that currently hold at least one player the
// bridge saw enter.
func (b *Bridge) DungeonMaps() []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[uint32]bool, len(b.inDungeon))
	var out []uint32
	for _, m := range b.inDungeon {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func (b *Bridge) onInstanceEvent(e instance.Event) {
	if b.scripts == nil {
		return
	}
	enc := dungeon.Encounter{Boss: e.Target, Entry: e.Boss, Map: e.Map, Group: e.Group}
	switch e.Type {
	case instance.EncounterStarted:
		b.scripts.BossEngaged(enc)
	case instance.EncounterEnded:
		if !e.Success {
			b.scripts.BossWiped(enc)
		}
	case instance.BossKilled:
		b.scripts.BossKilled(enc)
	}
}

// ---------- world tick ----------

// OnUpdate is called every world tick and polls once per interval.
func (b *Bridge) OnUpdate(diff time.Duration) {
	b.mu.Lock()
	b.elapsed += diff
	if b.elapsed < b.cfg.PollInterval {
		b.mu.Unlock()
		return
	}
	b.elapsed = 0
	b.mu.Unlock()
	b.Poll()
}

// Poll diffs every cached group against the host now and publishes what
// changed.
func (b *Bridge) Poll() {
	now := b.cfg.Now()
	var (
		gevs []group.Event
		cevs []combat.Event
		gone []ident.EntityID
	)
	b.mu.Lock()
	b.polls++
	ids := b.states.IDs()
	sortIDs(ids)
	for _, id := range ids {
		st := b.states.Get(id)
		hg, ok := b.world.Group(id)
		if !ok {
			gone = append(gone, id)
			continue
		}
		if st.Updated.IsZero() {
			b.baseline(st, hg)
		} else {
			gevs = b.diff(st, hg, now, gevs)
		}
		cevs = b.diffCombat(st, hg, cevs)
		st.Updated = now
	}
	b.mu.Unlock()

	for _, e := range gevs {
		b.buses.PublishGroup(e)
	}
	for _, e := range cevs {
		b.buses.Combat.Publish(e)
	}
	for _, id := range gone {
		b.log.Debug("主機已無此隊伍", zap.String("group", id.Short()))
		b.OnDisband(id)
	}
}

// Groups returns the ids of the cached groups.
func (b *Bridge) Groups() []ident.EntityID {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := b.states.IDs()
	sortIDs(ids)
	return ids
}

// State returns a copy of the cached state of g.
func (b *Bridge) State(g ident.EntityID) (world.GroupState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.states.Get(g)
	if st == nil {
		return world.GroupState{}, false
	}
	return st.Clone(), true
}

func (b *Bridge) Polls() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.polls
}
