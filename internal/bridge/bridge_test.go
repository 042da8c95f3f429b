package bridge

import (
	"testing"
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
	"github.com/l1jgo/playerbot/internal/host/memhost"
	"github.com/l1jgo/playerbot/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	clk     *clock
	h       *memhost.Host
	buses   *events.Family
	am      *autonomy.Manager
	reg     *dungeon.Registry
	b       *Bridge
	g       ident.EntityID
	leader  ident.EntityID
	members []ident.EntityID

	groupTrace  []group.Event
	combatTrace []combat.Event
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	clk := &clock{t: time.Date(2024, 5, 4, 18, 0, 0, 0, time.UTC)}
	f := &fixture{
		clk:   clk,
		h:     memhost.New(memhost.WithClock(clk.Now)),
		buses: events.NewFamily(event.Options{Now: clk.Now, Log: log}, 0),
		g:     ident.NewEntityID(),
	}
	roles := []host.Role{host.RoleTank, host.RoleHealer, host.RoleMeleeDPS, host.RoleRangedDPS, host.RoleRangedDPS}
	hg := host.Group{ID: f.g}
	for i, r := range roles {
		id := ident.NewEntityID()
		f.members = append(f.members, id)
		hg.Members = append(hg.Members, host.GroupMember{ID: id, Role: r, Subgroup: 0})
		f.h.PutUnit(host.Unit{ID: id, Map: dungeon.MapDeadmines, Pos: world.Position{X: float32(i)}, Alive: true,
			Health: 100, MaxHealth: 100, Power: 100, MaxPower: 100})
	}
	f.leader = f.members[0]
	hg.Leader = f.leader
	f.h.PutGroup(hg)

	f.am = autonomy.NewManager(f.h, f.h, log, autonomy.WithClock(clk.Now))
	f.am.Attach(f.buses.Combat)
	f.reg = dungeon.NewRegistry(dungeon.Env{World: f.h, Cmd: f.h}, log)
	cfg.Now = clk.Now
	f.b = New(f.h, f.buses, f.am, f.reg, log, cfg)

	f.buses.Group.SubscribeCallback(func(e group.Event) { f.groupTrace = append(f.groupTrace, e) })
	f.buses.Combat.SubscribeCallback(func(e combat.Event) { f.combatTrace = append(f.combatTrace, e) })
	return f
}

// tick advances past the dedup window and polls.
func (f *fixture) tick() {
	f.clk.Advance(300 * time.Millisecond)
	f.buses.Gate.Sweep()
	f.b.OnUpdate(300 * time.Millisecond)
}

func (f *fixture) types() []group.Type {
	out := make([]group.Type, len(f.groupTrace))
	for i, e := range f.groupTrace {
		out[i] = e.Type
	}
	return out
}

func TestHooksPublishGroupEvents(t *testing.T) {
	f := newFixture(t, Config{})
	newcomer := ident.NewEntityID()

	f.b.OnInviteMember(f.g, newcomer)
	f.b.OnInviteDeclined(f.g, newcomer)
	f.b.OnAddMember(f.g, newcomer)
	f.b.OnChangeLeader(f.g, f.members[1], f.leader)
	f.b.OnRemoveMember(f.g, newcomer, group.RemoveKick, f.members[1], "afk")

	assert.Equal(t, []group.Type{
		group.InviteReceived, group.InviteDeclined, group.MemberJoined,
		group.LeaderChanged, group.MemberLeft,
	}, f.types())
	assert.Equal(t, f.leader, f.groupTrace[0].Source)
	assert.Equal(t, newcomer, f.groupTrace[0].Target)
	left := f.groupTrace[4]
	assert.Equal(t, group.RemoveKick, left.RemoveMethod)
	assert.Equal(t, "afk", left.Reason)

	st, ok := f.b.State(f.g)
	require.True(t, ok)
	assert.Equal(t, f.members[1], st.Leader)
	assert.False(t, st.HasMember(newcomer))
}

func TestHookAndPacketPublishOnce(t *testing.T) {
	f := newFixture(t, Config{})
	f.b.OnChangeLeader(f.g, f.members[1], f.leader)
	// the same change reported again within the gate window
	f.buses.PublishGroup(group.NewLeaderChanged(f.g, f.members[1], f.leader))
	assert.Len(t, f.groupTrace, 1)
}

func TestFirstPollIsSilent(t *testing.T) {
	f := newFixture(t, Config{})
	f.h.UpdateGroup(f.g, func(g *host.Group) {
		g.LootMethod = group.LootMaster
		g.Icons[7] = f.members[2]
	})
	f.b.OnAddMember(f.g, f.members[4])
	f.groupTrace = nil

	f.tick()
	assert.Empty(t, f.groupTrace)
	st, _ := f.b.State(f.g)
	assert.Len(t, st.Members, 5)
	assert.Equal(t, group.LootMaster, st.LootMethod)
	assert.Equal(t, uint64(1), f.b.Polls())
}

func TestPollPublishesChanges(t *testing.T) {
	f := newFixture(t, Config{})
	f.b.OnAddMember(f.g, f.members[4])
	f.tick()
	f.groupTrace = nil

	mob := ident.NewEntityID()
	f.h.UpdateGroup(f.g, func(g *host.Group) {
		g.LootMethod = group.LootMaster
		g.MasterLooter = f.members[1]
		g.Threshold = 3
		g.Icons[7] = mob
		g.Difficulty = 1
		g.Raid = true
		g.Members[2].Subgroup = 1
	})
	f.tick()

	assert.ElementsMatch(t, []group.Type{
		group.LootMethodChanged, group.LootThresholdChanged, group.TargetIconChanged,
		group.DifficultyChanged, group.RaidConverted, group.SubgroupChanged,
	}, f.types())
	for _, e := range f.groupTrace {
		switch e.Type {
		case group.LootMethodChanged:
			assert.Equal(t, f.members[1], e.MasterLooter)
		case group.TargetIconChanged:
			assert.Equal(t, uint8(7), e.IconSlot)
			assert.Equal(t, mob, e.Target)
		case group.SubgroupChanged:
			assert.Equal(t, f.members[2], e.Target)
			assert.Equal(t, uint8(1), e.Subgroup)
		}
	}

	f.groupTrace = nil
	f.tick()
	assert.Empty(t, f.groupTrace, "no change, no event")

	f.h.UpdateGroup(f.g, func(g *host.Group) { g.MasterLooter = f.members[2] })
	f.tick()
	require.Len(t, f.groupTrace, 1)
	assert.Equal(t, group.MasterLooterChanged, f.groupTrace[0].Type)
}

func TestPollFindsMembershipMissedByHooks(t *testing.T) {
	f := newFixture(t, Config{})
	f.b.OnAddMember(f.g, f.members[4])
	f.tick()
	f.groupTrace = nil

	late := ident.NewEntityID()
	f.h.UpdateGroup(f.g, func(g *host.Group) {
		g.Members = append(g.Members[1:], host.GroupMember{ID: late})
		g.Leader = f.members[1]
	})
	f.tick()
	assert.ElementsMatch(t, []group.Type{group.LeaderChanged, group.MemberJoined, group.MemberLeft}, f.types())
	st, _ := f.b.State(f.g)
	assert.True(t, st.HasMember(late))
	assert.False(t, st.HasMember(f.leader))
}

func TestPollThrottle(t *testing.T) {
	f := newFixture(t, Config{PollInterval: 100 * time.Millisecond})
	for i := 0; i < 9; i++ {
		f.b.OnUpdate(10 * time.Millisecond)
	}
	assert.Zero(t, f.b.Polls())
	f.b.OnUpdate(10 * time.Millisecond)
	assert.Equal(t, uint64(1), f.b.Polls())
}

func TestReadyCheckCompletesAtDeadline(t *testing.T) {
	f := newFixture(t, Config{})
	f.b.OnReadyCheckStart(f.g, f.leader, 30*time.Second)
	f.tick()

	f.buses.PublishGroup(group.NewReadyCheckResponse(f.g, f.members[1], true))
	f.buses.PublishGroup(group.NewReadyCheckResponse(f.g, f.members[2], false))
	f.tick()
	assert.NotContains(t, f.types(), group.ReadyCheckCompleted)

	f.clk.Advance(30 * time.Second)
	f.tick()
	last := f.groupTrace[len(f.groupTrace)-1]
	require.Equal(t, group.ReadyCheckCompleted, last.Type)
	assert.Equal(t, 2, last.Count)
	assert.ElementsMatch(t, []ident.EntityID{f.members[2], f.members[3], f.members[4]}, last.Members)

	f.tick()
	assert.Equal(t, group.ReadyCheckCompleted, f.groupTrace[len(f.groupTrace)-1].Type, "completed once")
}

func TestStateDoesNotAliasCache(t *testing.T) {
	f := newFixture(t, Config{})
	f.b.OnReadyCheckStart(f.g, f.leader, 30*time.Second)
	f.tick()

	st, ok := f.b.State(f.g)
	require.True(t, ok)
	require.NotNil(t, st.Subgroups)
	require.NotNil(t, st.InCombat)
	require.NotNil(t, st.ReadyCheck.Responses)
	st.Subgroups[f.members[1]] = 7
	st.InCombat[f.members[1]] = true
	st.ReadyCheck.Responses[f.members[2]] = true
	st.Members[0] = ident.Empty

	again, _ := f.b.State(f.g)
	assert.NotEqual(t, uint8(7), again.Subgroups[f.members[1]])
	assert.False(t, again.InCombat[f.members[1]])
	_, answered := again.ReadyCheck.Responses[f.members[2]]
	assert.False(t, answered)
	assert.NotContains(t, again.Members, ident.Empty)
}

func TestCombatFlagsDriveAutonomy(t *testing.T) {
	f := newFixture(t, Config{})
	f.b.OnAddMember(f.g, f.members[4])
	f.am.Enable(f.g, autonomy.Config{})
	f.tick()

	mob := ident.NewEntityID()
	f.h.UpdateUnit(f.members[0], func(u *host.Unit) { u.InCombat = true; u.Target = mob })
	f.tick()
	require.Len(t, f.combatTrace, 1)
	assert.Equal(t, combat.CombatStarted, f.combatTrace[0].Type)
	assert.Equal(t, f.g, f.combatTrace[0].Group)
	assert.Equal(t, autonomy.StateCombat, f.am.State(f.g))

	f.h.UpdateUnit(f.members[0], func(u *host.Unit) { u.InCombat = false })
	f.tick()
	require.Len(t, f.combatTrace, 2)
	assert.Equal(t, combat.CombatEnded, f.combatTrace[1].Type)
	assert.Equal(t, autonomy.StateRecovering, f.am.State(f.g))
}

func TestDisbandCleansUp(t *testing.T) {
	f := newFixture(t, Config{})
	f.b.OnAddMember(f.g, f.members[4])
	f.am.Enable(f.g, autonomy.Config{})
	f.tick()

	f.b.OnDisband(f.g)
	require.NotEmpty(t, f.groupTrace)
	last := f.groupTrace[len(f.groupTrace)-1]
	assert.Equal(t, group.GroupDisbanded, last.Type)
	assert.Equal(t, event.PriorityCritical, last.Priority)
	_, ok := f.b.State(f.g)
	assert.False(t, ok)
	_, ok = f.am.Snapshot(f.g)
	assert.False(t, ok)
}

func TestVanishedGroupIsDisbanded(t *testing.T) {
	f := newFixture(t, Config{})
	f.b.OnAddMember(f.g, f.members[4])
	f.tick()
	f.h.RemoveGroup(f.g)
	f.tick()
	assert.Equal(t, group.GroupDisbanded, f.groupTrace[len(f.groupTrace)-1].Type)
	assert.Empty(t, f.b.Groups())
}

func TestDungeonLifecycle(t *testing.T) {
	f := newFixture(t, Config{AutoEnable: true})
	dm := dungeon.NewDeadmines()
	require.NoError(t, f.reg.Register(dm))
	f.reg.Freeze()

	var trace []instance.Event
	f.buses.Instance.SubscribeCallback(func(e instance.Event) { trace = append(trace, e) },
		instance.InstanceEntered, instance.InstanceLeft)

	f.b.OnDungeonEnter(f.members[0], dungeon.MapDeadmines, 7, 0)
	f.b.OnDungeonEnter(f.members[1], dungeon.MapDeadmines, 7, 0)
	assert.Equal(t, 2, dm.Players())
	assert.Equal(t, autonomy.StateActive, f.am.State(f.g))
	assert.Equal(t, []uint32{dungeon.MapDeadmines}, f.b.DungeonMaps())

	f.b.OnDungeonExit(f.members[0])
	assert.Equal(t, autonomy.StateActive, f.am.State(f.g), "a member is still inside")
	f.b.OnDungeonExit(f.members[1])
	assert.Equal(t, autonomy.StateDisabled, f.am.State(f.g))
	assert.Zero(t, dm.Players())

	f.b.OnDungeonExit(f.members[1]) // not inside any more
	require.Len(t, trace, 4)
	assert.Equal(t, instance.InstanceEntered, trace[0].Type)
	assert.Equal(t, f.g, trace[0].Group)
	assert.Equal(t, instance.InstanceLeft, trace[3].Type)
}

func TestAutoEnableKeepsPause(t *testing.T) {
	f := newFixture(t, Config{AutoEnable: true})
	f.am.Pause(f.g, f.leader, "wait for me")
	f.b.OnDungeonEnter(f.members[0], dungeon.MapDeadmines, 7, 0)
	assert.Equal(t, autonomy.StatePaused, f.am.State(f.g))
}

func TestEncounterReachesScripts(t *testing.T) {
	f := newFixture(t, Config{})
	dm := dungeon.NewDeadmines()
	vc := dungeon.NewVanCleef()
	require.NoError(t, f.reg.Register(dm))
	require.NoError(t, f.reg.Register(vc))
	f.reg.Freeze()

	boss := ident.NewEntityID()
	f.buses.Instance.Publish(instance.NewEncounterStarted(f.leader, boss, f.g, dungeon.MapDeadmines, dungeon.EntryVanCleef))
	assert.Equal(t, 1, vc.Engagements())

	f.buses.Instance.Publish(instance.NewEncounterEnded(f.leader, boss, f.g, dungeon.MapDeadmines, dungeon.EntryVanCleef, true))
	f.buses.Instance.Publish(instance.NewBossKilled(f.leader, boss, f.g, dungeon.MapDeadmines, dungeon.EntryVanCleef))
	assert.True(t, dm.Killed(dungeon.EntryVanCleef))
}
