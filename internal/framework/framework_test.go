package framework

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/l1jgo/playerbot/internal/agent"
	"github.com/l1jgo/playerbot/internal/autonomy"
	"github.com/l1jgo/playerbot/internal/config"
	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/events/group"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/host/memhost"
	"github.com/l1jgo/playerbot/internal/net/packet"
	"github.com/l1jgo/playerbot/internal/persist"
	"github.com/l1jgo/playerbot/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testMap = 36

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	clk     *clock
	h       *memhost.Host
	fw      *Framework
	g       ident.EntityID
	members []ident.EntityID // tank, healer, then DPS
	agents  []*agent.Agent
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Scripts.Enabled = false
	cfg.Terrain.WarmHotspots = false
	cfg.Autonomy.AutoEnable = false
	return cfg
}

func newHarness(t *testing.T, size int, opts ...Option) *harness {
	t.Helper()
	clk := &clock{t: time.Date(2024, 5, 4, 18, 0, 0, 0, time.UTC)}
	hs := &harness{
		clk: clk,
		h:   memhost.New(memhost.WithClock(clk.Now)),
		g:   ident.NewEntityID(),
	}
	roles := []host.Role{host.RoleTank, host.RoleHealer, host.RoleMeleeDPS, host.RoleRangedDPS, host.RoleRangedDPS}
	hg := host.Group{ID: hs.g}
	for i := 0; i < size; i++ {
		id := ident.NewEntityID()
		hs.members = append(hs.members, id)
		hg.Members = append(hg.Members, host.GroupMember{ID: id, Role: roles[i]})
		hs.h.PutUnit(host.Unit{
			ID: id, Map: testMap, Pos: world.Position{X: -float32(i) * 2}, Alive: true,
			Health: 100, MaxHealth: 100, Power: 100, MaxPower: 100,
		})
	}
	hg.Leader = hs.members[0]
	hs.h.PutGroup(hg)

	all := append([]Option{WithClock(clk.Now)}, opts...)
	fw, err := New(testConfig(), hs.h, zaptest.NewLogger(t), all...)
	require.NoError(t, err)
	t.Cleanup(fw.Close)
	hs.fw = fw

	for _, id := range hs.members {
		a, err := fw.Agents.Spawn(id, nil)
		require.NoError(t, err)
		hs.agents = append(hs.agents, a)
	}
	return hs
}

func (hs *harness) tick(d time.Duration) {
	hs.clk.Advance(d)
	hs.fw.Tick(d)
}

// spawnMob places a hostile creature in front of the group.
func (hs *harness) spawnMob(x, y float32) ident.EntityID {
	id := ident.NewEntityID()
	pos := world.Position{X: x, Y: y}
	hs.h.PutUnit(host.Unit{ID: id, Entry: 100, Map: testMap, Pos: pos, Alive: true, Hostile: true, Health: 100, MaxHealth: 100})
	hs.fw.Maps.Grid(testMap).Update(id, pos)
	return id
}

// broadcast hands p to every member's session, the way the host sends a
// group packet to each client.
func (hs *harness) broadcast(p packet.Packet) {
	for _, id := range hs.members {
		hs.fw.Sniffer.OnTypedPacket(hs.h.NewSession(id, true), p)
	}
}

func TestReadyCheckLifecycle(t *testing.T) {
	hs := newHarness(t, 5)
	leader := hs.members[0]

	hs.broadcast(&packet.ReadyCheckStart{Group: hs.g, Initiator: leader, DurationMs: 30000})
	hs.tick(100 * time.Millisecond)
	for _, m := range hs.members[1:] {
		hs.broadcast(&packet.ReadyCheckResponse{Group: hs.g, Member: m, Ready: true})
		hs.tick(time.Second)
	}
	for i := 0; i < 30; i++ {
		hs.tick(time.Second)
	}

	want := []string{
		"ReadyCheckStarted",
		"ReadyCheckResponse", "ReadyCheckResponse", "ReadyCheckResponse", "ReadyCheckResponse",
		"ReadyCheckCompleted",
	}
	for _, a := range hs.agents {
		assert.Equal(t, want, a.Trace("group"), a.ID().Short())
	}

	recent := hs.agents[2].Recent()
	started, ok := recent[0].Event.(group.Event)
	require.True(t, ok)
	assert.Equal(t, leader, started.Source)
	assert.Equal(t, 30*time.Second, started.Duration)
	done := recent[len(recent)-1].Event.(group.Event)
	assert.Equal(t, 5, done.Count)
	assert.Empty(t, done.Members)

	st := hs.fw.BusStats()[0]
	assert.Equal(t, "group", st.Bus)
	assert.Equal(t, uint64(6), st.Published)
}

func TestPauseSuppressesPull(t *testing.T) {
	hs := newHarness(t, 4)
	hs.spawnMob(25, 0)
	hs.spawnMob(27, 2)
	tank, healer := hs.members[0], hs.members[1]

	state, err := hs.fw.EnableAutonomy(tank)
	require.NoError(t, err)
	require.Equal(t, autonomy.StateActive, state)
	require.NoError(t, hs.fw.SetAggression(tank, "normal"))
	before, err := hs.fw.AutonomyStatus(tank)
	require.NoError(t, err)

	hs.clk.Advance(time.Second)
	pausedAt := hs.clk.Now()
	changed, err := hs.fw.PauseAutonomy(healer, "lunch")
	require.NoError(t, err)
	require.True(t, changed)

	for i := 0; i < 100; i++ {
		hs.tick(100 * time.Millisecond)
	}

	st, err := hs.fw.AutonomyStatus(healer)
	require.NoError(t, err)
	assert.Equal(t, autonomy.StatePaused, st.State)
	assert.Equal(t, autonomy.StateActive, st.Underlying)
	assert.Zero(t, hs.h.CountCommands(memhost.CmdMove))
	assert.Zero(t, hs.h.CountCommands(memhost.CmdRaidIcon))
	assert.Equal(t, pausedAt, st.LastStateChange)
	assert.Equal(t, before.Counters.StateChanges+1, st.Counters.StateChanges)
	assert.Equal(t, healer, st.PausedBy)
	for _, a := range hs.agents {
		total, auto := a.Ticks()
		assert.Equal(t, uint64(100), total)
		assert.Zero(t, auto)
	}

	changed, err = hs.fw.PauseAutonomy(tank, "again")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestToggleAndResume(t *testing.T) {
	hs := newHarness(t, 4)
	tank := hs.members[0]
	_, err := hs.fw.EnableAutonomy(tank)
	require.NoError(t, err)

	state, err := hs.fw.ToggleAutonomy(tank)
	require.NoError(t, err)
	assert.Equal(t, autonomy.StatePaused, state)

	state, err = hs.fw.ToggleAutonomy(tank)
	require.NoError(t, err)
	assert.NotEqual(t, autonomy.StatePaused, state)

	_, err = hs.fw.ResumeAutonomy(tank)
	assert.ErrorIs(t, err, autonomy.ErrNotPaused)
}

func TestControlSurfaceErrors(t *testing.T) {
	hs := newHarness(t, 4)
	stranger := ident.NewEntityID()

	_, err := hs.fw.PauseAutonomy(stranger, "x")
	assert.ErrorIs(t, err, ErrNotInGroup)
	_, err = hs.fw.AutonomyStatus(hs.members[0])
	assert.ErrorIs(t, err, ErrNoAutonomy)
	assert.ErrorIs(t, hs.fw.SetAggression(hs.members[0], "normal"), ErrNoAutonomy)
	assert.ErrorIs(t, hs.fw.SetAggression(hs.members[0], "berserk"), autonomy.ErrUnknownAggression)
}

func TestGroupDisbandCleanup(t *testing.T) {
	hs := newHarness(t, 5)
	_, err := hs.fw.EnableAutonomy(hs.members[0])
	require.NoError(t, err)

	var global []group.Event
	hs.fw.Buses.Group.SubscribeCallback(func(e group.Event) { global = append(global, e) })

	hs.fw.Bridge.OnDisband(hs.g)
	hs.h.RemoveGroup(hs.g)

	require.Len(t, global, 1)
	assert.Equal(t, group.GroupDisbanded, global[0].Type)
	assert.Equal(t, event.PriorityCritical, global[0].Priority)

	_, ok := hs.fw.Autonomy.Snapshot(hs.g)
	assert.False(t, ok, "autonomy state cleared")
	_, ok = hs.fw.Bridge.State(hs.g)
	assert.False(t, ok, "group cache cleared")

	for _, a := range hs.agents {
		assert.Equal(t, []string{"GroupDisbanded"}, a.Trace("group"))
		assert.False(t, hs.fw.Buses.Group.IsSubscribed(a.ID()))
	}

	hs.tick(time.Second)
	require.True(t, hs.fw.Buses.PublishGroup(group.NewLeaderChanged(hs.g, hs.members[1], hs.members[0])))
	assert.Len(t, global, 2, "only global subscribers remain")
	for _, a := range hs.agents {
		assert.Equal(t, uint64(1), a.Received("group"))
	}
}

func TestDumpBusStats(t *testing.T) {
	hs := newHarness(t, 2)
	var buf bytes.Buffer
	require.NoError(t, hs.fw.DumpBusStats(&buf))
	assert.Contains(t, buf.String(), "group")
	assert.Contains(t, buf.String(), "instance")
	assert.Len(t, hs.fw.BusStats(), 11)
}

type fakeArchive struct {
	mu        sync.Mutex
	snapshots []persist.Snapshot
	changes   []autonomy.Change
}

func (f *fakeArchive) WriteSnapshot(_ context.Context, s persist.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, s)
	return nil
}

func (f *fakeArchive) WriteChanges(_ context.Context, cs []autonomy.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, cs...)
	return nil
}

func TestArchiveReceivesChangesAndSamples(t *testing.T) {
	sink := &fakeArchive{}
	hs := newHarness(t, 3, WithArchive(sink, sink))
	tank := hs.members[0]
	_, err := hs.fw.EnableAutonomy(tank)
	require.NoError(t, err)
	_, err = hs.fw.PauseAutonomy(tank, "afk")
	require.NoError(t, err)

	// default archive interval is one minute
	for i := 0; i < 61; i++ {
		hs.tick(time.Second)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.NotEmpty(t, sink.snapshots)
	assert.Len(t, sink.snapshots[0].Buses, 11)
	var toPaused int
	for _, c := range sink.changes {
		if c.To == autonomy.StatePaused {
			toPaused++
			assert.Equal(t, "afk", c.Reason)
		}
	}
	assert.Equal(t, 1, toPaused)
}
