package autonomy

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/data"
	"github.com/l1jgo/playerbot/internal/events/combat"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/host/memhost"
	"github.com/l1jgo/playerbot/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestTankPullsNearestPack(t *testing.T) {
	p := newParty(t)
	lead := p.spawn(100, 25, 0, nil)
	second := p.spawn(100, 27, 2, nil)
	p.spawn(100, 60, 60, nil) // out of reach

	require.Equal(t, StateActive, p.m.Enable(p.group, Config{}))
	assert.True(t, p.m.Update(p.tank, 100*time.Millisecond))

	st := p.status(t)
	assert.Equal(t, StatePulling, st.State)
	assert.Equal(t, lead, st.PullTarget)
	assert.Equal(t, p.clk.Now(), st.LastPull)

	g, _ := p.h.Group(p.group)
	assert.Equal(t, lead, g.Icons[iconSkull])
	assert.Equal(t, second, g.Icons[iconCross])

	require.Equal(t, 1, p.h.CountCommands(memhost.CmdMove))
	mv := p.h.Commands()[2]
	assert.Equal(t, p.tank, mv.Agent)
	assert.InDelta(t, 21, mv.Pos.X, 0.01)
	assert.Equal(t, uint64(3), st.Counters.Actions)
}

func TestPullCycle(t *testing.T) {
	p := newParty(t)
	lead := p.spawn(100, 25, 0, nil)
	p.m.Enable(p.group, Config{})
	p.m.Update(p.tank, 0)
	require.Equal(t, StatePulling, p.m.State(p.group))

	p.m.OnCombatEvent(combat.NewDamageTaken(p.tank, lead, 0, 120, 0).ForGroup(p.group))
	st := p.status(t)
	assert.Equal(t, StateCombat, st.State)
	assert.Equal(t, uint64(1), st.Counters.Pulls)

	p.kill(lead)
	p.m.OnCombatEvent(combat.NewCombatEnded(p.tank).ForGroup(p.group))
	assert.Equal(t, StateRecovering, p.m.State(p.group))

	p.clk.Advance(time.Second)
	p.m.Update(p.tank, 0)
	assert.Equal(t, StateRecovering, p.m.State(p.group), "recovery timer still running")

	p.clk.Advance(3 * time.Second)
	p.m.Update(p.tank, 0)
	st = p.status(t)
	assert.Equal(t, StateWaiting, st.State)
	assert.Equal(t, reasonNoPack, st.WaitReason)
}

func TestCombatFallsBackToHostFlags(t *testing.T) {
	p := newParty(t)
	p.spawn(100, 25, 0, nil)
	p.m.Enable(p.group, Config{})
	p.m.Update(p.tank, 0)

	p.setInCombat(true)
	p.tickAll()
	assert.Equal(t, StateCombat, p.m.State(p.group))
	assert.Equal(t, uint64(1), p.status(t).Counters.Pulls)

	p.setInCombat(false)
	p.tickAll()
	assert.Equal(t, StateRecovering, p.m.State(p.group))
}

func TestPullTargetDiedIsNotCounted(t *testing.T) {
	p := newParty(t)
	lead := p.spawn(100, 25, 0, nil)
	p.m.Enable(p.group, Config{})
	p.m.Update(p.tank, 0)

	p.kill(lead)
	p.m.OnCombatEvent(combat.NewUnitDied(ident.Empty, lead).ForGroup(p.group))

	st := p.status(t)
	assert.Equal(t, StateActive, st.State)
	assert.Equal(t, uint64(0), st.Counters.Pulls)
	assert.Equal(t, uint64(1), st.Counters.Aborted)
	assert.True(t, st.PullTarget.IsEmpty())
}

func TestPullTargetDespawned(t *testing.T) {
	p := newParty(t)
	lead := p.spawn(100, 25, 0, nil)
	p.m.Enable(p.group, Config{})
	p.m.Update(p.tank, 0)

	p.h.RemoveUnit(lead)
	p.m.Update(p.healer, 0)

	st := p.status(t)
	assert.Equal(t, StateActive, st.State)
	assert.Equal(t, uint64(1), st.Counters.Aborted)
}

func TestPullTimeout(t *testing.T) {
	p := newParty(t)
	p.spawn(100, 25, 0, nil)
	p.m.Enable(p.group, Config{})
	p.m.Update(p.tank, 0)

	p.clk.Advance(14 * time.Second)
	p.m.Update(p.healer, 0)
	assert.Equal(t, StatePulling, p.m.State(p.group))

	p.clk.Advance(time.Second)
	p.m.Update(p.healer, 0)
	st := p.status(t)
	assert.Equal(t, StateActive, st.State)
	assert.Equal(t, uint64(1), st.Counters.Timeouts)
	assert.Equal(t, uint64(0), st.Counters.Pulls)
}

func TestPullConditions(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(p *party)
		cfg    func(c *Config)
		reason string
	}{
		{
			name: "group health",
			setup: func(p *party) {
				p.h.UpdateUnit(p.melee, func(u *host.Unit) { u.Health = 10 })
				p.h.UpdateUnit(p.ranged, func(u *host.Unit) { u.Health = 20 })
			},
			reason: reasonHealth,
		},
		{
			name:   "healer mana",
			setup:  func(p *party) { p.h.UpdateUnit(p.healer, func(u *host.Unit) { u.Power = 30 }) },
			reason: reasonMana,
		},
		{
			name:   "straggler",
			setup:  func(p *party) { p.h.UpdateUnit(p.ranged, func(u *host.Unit) { u.Pos = world.Position{X: -50} }) },
			reason: reasonStragglers,
		},
		{
			name:   "straggler ignored",
			setup:  func(p *party) { p.h.UpdateUnit(p.ranged, func(u *host.Unit) { u.Pos = world.Position{X: -50} }) },
			cfg:    func(c *Config) { c.WaitForSlowMembers = false },
			reason: "",
		},
		{
			name:   "pack too large",
			setup:  func(p *party) { p.spawn(100, 26, -1, nil) },
			cfg:    func(c *Config) { c.MaxPullSize = 2 },
			reason: reasonPackTooBig,
		},
		{
			name:   "passive",
			cfg:    func(c *Config) { *c = Preset(Passive) },
			reason: reasonPassive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParty(t)
			p.spawn(100, 25, 0, nil)
			p.spawn(100, 27, 2, nil)
			if tt.setup != nil {
				tt.setup(p)
			}
			cfg := DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			p.m.Enable(p.group, cfg)
			p.m.Update(p.tank, 0)

			st := p.status(t)
			if tt.reason == "" {
				assert.Equal(t, StatePulling, st.State)
				return
			}
			assert.Equal(t, StateWaiting, st.State)
			assert.Equal(t, tt.reason, st.WaitReason)
			assert.Zero(t, p.h.CountCommands(memhost.CmdRaidIcon))
		})
	}
}

func TestRespectCrowdControl(t *testing.T) {
	sheep := func(u *host.Unit) { u.Auras = []host.Aura{{Spell: 118, Harmful: true}} }

	t.Run("skips controlled mob", func(t *testing.T) {
		p := newParty(t)
		p.spawn(100, 25, 0, sheep)
		free := p.spawn(100, 27, 2, nil)
		p.m.Enable(p.group, Config{})
		p.m.Update(p.tank, 0)
		assert.Equal(t, free, p.status(t).PullTarget)
		assert.Equal(t, 1, p.h.CountCommands(memhost.CmdRaidIcon), "only the free mob is marked")
	})

	t.Run("whole pack controlled", func(t *testing.T) {
		p := newParty(t)
		p.spawn(100, 25, 0, sheep)
		p.m.Enable(p.group, Config{})
		p.m.Update(p.tank, 0)
		st := p.status(t)
		assert.Equal(t, StateWaiting, st.State)
		assert.Equal(t, reasonOnlyCCMobs, st.WaitReason)
	})
}

const routeYAML = `
dungeons:
  - map_id: 36
    name: Test Mine
    packs:
      - id: 1
        name: near
        pos: {x: 20, y: 0, z: 0}
        radius: 6
        entries: [100]
      - id: 2
        name: far
        pos: {x: 35, y: 0, z: 0}
        radius: 6
        entries: [100]
`

func TestRouteDrivesPullOrder(t *testing.T) {
	tbl, err := data.ParseDungeonTable([]byte(routeYAML))
	require.NoError(t, err)

	p := newParty(t, WithDungeons(tbl))
	near := p.spawn(100, 21, 1, nil)
	p.spawn(200, 19, -1, nil) // wrong entry, ignored
	far := p.spawn(100, 36, 0, nil)

	p.m.Enable(p.group, Config{})
	p.m.Update(p.tank, 0)
	st := p.status(t)
	require.Equal(t, StatePulling, st.State)
	assert.Equal(t, uint32(1), st.Pack)
	assert.Equal(t, near, st.PullTarget)
	assert.Equal(t, 1, p.h.CountCommands(memhost.CmdRaidIcon))

	p.m.OnCombatEvent(combat.NewAggroGained(near, p.tank).ForGroup(p.group))
	p.kill(near)
	p.m.OnCombatEvent(combat.NewCombatEnded(p.tank).ForGroup(p.group))
	assert.Equal(t, 1, p.status(t).PacksCleared)

	p.clk.Advance(5 * time.Second)
	p.m.Update(p.tank, 0)
	st = p.status(t)
	assert.Equal(t, StatePulling, st.State)
	assert.Equal(t, uint32(2), st.Pack)
	assert.Equal(t, far, st.PullTarget)
}

// Pause suppresses pull: a paused group issues nothing for 100 ticks and its
// state change time moves exactly once.
func TestPauseSuppressesPull(t *testing.T) {
	p := newParty(t)
	p.spawn(100, 25, 0, nil)
	p.spawn(100, 27, 2, nil)
	require.Equal(t, StateActive, p.m.Enable(p.group, Preset(Normal)))
	before := p.status(t)

	player := ident.NewEntityID()
	p.clk.Advance(time.Second)
	pausedAt := p.clk.Now()
	require.True(t, p.m.Pause(p.group, player, "lunch"))

	for i := 0; i < 100; i++ {
		p.clk.Advance(100 * time.Millisecond)
		for _, id := range p.members() {
			assert.False(t, p.m.Update(id, 100*time.Millisecond))
		}
	}

	st := p.status(t)
	assert.Equal(t, StatePaused, st.State)
	assert.Equal(t, StateActive, st.Underlying)
	assert.Zero(t, p.h.CountCommands(memhost.CmdMove))
	assert.Zero(t, p.h.CountCommands(memhost.CmdRaidIcon))
	assert.Equal(t, pausedAt, st.LastStateChange)
	assert.Equal(t, before.Counters.StateChanges+1, st.Counters.StateChanges)
	assert.Equal(t, player, st.PausedBy)
	assert.Equal(t, "lunch", st.PauseReason)
	assert.Equal(t, uint64(400), st.Counters.Suppressed)
	assert.Zero(t, st.Counters.Actions)
}

func TestPauseIsIdempotent(t *testing.T) {
	p := newParty(t)
	p.m.Enable(p.group, Config{})
	p.clk.Advance(time.Second)
	first := p.clk.Now()
	require.True(t, p.m.Pause(p.group, p.tank, "a"))
	p.clk.Advance(time.Second)
	assert.False(t, p.m.Pause(p.group, p.healer, "b"))

	st := p.status(t)
	assert.Equal(t, first, st.LastStateChange)
	assert.Equal(t, p.tank, st.PausedBy)
	assert.Equal(t, "a", st.PauseReason)
}

func TestPauseSurvivesEnableAndLeaderChange(t *testing.T) {
	p := newParty(t)
	p.spawn(100, 25, 0, nil)
	p.m.Pause(p.group, p.tank, "from last session")

	assert.Equal(t, StatePaused, p.m.Enable(p.group, Config{}))
	p.h.UpdateGroup(p.group, func(g *host.Group) { g.Leader = p.healer })
	p.tickAll()
	assert.Equal(t, StatePaused, p.m.State(p.group))
	assert.Zero(t, len(p.h.Commands()))

	state, err := p.m.Resume(p.group, p.healer)
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)
	p.m.Update(p.tank, 0)
	assert.Equal(t, StatePulling, p.m.State(p.group))
}

func TestResume(t *testing.T) {
	t.Run("errors", func(t *testing.T) {
		p := newParty(t)
		_, err := p.m.Resume(p.group, p.tank)
		assert.ErrorIs(t, err, ErrUnknownGroup)
		p.m.Enable(p.group, Config{})
		_, err = p.m.Resume(p.group, p.tank)
		assert.ErrorIs(t, err, ErrNotPaused)
	})

	t.Run("abandons pull", func(t *testing.T) {
		p := newParty(t)
		p.spawn(100, 25, 0, nil)
		p.m.Enable(p.group, Config{})
		p.m.Update(p.tank, 0)
		p.m.Pause(p.group, p.tank, "")
		state, err := p.m.Resume(p.group, p.tank)
		require.NoError(t, err)
		assert.Equal(t, StateActive, state)
		assert.True(t, p.status(t).PullTarget.IsEmpty())
	})

	t.Run("combat ended while paused", func(t *testing.T) {
		p := newParty(t)
		p.m.Enable(p.group, Config{})
		p.m.OnCombatEvent(combat.NewCombatStarted(p.tank, ident.NewEntityID()).ForGroup(p.group))
		require.Equal(t, StateCombat, p.m.State(p.group))
		p.m.Pause(p.group, p.tank, "")
		state, err := p.m.Resume(p.group, p.tank)
		require.NoError(t, err)
		assert.Equal(t, StateRecovering, state)
	})
}

func TestToggle(t *testing.T) {
	p := newParty(t)
	p.m.Enable(p.group, Config{})
	state, err := p.m.Toggle(p.group, p.tank)
	require.NoError(t, err)
	assert.Equal(t, StatePaused, state)
	state, err = p.m.Toggle(p.group, p.tank)
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)
}

func TestDisableKeepsPause(t *testing.T) {
	p := newParty(t)
	p.m.Enable(p.group, Config{})
	p.m.Pause(p.group, p.tank, "")
	p.m.Disable(p.group)
	st := p.status(t)
	assert.Equal(t, StatePaused, st.State)
	assert.Equal(t, StateDisabled, st.Underlying)

	_, err := p.m.Resume(p.group, p.tank)
	require.NoError(t, err)
	assert.Equal(t, StateDisabled, p.m.State(p.group))
	assert.False(t, p.m.Update(p.tank, 0))
}

func TestLeaveDungeon(t *testing.T) {
	p := newParty(t)
	p.spawn(100, 25, 0, nil)
	p.m.Enable(p.group, Config{})
	p.m.Update(p.tank, 0)
	p.m.OnLeaveDungeon(p.group)

	st := p.status(t)
	assert.Equal(t, StateDisabled, st.State)
	assert.True(t, st.PullTarget.IsEmpty())
	assert.False(t, p.m.Update(p.tank, 0))
}

func TestGroupDisbanded(t *testing.T) {
	p := newParty(t)
	p.spawn(100, 25, 0, nil)
	p.m.Enable(p.group, Config{})
	p.m.Update(p.tank, 0)

	assert.True(t, p.m.OnGroupDisbanded(p.group))
	assert.False(t, p.m.OnGroupDisbanded(p.group))
	_, ok := p.m.Snapshot(p.group)
	assert.False(t, ok)
	for _, id := range p.members() {
		assert.False(t, p.m.Update(id, 0))
	}
	assert.Equal(t, StateDisabled, p.m.State(p.group))
}

func TestSetAggression(t *testing.T) {
	p := newParty(t)
	assert.ErrorIs(t, p.m.SetAggression(p.group, Reckless), ErrUnknownGroup)
	p.m.Enable(p.group, Config{})
	require.NoError(t, p.m.SetAggression(p.group, Reckless))
	cfg := p.status(t).Config
	assert.Equal(t, Reckless, cfg.Aggression)
	assert.True(t, cfg.ChainPull)
	assert.False(t, cfg.WaitForSlowMembers)
	assert.ErrorIs(t, p.m.SetAggression(p.group, Aggression(9)), ErrUnknownAggression)
}

func TestParseAggression(t *testing.T) {
	a, err := ParseAggression(" Aggressive ")
	require.NoError(t, err)
	assert.Equal(t, Aggressive, a)
	_, err = ParseAggression("berserk")
	assert.ErrorIs(t, err, ErrUnknownAggression)
}

func TestRolesInCombat(t *testing.T) {
	p := newParty(t)
	mob := p.spawn(100, 5, 0, nil)
	p.m.Enable(p.group, Config{})
	p.setInCombat(true)
	p.m.OnCombatEvent(combat.NewCombatStarted(p.tank, mob).ForGroup(p.group))
	require.Equal(t, StateCombat, p.m.State(p.group))

	assert.False(t, p.m.Update(p.healer, 0), "healing stays with the agent")
	assert.False(t, p.m.Update(p.melee, 0), "nothing to assist yet")

	p.h.UpdateUnit(p.tank, func(u *host.Unit) { u.Target = mob })
	assert.True(t, p.m.Update(p.melee, 0))
	casts := p.h.Commands()
	require.Len(t, casts, 1)
	assert.Equal(t, memhost.CmdCast, casts[0].Kind)
	assert.Equal(t, mob, casts[0].Target)
	assert.Equal(t, host.SpellAutoAttack, casts[0].Spell)
}

func TestFollowTank(t *testing.T) {
	p := newParty(t)
	p.m.Enable(p.group, Config{})
	p.h.UpdateUnit(p.ranged, func(u *host.Unit) { u.Pos = world.Position{X: -28} })
	assert.True(t, p.m.Update(p.ranged, 0))
	mv := p.h.Commands()
	require.Len(t, mv, 1)
	assert.Equal(t, memhost.CmdMove, mv[0].Kind)
	assert.InDelta(t, -rangedFollow/2, mv[0].Pos.X, 0.01)
}

func TestChangeHook(t *testing.T) {
	var got []Change
	p := newParty(t, WithChangeHook(func(c Change) { got = append(got, c) }))
	p.m.Enable(p.group, Config{})
	p.m.Pause(p.group, p.healer, "afk")
	p.m.Resume(p.group, p.healer)

	require.Len(t, got, 3)
	assert.Equal(t, StateActive, got[0].To)
	assert.Equal(t, StatePaused, got[1].To)
	assert.Equal(t, p.healer, got[1].By)
	assert.Equal(t, "afk", got[1].Reason)
	assert.Equal(t, StatePaused, got[2].From)
	assert.Equal(t, StateActive, got[2].To)
}

func TestAttachCombatBus(t *testing.T) {
	p := newParty(t)
	lead := p.spawn(100, 25, 0, nil)
	bus := combat.NewBus(event.Options{Now: p.clk.Now, Log: zaptest.NewLogger(t)})
	p.m.Attach(bus)
	p.m.Enable(p.group, Config{})
	p.m.Update(p.tank, 0)

	require.True(t, bus.Publish(combat.NewAggroGained(lead, p.tank).ForGroup(p.group)))
	assert.Equal(t, StateCombat, p.m.State(p.group))
}

// No command leaves the manager while the group is paused, whatever mix of
// ticks, combat traffic and config changes happens meanwhile.
func TestPausedGroupNeverActs(t *testing.T) {
	total := 0
	for seed := uint64(1); seed <= 25; seed++ {
		p := newParty(t)
		rng := rand.New(rand.NewPCG(seed, 99))
		var mobs []ident.EntityID
		for i := 0; i < 4; i++ {
			mobs = append(mobs, p.spawn(100, 15+rng.Float32()*20, rng.Float32()*10-5, nil))
		}
		p.m.Enable(p.group, Config{})
		paused := false

		for step := 0; step < 200; step++ {
			before := len(p.h.Commands())
			wasPaused := paused
			mob := mobs[rng.IntN(len(mobs))]
			switch rng.IntN(9) {
			case 0:
				p.m.Pause(p.group, p.members()[rng.IntN(4)], "random")
				paused = true
			case 1:
				if _, err := p.m.Resume(p.group, p.tank); err == nil {
					paused = false
				}
			case 2, 3, 4:
				p.tickAll()
			case 5:
				p.m.OnCombatEvent(combat.NewDamageTaken(p.tank, mob, 0, 50, 0).ForGroup(p.group))
			case 6:
				p.m.OnCombatEvent(combat.NewCombatEnded(p.tank).ForGroup(p.group))
			case 7:
				if rng.IntN(2) == 0 {
					p.kill(mob)
				} else {
					p.h.UpdateUnit(mob, func(u *host.Unit) { u.Alive = true })
				}
			case 8:
				p.m.SetAggression(p.group, Aggression(rng.IntN(5)))
				p.setInCombat(rng.IntN(2) == 0)
			}
			if wasPaused && paused {
				require.Equal(t, before, len(p.h.Commands()), "seed %d step %d", seed, step)
				require.Equal(t, StatePaused, p.m.State(p.group))
			}
		}
		total += len(p.h.Commands())
	}
	assert.Positive(t, total, "unpaused stretches should have produced commands")
}
