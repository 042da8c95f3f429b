package system

import (
	"time"

	"github.com/l1jgo/playerbot/internal/agent"
	"github.com/l1jgo/playerbot/internal/bridge"
	coresys "github.com/l1jgo/playerbot/internal/core/system"
	"github.com/l1jgo/playerbot/internal/dungeon"
	"github.com/l1jgo/playerbot/internal/events"
)

// GroupPollSystem diffs host group state on the bridge's poll interval.
// Phase 1 (PreUpdate).
type GroupPollSystem struct {
	bridge *bridge.Bridge
}

func NewGroupPollSystem(b *bridge.Bridge) *GroupPollSystem {
	return &GroupPollSystem{bridge: b}
}

func (s *GroupPollSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *GroupPollSystem) Update(dt time.Duration) { s.bridge.OnUpdate(dt) }

// EventDrainSystem delivers the batch events queued on every bus.
// Phase 2 (Update), ahead of the autonomy tick.
type EventDrainSystem struct {
	buses *events.Family
	max   int // per bus and tick, 0 = all
}

func NewEventDrainSystem(buses *events.Family, max int) *EventDrainSystem {
	return &EventDrainSystem{buses: buses, max: max}
}

func (s *EventDrainSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *EventDrainSystem) Update(dt time.Duration) { s.buses.ProcessEvents(dt, s.max) }

// AutonomySystem runs one autonomy update per agent. Phase 2 (Update).
type AutonomySystem struct {
	agents *agent.Manager
}

func NewAutonomySystem(agents *agent.Manager) *AutonomySystem {
	return &AutonomySystem{agents: agents}
}

func (s *AutonomySystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *AutonomySystem) Update(dt time.Duration) { s.agents.Tick(dt) }

// ScriptSystem ticks the dungeon scripts of the maps that hold players.
// Phase 3 (PostUpdate).
type ScriptSystem struct {
	scripts *dungeon.Registry
	maps    func() []uint32
}

func NewScriptSystem(scripts *dungeon.Registry, maps func() []uint32) *ScriptSystem {
	return &ScriptSystem{scripts: scripts, maps: maps}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *ScriptSystem) Update(dt time.Duration) {
	maps := s.maps()
	if len(maps) == 0 {
		return
	}
	s.scripts.Update(dt, maps)
}
