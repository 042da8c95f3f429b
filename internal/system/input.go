// Package system holds the per-tick framework systems run by the core
// system Runner, one per phase of the host world tick.
package system

import (
	"time"

	coresys "github.com/l1jgo/playerbot/internal/core/system"
	"github.com/l1jgo/playerbot/internal/events"
	"github.com/l1jgo/playerbot/internal/world"
)

// InputSystem publishes the spatial grid drafts written during the last tick
// and expires dedup gate entries. Phase 0 (Input).
type InputSystem struct {
	maps *world.MapCaches
	gate *events.Gate
}

func NewInputSystem(maps *world.MapCaches, gate *events.Gate) *InputSystem {
	return &InputSystem{maps: maps, gate: gate}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	s.maps.SwapAll()
	s.gate.Sweep()
}
