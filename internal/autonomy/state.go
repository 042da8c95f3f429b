// Package autonomy runs the per-group dungeon state machine that lets a party
// of agents pull, fight and recover without a human issuing each order. A
// pause set by a player is absolute: no autonomous command leaves the
// manager while it is set.
package autonomy

import (
	"fmt"
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
)

// State 自主狀態
type State uint8

const (
	StateDisabled State = iota
	StatePaused
	StateActive
	StateWaiting
	StatePulling
	StateCombat
	StateRecovering
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "Disabled"
	case StatePaused:
		return "Paused"
	case StateActive:
		return "Active"
	case StateWaiting:
		return "Waiting"
	case StatePulling:
		return "Pulling"
	case StateCombat:
		return "Combat"
	case StateRecovering:
		return "Recovering"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Change is one visible state transition, reported to the change hook after
// the manager lock is released.
type Change struct {
	Group  ident.EntityID
	From   State
	To     State
	By     ident.EntityID // player that caused it, Empty for automatic changes
	Reason string
	At     time.Time
}

// Counters are cumulative per-group totals.
type Counters struct {
	Pulls        uint64 // pulls that reached combat
	Aborted      uint64 // pulls whose target became invalid
	Timeouts     uint64
	StateChanges uint64
	Actions      uint64 // commands issued to the host
	Suppressed   uint64 // ticks or commands withheld because of a pause
}

// Status is a read-only snapshot of one group's autonomy.
type Status struct {
	Group      ident.EntityID
	State      State // Paused when the pause flag is set
	Underlying State
	Config     Config

	PausedBy    ident.EntityID
	PauseReason string
	PausedAt    time.Time

	LastStateChange time.Time
	LastPull        time.Time
	Pack            uint32
	PullTarget      ident.EntityID
	WaitReason      string
	MapID           uint32
	PacksCleared    int

	Counters Counters
}
