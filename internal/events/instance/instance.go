// Package instance is the dungeon/raid instance event domain.
package instance

import (
	"fmt"
	"time"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
)

type Type uint8

const (
	InstanceEntered Type = iota
	InstanceLeft
	InstanceReset
	InstanceLockout
	EncounterStarted
	EncounterEnded
	BossKilled
	InstanceMessage
	DifficultyWarning
	typeCount
)

var typeNames = []string{
	"InstanceEntered",
	"InstanceLeft",
	"InstanceReset",
	"InstanceLockout",
	"EncounterStarted",
	"EncounterEnded",
	"BossKilled",
	"InstanceMessage",
	"DifficultyWarning",
}

var defaults = []event.Priority{
	InstanceEntered:   event.PriorityHigh,
	InstanceLeft:      event.PriorityHigh,
	InstanceReset:     event.PriorityMedium,
	InstanceLockout:   event.PriorityLow,
	EncounterStarted:  event.PriorityCritical,
	EncounterEnded:    event.PriorityHigh,
	BossKilled:        event.PriorityHigh,
	InstanceMessage:   event.PriorityLow,
	DifficultyWarning: event.PriorityMedium,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("instance.Type(%d)", uint8(t))
}

// Event is one instance event. Source is the player, Target the boss for
// encounter events.
type Event struct {
	event.Header
	Type       Type           `json:"type"`
	Group      ident.EntityID `json:"group,omitempty"`
	Map        uint32         `json:"map"`
	Instance   uint32         `json:"instance,omitempty"`
	Difficulty uint8          `json:"difficulty,omitempty"`
	Boss       uint32         `json:"boss,omitempty"` // creature entry
	Success    bool           `json:"success,omitempty"`
	ResetIn    time.Duration  `json:"reset_in,omitempty"`
	Message    string         `json:"message,omitempty"`
}

func (e Event) Head() event.Header            { return e.Header }
func (e Event) WithHead(h event.Header) Event { e.Header = h; return e }
func (e Event) TypeIndex() int                { return int(e.Type) }

func (e Event) Validate() error {
	if e.Type >= typeCount {
		return fmt.Errorf("%w: instance type %d", event.ErrInvalidEvent, e.Type)
	}
	if e.Source.IsEmpty() {
		return fmt.Errorf("%w: %s without player", event.ErrInvalidEvent, e.Type)
	}
	switch e.Type {
	case EncounterStarted, EncounterEnded, BossKilled:
		if e.Boss == 0 {
			return fmt.Errorf("%w: %s without boss entry", event.ErrInvalidEvent, e.Type)
		}
	}
	return nil
}

type Bus = event.Bus[Event, Type]

var Descriptor = event.Descriptor[Event]{
	Name:      "instance",
	TypeNames: typeNames,
	Defaults:  defaults,
	GroupKey:  func(e Event) ident.EntityID { return e.Group },
}

func NewBus(opts event.Options) *Bus {
	return event.NewBus[Event, Type](Descriptor, opts)
}

func NewInstanceEntered(player, group ident.EntityID, mapID, instanceID uint32, difficulty uint8) Event {
	return Event{
		Header: event.Header{Source: player},
		Type:   InstanceEntered, Group: group, Map: mapID, Instance: instanceID, Difficulty: difficulty,
	}
}

func NewInstanceLeft(player, group ident.EntityID, mapID uint32) Event {
	return Event{Header: event.Header{Source: player}, Type: InstanceLeft, Group: group, Map: mapID}
}

func NewInstanceReset(player ident.EntityID, mapID uint32) Event {
	return Event{Header: event.Header{Source: player}, Type: InstanceReset, Map: mapID}
}

func NewInstanceLockout(player ident.EntityID, mapID, instanceID uint32, resetIn time.Duration) Event {
	return Event{Header: event.Header{Source: player}, Type: InstanceLockout, Map: mapID, Instance: instanceID, ResetIn: resetIn}
}

func NewEncounterStarted(player, boss, group ident.EntityID, mapID, entry uint32) Event {
	return Event{Header: event.Header{Source: player, Target: boss}, Type: EncounterStarted, Group: group, Map: mapID, Boss: entry}
}

// NewEncounterEnded reports the encounter outcome; success=false is a wipe.
func NewEncounterEnded(player, boss, group ident.EntityID, mapID, entry uint32, success bool) Event {
	return Event{
		Header: event.Header{Source: player, Target: boss},
		Type:   EncounterEnded, Group: group, Map: mapID, Boss: entry, Success: success,
	}
}

func NewBossKilled(player, boss, group ident.EntityID, mapID, entry uint32) Event {
	return Event{
		Header: event.Header{Source: player, Target: boss},
		Type:   BossKilled, Group: group, Map: mapID, Boss: entry, Success: true,
	}
}

func NewInstanceMessage(player ident.EntityID, mapID uint32, msg string) Event {
	return Event{Header: event.Header{Source: player}, Type: InstanceMessage, Map: mapID, Message: msg}
}

func NewDifficultyWarning(player ident.EntityID, mapID uint32, difficulty uint8) Event {
	return Event{Header: event.Header{Source: player}, Type: DifficultyWarning, Map: mapID, Difficulty: difficulty}
}
