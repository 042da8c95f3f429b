// Package aura is the buff/debuff event domain.
package aura

import (
	"fmt"
	"time"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
)

type Type uint8

const (
	AuraApplied Type = iota
	AuraRemoved
	AuraStacksChanged
	AuraRefreshed
	DispellableDetected
	typeCount
)

var typeNames = []string{
	"AuraApplied",
	"AuraRemoved",
	"AuraStacksChanged",
	"AuraRefreshed",
	"DispellableDetected",
}

var defaults = []event.Priority{
	AuraApplied:         event.PriorityMedium,
	AuraRemoved:         event.PriorityMedium,
	AuraStacksChanged:   event.PriorityLow,
	AuraRefreshed:       event.PriorityLow,
	DispellableDetected: event.PriorityHigh,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("aura.Type(%d)", uint8(t))
}

// DispelType 驅散類型
type DispelType uint8

const (
	DispelNone DispelType = iota
	DispelMagic
	DispelCurse
	DispelDisease
	DispelPoison
)

// Event is one aura change. Source is the caster, Target the unit wearing it.
type Event struct {
	event.Header
	Type     Type          `json:"type"`
	Spell    uint32        `json:"spell"`
	Slot     uint8         `json:"slot,omitempty"`
	Stacks   uint8         `json:"stacks,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Harmful  bool          `json:"harmful,omitempty"`
	Dispel   DispelType    `json:"dispel,omitempty"`
}

func (e Event) Head() event.Header            { return e.Header }
func (e Event) WithHead(h event.Header) Event { e.Header = h; return e }
func (e Event) TypeIndex() int                { return int(e.Type) }

func (e Event) Validate() error {
	if e.Type >= typeCount {
		return fmt.Errorf("%w: aura type %d", event.ErrInvalidEvent, e.Type)
	}
	if e.Source.IsEmpty() || e.Target.IsEmpty() {
		return fmt.Errorf("%w: %s without caster or unit", event.ErrInvalidEvent, e.Type)
	}
	if e.Spell == 0 {
		return fmt.Errorf("%w: %s without spell", event.ErrInvalidEvent, e.Type)
	}
	if e.Type == DispellableDetected && e.Dispel == DispelNone {
		return fmt.Errorf("%w: dispellable aura without dispel type", event.ErrInvalidEvent)
	}
	return nil
}

type Bus = event.Bus[Event, Type]

var Descriptor = event.Descriptor[Event]{
	Name:      "aura",
	TypeNames: typeNames,
	Defaults:  defaults,
}

func NewBus(opts event.Options) *Bus {
	return event.NewBus[Event, Type](Descriptor, opts)
}

func NewAuraApplied(caster, unit ident.EntityID, spell uint32, slot, stacks uint8, d time.Duration, harmful bool) Event {
	if stacks == 0 {
		stacks = 1
	}
	return Event{
		Header: event.Header{Source: caster, Target: unit},
		Type:   AuraApplied, Spell: spell, Slot: slot, Stacks: stacks, Duration: d, Harmful: harmful,
	}
}

func NewAuraRemoved(caster, unit ident.EntityID, spell uint32, slot uint8) Event {
	return Event{Header: event.Header{Source: caster, Target: unit}, Type: AuraRemoved, Spell: spell, Slot: slot}
}

func NewAuraStacksChanged(caster, unit ident.EntityID, spell uint32, stacks uint8) Event {
	return Event{Header: event.Header{Source: caster, Target: unit}, Type: AuraStacksChanged, Spell: spell, Stacks: stacks}
}

func NewAuraRefreshed(caster, unit ident.EntityID, spell uint32, d time.Duration) Event {
	return Event{Header: event.Header{Source: caster, Target: unit}, Type: AuraRefreshed, Spell: spell, Duration: d}
}

// NewDispellableDetected flags a harmful aura a group member can remove.
func NewDispellableDetected(caster, unit ident.EntityID, spell uint32, dt DispelType) Event {
	return Event{
		Header: event.Header{Source: caster, Target: unit},
		Type:   DispellableDetected, Spell: spell, Harmful: true, Dispel: dt,
	}
}
