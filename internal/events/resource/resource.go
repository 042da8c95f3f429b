// Package resource is the health/power event domain.
package resource

import (
	"fmt"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
)

type Type uint8

const (
	HealthChanged Type = iota
	PowerChanged
	ComboPointsChanged
	RuneStateChanged
	ResourceSync
	typeCount
)

var typeNames = []string{
	"HealthChanged",
	"PowerChanged",
	"ComboPointsChanged",
	"RuneStateChanged",
	"ResourceSync",
}

var defaults = []event.Priority{
	HealthChanged:      event.PriorityHigh,
	PowerChanged:       event.PriorityMedium,
	ComboPointsChanged: event.PriorityMedium,
	RuneStateChanged:   event.PriorityLow,
	ResourceSync:       event.PriorityBatch,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("resource.Type(%d)", uint8(t))
}

// PowerType 能量種類
type PowerType uint8

const (
	PowerMana PowerType = iota
	PowerRage
	PowerFocus
	PowerEnergy
	PowerRunic
)

// Event reports a resource value for the unit in Source.
type Event struct {
	event.Header
	Type    Type      `json:"type"`
	Power   PowerType `json:"power,omitempty"`
	Current uint32    `json:"current"`
	Max     uint32    `json:"max"`
	Runes   uint8     `json:"runes,omitempty"` // ready-rune bitmask
}

// Fraction returns Current/Max, or 0 when Max is unknown.
func (e Event) Fraction() float64 {
	if e.Max == 0 {
		return 0
	}
	return float64(e.Current) / float64(e.Max)
}

func (e Event) Head() event.Header            { return e.Header }
func (e Event) WithHead(h event.Header) Event { e.Header = h; return e }
func (e Event) TypeIndex() int                { return int(e.Type) }

func (e Event) Validate() error {
	if e.Type >= typeCount {
		return fmt.Errorf("%w: resource type %d", event.ErrInvalidEvent, e.Type)
	}
	if e.Source.IsEmpty() {
		return fmt.Errorf("%w: %s without unit", event.ErrInvalidEvent, e.Type)
	}
	if (e.Type == HealthChanged || e.Type == PowerChanged) && e.Max > 0 && e.Current > e.Max {
		return fmt.Errorf("%w: %s %d > max %d", event.ErrInvalidEvent, e.Type, e.Current, e.Max)
	}
	return nil
}

type Bus = event.Bus[Event, Type]

var Descriptor = event.Descriptor[Event]{
	Name:      "resource",
	TypeNames: typeNames,
	Defaults:  defaults,
}

func NewBus(opts event.Options) *Bus {
	return event.NewBus[Event, Type](Descriptor, opts)
}

func NewHealthChanged(unit ident.EntityID, current, max uint32) Event {
	return Event{Header: event.Header{Source: unit}, Type: HealthChanged, Current: current, Max: max}
}

func NewPowerChanged(unit ident.EntityID, p PowerType, current, max uint32) Event {
	return Event{Header: event.Header{Source: unit}, Type: PowerChanged, Power: p, Current: current, Max: max}
}

func NewComboPointsChanged(unit, target ident.EntityID, points uint8) Event {
	return Event{Header: event.Header{Source: unit, Target: target}, Type: ComboPointsChanged, Current: uint32(points), Max: 5}
}

func NewRuneStateChanged(unit ident.EntityID, ready uint8) Event {
	return Event{Header: event.Header{Source: unit}, Type: RuneStateChanged, Runes: ready}
}

func NewResourceSync(unit ident.EntityID, health, maxHealth uint32) Event {
	return Event{Header: event.Header{Source: unit}, Type: ResourceSync, Current: health, Max: maxHealth}
}
