// Package cooldown is the cooldown event domain.
package cooldown

import (
	"fmt"
	"time"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
)

type Type uint8

const (
	SpellCooldownStarted Type = iota
	SpellCooldownCleared
	CategoryCooldown
	ItemCooldown
	GlobalCooldown
	typeCount
)

var typeNames = []string{
	"SpellCooldownStarted",
	"SpellCooldownCleared",
	"CategoryCooldown",
	"ItemCooldown",
	"GlobalCooldown",
}

var defaults = []event.Priority{
	SpellCooldownStarted: event.PriorityMedium,
	SpellCooldownCleared: event.PriorityMedium,
	CategoryCooldown:     event.PriorityLow,
	ItemCooldown:         event.PriorityLow,
	GlobalCooldown:       event.PriorityHigh,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("cooldown.Type(%d)", uint8(t))
}

// Event is a cooldown change for the unit in Source.
type Event struct {
	event.Header
	Type     Type          `json:"type"`
	Spell    uint32        `json:"spell,omitempty"`
	Category uint32        `json:"category,omitempty"`
	Item     uint32        `json:"item,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

func (e Event) Head() event.Header            { return e.Header }
func (e Event) WithHead(h event.Header) Event { e.Header = h; return e }
func (e Event) TypeIndex() int                { return int(e.Type) }

func (e Event) Validate() error {
	if e.Type >= typeCount {
		return fmt.Errorf("%w: cooldown type %d", event.ErrInvalidEvent, e.Type)
	}
	if e.Source.IsEmpty() {
		return fmt.Errorf("%w: %s without unit", event.ErrInvalidEvent, e.Type)
	}
	switch e.Type {
	case SpellCooldownStarted, SpellCooldownCleared:
		if e.Spell == 0 {
			return fmt.Errorf("%w: %s without spell", event.ErrInvalidEvent, e.Type)
		}
	case ItemCooldown:
		if e.Item == 0 {
			return fmt.Errorf("%w: %s without item", event.ErrInvalidEvent, e.Type)
		}
	}
	if e.Duration < 0 {
		return fmt.Errorf("%w: negative duration", event.ErrInvalidEvent)
	}
	return nil
}

type Bus = event.Bus[Event, Type]

var Descriptor = event.Descriptor[Event]{
	Name:      "cooldown",
	TypeNames: typeNames,
	Defaults:  defaults,
}

func NewBus(opts event.Options) *Bus {
	return event.NewBus[Event, Type](Descriptor, opts)
}

func NewSpellCooldownStarted(unit ident.EntityID, spell uint32, d time.Duration) Event {
	return Event{Header: event.Header{Source: unit}, Type: SpellCooldownStarted, Spell: spell, Duration: d}
}

func NewSpellCooldownCleared(unit ident.EntityID, spell uint32) Event {
	return Event{Header: event.Header{Source: unit}, Type: SpellCooldownCleared, Spell: spell}
}

func NewCategoryCooldown(unit ident.EntityID, category uint32, d time.Duration) Event {
	return Event{Header: event.Header{Source: unit}, Type: CategoryCooldown, Category: category, Duration: d}
}

func NewItemCooldown(unit ident.EntityID, item uint32, d time.Duration) Event {
	return Event{Header: event.Header{Source: unit}, Type: ItemCooldown, Item: item, Duration: d}
}

func NewGlobalCooldown(unit ident.EntityID, spell uint32, d time.Duration) Event {
	return Event{Header: event.Header{Source: unit}, Type: GlobalCooldown, Spell: spell, Duration: d}
}
