// Package combat is the combat event domain: damage, healing, casts, threat
// and death.
package combat

import (
	"fmt"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
)

type Type uint8

const (
	DamageTaken Type = iota
	DamageDealt
	Healed
	SpellCastStart
	SpellCastGo
	SpellInterrupted
	CombatStarted
	CombatEnded
	UnitDied
	AggroGained
	AggroLost
	ThreatUpdate
	typeCount
)

var typeNames = []string{
	"DamageTaken",
	"DamageDealt",
	"Healed",
	"SpellCastStart",
	"SpellCastGo",
	"SpellInterrupted",
	"CombatStarted",
	"CombatEnded",
	"UnitDied",
	"AggroGained",
	"AggroLost",
	"ThreatUpdate",
}

var defaults = []event.Priority{
	DamageTaken:      event.PriorityHigh,
	DamageDealt:      event.PriorityMedium,
	Healed:           event.PriorityMedium,
	SpellCastStart:   event.PriorityHigh,
	SpellCastGo:      event.PriorityMedium,
	SpellInterrupted: event.PriorityMedium,
	CombatStarted:    event.PriorityHigh,
	CombatEnded:      event.PriorityHigh,
	UnitDied:         event.PriorityHigh,
	AggroGained:      event.PriorityCritical,
	AggroLost:        event.PriorityHigh,
	ThreatUpdate:     event.PriorityBatch,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("combat.Type(%d)", uint8(t))
}

// Event is one combat event. Source is the attacker, caster or healer and
// Target the unit affected. Group, when set, lets the autonomy manager key
// the event to a party.
type Event struct {
	event.Header
	Type  Type           `json:"type"`
	Group ident.EntityID `json:"group,omitempty"`

	Spell         uint32 `json:"spell,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
	Overkill      int64  `json:"overkill,omitempty"`
	School        uint8  `json:"school,omitempty"`
	Crit          bool   `json:"crit,omitempty"`
	Interruptible bool   `json:"interruptible,omitempty"`
	CastTimeMs    uint32 `json:"cast_time_ms,omitempty"`
	Threat        int64  `json:"threat,omitempty"`
}

func (e Event) Head() event.Header            { return e.Header }
func (e Event) WithHead(h event.Header) Event { e.Header = h; return e }
func (e Event) TypeIndex() int                { return int(e.Type) }

func (e Event) Validate() error {
	if e.Type >= typeCount {
		return fmt.Errorf("%w: combat type %d", event.ErrInvalidEvent, e.Type)
	}
	if e.Source.IsEmpty() {
		return fmt.Errorf("%w: %s without source", event.ErrInvalidEvent, e.Type)
	}
	switch e.Type {
	case DamageTaken, DamageDealt, Healed, UnitDied, AggroGained, AggroLost, ThreatUpdate:
		if e.Target.IsEmpty() {
			return fmt.Errorf("%w: %s without target", event.ErrInvalidEvent, e.Type)
		}
	}
	if e.Amount < 0 {
		return fmt.Errorf("%w: negative amount %d", event.ErrInvalidEvent, e.Amount)
	}
	return nil
}

type Bus = event.Bus[Event, Type]

var Descriptor = event.Descriptor[Event]{
	Name:      "combat",
	TypeNames: typeNames,
	Defaults:  defaults,
	GroupKey:  func(e Event) ident.EntityID { return e.Group },
}

func NewBus(opts event.Options) *Bus {
	return event.NewBus[Event, Type](Descriptor, opts)
}

// ---------- factories ----------

func NewDamageTaken(victim, attacker ident.EntityID, spell uint32, amount int64, school uint8) Event {
	return Event{
		Header: event.Header{Source: attacker, Target: victim},
		Type:   DamageTaken, Spell: spell, Amount: amount, School: school,
	}
}

func NewDamageDealt(attacker, victim ident.EntityID, spell uint32, amount, overkill int64, crit bool) Event {
	return Event{
		Header: event.Header{Source: attacker, Target: victim},
		Type:   DamageDealt, Spell: spell, Amount: amount, Overkill: overkill, Crit: crit,
	}
}

func NewHealed(healer, target ident.EntityID, spell uint32, amount int64, crit bool) Event {
	return Event{
		Header: event.Header{Source: healer, Target: target},
		Type:   Healed, Spell: spell, Amount: amount, Crit: crit,
	}
}

// NewSpellCastStart announces a cast in progress; Interruptible marks casts
// an interrupt can stop.
func NewSpellCastStart(caster, target ident.EntityID, spell, castMs uint32, interruptible bool) Event {
	return Event{
		Header: event.Header{Source: caster, Target: target},
		Type:   SpellCastStart, Spell: spell, CastTimeMs: castMs, Interruptible: interruptible,
	}
}

func NewSpellCastGo(caster, target ident.EntityID, spell uint32) Event {
	return Event{Header: event.Header{Source: caster, Target: target}, Type: SpellCastGo, Spell: spell}
}

func NewSpellInterrupted(caster, interrupter ident.EntityID, spell uint32) Event {
	return Event{Header: event.Header{Source: caster, Target: interrupter}, Type: SpellInterrupted, Spell: spell}
}

func NewCombatStarted(unit, enemy ident.EntityID) Event {
	return Event{Header: event.Header{Source: unit, Target: enemy}, Type: CombatStarted}
}

func NewCombatEnded(unit ident.EntityID) Event {
	return Event{Header: event.Header{Source: unit}, Type: CombatEnded}
}

func NewUnitDied(killer, victim ident.EntityID) Event {
	if killer.IsEmpty() {
		killer = victim
	}
	return Event{Header: event.Header{Source: killer, Target: victim}, Type: UnitDied}
}

func NewAggroGained(enemy, victim ident.EntityID) Event {
	return Event{Header: event.Header{Source: enemy, Target: victim}, Type: AggroGained}
}

func NewAggroLost(enemy, victim ident.EntityID) Event {
	return Event{Header: event.Header{Source: enemy, Target: victim}, Type: AggroLost}
}

func NewThreatUpdate(enemy, unit ident.EntityID, threat int64) Event {
	return Event{Header: event.Header{Source: enemy, Target: unit}, Type: ThreatUpdate, Threat: threat}
}

// ForGroup returns a copy keyed to g.
func (e Event) ForGroup(g ident.EntityID) Event {
	e.Group = g
	return e
}
