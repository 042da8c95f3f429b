// Package loot is the loot event domain: loot windows, rolls, items and money.
//
// Unset payload fields keep documented defaults: item and roll ids are 0 when
// unknown, money is 0, and item-bearing events carry Count 1 unless the
// packet says otherwise.
package loot

import (
	"fmt"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
)

type Type uint8

const (
	LootWindowOpened Type = iota
	LootRollStarted
	LootRollWon
	LootItemReceived
	LootMoneyReceived
	LootReleased
	LootAllPassed
	typeCount
)

var typeNames = []string{
	"LootWindowOpened",
	"LootRollStarted",
	"LootRollWon",
	"LootItemReceived",
	"LootMoneyReceived",
	"LootReleased",
	"LootAllPassed",
}

var defaults = []event.Priority{
	LootWindowOpened:  event.PriorityHigh,
	LootRollStarted:   event.PriorityHigh,
	LootRollWon:       event.PriorityMedium,
	LootItemReceived:  event.PriorityMedium,
	LootMoneyReceived: event.PriorityLow,
	LootReleased:      event.PriorityLow,
	LootAllPassed:     event.PriorityLow,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("loot.Type(%d)", uint8(t))
}

// RollVote 擲骰選項
type RollVote uint8

const (
	RollPass RollVote = iota
	RollNeed
	RollGreed
	RollDisenchant
)

// Event is one loot event. Source is the looting player and Target the
// corpse or container, when known.
type Event struct {
	event.Header
	Type     Type     `json:"type"`
	Item     uint32   `json:"item"`
	Count    uint32   `json:"count"`
	Money    uint64   `json:"money"`
	Slot     uint8    `json:"slot"`
	Roll     uint32   `json:"roll"` // roll id assigned by the host
	Vote     RollVote `json:"vote"`
	RollDice uint8    `json:"roll_dice"`
	Items    []uint32 `json:"items,omitempty"`
}

func (e Event) Head() event.Header            { return e.Header }
func (e Event) WithHead(h event.Header) Event { e.Header = h; return e }
func (e Event) TypeIndex() int                { return int(e.Type) }

func (e Event) Validate() error {
	if e.Type >= typeCount {
		return fmt.Errorf("%w: loot type %d", event.ErrInvalidEvent, e.Type)
	}
	if e.Source.IsEmpty() {
		return fmt.Errorf("%w: %s without looter", event.ErrInvalidEvent, e.Type)
	}
	switch e.Type {
	case LootRollWon, LootItemReceived:
		if e.Item == 0 {
			return fmt.Errorf("%w: %s without item", event.ErrInvalidEvent, e.Type)
		}
		if e.Count == 0 {
			return fmt.Errorf("%w: %s with zero count", event.ErrInvalidEvent, e.Type)
		}
	}
	return nil
}

type Bus = event.Bus[Event, Type]

var Descriptor = event.Descriptor[Event]{
	Name:      "loot",
	TypeNames: typeNames,
	Defaults:  defaults,
}

func NewBus(opts event.Options) *Bus {
	return event.NewBus[Event, Type](Descriptor, opts)
}

func NewLootWindowOpened(looter, corpse ident.EntityID, money uint64, items []uint32) Event {
	e := Event{Header: event.Header{Source: looter, Target: corpse}, Type: LootWindowOpened, Money: money}
	if len(items) > 0 {
		e.Items = append([]uint32(nil), items...)
	}
	return e
}

func NewLootRollStarted(looter, corpse ident.EntityID, roll, item uint32, slot uint8) Event {
	return Event{
		Header: event.Header{Source: looter, Target: corpse},
		Type:   LootRollStarted, Roll: roll, Item: item, Slot: slot, Count: 1,
	}
}

func NewLootRollWon(winner ident.EntityID, roll, item uint32, vote RollVote, dice uint8) Event {
	return Event{
		Header: event.Header{Source: winner},
		Type:   LootRollWon, Roll: roll, Item: item, Count: 1, Vote: vote, RollDice: dice,
	}
}

// NewLootItemReceived defaults count to 1.
func NewLootItemReceived(looter ident.EntityID, item, count uint32) Event {
	if count == 0 {
		count = 1
	}
	return Event{Header: event.Header{Source: looter}, Type: LootItemReceived, Item: item, Count: count}
}

func NewLootMoneyReceived(looter ident.EntityID, money uint64) Event {
	return Event{Header: event.Header{Source: looter}, Type: LootMoneyReceived, Money: money}
}

func NewLootReleased(looter, corpse ident.EntityID) Event {
	return Event{Header: event.Header{Source: looter, Target: corpse}, Type: LootReleased}
}

func NewLootAllPassed(looter ident.EntityID, roll, item uint32) Event {
	return Event{Header: event.Header{Source: looter}, Type: LootAllPassed, Roll: roll, Item: item, Count: 1}
}
