// Package npc is the NPC-interaction event domain.
package npc

import (
	"fmt"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
)

type Type uint8

const (
	GossipMenu Type = iota
	VendorInventory
	TrainerList
	BankerOpened
	FlightMasterOpened
	SpiritHealerConfirm
	NpcTextUpdate
	typeCount
)

var typeNames = []string{
	"GossipMenu",
	"VendorInventory",
	"TrainerList",
	"BankerOpened",
	"FlightMasterOpened",
	"SpiritHealerConfirm",
	"NpcTextUpdate",
}

var defaults = []event.Priority{
	GossipMenu:          event.PriorityMedium,
	VendorInventory:     event.PriorityLow,
	TrainerList:         event.PriorityLow,
	BankerOpened:        event.PriorityLow,
	FlightMasterOpened:  event.PriorityLow,
	SpiritHealerConfirm: event.PriorityHigh,
	NpcTextUpdate:       event.PriorityBatch,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("npc.Type(%d)", uint8(t))
}

// Event is one NPC interaction. Source is the agent, Target the NPC.
type Event struct {
	event.Header
	Type  Type     `json:"type"`
	Menu  uint32   `json:"menu,omitempty"`
	Text  uint32   `json:"text,omitempty"`
	Title string   `json:"title,omitempty"`
	Items []uint32 `json:"items,omitempty"` // menu options, vendor items or trainer spells
}

func (e Event) Head() event.Header            { return e.Header }
func (e Event) WithHead(h event.Header) Event { e.Header = h; return e }
func (e Event) TypeIndex() int                { return int(e.Type) }

func (e Event) Validate() error {
	if e.Type >= typeCount {
		return fmt.Errorf("%w: npc type %d", event.ErrInvalidEvent, e.Type)
	}
	if e.Source.IsEmpty() || e.Target.IsEmpty() {
		return fmt.Errorf("%w: %s without agent or npc", event.ErrInvalidEvent, e.Type)
	}
	return nil
}

type Bus = event.Bus[Event, Type]

var Descriptor = event.Descriptor[Event]{
	Name:      "npc",
	TypeNames: typeNames,
	Defaults:  defaults,
}

func NewBus(opts event.Options) *Bus {
	return event.NewBus[Event, Type](Descriptor, opts)
}

func list(ids []uint32) []uint32 {
	if len(ids) == 0 {
		return nil
	}
	return append([]uint32(nil), ids...)
}

func NewGossipMenu(agent, npc ident.EntityID, menu, text uint32, options []uint32) Event {
	return Event{Header: event.Header{Source: agent, Target: npc}, Type: GossipMenu, Menu: menu, Text: text, Items: list(options)}
}

func NewVendorInventory(agent, npc ident.EntityID, items []uint32) Event {
	return Event{Header: event.Header{Source: agent, Target: npc}, Type: VendorInventory, Items: list(items)}
}

func NewTrainerList(agent, npc ident.EntityID, spells []uint32, title string) Event {
	return Event{Header: event.Header{Source: agent, Target: npc}, Type: TrainerList, Items: list(spells), Title: title}
}

func NewBankerOpened(agent, npc ident.EntityID) Event {
	return Event{Header: event.Header{Source: agent, Target: npc}, Type: BankerOpened}
}

func NewFlightMasterOpened(agent, npc ident.EntityID, nodes []uint32) Event {
	return Event{Header: event.Header{Source: agent, Target: npc}, Type: FlightMasterOpened, Items: list(nodes)}
}

func NewSpiritHealerConfirm(agent, npc ident.EntityID) Event {
	return Event{Header: event.Header{Source: agent, Target: npc}, Type: SpiritHealerConfirm}
}

func NewNpcTextUpdate(agent, npc ident.EntityID, text uint32) Event {
	return Event{Header: event.Header{Source: agent, Target: npc}, Type: NpcTextUpdate, Text: text}
}
