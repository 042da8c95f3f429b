// Package quest is the quest event domain.
package quest

import (
	"fmt"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
)

type Type uint8

const (
	QuestOffered Type = iota
	QuestAccepted
	QuestProgress
	QuestCompleted
	QuestFailed
	QuestRewardOffered
	QuestGiverStatus
	typeCount
)

var typeNames = []string{
	"QuestOffered",
	"QuestAccepted",
	"QuestProgress",
	"QuestCompleted",
	"QuestFailed",
	"QuestRewardOffered",
	"QuestGiverStatus",
}

var defaults = []event.Priority{
	QuestOffered:       event.PriorityMedium,
	QuestAccepted:      event.PriorityMedium,
	QuestProgress:      event.PriorityLow,
	QuestCompleted:     event.PriorityHigh,
	QuestFailed:        event.PriorityHigh,
	QuestRewardOffered: event.PriorityMedium,
	QuestGiverStatus:   event.PriorityBatch,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("quest.Type(%d)", uint8(t))
}

// Event is one quest event. Source is the player, Target the quest giver.
type Event struct {
	event.Header
	Type      Type     `json:"type"`
	Quest     uint32   `json:"quest,omitempty"`
	Objective uint8    `json:"objective,omitempty"`
	Current   uint32   `json:"current,omitempty"`
	Required  uint32   `json:"required,omitempty"`
	Status    uint8    `json:"status,omitempty"`
	Title     string   `json:"title,omitempty"`
	Rewards   []uint32 `json:"rewards,omitempty"`
}

func (e Event) Head() event.Header            { return e.Header }
func (e Event) WithHead(h event.Header) Event { e.Header = h; return e }
func (e Event) TypeIndex() int                { return int(e.Type) }

func (e Event) Validate() error {
	if e.Type >= typeCount {
		return fmt.Errorf("%w: quest type %d", event.ErrInvalidEvent, e.Type)
	}
	if e.Source.IsEmpty() {
		return fmt.Errorf("%w: %s without player", event.ErrInvalidEvent, e.Type)
	}
	if e.Type != QuestGiverStatus && e.Quest == 0 {
		return fmt.Errorf("%w: %s without quest id", event.ErrInvalidEvent, e.Type)
	}
	if e.Type == QuestProgress && e.Required > 0 && e.Current > e.Required {
		return fmt.Errorf("%w: progress %d/%d", event.ErrInvalidEvent, e.Current, e.Required)
	}
	return nil
}

type Bus = event.Bus[Event, Type]

var Descriptor = event.Descriptor[Event]{
	Name:      "quest",
	TypeNames: typeNames,
	Defaults:  defaults,
}

func NewBus(opts event.Options) *Bus {
	return event.NewBus[Event, Type](Descriptor, opts)
}

func NewQuestOffered(player, giver ident.EntityID, quest uint32, title string) Event {
	return Event{Header: event.Header{Source: player, Target: giver}, Type: QuestOffered, Quest: quest, Title: title}
}

func NewQuestAccepted(player ident.EntityID, quest uint32) Event {
	return Event{Header: event.Header{Source: player}, Type: QuestAccepted, Quest: quest}
}

func NewQuestProgress(player ident.EntityID, quest uint32, objective uint8, current, required uint32) Event {
	return Event{
		Header: event.Header{Source: player},
		Type:   QuestProgress, Quest: quest, Objective: objective, Current: current, Required: required,
	}
}

func NewQuestCompleted(player ident.EntityID, quest uint32) Event {
	return Event{Header: event.Header{Source: player}, Type: QuestCompleted, Quest: quest}
}

func NewQuestFailed(player ident.EntityID, quest uint32) Event {
	return Event{Header: event.Header{Source: player}, Type: QuestFailed, Quest: quest}
}

func NewQuestRewardOffered(player, giver ident.EntityID, quest uint32, rewards []uint32) Event {
	e := Event{Header: event.Header{Source: player, Target: giver}, Type: QuestRewardOffered, Quest: quest}
	if len(rewards) > 0 {
		e.Rewards = append([]uint32(nil), rewards...)
	}
	return e
}

func NewQuestGiverStatus(player, giver ident.EntityID, status uint8) Event {
	return Event{Header: event.Header{Source: player, Target: giver}, Type: QuestGiverStatus, Status: status}
}
