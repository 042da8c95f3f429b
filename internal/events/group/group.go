// Package group is the group-lifecycle event domain: membership, leadership,
// loot rules, raid icons, difficulty and ready checks.
package group

import (
	"fmt"
	"time"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
)

// Type 群組事件種類
type Type uint8

const (
	MemberJoined Type = iota
	MemberLeft
	LeaderChanged
	GroupDisbanded
	InviteReceived
	InviteDeclined
	LootMethodChanged
	LootThresholdChanged
	MasterLooterChanged
	TargetIconChanged
	DifficultyChanged
	ReadyCheckStarted
	ReadyCheckResponse
	ReadyCheckCompleted
	SubgroupChanged
	RaidConverted
	StateSync
	typeCount
)

var typeNames = []string{
	"MemberJoined",
	"MemberLeft",
	"LeaderChanged",
	"GroupDisbanded",
	"InviteReceived",
	"InviteDeclined",
	"LootMethodChanged",
	"LootThresholdChanged",
	"MasterLooterChanged",
	"TargetIconChanged",
	"DifficultyChanged",
	"ReadyCheckStarted",
	"ReadyCheckResponse",
	"ReadyCheckCompleted",
	"SubgroupChanged",
	"RaidConverted",
	"StateSync",
}

var defaults = []event.Priority{
	MemberJoined:         event.PriorityHigh,
	MemberLeft:           event.PriorityHigh,
	LeaderChanged:        event.PriorityHigh,
	GroupDisbanded:       event.PriorityCritical,
	InviteReceived:       event.PriorityMedium,
	InviteDeclined:       event.PriorityLow,
	LootMethodChanged:    event.PriorityLow,
	LootThresholdChanged: event.PriorityLow,
	MasterLooterChanged:  event.PriorityLow,
	TargetIconChanged:    event.PriorityMedium,
	DifficultyChanged:    event.PriorityMedium,
	ReadyCheckStarted:    event.PriorityHigh,
	ReadyCheckResponse:   event.PriorityLow,
	ReadyCheckCompleted:  event.PriorityHigh,
	SubgroupChanged:      event.PriorityLow,
	RaidConverted:        event.PriorityMedium,
	StateSync:            event.PriorityBatch,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("group.Type(%d)", uint8(t))
}

// DefaultPriority returns the table priority for t.
func DefaultPriority(t Type) event.Priority {
	if int(t) < len(defaults) {
		return defaults[t]
	}
	return event.PriorityMedium
}

// Member removal methods carried in Event.RemoveMethod.
const (
	RemoveLeave uint8 = iota
	RemoveKick
	RemoveOffline
	RemoveKickLfg
)

// Loot methods as the host reports them.
const (
	LootFreeForAll uint8 = iota
	LootRoundRobin
	LootMaster
	LootGroup
	LootNeedBeforeGreed
)

// Event is one group-domain event. Header.Source is the acting player
// (leader, inviter, kicker) and Header.Target the affected member.
type Event struct {
	event.Header
	Type  Type           `json:"type"`
	Group ident.EntityID `json:"group"`

	LootMethod   uint8            `json:"loot_method,omitempty"`
	Threshold    uint8            `json:"threshold,omitempty"`
	MasterLooter ident.EntityID   `json:"master_looter,omitempty"`
	IconSlot     uint8            `json:"icon_slot,omitempty"`
	Difficulty   uint8            `json:"difficulty,omitempty"`
	Subgroup     uint8            `json:"subgroup,omitempty"`
	RemoveMethod uint8            `json:"remove_method,omitempty"`
	Raid         bool             `json:"raid,omitempty"`
	Ready        bool             `json:"ready,omitempty"`
	Duration     time.Duration    `json:"duration,omitempty"`
	Count        int              `json:"count,omitempty"`
	Reason       string           `json:"reason,omitempty"`
	Members      []ident.EntityID `json:"members,omitempty"`
}

func (e Event) Head() event.Header            { return e.Header }
func (e Event) WithHead(h event.Header) Event { e.Header = h; return e }
func (e Event) TypeIndex() int                { return int(e.Type) }

// Validate checks the identifiers every group event must carry.
func (e Event) Validate() error {
	if e.Type >= typeCount {
		return fmt.Errorf("%w: group type %d", event.ErrInvalidEvent, e.Type)
	}
	if e.Group.IsEmpty() {
		return fmt.Errorf("%w: %s without group", event.ErrInvalidEvent, e.Type)
	}
	if e.Source.IsEmpty() {
		return fmt.Errorf("%w: %s without source", event.ErrInvalidEvent, e.Type)
	}
	switch e.Type {
	case MemberJoined, MemberLeft, ReadyCheckResponse, SubgroupChanged, InviteReceived, InviteDeclined:
		if e.Target.IsEmpty() {
			return fmt.Errorf("%w: %s without member", event.ErrInvalidEvent, e.Type)
		}
	case TargetIconChanged:
		if e.IconSlot >= 8 {
			return fmt.Errorf("%w: icon slot %d", event.ErrInvalidEvent, e.IconSlot)
		}
	}
	return nil
}

// Key identifies the change an event reports, ignoring timestamps and
// priority. Two events with equal keys describe the same host change.
type Key struct {
	Type         Type
	Group        ident.EntityID
	Source       ident.EntityID
	Target       ident.EntityID
	LootMethod   uint8
	Threshold    uint8
	MasterLooter ident.EntityID
	IconSlot     uint8
	Difficulty   uint8
	Subgroup     uint8
	RemoveMethod uint8
	Raid         bool
	Ready        bool
	Duration     time.Duration
	Count        int
}

func (e Event) Key() Key {
	return Key{
		Type: e.Type, Group: e.Group, Source: e.Source, Target: e.Target,
		LootMethod: e.LootMethod, Threshold: e.Threshold, MasterLooter: e.MasterLooter,
		IconSlot: e.IconSlot, Difficulty: e.Difficulty, Subgroup: e.Subgroup,
		RemoveMethod: e.RemoveMethod, Raid: e.Raid, Ready: e.Ready,
		Duration: e.Duration, Count: e.Count,
	}
}

// Bus is the group-domain bus.
type Bus = event.Bus[Event, Type]

// Descriptor describes the group domain. Batch draining is keyed by Group.
var Descriptor = event.Descriptor[Event]{
	Name:      "group",
	TypeNames: typeNames,
	Defaults:  defaults,
	GroupKey:  func(e Event) ident.EntityID { return e.Group },
}

func NewBus(opts event.Options) *Bus {
	return event.NewBus[Event, Type](Descriptor, opts)
}

// ---------- factories ----------

func first(ids ...ident.EntityID) ident.EntityID {
	for _, id := range ids {
		if !id.IsEmpty() {
			return id
		}
	}
	return ident.Empty
}

func base(t Type, g, src, dst ident.EntityID) Event {
	return Event{
		Header: event.Header{Source: first(src, g), Target: dst},
		Type:   t,
		Group:  g,
	}
}

func NewMemberJoined(g, member, leader ident.EntityID) Event {
	return base(MemberJoined, g, first(leader, member), member)
}

// NewMemberLeft covers leave, kick and offline removal. kicker is Empty for a
// voluntary leave.
func NewMemberLeft(g, member, kicker ident.EntityID, method uint8, reason string) Event {
	e := base(MemberLeft, g, first(kicker, member), member)
	e.RemoveMethod = method
	e.Reason = reason
	return e
}

func NewLeaderChanged(g, newLeader, oldLeader ident.EntityID) Event {
	return base(LeaderChanged, g, first(oldLeader, newLeader), newLeader)
}

func NewGroupDisbanded(g, leader ident.EntityID) Event {
	return base(GroupDisbanded, g, leader, ident.Empty)
}

func NewInviteReceived(g, inviter, invitee ident.EntityID) Event {
	return base(InviteReceived, g, inviter, invitee)
}

func NewInviteDeclined(g, invitee, inviter ident.EntityID) Event {
	return base(InviteDeclined, g, first(invitee, inviter), invitee)
}

func NewLootMethodChanged(g, leader ident.EntityID, method uint8, looter ident.EntityID) Event {
	e := base(LootMethodChanged, g, leader, ident.Empty)
	e.LootMethod = method
	e.MasterLooter = looter
	return e
}

func NewLootThresholdChanged(g, leader ident.EntityID, threshold uint8) Event {
	e := base(LootThresholdChanged, g, leader, ident.Empty)
	e.Threshold = threshold
	return e
}

func NewMasterLooterChanged(g, leader, looter ident.EntityID) Event {
	e := base(MasterLooterChanged, g, leader, looter)
	e.MasterLooter = looter
	return e
}

// NewTargetIconChanged reports a raid icon slot (0..7) now pointing at target.
// An Empty target means the icon was cleared.
func NewTargetIconChanged(g, setter ident.EntityID, slot uint8, target ident.EntityID) Event {
	e := base(TargetIconChanged, g, setter, target)
	e.IconSlot = slot
	return e
}

func NewDifficultyChanged(g, leader ident.EntityID, difficulty uint8, raid bool) Event {
	e := base(DifficultyChanged, g, leader, ident.Empty)
	e.Difficulty = difficulty
	e.Raid = raid
	return e
}

func NewReadyCheckStarted(g, initiator ident.EntityID, d time.Duration) Event {
	e := base(ReadyCheckStarted, g, initiator, ident.Empty)
	e.Duration = d
	return e
}

func NewReadyCheckResponse(g, member ident.EntityID, ready bool) Event {
	e := base(ReadyCheckResponse, g, member, member)
	e.Ready = ready
	return e
}

// NewReadyCheckCompleted carries the number of ready members and the members
// that did not answer ready.
func NewReadyCheckCompleted(g, initiator ident.EntityID, readyCount int, notReady []ident.EntityID) Event {
	e := base(ReadyCheckCompleted, g, initiator, ident.Empty)
	e.Count = readyCount
	if len(notReady) > 0 {
		e.Members = append([]ident.EntityID(nil), notReady...)
	}
	return e
}

func NewSubgroupChanged(g, member ident.EntityID, subgroup uint8) Event {
	e := base(SubgroupChanged, g, member, member)
	e.Subgroup = subgroup
	return e
}

func NewRaidConverted(g, leader ident.EntityID) Event {
	e := base(RaidConverted, g, leader, ident.Empty)
	e.Raid = true
	return e
}

// NewStateSync is the aggregate snapshot event, delivered in batches.
func NewStateSync(g, leader ident.EntityID, members []ident.EntityID) Event {
	e := base(StateSync, g, leader, ident.Empty)
	e.Members = append([]ident.EntityID(nil), members...)
	e.Count = len(members)
	return e
}
