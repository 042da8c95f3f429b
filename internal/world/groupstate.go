package world

import (
	"maps"
	"slices"
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
)

// ReadyCheck tracks one ready check in progress.
type ReadyCheck struct {
	Initiator ident.EntityID
	Started   time.Time
	Deadline  time.Time
	Responses map[ident.EntityID]bool // member → ready
}

// GroupState is the bridge's cached view of one host group. The poller diffs
// host snapshots against it and publishes only what changed.
type GroupState struct {
	ID           ident.EntityID
	Leader       ident.EntityID
	Members      []ident.EntityID
	LootMethod   uint8
	Threshold    uint8
	MasterLooter ident.EntityID
	Icons        [RaidIconSlots]ident.EntityID
	Difficulty   uint8
	Raid         bool
	Subgroups    map[ident.EntityID]uint8
	// InCombat is the last polled combat flag per member.
	InCombat map[ident.EntityID]bool

	ReadyCheckActive bool
	ReadyCheck       ReadyCheck

	Updated time.Time
}

func newGroupState(id ident.EntityID) *GroupState {
	return &GroupState{
		ID:        id,
		Subgroups: make(map[ident.EntityID]uint8),
		InCombat:  make(map[ident.EntityID]bool),
	}
}

// HasMember reports whether id is cached as a member.
func (g *GroupState) HasMember(id ident.EntityID) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Clone returns a copy of g that shares no slices or maps with it.
func (g *GroupState) Clone() GroupState {
	cp := *g
	cp.Members = slices.Clone(g.Members)
	cp.Subgroups = maps.Clone(g.Subgroups)
	cp.InCombat = maps.Clone(g.InCombat)
	cp.ReadyCheck.Responses = maps.Clone(g.ReadyCheck.Responses)
	return cp
}

// BeginReadyCheck starts ready-check bookkeeping. The initiator counts as
// ready.
func (g *GroupState) BeginReadyCheck(initiator ident.EntityID, now time.Time, d time.Duration) {
	g.ReadyCheckActive = true
	g.ReadyCheck = ReadyCheck{
		Initiator: initiator,
		Started:   now,
		Deadline:  now.Add(d),
		Responses: map[ident.EntityID]bool{initiator: true},
	}
}

// RecordReady stores one member's answer. Answers outside a ready check are
// ignored.
func (g *GroupState) RecordReady(member ident.EntityID, ready bool) {
	if !g.ReadyCheckActive {
		return
	}
	g.ReadyCheck.Responses[member] = ready
}

// ReadyCheckDone reports whether every member answered or the deadline passed.
func (g *GroupState) ReadyCheckDone(now time.Time) bool {
	if !g.ReadyCheckActive {
		return false
	}
	if !now.Before(g.ReadyCheck.Deadline) {
		return true
	}
	for _, m := range g.Members {
		if _, ok := g.ReadyCheck.Responses[m]; !ok {
			return false
		}
	}
	return len(g.Members) > 0
}

// EndReadyCheck clears the ready check and returns how many members were
// ready and which were not.
func (g *GroupState) EndReadyCheck() (ready int, notReady []ident.EntityID) {
	for _, m := range g.Members {
		if g.ReadyCheck.Responses[m] {
			ready++
		} else {
			notReady = append(notReady, m)
		}
	}
	g.ReadyCheckActive = false
	g.ReadyCheck = ReadyCheck{}
	return ready, notReady
}

// GroupStates caches GroupState per group.
// Accessed only from the world tick goroutine, no locks.
type GroupStates struct {
	groups      map[ident.EntityID]*GroupState
	memberGroup map[ident.EntityID]ident.EntityID
}

func NewGroupStates() *GroupStates {
	return &GroupStates{
		groups:      make(map[ident.EntityID]*GroupState),
		memberGroup: make(map[ident.EntityID]ident.EntityID),
	}
}

// Get returns the cached state for group, or nil.
func (s *GroupStates) Get(group ident.EntityID) *GroupState {
	return s.groups[group]
}

// Ensure returns the cached state for group, creating an empty one.
func (s *GroupStates) Ensure(group ident.EntityID) *GroupState {
	g := s.groups[group]
	if g == nil {
		g = newGroupState(group)
		s.groups[group] = g
	}
	return g
}

// GroupOf returns the group a member is cached in.
func (s *GroupStates) GroupOf(member ident.EntityID) (ident.EntityID, bool) {
	g, ok := s.memberGroup[member]
	return g, ok
}

// AddMember adds member to group, creating the group state if needed.
func (s *GroupStates) AddMember(group, member ident.EntityID) *GroupState {
	g := s.Ensure(group)
	if !g.HasMember(member) {
		g.Members = append(g.Members, member)
	}
	s.memberGroup[member] = group
	return g
}

// RemoveMember removes a single member. Does NOT dissolve an emptied group;
// the caller decides. Returns the remaining state, or nil if not found.
func (s *GroupStates) RemoveMember(member ident.EntityID) *GroupState {
	gid, ok := s.memberGroup[member]
	if !ok {
		return nil
	}
	delete(s.memberGroup, member)

	g := s.groups[gid]
	if g == nil {
		return nil
	}
	for i, id := range g.Members {
		if id == member {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			break
		}
	}
	delete(g.Subgroups, member)
	delete(g.InCombat, member)
	return g
}

// Dissolve removes the group and all member links.
func (s *GroupStates) Dissolve(group ident.EntityID) {
	g := s.groups[group]
	if g == nil {
		return
	}
	for _, id := range g.Members {
		delete(s.memberGroup, id)
	}
	delete(s.groups, group)
}

// IDs lists cached group ids.
func (s *GroupStates) IDs() []ident.EntityID {
	out := make([]ident.EntityID, 0, len(s.groups))
	for id := range s.groups {
		out = append(out, id)
	}
	return out
}

func (s *GroupStates) Len() int { return len(s.groups) }
