package bridge

import (
	"sort"
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/events/combat"
	"github.com/l1jgo/playerbot/internal/events/group"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/world"
)

func sortIDs(ids []ident.EntityID) {
	sort.Slice(ids, func(i, j int) bool { return ident.Less(ids[i], ids[j]) })
}

// baseline copies the host snapshot into a fresh cache entry without
// publishing anything. Ready-check bookkeeping is left alone; it may have
// started before the first poll.
func (b *Bridge) baseline(st *world.GroupState, hg host.Group) {
	st.Leader = hg.Leader
	st.LootMethod = hg.LootMethod
	st.Threshold = hg.Threshold
	st.MasterLooter = hg.MasterLooter
	st.Icons = hg.Icons
	st.Difficulty = hg.Difficulty
	st.Raid = hg.Raid
	for _, m := range hg.Members {
		b.states.AddMember(st.ID, m.ID)
		st.Subgroups[m.ID] = m.Subgroup
	}
}

// diff appends one event per field that differs between the cache and the
// host, then updates the cache.
func (b *Bridge) diff(st *world.GroupState, hg host.Group, now time.Time, out []group.Event) []group.Event {
	id := st.ID
	if hg.Leader != st.Leader {
		out = append(out, group.NewLeaderChanged(id, hg.Leader, st.Leader))
		st.Leader = hg.Leader
	}

	current := make(map[ident.EntityID]bool, len(hg.Members))
	for _, m := range hg.Members {
		current[m.ID] = true
		if !st.HasMember(m.ID) {
			out = append(out, group.NewMemberJoined(id, m.ID, hg.Leader))
			b.states.AddMember(id, m.ID)
			st.Subgroups[m.ID] = m.Subgroup
		}
	}
	for _, m := range append([]ident.EntityID(nil), st.Members...) {
		if !current[m] {
			out = append(out, group.NewMemberLeft(id, m, ident.Empty, group.RemoveLeave, ""))
			b.states.RemoveMember(m)
		}
	}

	switch {
	case hg.LootMethod != st.LootMethod:
		out = append(out, group.NewLootMethodChanged(id, hg.Leader, hg.LootMethod, hg.MasterLooter))
	case hg.MasterLooter != st.MasterLooter:
		out = append(out, group.NewMasterLooterChanged(id, hg.Leader, hg.MasterLooter))
	}
	st.LootMethod, st.MasterLooter = hg.LootMethod, hg.MasterLooter

	if hg.Threshold != st.Threshold {
		out = append(out, group.NewLootThresholdChanged(id, hg.Leader, hg.Threshold))
		st.Threshold = hg.Threshold
	}
	for slot := range hg.Icons {
		if hg.Icons[slot] != st.Icons[slot] {
			out = append(out, group.NewTargetIconChanged(id, hg.Leader, uint8(slot), hg.Icons[slot]))
			st.Icons[slot] = hg.Icons[slot]
		}
	}
	if hg.Difficulty != st.Difficulty {
		out = append(out, group.NewDifficultyChanged(id, hg.Leader, hg.Difficulty, hg.Raid))
		st.Difficulty = hg.Difficulty
	}
	if hg.Raid && !st.Raid {
		out = append(out, group.NewRaidConverted(id, hg.Leader))
	}
	st.Raid = hg.Raid
	for _, m := range hg.Members {
		if sg, ok := st.Subgroups[m.ID]; ok && sg != m.Subgroup {
			out = append(out, group.NewSubgroupChanged(id, m.ID, m.Subgroup))
		}
		st.Subgroups[m.ID] = m.Subgroup
	}

	if st.ReadyCheckDone(now) {
		initiator := st.ReadyCheck.Initiator
		ready, notReady := st.EndReadyCheck()
		out = append(out, group.NewReadyCheckCompleted(id, initiator, ready, notReady))
	}
	return out
}

// diffCombat turns member combat-flag edges into combat events keyed to the
// group. The first poll of a group only records the flags.
func (b *Bridge) diffCombat(st *world.GroupState, hg host.Group, out []combat.Event) []combat.Event {
	first := st.Updated.IsZero()
	for _, m := range hg.Members {
		u, ok := b.world.Unit(m.ID)
		in := ok && u.Alive && u.InCombat
		was := st.InCombat[m.ID]
		st.InCombat[m.ID] = in
		if first || in == was {
			continue
		}
		if in {
			out = append(out, combat.NewCombatStarted(m.ID, u.Target).ForGroup(st.ID))
		} else {
			out = append(out, combat.NewCombatEnded(m.ID).ForGroup(st.ID))
		}
	}
	return out
}
