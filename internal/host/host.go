// Package host declares what the framework needs from the game server it
// runs inside. The host owns all authoritative world state; the framework
// only reads snapshots through World and acts through Commander.
package host

//go:generate go tool mockgen -destination=./mocks/host_mock.go -package=mocks . World,Geometry,Commander

import (
	"fmt"
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/world"
)

// Role 隊伍職責
type Role uint8

const (
	RoleNone Role = iota
	RoleTank
	RoleHealer
	RoleMeleeDPS
	RoleRangedDPS
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "None"
	case RoleTank:
		return "Tank"
	case RoleHealer:
		return "Healer"
	case RoleMeleeDPS:
		return "MeleeDPS"
	case RoleRangedDPS:
		return "RangedDPS"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// IsDPS reports whether r is either damage role.
func (r Role) IsDPS() bool { return r == RoleMeleeDPS || r == RoleRangedDPS }

// Session is the host's per-player networking context.
type Session interface {
	ID() uint64
	Player() ident.EntityID
}

// Aura is one aura on a unit snapshot.
type Aura struct {
	Spell   uint32
	Caster  ident.EntityID
	Stacks  uint8
	Harmful bool
	Dispel  uint8 // aura.DispelType
}

// Unit is a point-in-time snapshot of an in-world unit.
type Unit struct {
	ID        ident.EntityID
	Entry     uint32 // creature template, 0 for players
	Map       uint32
	Pos       world.Position
	Alive     bool
	Hostile   bool
	InCombat  bool
	Health    uint32
	MaxHealth uint32
	Power     uint32
	MaxPower  uint32
	Target    ident.EntityID

	// Casting is the spell being cast, 0 when idle.
	Casting       uint32
	Interruptible bool

	Auras []Aura
}

// HealthFraction returns Health/MaxHealth in [0,1].
func (u Unit) HealthFraction() float64 {
	if u.MaxHealth == 0 {
		return 0
	}
	return float64(u.Health) / float64(u.MaxHealth)
}

// PowerFraction returns Power/MaxPower; units without a power bar report 1.
func (u Unit) PowerFraction() float64 {
	if u.MaxPower == 0 {
		return 1
	}
	return float64(u.Power) / float64(u.MaxPower)
}

// AuraStacks returns the stack count of spell on u, 0 when absent.
func (u Unit) AuraStacks(spell uint32) uint8 {
	for _, a := range u.Auras {
		if a.Spell == spell {
			return a.Stacks
		}
	}
	return 0
}

// GroupMember is one member row of a Group snapshot.
type GroupMember struct {
	ID       ident.EntityID
	Subgroup uint8
	Role     Role
}

// Group is a snapshot of the host's group model.
type Group struct {
	ID           ident.EntityID
	Leader       ident.EntityID
	Members      []GroupMember
	LootMethod   uint8
	Threshold    uint8
	MasterLooter ident.EntityID
	Icons        [world.RaidIconSlots]ident.EntityID
	Difficulty   uint8
	Raid         bool
	// ReadyCheckUntil is the deadline of the ready check in progress, zero
	// when none is running.
	ReadyCheckUntil time.Time
}

// Member returns the row for id.
func (g Group) Member(id ident.EntityID) (GroupMember, bool) {
	for _, m := range g.Members {
		if m.ID == id {
			return m, true
		}
	}
	return GroupMember{}, false
}

// MemberIDs lists member ids in host order.
func (g Group) MemberIDs() []ident.EntityID {
	ids := make([]ident.EntityID, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}

// GroundEffect is a persistent area effect (fire, poison cloud, void zone).
type GroundEffect struct {
	ID      ident.EntityID
	Spell   uint32
	Pos     world.Position
	Radius  float32
	Hostile bool
}

// World is the read side of the host.
type World interface {
	IsAgentSession(s Session) bool
	Unit(id ident.EntityID) (Unit, bool)
	Group(id ident.EntityID) (Group, bool)
	// GroupOf returns the group id of member.
	GroupOf(member ident.EntityID) (ident.EntityID, bool)
	Role(id ident.EntityID) Role
	GroundEffects(mapID uint32, center world.Position, radius float32) []GroundEffect
}

// Geometry answers terrain queries. Calls are CPU-bound and may take
// hundreds of microseconds.
type Geometry interface {
	QueryTerrain(mapID uint32, pos world.Position, phase uint32) world.TerrainInfo
}

// SpellAutoAttack passed to CastSpell starts melee auto-attack on the target.
const SpellAutoAttack uint32 = 0

// Commander is the write side: every action the framework can take.
type Commander interface {
	MoveTo(agent ident.EntityID, pos world.Position) error
	CastSpell(agent ident.EntityID, spell uint32, target ident.EntityID) error
	SetRaidIcon(group ident.EntityID, slot uint8, target ident.EntityID) error
	SetLootMethod(group ident.EntityID, method uint8, master ident.EntityID) error
	StartReadyCheck(group, initiator ident.EntityID, d time.Duration) error
}
