// Package dungeon holds per-dungeon behavior: the Script plugin interface,
// the closed mechanic taxonomy with a generic strategy for each mechanic,
// and the Registry that resolves "handle mechanic X for boss B" through a
// boss → map → generic fallback chain.
package dungeon

import (
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/world"
	"go.uber.org/zap"
)

// Encounter identifies one boss fight for the lifecycle hooks.
type Encounter struct {
	Boss  ident.EntityID
	Entry uint32
	Map   uint32
	Group ident.EntityID
}

// Handler executes one mechanic for the player in c.
type Handler func(c *Context) error

// Script is a dungeon plugin. A script either owns a map (RegisterScript)
// or is aliased by boss entry (RegisterBossScript), or both.
type Script interface {
	Name() string
	MapID() uint32
	// Bosses lists the creature entries the script wants boss lookups for.
	Bosses() []uint32

	// Overrides reports whether the script has its own handler for m.
	Overrides(m Mechanic) bool
	// HandleMechanic runs the script's handler for m, or the generic
	// strategy when the script does not override it.
	HandleMechanic(c *Context, m Mechanic) error
	// Adjust tunes the strategy parameters before any handler runs.
	Adjust(p *Params)

	OnDungeonEnter(player ident.EntityID, mapID uint32)
	OnDungeonExit(player ident.EntityID, mapID uint32)
	OnUpdate(diff time.Duration)
	OnBossEngage(e Encounter)
	OnBossKill(e Encounter)
	OnBossWipe(e Encounter)
}

// BaseScript provides the defaults every script gets: no overrides, generic
// strategies for every mechanic and no-op lifecycle hooks. Scripts embed it
// and call Override for the mechanics they handle themselves.
type BaseScript struct {
	name     string
	mapID    uint32
	bosses   []uint32
	handlers [mechanicCount]Handler

	// Tune, when set, is applied by Adjust.
	Tune func(p *Params)
}

func NewBaseScript(name string, mapID uint32, bosses ...uint32) BaseScript {
	return BaseScript{name: name, mapID: mapID, bosses: append([]uint32(nil), bosses...)}
}

func (b *BaseScript) Name() string     { return b.name }
func (b *BaseScript) MapID() uint32    { return b.mapID }
func (b *BaseScript) Bosses() []uint32 { return b.bosses }

// Override installs h for m. Must be called before the script is registered.
func (b *BaseScript) Override(m Mechanic, h Handler) {
	if m.Valid() {
		b.handlers[m] = h
	}
}

func (b *BaseScript) Overrides(m Mechanic) bool {
	return m.Valid() && b.handlers[m] != nil
}

func (b *BaseScript) HandleMechanic(c *Context, m Mechanic) error {
	if b.Overrides(m) {
		return b.handlers[m](c)
	}
	return Generic(c, m)
}

func (b *BaseScript) Adjust(p *Params) {
	if b.Tune != nil {
		b.Tune(p)
	}
}

func (b *BaseScript) OnDungeonEnter(ident.EntityID, uint32) {}
func (b *BaseScript) OnDungeonExit(ident.EntityID, uint32)  {}
func (b *BaseScript) OnUpdate(time.Duration)                {}
func (b *BaseScript) OnBossEngage(Encounter)                {}
func (b *BaseScript) OnBossKill(Encounter)                  {}
func (b *BaseScript) OnBossWipe(Encounter)                  {}

// Abilities are the player's spells the generic strategies may cast. Zero
// means the player has no such ability. Class rotations supply them.
type Abilities struct {
	Interrupt uint32
	Dispel    uint32
	// DispelMask selects aura.DispelType values the Dispel spell removes,
	// bit 1<<type. Zero removes any type.
	DispelMask uint8
	Taunt      uint32
}

// CanDispel reports whether the dispel spell removes dispel type t.
func (a Abilities) CanDispel(t uint8) bool {
	if a.Dispel == 0 || t == 0 {
		return false
	}
	return a.DispelMask == 0 || a.DispelMask&(1<<t) != 0
}

// Params tune the generic strategies. Distances are in yards.
type Params struct {
	Phase          uint32
	ScanRadius     float32
	InterruptRange float32
	MeleeRange     float32
	RangedDistance float32
	SpreadDistance float32
	StackRadius    float32
	Leash          float32
	// Tolerance is how far off its target spot a player may stand before
	// it is moved.
	Tolerance float32

	// TankSwap: the off-tank taunts once the active tank carries
	// SwapStacks of SwapAura.
	SwapAura   uint32
	SwapStacks uint8

	// PriorityEntries are adds killed before any other (healers, casters).
	PriorityEntries []uint32

	Abilities Abilities
}

// DefaultParams are the generic strategy defaults.
func DefaultParams() Params {
	return Params{
		ScanRadius:     40,
		InterruptRange: 30,
		MeleeRange:     5,
		RangedDistance: 25,
		SpreadDistance: 10,
		StackRadius:    3,
		Leash:          20,
		Tolerance:      2,
		SwapStacks:     3,
	}
}

// Context is everything a mechanic handler needs. It is built per call by
// the Registry.
type Context struct {
	Player host.Unit
	Role   host.Role
	// Boss is the zero Unit when no boss is engaged.
	Boss host.Unit
	// Group is the zero Group when the player is not grouped.
	Group  host.Group
	Params Params

	World   host.World
	Cmd     host.Commander
	Terrain *world.TerrainCache // may be nil
	Grid    *world.SpatialGrid  // may be nil
	Log     *zap.Logger

	onGeneric func(Mechanic)
}

func (c *Context) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// Move commands the player to pos.
func (c *Context) Move(pos world.Position) error {
	return c.Cmd.MoveTo(c.Player.ID, pos)
}

// MoveIfAway moves the player to pos unless already within Tolerance.
func (c *Context) MoveIfAway(pos world.Position) error {
	if c.Player.Pos.Dist2D(pos) <= c.Params.Tolerance {
		return nil
	}
	return c.Move(pos)
}

// Cast has the player cast spell on target.
func (c *Context) Cast(spell uint32, target ident.EntityID) error {
	return c.Cmd.CastSpell(c.Player.ID, spell, target)
}

// Attack switches the player's attack target.
func (c *Context) Attack(target ident.EntityID) error {
	return c.Cmd.CastSpell(c.Player.ID, host.SpellAutoAttack, target)
}

// HasBoss reports whether a live boss is engaged.
func (c *Context) HasBoss() bool { return !c.Boss.ID.IsEmpty() && c.Boss.Alive }

// Members resolves the live group members, the player included. An
// ungrouped player yields just itself.
func (c *Context) Members() []host.Unit {
	if len(c.Group.Members) == 0 {
		return []host.Unit{c.Player}
	}
	out := make([]host.Unit, 0, len(c.Group.Members))
	for _, m := range c.Group.Members {
		if m.ID == c.Player.ID {
			out = append(out, c.Player)
			continue
		}
		if u, ok := c.World.Unit(m.ID); ok && u.Alive && u.Map == c.Player.Map {
			out = append(out, u)
		}
	}
	return out
}

// MemberWithRole returns the first live member holding role r.
func (c *Context) MemberWithRole(r host.Role) (host.Unit, bool) {
	if c.Role == r {
		return c.Player, true
	}
	for _, m := range c.Group.Members {
		if m.ID == c.Player.ID || c.roleOf(m) != r {
			continue
		}
		if u, ok := c.World.Unit(m.ID); ok && u.Alive {
			return u, true
		}
	}
	return host.Unit{}, false
}

func (c *Context) roleOf(m host.GroupMember) host.Role {
	if m.Role != host.RoleNone {
		return m.Role
	}
	return c.World.Role(m.ID)
}

// Hostiles returns live hostile units within r of center, read from the
// spatial grid snapshot. Stale grid ids are skipped. The engaged boss is
// always considered.
func (c *Context) Hostiles(center world.Position, r float32) []host.Unit {
	var out []host.Unit
	seen := make(map[ident.EntityID]bool)
	if c.HasBoss() && c.Boss.Pos.Dist(center) <= r {
		out = append(out, c.Boss)
		seen[c.Boss.ID] = true
	}
	if c.Grid == nil {
		return out
	}
	for _, id := range c.Grid.QueryRadius(center, r) {
		if seen[id] {
			continue
		}
		u, ok := c.World.Unit(id)
		if !ok || !u.Alive || !u.Hostile || u.Map != c.Player.Map {
			continue
		}
		if u.Pos.Dist(center) > r {
			continue
		}
		seen[id] = true
		out = append(out, u)
	}
	return out
}

// Walkable reports whether the terrain cache knows ground at p. Without a
// cache every position is walkable.
func (c *Context) Walkable(p world.Position) (world.Position, bool) {
	if c.Terrain == nil {
		return p, true
	}
	t := c.Terrain.Get(p, c.Params.Phase)
	if !t.HasGround() || t.Liquid == world.LiquidUnderWater {
		return p, false
	}
	p.Z = t.Height
	return p, true
}
