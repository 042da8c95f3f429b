package scripting

import (
	"fmt"
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/dungeon"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Script is a dungeon.Script backed by the table a Lua file passed to
// register_dungeon. Mechanic overrides are the table's handle_<mechanic>
// functions; lifecycle hooks are on_dungeon_enter, on_dungeon_exit,
// on_update, on_boss_engage, on_boss_kill and on_boss_wipe.
//
// A handler receives a context table and returns a list of actions:
//
//	{ type = "move", x = 1, y = 2, z = 3 }
//	{ type = "cast", spell = 133, target = "boss" }
//	{ type = "attack", target = "<entity id>" }
//	{ type = "generic" }
//
// Targets may be "boss", "self", "tank", "healer" or an entity id string.
type Script struct {
	e      *Engine
	tbl    *lua.LTable
	name   string
	mapID  uint32
	bosses []uint32

	handlers [dungeon.NumMechanics]*lua.LFunction
	params   *lua.LTable
}

var _ dungeon.Script = (*Script)(nil)

func newScript(e *Engine, tbl *lua.LTable) (*Script, error) {
	s := &Script{
		e:     e,
		tbl:   tbl,
		name:  lStr(tbl, "name"),
		mapID: uint32(lInt(tbl, "map_id")),
	}
	if s.name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrBadScript)
	}
	if b, ok := tbl.RawGetString("bosses").(*lua.LTable); ok {
		b.ForEach(func(_, v lua.LValue) {
			if n, ok := v.(lua.LNumber); ok && n > 0 {
				s.bosses = append(s.bosses, uint32(n))
			}
		})
	}
	if s.mapID == 0 && len(s.bosses) == 0 {
		return nil, fmt.Errorf("%w: %s has neither map_id nor bosses", ErrBadScript, s.name)
	}
	for _, m := range dungeon.Mechanics() {
		if fn, ok := tbl.RawGetString("handle_" + m.String()).(*lua.LFunction); ok {
			s.handlers[m] = fn
		}
	}
	if p, ok := tbl.RawGetString("params").(*lua.LTable); ok {
		s.params = p
	}
	return s, nil
}

func (s *Script) Name() string     { return s.name }
func (s *Script) MapID() uint32    { return s.mapID }
func (s *Script) Bosses() []uint32 { return s.bosses }

func (s *Script) Overrides(m dungeon.Mechanic) bool {
	return m.Valid() && s.handlers[m] != nil
}

func (s *Script) overrideCount() int {
	n := 0
	for _, fn := range s.handlers {
		if fn != nil {
			n++
		}
	}
	return n
}

// Adjust applies the script's params table.
func (s *Script) Adjust(p *dungeon.Params) {
	if s.params == nil {
		return
	}
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	num := func(key string, dst *float32) {
		if v, ok := s.params.RawGetString(key).(lua.LNumber); ok {
			*dst = float32(v)
		}
	}
	num("scan_radius", &p.ScanRadius)
	num("interrupt_range", &p.InterruptRange)
	num("melee_range", &p.MeleeRange)
	num("ranged_distance", &p.RangedDistance)
	num("spread_distance", &p.SpreadDistance)
	num("stack_radius", &p.StackRadius)
	num("leash", &p.Leash)
	if v, ok := s.params.RawGetString("swap_aura").(lua.LNumber); ok {
		p.SwapAura = uint32(v)
	}
	if v, ok := s.params.RawGetString("swap_stacks").(lua.LNumber); ok {
		p.SwapStacks = uint8(v)
	}
	if t, ok := s.params.RawGetString("priority").(*lua.LTable); ok {
		t.ForEach(func(_, v lua.LValue) {
			if n, ok := v.(lua.LNumber); ok {
				p.PriorityEntries = append(p.PriorityEntries, uint32(n))
			}
		})
	}
}

// action is one command returned by a Lua handler.
type action struct {
	kind   string
	pos    world.Position
	spell  uint32
	target string
}

// HandleMechanic calls handle_<m> and executes the returned actions. A
// script without that handler, or one that returns "generic", gets the
// generic strategy.
func (s *Script) HandleMechanic(c *dungeon.Context, m dungeon.Mechanic) error {
	if !s.Overrides(m) {
		return dungeon.Generic(c, m)
	}
	actions, generic, err := s.run(c, m)
	if err != nil {
		return err
	}
	if generic {
		return dungeon.Generic(c, m)
	}
	for _, a := range actions {
		if err := s.apply(c, a); err != nil {
			return err
		}
	}
	return nil
}

func (s *Script) run(c *dungeon.Context, m dungeon.Mechanic) ([]action, bool, error) {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()

	ctx := s.contextTable(c, m)
	result, err := s.e.call(s.handlers[m], ctx)
	if err != nil {
		s.e.log.Error("lua 機制處理錯誤",
			zap.String("script", s.name),
			zap.Stringer("mechanic", m),
			zap.Error(err))
		return nil, false, fmt.Errorf("lua %s handle_%s: %w", s.name, m, err)
	}

	switch r := result.(type) {
	case lua.LString:
		return nil, string(r) == "generic", nil
	case *lua.LTable:
		var out []action
		generic := false
		r.ForEach(func(_, v lua.LValue) {
			row, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			a := action{
				kind:   lStr(row, "type"),
				pos:    world.Position{X: lFloat(row, "x"), Y: lFloat(row, "y"), Z: lFloat(row, "z")},
				spell:  uint32(lInt(row, "spell")),
				target: lStr(row, "target"),
			}
			if a.kind == "generic" {
				generic = true
				return
			}
			out = append(out, a)
		})
		return out, generic, nil
	default:
		return nil, false, nil
	}
}

func (s *Script) apply(c *dungeon.Context, a action) error {
	switch a.kind {
	case "move":
		return c.Move(a.pos)
	case "cast", "attack":
		target, ok := s.resolve(c, a.target)
		if !ok {
			s.e.log.Debug("lua 動作目標不存在", zap.String("script", s.name), zap.String("target", a.target))
			return nil
		}
		if a.kind == "attack" {
			return c.Attack(target)
		}
		return c.Cast(a.spell, target)
	default:
		return fmt.Errorf("%w: %s returned action %q", ErrBadScript, s.name, a.kind)
	}
}

func (s *Script) resolve(c *dungeon.Context, target string) (ident.EntityID, bool) {
	switch target {
	case "", "self":
		return c.Player.ID, true
	case "boss":
		return c.Boss.ID, c.HasBoss()
	case "tank":
		u, ok := c.MemberWithRole(host.RoleTank)
		return u.ID, ok
	case "healer":
		u, ok := c.MemberWithRole(host.RoleHealer)
		return u.ID, ok
	}
	id, err := ident.ParseEntityID(target)
	return id, err == nil && !id.IsEmpty()
}

func (s *Script) unitTable(u host.Unit) *lua.LTable {
	L := s.e.vm
	t := L.NewTable()
	t.RawSetString("id", lua.LString(u.ID.String()))
	t.RawSetString("entry", lua.LNumber(u.Entry))
	t.RawSetString("x", lua.LNumber(u.Pos.X))
	t.RawSetString("y", lua.LNumber(u.Pos.Y))
	t.RawSetString("z", lua.LNumber(u.Pos.Z))
	t.RawSetString("health_pct", lua.LNumber(u.HealthFraction()*100))
	t.RawSetString("power_pct", lua.LNumber(u.PowerFraction()*100))
	t.RawSetString("casting", lua.LNumber(u.Casting))
	t.RawSetString("alive", lua.LBool(u.Alive))
	return t
}

// contextTable builds the table passed to handle_<m>. Caller holds mu.
func (s *Script) contextTable(c *dungeon.Context, m dungeon.Mechanic) *lua.LTable {
	L := s.e.vm
	t := L.NewTable()
	t.RawSetString("mechanic", lua.LString(m.String()))
	t.RawSetString("map_id", lua.LNumber(c.Player.Map))
	t.RawSetString("role", lua.LString(c.Role.String()))
	t.RawSetString("player", s.unitTable(c.Player))
	if c.HasBoss() {
		t.RawSetString("boss", s.unitTable(c.Boss))
	}
	members := L.NewTable()
	for i, u := range c.Members() {
		row := s.unitTable(u)
		members.RawSetInt(i+1, row)
	}
	t.RawSetString("members", members)

	p := L.NewTable()
	p.RawSetString("ranged_distance", lua.LNumber(c.Params.RangedDistance))
	p.RawSetString("spread_distance", lua.LNumber(c.Params.SpreadDistance))
	p.RawSetString("melee_range", lua.LNumber(c.Params.MeleeRange))
	p.RawSetString("interrupt", lua.LNumber(c.Params.Abilities.Interrupt))
	p.RawSetString("dispel", lua.LNumber(c.Params.Abilities.Dispel))
	p.RawSetString("taunt", lua.LNumber(c.Params.Abilities.Taunt))
	t.RawSetString("params", p)
	return t
}

// hook calls a lifecycle function when the script defines it. args runs
// with the VM lock held.
func (s *Script) hook(name string, args func() []lua.LValue) {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	fn, ok := s.tbl.RawGetString(name).(*lua.LFunction)
	if !ok {
		return
	}
	if _, err := s.e.call(fn, args()...); err != nil {
		s.e.log.Error("lua 生命週期錯誤",
			zap.String("script", s.name),
			zap.String("hook", name),
			zap.Error(err))
	}
}

func (s *Script) encounterHook(name string, e dungeon.Encounter) {
	s.hook(name, func() []lua.LValue {
		t := s.e.vm.NewTable()
		t.RawSetString("boss", lua.LString(e.Boss.String()))
		t.RawSetString("entry", lua.LNumber(e.Entry))
		t.RawSetString("map_id", lua.LNumber(e.Map))
		t.RawSetString("group", lua.LString(e.Group.String()))
		return []lua.LValue{t}
	})
}

func (s *Script) OnDungeonEnter(player ident.EntityID, mapID uint32) {
	s.hook("on_dungeon_enter", func() []lua.LValue {
		return []lua.LValue{lua.LString(player.String()), lua.LNumber(mapID)}
	})
}

func (s *Script) OnDungeonExit(player ident.EntityID, mapID uint32) {
	s.hook("on_dungeon_exit", func() []lua.LValue {
		return []lua.LValue{lua.LString(player.String()), lua.LNumber(mapID)}
	})
}

func (s *Script) OnUpdate(diff time.Duration) {
	s.hook("on_update", func() []lua.LValue {
		return []lua.LValue{lua.LNumber(diff.Milliseconds())}
	})
}

func (s *Script) OnBossEngage(e dungeon.Encounter) { s.encounterHook("on_boss_engage", e) }
func (s *Script) OnBossKill(e dungeon.Encounter)   { s.encounterHook("on_boss_kill", e) }
func (s *Script) OnBossWipe(e dungeon.Encounter)   { s.encounterHook("on_boss_wipe", e) }
