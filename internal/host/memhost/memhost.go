// Package memhost is an in-memory host. The harness runs the framework
// against it and integration tests use it to script world state and count
// the commands the framework issues.
package memhost

import (
	"errors"
	"sync"
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/world"
)

// ErrUnknownUnit is returned by commands addressed to a unit the host does
// not know.
var ErrUnknownUnit = errors.New("memhost: unknown unit")

// ErrUnknownGroup is returned by group commands for a missing group.
var ErrUnknownGroup = errors.New("memhost: unknown group")

// CommandKind 指令種類
type CommandKind uint8

const (
	CmdMove CommandKind = iota + 1
	CmdCast
	CmdRaidIcon
	CmdLootMethod
	CmdReadyCheck
)

func (k CommandKind) String() string {
	switch k {
	case CmdMove:
		return "move"
	case CmdCast:
		return "cast"
	case CmdRaidIcon:
		return "raid_icon"
	case CmdLootMethod:
		return "loot_method"
	case CmdReadyCheck:
		return "ready_check"
	default:
		return "unknown"
	}
}

// Command is one recorded outbound call.
type Command struct {
	Kind   CommandKind
	Agent  ident.EntityID
	Group  ident.EntityID
	Target ident.EntityID
	Pos    world.Position
	Spell  uint32
	Slot   uint8
	Method uint8
	Dur    time.Duration
	At     time.Time
}

// Session is a host session bound to one player.
type Session struct {
	id     uint64
	player ident.EntityID
	agent  bool
}

func (s *Session) ID() uint64             { return s.id }
func (s *Session) Player() ident.EntityID { return s.player }

// Host implements host.World, host.Geometry and host.Commander.
type Host struct {
	mu       sync.Mutex
	now      func() time.Time
	nextSess uint64
	units    map[ident.EntityID]host.Unit
	roles    map[ident.EntityID]host.Role
	groups   map[ident.EntityID]host.Group
	ground   []host.GroundEffect
	commands []Command

	// Height returns the ground height at a position; nil means flat ground
	// at z=0. Returning world.NoGroundHeight marks the position unreachable.
	Height func(mapID uint32, pos world.Position) float32

	terrainQueries int
	moveUnits      bool
}

var (
	_ host.World     = (*Host)(nil)
	_ host.Geometry  = (*Host)(nil)
	_ host.Commander = (*Host)(nil)
)

// Option configures a Host.
type Option func(*Host)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Host) { h.now = now }
}

// WithTeleport makes MoveTo place the unit at the destination immediately.
func WithTeleport() Option {
	return func(h *Host) { h.moveUnits = true }
}

func New(opts ...Option) *Host {
	h := &Host{
		now:    time.Now,
		units:  make(map[ident.EntityID]host.Unit),
		roles:  make(map[ident.EntityID]host.Role),
		groups: make(map[ident.EntityID]host.Group),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// ---------- scripting the world ----------

// NewSession opens a session for player.
func (h *Host) NewSession(player ident.EntityID, agent bool) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextSess++
	return &Session{id: h.nextSess, player: player, agent: agent}
}

// PutUnit inserts or replaces a unit snapshot.
func (h *Host) PutUnit(u host.Unit) {
	h.mu.Lock()
	h.units[u.ID] = u
	h.mu.Unlock()
}

// UpdateUnit applies fn to a stored unit. Returns false when id is unknown.
func (h *Host) UpdateUnit(id ident.EntityID, fn func(*host.Unit)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	u, ok := h.units[id]
	if !ok {
		return false
	}
	fn(&u)
	h.units[id] = u
	return true
}

func (h *Host) RemoveUnit(id ident.EntityID) {
	h.mu.Lock()
	delete(h.units, id)
	h.mu.Unlock()
}

// Units returns every unit on mapID.
func (h *Host) Units(mapID uint32) []host.Unit {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.Unit, 0, len(h.units))
	for _, u := range h.units {
		if u.Map == mapID {
			out = append(out, u)
		}
	}
	return out
}

func (h *Host) SetRole(id ident.EntityID, r host.Role) {
	h.mu.Lock()
	h.roles[id] = r
	h.mu.Unlock()
}

// PutGroup inserts or replaces a group. Member roles are also recorded as
// unit roles.
func (h *Host) PutGroup(g host.Group) {
	h.mu.Lock()
	g.Members = append([]host.GroupMember(nil), g.Members...)
	h.groups[g.ID] = g
	for _, m := range g.Members {
		if m.Role != host.RoleNone {
			h.roles[m.ID] = m.Role
		}
	}
	h.mu.Unlock()
}

// UpdateGroup applies fn to a stored group.
func (h *Host) UpdateGroup(id ident.EntityID, fn func(*host.Group)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[id]
	if !ok {
		return false
	}
	fn(&g)
	h.groups[id] = g
	return true
}

func (h *Host) RemoveGroup(id ident.EntityID) {
	h.mu.Lock()
	delete(h.groups, id)
	h.mu.Unlock()
}

func (h *Host) AddGroundEffect(e host.GroundEffect) {
	h.mu.Lock()
	h.ground = append(h.ground, e)
	h.mu.Unlock()
}

func (h *Host) ClearGroundEffects() {
	h.mu.Lock()
	h.ground = nil
	h.mu.Unlock()
}

// ---------- host.World ----------

func (h *Host) IsAgentSession(s host.Session) bool {
	ms, ok := s.(*Session)
	return ok && ms.agent
}

func (h *Host) Unit(id ident.EntityID) (host.Unit, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	u, ok := h.units[id]
	if ok {
		u.Auras = append([]host.Aura(nil), u.Auras...)
	}
	return u, ok
}

func (h *Host) Group(id ident.EntityID) (host.Group, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[id]
	if ok {
		g.Members = append([]host.GroupMember(nil), g.Members...)
	}
	return g, ok
}

func (h *Host) GroupOf(member ident.EntityID) (ident.EntityID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, g := range h.groups {
		for _, m := range g.Members {
			if m.ID == member {
				return id, true
			}
		}
	}
	return ident.Empty, false
}

func (h *Host) Role(id ident.EntityID) host.Role {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.roles[id]
}

func (h *Host) GroundEffects(mapID uint32, center world.Position, radius float32) []host.GroundEffect {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []host.GroundEffect
	for _, e := range h.ground {
		if e.Pos.Dist2D(center) <= radius+e.Radius {
			out = append(out, e)
		}
	}
	return out
}

// ---------- host.Geometry ----------

func (h *Host) QueryTerrain(mapID uint32, pos world.Position, phase uint32) world.TerrainInfo {
	h.mu.Lock()
	h.terrainQueries++
	height := h.Height
	h.mu.Unlock()

	z := float32(0)
	if height != nil {
		z = height(mapID, pos)
	}
	return world.TerrainInfo{Height: z, WaterLevel: world.NoGroundHeight, Liquid: world.LiquidNone}
}

// TerrainQueries counts geometry calls.
func (h *Host) TerrainQueries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.terrainQueries
}

// ---------- host.Commander ----------

func (h *Host) record(c Command) {
	c.At = h.now()
	h.commands = append(h.commands, c)
}

func (h *Host) MoveTo(agent ident.EntityID, pos world.Position) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	u, ok := h.units[agent]
	if !ok {
		return ErrUnknownUnit
	}
	h.record(Command{Kind: CmdMove, Agent: agent, Pos: pos})
	if h.moveUnits {
		u.Pos = pos
		h.units[agent] = u
	}
	return nil
}

func (h *Host) CastSpell(agent ident.EntityID, spell uint32, target ident.EntityID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.units[agent]; !ok {
		return ErrUnknownUnit
	}
	h.record(Command{Kind: CmdCast, Agent: agent, Spell: spell, Target: target})
	return nil
}

func (h *Host) SetRaidIcon(group ident.EntityID, slot uint8, target ident.EntityID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[group]
	if !ok {
		return ErrUnknownGroup
	}
	if int(slot) >= len(g.Icons) {
		return errors.New("memhost: icon slot out of range")
	}
	g.Icons[slot] = target
	h.groups[group] = g
	h.record(Command{Kind: CmdRaidIcon, Group: group, Slot: slot, Target: target})
	return nil
}

func (h *Host) SetLootMethod(group ident.EntityID, method uint8, master ident.EntityID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[group]
	if !ok {
		return ErrUnknownGroup
	}
	g.LootMethod = method
	g.MasterLooter = master
	h.groups[group] = g
	h.record(Command{Kind: CmdLootMethod, Group: group, Method: method, Target: master})
	return nil
}

func (h *Host) StartReadyCheck(group, initiator ident.EntityID, d time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[group]
	if !ok {
		return ErrUnknownGroup
	}
	g.ReadyCheckUntil = h.now().Add(d)
	h.groups[group] = g
	h.record(Command{Kind: CmdReadyCheck, Group: group, Agent: initiator, Dur: d})
	return nil
}

// Commands returns a copy of every recorded command.
func (h *Host) Commands() []Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Command(nil), h.commands...)
}

// CountCommands counts recorded commands of kind k.
func (h *Host) CountCommands(k CommandKind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.commands {
		if c.Kind == k {
			n++
		}
	}
	return n
}

func (h *Host) ResetCommands() {
	h.mu.Lock()
	h.commands = nil
	h.mu.Unlock()
}
