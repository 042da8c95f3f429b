package dungeon

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/world"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

var (
	ErrRegistryFrozen  = errors.New("dungeon: registry frozen")
	ErrDuplicateScript = errors.New("dungeon: duplicate script")
	ErrInvalidScript   = errors.New("dungeon: invalid script")
	// ErrNoPlayer means the player no longer resolves; callers treat it as
	// a benign skip.
	ErrNoPlayer    = errors.New("dungeon: player not found")
	ErrScriptFault = errors.New("dungeon: script panicked")
)

// Level is the fallback-chain level that handled a mechanic.
type Level uint8

const (
	LevelBoss Level = iota
	LevelMap
	LevelGeneric
)

func (l Level) String() string {
	switch l {
	case LevelBoss:
		return "boss"
	case LevelMap:
		return "map"
	default:
		return "generic"
	}
}

// Env is what the registry hands to mechanic handlers.
type Env struct {
	World host.World
	Cmd   host.Commander
	Maps  *world.MapCaches // may be nil
}

// table is immutable once published.
type table struct {
	byName  map[string]Script
	byMap   map[uint32]Script
	byBoss  map[uint32]Script
	scripts []Script
}

func (t *table) clone() *table {
	n := &table{
		byName:  make(map[string]Script, len(t.byName)+1),
		byMap:   make(map[uint32]Script, len(t.byMap)+1),
		byBoss:  make(map[uint32]Script, len(t.byBoss)+1),
		scripts: append([]Script(nil), t.scripts...),
	}
	for k, v := range t.byName {
		n.byName[k] = v
	}
	for k, v := range t.byMap {
		n.byMap[k] = v
	}
	for k, v := range t.byBoss {
		n.byBoss[k] = v
	}
	return n
}

func (t *table) add(s Script) {
	for _, have := range t.scripts {
		if have == s {
			return
		}
	}
	t.scripts = append(t.scripts, s)
}

// Option configures a Registry.
type Option func(*Registry)

// WithParams replaces DefaultParams as the base strategy parameters.
func WithParams(p Params) Option {
	return func(r *Registry) { r.params = p }
}

// WithAbilities supplies the per-player spells for the generic strategies.
func WithAbilities(fn func(u host.Unit, role host.Role) Abilities) Option {
	return func(r *Registry) { r.abilities = fn }
}

// Registry is the dungeon script directory. Scripts are registered during
// init; after Freeze every lookup is a lock-free read of an immutable table.
type Registry struct {
	env       Env
	log       *zap.Logger
	params    Params
	abilities func(host.Unit, host.Role) Abilities

	mu     sync.Mutex // serializes registration
	tbl    atomic.Pointer[table]
	frozen atomic.Bool

	scriptHits  atomic.Uint64
	fallbacks   atomic.Uint64
	generics    atomic.Uint64
	faults      atomic.Uint64
	byMechanic  [mechanicCount]atomic.Uint64
	genericMech [mechanicCount]atomic.Uint64
}

func NewRegistry(env Env, log *zap.Logger, opts ...Option) *Registry {
	r := &Registry{env: env, log: log.Named("dungeon"), params: DefaultParams()}
	for _, o := range opts {
		o(r)
	}
	r.tbl.Store(&table{
		byName: map[string]Script{},
		byMap:  map[uint32]Script{},
		byBoss: map[uint32]Script{},
	})
	return r
}

func foldName(name string) string {
	return cases.Fold().String(name)
}

// RegisterScript stores s by name and, when s.MapID() is non-zero, by map.
func (r *Registry) RegisterScript(s Script) error {
	if s == nil || s.Name() == "" {
		return ErrInvalidScript
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return fmt.Errorf("%w: register %s", ErrRegistryFrozen, s.Name())
	}
	cur := r.tbl.Load()
	key := foldName(s.Name())
	if have, ok := cur.byName[key]; ok && have != s {
		return fmt.Errorf("%w: name %q", ErrDuplicateScript, s.Name())
	}
	if id := s.MapID(); id != 0 {
		if have, ok := cur.byMap[id]; ok && have != s {
			return fmt.Errorf("%w: map %d already owned by %s", ErrDuplicateScript, id, have.Name())
		}
	}
	next := cur.clone()
	next.byName[key] = s
	if id := s.MapID(); id != 0 {
		next.byMap[id] = s
	}
	next.add(s)
	r.tbl.Store(next)
	return nil
}

// RegisterBossScript adds a lookup from a boss creature entry to s. The
// name table gets an alias when s is not registered yet.
func (r *Registry) RegisterBossScript(entry uint32, s Script) error {
	if s == nil || s.Name() == "" || entry == 0 {
		return ErrInvalidScript
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return fmt.Errorf("%w: register boss %d", ErrRegistryFrozen, entry)
	}
	cur := r.tbl.Load()
	if have, ok := cur.byBoss[entry]; ok && have != s {
		return fmt.Errorf("%w: boss %d already owned by %s", ErrDuplicateScript, entry, have.Name())
	}
	key := foldName(s.Name())
	if have, ok := cur.byName[key]; ok && have != s {
		return fmt.Errorf("%w: name %q", ErrDuplicateScript, s.Name())
	}
	next := cur.clone()
	next.byBoss[entry] = s
	next.byName[key] = s
	next.add(s)
	r.tbl.Store(next)
	return nil
}

// Register stores s by name and map and aliases every entry of s.Bosses().
func (r *Registry) Register(s Script) error {
	if err := r.RegisterScript(s); err != nil {
		return err
	}
	for _, entry := range s.Bosses() {
		if err := r.RegisterBossScript(entry, s); err != nil {
			return err
		}
	}
	return nil
}

// Freeze ends registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	if !r.frozen.Swap(true) {
		t := r.tbl.Load()
		r.log.Info("副本腳本登錄完成",
			zap.Int("scripts", len(t.scripts)),
			zap.Int("maps", len(t.byMap)),
			zap.Int("bosses", len(t.byBoss)))
	}
	r.mu.Unlock()
}

func (r *Registry) Frozen() bool { return r.frozen.Load() }

func (r *Registry) ScriptForMap(mapID uint32) Script  { return r.tbl.Load().byMap[mapID] }
func (r *Registry) ScriptForBoss(entry uint32) Script { return r.tbl.Load().byBoss[entry] }

// ScriptByName looks a script up case-insensitively.
func (r *Registry) ScriptByName(name string) Script {
	return r.tbl.Load().byName[foldName(name)]
}

// Scripts lists every distinct script in registration order.
func (r *Registry) Scripts() []Script {
	return append([]Script(nil), r.tbl.Load().scripts...)
}

// Resolve reports which fallback level handles m for a boss entry on a
// map, and the script involved (nil for LevelGeneric).
func (r *Registry) Resolve(bossEntry, mapID uint32, m Mechanic) (Level, Script) {
	t := r.tbl.Load()
	if s := t.byBoss[bossEntry]; s != nil && s.Overrides(m) {
		return LevelBoss, s
	}
	if mapID == 0 {
		if s := t.byBoss[bossEntry]; s != nil {
			mapID = s.MapID()
		}
	}
	if s := t.byMap[mapID]; s != nil {
		return LevelMap, s
	}
	return LevelGeneric, nil
}

// ExecuteBossMechanic handles mechanic m for player against boss through the
// fallback chain: a boss script that overrides m, else the map script (its
// own handler or its base default, which runs the generic strategy), else
// the generic strategy. boss may be Empty for trash mechanics.
func (r *Registry) ExecuteBossMechanic(player, boss ident.EntityID, m Mechanic) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMechanic, uint8(m))
	}
	c, err := r.newContext(player, boss)
	if err != nil {
		return err
	}
	r.byMechanic[m].Add(1)

	level, s := r.Resolve(c.Boss.Entry, c.Player.Map, m)
	switch level {
	case LevelBoss:
		r.scriptHits.Add(1)
	case LevelMap:
		r.scriptHits.Add(1)
		if !s.Overrides(m) {
			r.fallbacks.Add(1)
		}
	default:
		r.fallbacks.Add(1)
	}

	return r.safe(s, m, func() error {
		if s == nil {
			return Generic(c, m)
		}
		s.Adjust(&c.Params)
		return s.HandleMechanic(c, m)
	})
}

func (r *Registry) newContext(player, boss ident.EntityID) (*Context, error) {
	w := r.env.World
	pu, ok := w.Unit(player)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPlayer, player.Short())
	}
	c := &Context{
		Player:    pu,
		Role:      w.Role(player),
		Params:    r.params,
		World:     w,
		Cmd:       r.env.Cmd,
		Log:       r.log,
		onGeneric: r.countGeneric,
	}
	c.Params.PriorityEntries = append([]uint32(nil), r.params.PriorityEntries...)
	if !boss.IsEmpty() {
		if bu, ok := w.Unit(boss); ok {
			c.Boss = bu
		}
	}
	if gid, ok := w.GroupOf(player); ok {
		if g, ok := w.Group(gid); ok {
			c.Group = g
			if m, ok := g.Member(player); ok && m.Role != host.RoleNone {
				c.Role = m.Role
			}
		}
	}
	if r.abilities != nil {
		c.Params.Abilities = r.abilities(pu, c.Role)
	}
	if r.env.Maps != nil {
		c.Terrain = r.env.Maps.Terrain(pu.Map)
		c.Grid = r.env.Maps.Grid(pu.Map)
	}
	return c, nil
}

func (r *Registry) countGeneric(m Mechanic) {
	r.generics.Add(1)
	r.genericMech[m].Add(1)
}

// safe runs fn and converts a script panic into ErrScriptFault.
func (r *Registry) safe(s Script, m Mechanic, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.faults.Add(1)
			name := "generic"
			if s != nil {
				name = s.Name()
			}
			r.log.Error("副本腳本 panic",
				zap.String("script", name),
				zap.Stringer("mechanic", m),
				zap.Any("panic", p),
				zap.Stack("stack"))
			err = fmt.Errorf("%w: %s %s: %v", ErrScriptFault, name, m, p)
		}
	}()
	return fn()
}

// hook runs a lifecycle hook, absorbing panics.
func (r *Registry) hook(s Script, what string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			r.faults.Add(1)
			r.log.Error("副本腳本生命週期 panic",
				zap.String("script", s.Name()),
				zap.String("hook", what),
				zap.Any("panic", p))
		}
	}()
	fn()
}

// EnterDungeon runs OnDungeonEnter of the map's script.
func (r *Registry) EnterDungeon(player ident.EntityID, mapID uint32) {
	if s := r.ScriptForMap(mapID); s != nil {
		r.hook(s, "enter", func() { s.OnDungeonEnter(player, mapID) })
	}
}

// ExitDungeon runs OnDungeonExit of the map's script.
func (r *Registry) ExitDungeon(player ident.EntityID, mapID uint32) {
	if s := r.ScriptForMap(mapID); s != nil {
		r.hook(s, "exit", func() { s.OnDungeonExit(player, mapID) })
	}
}

// Update runs OnUpdate once for each script owning one of maps.
func (r *Registry) Update(diff time.Duration, maps []uint32) {
	t := r.tbl.Load()
	done := make(map[Script]bool, len(maps))
	for _, id := range maps {
		s := t.byMap[id]
		if s == nil || done[s] {
			continue
		}
		done[s] = true
		r.hook(s, "update", func() { s.OnUpdate(diff) })
	}
}

// encounterScripts returns the boss script and, when different, the map
// script for e.
func (r *Registry) encounterScripts(e Encounter) []Script {
	t := r.tbl.Load()
	var out []Script
	if s := t.byBoss[e.Entry]; s != nil {
		out = append(out, s)
	}
	if s := t.byMap[e.Map]; s != nil && (len(out) == 0 || out[0] != s) {
		out = append(out, s)
	}
	return out
}

func (r *Registry) BossEngaged(e Encounter) {
	for _, s := range r.encounterScripts(e) {
		r.hook(s, "engage", func() { s.OnBossEngage(e) })
	}
}

func (r *Registry) BossKilled(e Encounter) {
	for _, s := range r.encounterScripts(e) {
		r.hook(s, "kill", func() { s.OnBossKill(e) })
	}
}

func (r *Registry) BossWiped(e Encounter) {
	for _, s := range r.encounterScripts(e) {
		r.hook(s, "wipe", func() { s.OnBossWipe(e) })
	}
}

// Stats is a snapshot of the registry counters.
type Stats struct {
	Scripts            int
	Maps               int
	Bosses             int
	ScriptHits         uint64
	FallbackExecutions uint64
	GenericExecutions  uint64
	Faults             uint64
	// Requested and Generic are indexed by Mechanic.
	Requested [NumMechanics]uint64
	Generic   [NumMechanics]uint64
}

func (r *Registry) Stats() Stats {
	t := r.tbl.Load()
	s := Stats{
		Scripts:            len(t.scripts),
		Maps:               len(t.byMap),
		Bosses:             len(t.byBoss),
		ScriptHits:         r.scriptHits.Load(),
		FallbackExecutions: r.fallbacks.Load(),
		GenericExecutions:  r.generics.Load(),
		Faults:             r.faults.Load(),
	}
	for i := range s.Requested {
		s.Requested[i] = r.byMechanic[i].Load()
		s.Generic[i] = r.genericMech[i].Load()
	}
	return s
}

func (r *Registry) ResetStats() {
	r.scriptHits.Store(0)
	r.fallbacks.Store(0)
	r.generics.Store(0)
	r.faults.Store(0)
	for i := range r.byMechanic {
		r.byMechanic[i].Store(0)
		r.genericMech[i].Store(0)
	}
}
