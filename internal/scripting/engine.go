package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/l1jgo/playerbot/internal/dungeon"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrBadScript is returned for a register_dungeon table that cannot become
// a dungeon script.
var ErrBadScript = errors.New("scripting: bad dungeon script")

// Engine wraps a single gopher-lua VM hosting the Lua dungeon scripts.
// Calls into the VM are serialized by mu.
type Engine struct {
	mu      sync.Mutex
	vm      *lua.LState
	log     *zap.Logger
	scripts []*Script
	loadErr error
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory: core/ helpers first, then every dungeons/*.lua file. Each
// dungeon file calls register_dungeon{...}.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log.Named("lua")}
	e.registerAPI()

	if err := e.loadDir(filepath.Join(scriptsDir, "core")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load core scripts: %w", err)
	}
	if err := e.loadDir(filepath.Join(scriptsDir, "dungeons")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load dungeon scripts: %w", err)
	}
	return e, nil
}

// LoadString runs one chunk of Lua source, for tests and the console.
func (e *Engine) LoadString(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadErr = nil
	if err := e.vm.DoString(src); err != nil {
		return err
	}
	return e.loadErr
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		e.loadErr = nil
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		if e.loadErr != nil {
			return fmt.Errorf("load %s: %w", path, e.loadErr)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) registerAPI() {
	e.vm.SetGlobal("register_dungeon", e.vm.NewFunction(e.luaRegisterDungeon))
	e.vm.SetGlobal("log_info", e.vm.NewFunction(func(L *lua.LState) int {
		e.log.Info(L.CheckString(1))
		return 0
	}))

	mech := e.vm.NewTable()
	for _, m := range dungeon.Mechanics() {
		mech.RawSetString(m.String(), lua.LString(m.String()))
	}
	e.vm.SetGlobal("MECHANIC", mech)
}

// luaRegisterDungeon is register_dungeon(tbl). Runs with mu held.
func (e *Engine) luaRegisterDungeon(L *lua.LState) int {
	tbl := L.CheckTable(1)
	s, err := newScript(e, tbl)
	if err != nil {
		e.loadErr = err
		return 0
	}
	for _, have := range e.scripts {
		if have.name == s.name {
			e.loadErr = fmt.Errorf("%w: %q registered twice", ErrBadScript, s.name)
			return 0
		}
	}
	e.scripts = append(e.scripts, s)
	return 0
}

// Scripts returns the loaded Lua scripts in load order.
func (e *Engine) Scripts() []*Script {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Script(nil), e.scripts...)
}

// RegisterAll registers every loaded script with reg.
func (e *Engine) RegisterAll(reg *dungeon.Registry) error {
	for _, s := range e.Scripts() {
		if err := reg.Register(s); err != nil {
			return fmt.Errorf("register lua script %s: %w", s.name, err)
		}
		e.log.Info("Lua 副本腳本已登錄",
			zap.String("name", s.name),
			zap.Uint32("map", s.mapID),
			zap.Int("bosses", len(s.bosses)),
			zap.Int("overrides", s.overrideCount()))
	}
	return nil
}

// call invokes fn with args and returns its single result. Caller holds mu.
func (e *Engine) call(fn lua.LValue, args ...lua.LValue) (lua.LValue, error) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		return lua.LNil, err
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return result, nil
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lFloat reads a number field from a Lua table.
func lFloat(t *lua.LTable, key string) float32 {
	return float32(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.mu.Lock()
	e.vm.Close()
	e.mu.Unlock()
}
