// Package framework builds the playerbot framework as one value: the bus
// family, sniffer, caches, script registry, autonomy, bridge and agents,
// plus the optional telemetry sinks, all driven by one system Runner.
//
// The host calls Tick once per world tick and routes its hooks to Sniffer
// and Bridge. Everything runs on the host tick goroutine.
package framework

import (
	"context"
	"fmt"
	"time"

	"github.com/l1jgo/playerbot/internal/agent"
	"github.com/l1jgo/playerbot/internal/autonomy"
	"github.com/l1jgo/playerbot/internal/bridge"
	"github.com/l1jgo/playerbot/internal/config"
	"github.com/l1jgo/playerbot/internal/core/event"
	coresys "github.com/l1jgo/playerbot/internal/core/system"
	"github.com/l1jgo/playerbot/internal/data"
	"github.com/l1jgo/playerbot/internal/dungeon"
	"github.com/l1jgo/playerbot/internal/events"
	"github.com/l1jgo/playerbot/internal/host"
	"github.com/l1jgo/playerbot/internal/journal"
	"github.com/l1jgo/playerbot/internal/observe"
	"github.com/l1jgo/playerbot/internal/persist"
	"github.com/l1jgo/playerbot/internal/scripting"
	"github.com/l1jgo/playerbot/internal/sniffer"
	"github.com/l1jgo/playerbot/internal/system"
	"github.com/l1jgo/playerbot/internal/world"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Host is everything the framework needs from the server process.
type Host interface {
	host.World
	host.Commander
	host.Geometry
}

type options struct {
	now      func() time.Time
	dungeons *data.DungeonTable
	metrics  *observe.Metrics
	journal  *journal.Journal
	stats    persist.StatsWriter
	audit    persist.AuditWriter
	handler  agent.Handler
}

type Option func(*options)

func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithDungeons supplies the dungeon table: pack routes, map extents and
// terrain hotspots.
func WithDungeons(t *data.DungeonTable) Option { return func(o *options) { o.dungeons = t } }

// WithMetrics exports bus traffic and component gauges through m.
func WithMetrics(m *observe.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithJournal records every bus event to j. The caller runs j.Run.
func WithJournal(j *journal.Journal) Option { return func(o *options) { o.journal = j } }

// WithArchive writes statistics samples and autonomy changes through the
// given writers once per archive interval.
func WithArchive(stats persist.StatsWriter, audit persist.AuditWriter) Option {
	return func(o *options) { o.stats, o.audit = stats, audit }
}

// WithAgentHandler sets the decision code spawned agents use by default.
func WithAgentHandler(h agent.Handler) Option { return func(o *options) { o.handler = h } }

// Framework is the running framework. Exported components are ready to use
// once New returns; their hooks may be called directly by the host.
type Framework struct {
	cfg  *config.Config
	log  *zap.Logger
	host Host
	now  func() time.Time

	Buses    *events.Family
	Sniffer  *sniffer.Sniffer
	Maps     *world.MapCaches
	Scripts  *dungeon.Registry
	Autonomy *autonomy.Manager
	Bridge   *bridge.Bridge
	Agents   *agent.Manager

	defaults autonomy.Config
	dungeons *data.DungeonTable
	lua      *scripting.Engine
	metrics  *observe.Metrics
	gauges   metric.Registration
	journal  *journal.Journal
	archive  *persist.Archive
	runner   *coresys.Runner
}

// New wires the framework against h. Scripts are registered and the
// registry frozen before New returns.
func New(cfg *config.Config, h Host, log *zap.Logger, opts ...Option) (*Framework, error) {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}

	tier, err := autonomy.ParseAggression(cfg.Autonomy.Aggression)
	if err != nil {
		return nil, fmt.Errorf("autonomy defaults: %w", err)
	}
	defaults := autonomy.Preset(tier)
	if cfg.Autonomy.PullTimeout > 0 {
		defaults.PullTimeout = cfg.Autonomy.PullTimeout
	}

	f := &Framework{
		cfg:      cfg,
		log:      log,
		host:     h,
		now:      o.now,
		defaults: defaults,
		dungeons: o.dungeons,
		metrics:  o.metrics,
		journal:  o.journal,
		runner:   coresys.NewRunner(),
	}

	f.Buses = events.NewFamily(event.Options{
		TTL:      cfg.Bus.TTL,
		MaxQueue: cfg.Bus.MaxQueue,
		Now:      o.now,
		Log:      log,
	}, cfg.Bus.GateWindow)

	var extents func(uint32) (world.Extents, bool)
	if o.dungeons != nil {
		extents = o.dungeons.Extents
	}
	f.Maps = world.NewMapCaches(h, world.TerrainOptions{TTL: cfg.Terrain.TTL, Now: o.now}, extents)
	if cfg.Terrain.WarmHotspots {
		f.warmTerrain()
	}

	amOpts := []autonomy.Option{
		autonomy.WithClock(o.now),
		autonomy.WithMaps(f.Maps),
		autonomy.WithDefaults(defaults),
		autonomy.WithChangeHook(f.onAutonomyChange),
	}
	if o.dungeons != nil {
		amOpts = append(amOpts, autonomy.WithDungeons(o.dungeons))
	}
	f.Autonomy = autonomy.NewManager(h, h, log, amOpts...)
	f.Autonomy.Attach(f.Buses.Combat)

	if err := f.loadScripts(); err != nil {
		f.Close()
		return nil, err
	}

	f.Sniffer = sniffer.New(h, f.Buses, log)
	f.Sniffer.Initialize()

	f.Bridge = bridge.New(h, f.Buses, f.Autonomy, f.Scripts, log, bridge.Config{
		PollInterval: cfg.Bridge.PollInterval,
		AutoEnable:   cfg.Autonomy.AutoEnable,
		Now:          o.now,
	})
	f.Agents = agent.NewManager(h, f.Buses, f.Autonomy, log,
		agent.WithClock(o.now), agent.WithHandler(o.handler))

	if o.metrics != nil {
		f.Buses.SetObserver(o.metrics)
		f.gauges, err = o.metrics.RegisterSources(observe.Sources{
			Buses:    f.Buses.Stats,
			Terrain:  f.Maps.TerrainStats,
			Scripts:  f.Scripts.Stats,
			Sniffer:  f.Sniffer.Stats,
			Autonomy: f.AutonomyStatuses,
		})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("register gauges: %w", err)
		}
	}
	if o.journal != nil {
		o.journal.Attach(f.Buses)
	}
	if o.stats != nil && o.audit != nil {
		f.archive = persist.NewArchive(o.stats, o.audit, f.Sample, cfg.Archive.Interval, log)
	}

	f.registerSystems()
	log.Info("框架已啟動",
		zap.String("name", cfg.Framework.Name),
		zap.Int("systems", f.runner.Len()),
		zap.Int("scripts", len(f.Scripts.Scripts())),
		zap.Stringer("aggression", tier),
		zap.Bool("metrics", o.metrics != nil),
		zap.Bool("journal", o.journal != nil),
		zap.Bool("archive", f.archive != nil))
	return f, nil
}

// loadScripts registers the compiled-in scripts, then the Lua ones, and
// freezes the registry.
func (f *Framework) loadScripts() error {
	f.Scripts = dungeon.NewRegistry(dungeon.Env{World: f.host, Cmd: f.host, Maps: f.Maps}, f.log)
	if err := dungeon.RegisterBuiltins(f.Scripts); err != nil {
		return fmt.Errorf("builtin scripts: %w", err)
	}
	if f.cfg.Scripts.Enabled {
		eng, err := scripting.NewEngine(f.cfg.Scripts.Dir, f.log)
		if err != nil {
			return fmt.Errorf("lua scripts: %w", err)
		}
		f.lua = eng
		if err := eng.RegisterAll(f.Scripts); err != nil {
			return err
		}
	}
	f.Scripts.Freeze()
	return nil
}

func (f *Framework) warmTerrain() {
	if f.dungeons == nil {
		return
	}
	total := 0
	for _, id := range f.dungeons.Maps() {
		pts := f.dungeons.Get(id).HotspotPositions()
		total += f.Maps.Terrain(id).Warm(pts, 0)
	}
	f.log.Info("地形快取已預熱", zap.Int("cells", total))
}

func (f *Framework) registerSystems() {
	r := f.runner
	r.Register(system.NewInputSystem(f.Maps, f.Buses.Gate))
	r.Register(system.NewGroupPollSystem(f.Bridge))
	r.Register(system.NewEventDrainSystem(f.Buses, f.cfg.Bus.BatchMax))
	r.Register(system.NewAutonomySystem(f.Agents))
	r.Register(system.NewScriptSystem(f.Scripts, f.Bridge.DungeonMaps))
	if f.archive != nil {
		r.Register(system.NewArchiveSystem(f.archive))
	}
	r.Register(system.NewCleanupSystem(f.Agents))
}

// onAutonomyChange fans one state change out to the telemetry sinks.
func (f *Framework) onAutonomyChange(c autonomy.Change) {
	if f.metrics != nil {
		f.metrics.RecordTransition(c)
	}
	if f.archive != nil {
		f.archive.RecordChange(c)
	}
}

// Tick runs one framework tick. Call it from the host world tick.
func (f *Framework) Tick(dt time.Duration) {
	f.runner.Tick(dt)
}

// Dungeons returns the dungeon table, nil when none was supplied.
func (f *Framework) Dungeons() *data.DungeonTable { return f.dungeons }

// Sample is one statistics snapshot for the archive.
func (f *Framework) Sample() persist.Snapshot {
	return persist.Snapshot{
		TakenAt: f.now(),
		Buses:   f.Buses.Stats(),
		Terrain: f.Maps.TerrainStats(),
		Scripts: f.Scripts.Stats(),
	}
}

// FlushArchive writes pending archive rows now. No-op without an archive.
func (f *Framework) FlushArchive(ctx context.Context) {
	if f.archive != nil {
		f.archive.Flush(ctx)
	}
}

// Close removes every framework subscription and releases the Lua VM.
// Agents still spawned are despawned.
func (f *Framework) Close() {
	if f.Agents != nil {
		for _, a := range f.Agents.Agents() {
			f.Agents.Despawn(a.ID())
		}
		f.Agents.Close()
	}
	if f.Bridge != nil {
		f.Bridge.Close()
	}
	if f.journal != nil {
		f.journal.Detach()
	}
	if f.gauges != nil {
		if err := f.gauges.Unregister(); err != nil {
			f.log.Warn("指標回呼移除失敗", zap.Error(err))
		}
	}
	if f.lua != nil {
		f.lua.Close()
		f.lua = nil
	}
}
