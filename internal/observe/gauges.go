package observe

import (
	"context"
	"fmt"

	"github.com/l1jgo/playerbot/internal/autonomy"
	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/dungeon"
	"github.com/l1jgo/playerbot/internal/sniffer"
	"github.com/l1jgo/playerbot/internal/world"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Sources are read on every collection. Nil fields are skipped.
type Sources struct {
	Buses    func() []event.Stats
	Terrain  func() []world.TerrainStats
	Scripts  func() dungeon.Stats
	Sniffer  func() sniffer.Stats
	Autonomy func() []autonomy.Status
}

// RegisterSources adds the observable gauges backed by src. Unregister the
// returned registration when the sources go away.
func (m *Metrics) RegisterSources(src Sources) (metric.Registration, error) {
	pending, err := m.meter.Int64ObservableGauge("playerbot.bus.pending",
		metric.WithDescription("Events queued on a bus, by bus."))
	if err != nil {
		return nil, err
	}
	peak, err := m.meter.Int64ObservableGauge("playerbot.bus.peak_depth",
		metric.WithDescription("Highest queue depth seen since the last reset, by bus."))
	if err != nil {
		return nil, err
	}
	subs, err := m.meter.Int64ObservableGauge("playerbot.bus.subscribers",
		metric.WithDescription("Subscriptions held by a bus, by bus."))
	if err != nil {
		return nil, err
	}
	hitRate, err := m.meter.Float64ObservableGauge("playerbot.terrain.hit_rate",
		metric.WithDescription("Terrain cache hit ratio, by map."))
	if err != nil {
		return nil, err
	}
	entries, err := m.meter.Int64ObservableGauge("playerbot.terrain.entries",
		metric.WithDescription("Populated terrain cells, by map."))
	if err != nil {
		return nil, err
	}
	scripts, err := m.meter.Int64ObservableCounter("playerbot.scripts.executions",
		metric.WithDescription("Mechanic executions, by level (script, fallback, generic)."))
	if err != nil {
		return nil, err
	}
	packets, err := m.meter.Int64ObservableCounter("playerbot.sniffer.packets",
		metric.WithDescription("Typed packets seen by the sniffer, by category."))
	if err != nil {
		return nil, err
	}
	groups, err := m.meter.Int64ObservableGauge("playerbot.autonomy.groups",
		metric.WithDescription("Groups known to the autonomy manager, by visible state."))
	if err != nil {
		return nil, err
	}

	return m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		if src.Buses != nil {
			for _, s := range src.Buses() {
				bus := metric.WithAttributes(attribute.String("bus", s.Bus))
				o.ObserveInt64(pending, int64(s.Pending), bus)
				o.ObserveInt64(peak, int64(s.PeakQueueDepth), bus)
				o.ObserveInt64(subs, int64(s.Subscribers), bus)
			}
		}
		if src.Terrain != nil {
			for _, s := range src.Terrain() {
				mp := metric.WithAttributes(attribute.String("map", fmt.Sprint(s.Map)))
				o.ObserveFloat64(hitRate, s.HitRate(), mp)
				o.ObserveInt64(entries, s.Entries, mp)
			}
		}
		if src.Scripts != nil {
			s := src.Scripts()
			o.ObserveInt64(scripts, int64(s.ScriptHits), metric.WithAttributes(attribute.String("level", "script")))
			o.ObserveInt64(scripts, int64(s.FallbackExecutions), metric.WithAttributes(attribute.String("level", "fallback")))
			o.ObserveInt64(scripts, int64(s.GenericExecutions), metric.WithAttributes(attribute.String("level", "generic")))
		}
		if src.Sniffer != nil {
			for cat, n := range src.Sniffer().ByCategory {
				o.ObserveInt64(packets, int64(n), metric.WithAttributes(attribute.String("category", cat)))
			}
		}
		if src.Autonomy != nil {
			counts := make(map[autonomy.State]int64)
			for _, st := range src.Autonomy() {
				counts[st.State]++
			}
			for state, n := range counts {
				o.ObserveInt64(groups, n, metric.WithAttributes(attribute.String("state", state.String())))
			}
		}
		return nil
	}, pending, peak, subs, hitRate, entries, scripts, packets, groups)
}
