// Package observe exports framework telemetry through the OpenTelemetry
// metrics API. Bus traffic arrives through the event.Observer hook; queue
// depths, cache hit rates and script counters are read from the components
// on each collection through observable gauges.
//
// Tests build Metrics on a ManualReader provider; the harness uses
// InitProvider, which bridges to Prometheus.
package observe

import (
	"context"
	"time"

	"github.com/l1jgo/playerbot/internal/autonomy"
	"github.com/l1jgo/playerbot/internal/core/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope of every framework metric.
const meterName = "github.com/l1jgo/playerbot"

// Metrics holds the framework's metric instruments. All fields are safe for
// concurrent use.
type Metrics struct {
	meter metric.Meter

	// --- bus traffic ---

	// EventsPublished counts accepted events. Attributes: bus, type, priority.
	EventsPublished metric.Int64Counter
	// EventsDelivered counts events handed to subscribers. Attributes: bus, type.
	EventsDelivered metric.Int64Counter
	// EventsDropped counts invalid, evicted and expired events. Attributes:
	// bus, type, reason.
	EventsDropped metric.Int64Counter
	// SubscriberFaults counts recovered subscriber panics. Attributes: bus, type.
	SubscriberFaults metric.Int64Counter
	// DeliveryDuration is the wall time of one delivery to all subscribers.
	DeliveryDuration metric.Float64Histogram

	// --- autonomy ---

	// AutonomyTransitions counts state changes. Attributes: from, to.
	AutonomyTransitions metric.Int64Counter
}

// deliveryBuckets are in seconds; deliveries run on the world tick and
// should stay well under a millisecond.
var deliveryBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.005, 0.025,
}

// NewMetrics creates the instruments on mp's framework meter.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{meter: m}

	if met.EventsPublished, err = m.Int64Counter("playerbot.bus.events.published",
		metric.WithDescription("Events accepted by a bus, by bus, type and priority."),
	); err != nil {
		return nil, err
	}
	if met.EventsDelivered, err = m.Int64Counter("playerbot.bus.events.delivered",
		metric.WithDescription("Events delivered to subscribers, by bus and type."),
	); err != nil {
		return nil, err
	}
	if met.EventsDropped, err = m.Int64Counter("playerbot.bus.events.dropped",
		metric.WithDescription("Events that left a bus undelivered, by bus, type and reason."),
	); err != nil {
		return nil, err
	}
	if met.SubscriberFaults, err = m.Int64Counter("playerbot.bus.subscriber.faults",
		metric.WithDescription("Recovered subscriber panics, by bus and type."),
	); err != nil {
		return nil, err
	}
	if met.DeliveryDuration, err = m.Float64Histogram("playerbot.bus.delivery.duration",
		metric.WithDescription("Time spent delivering one event to every subscriber."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(deliveryBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AutonomyTransitions, err = m.Int64Counter("playerbot.autonomy.transitions",
		metric.WithDescription("Autonomy state changes, by from and to state."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// ---------- event.Observer ----------

func (m *Metrics) EventPublished(bus, typ string, p event.Priority) {
	m.EventsPublished.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("bus", bus),
		attribute.String("type", typ),
		attribute.String("priority", p.String()),
	))
}

func (m *Metrics) EventDelivered(bus, typ string, took time.Duration) {
	attrs := metric.WithAttributes(attribute.String("bus", bus), attribute.String("type", typ))
	m.EventsDelivered.Add(context.Background(), 1, attrs)
	m.DeliveryDuration.Record(context.Background(), took.Seconds(), metric.WithAttributes(attribute.String("bus", bus)))
}

func (m *Metrics) EventDropped(bus, typ string, reason event.DropReason) {
	m.EventsDropped.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("bus", bus),
		attribute.String("type", typ),
		attribute.String("reason", string(reason)),
	))
}

func (m *Metrics) SubscriberFault(bus, typ string) {
	m.SubscriberFaults.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("bus", bus),
		attribute.String("type", typ),
	))
}

var _ event.Observer = (*Metrics)(nil)

// RecordTransition counts one autonomy state change. Pass it (or a wrapper)
// to autonomy.WithChangeHook.
func (m *Metrics) RecordTransition(c autonomy.Change) {
	m.AutonomyTransitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("from", c.From.String()),
		attribute.String("to", c.To.String()),
	))
}
