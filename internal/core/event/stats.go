package event

import (
	"fmt"
	"io"
	"time"
)

// histogramBounds are the upper bounds (inclusive) of the processing-time
// buckets. The last bucket is open-ended.
var histogramBounds = []time.Duration{
	10 * time.Microsecond,
	50 * time.Microsecond,
	100 * time.Microsecond,
	250 * time.Microsecond,
	500 * time.Microsecond,
	time.Millisecond,
	5 * time.Millisecond,
}

// Stats is a point-in-time copy of a bus's counters.
//
// Accepted events satisfy Published - Delivered - Dropped - Expired == Pending.
// Invalid events never enter the queue and are counted in Rejected only.
type Stats struct {
	Bus             string
	Published       uint64
	Delivered       uint64
	Dropped         uint64 // evicted on overflow
	Rejected        uint64 // failed validation
	Expired         uint64
	Faults          uint64 // recovered subscriber panics
	Pending         int
	PeakQueueDepth  int
	Subscribers     int
	ProcessingCount uint64
	ProcessingTotal time.Duration
	Histogram       []uint64 // len(histogramBounds)+1 buckets
	PublishedByType map[string]uint64
}

// DroppedTotal is overflow evictions plus validation rejects, the figure
// reported as "dropped" to operators.
func (s Stats) DroppedTotal() uint64 { return s.Dropped + s.Rejected }

// AvgProcessingMicros is the mean wall time spent delivering one event.
func (s Stats) AvgProcessingMicros() float64 {
	if s.ProcessingCount == 0 {
		return 0
	}
	return float64(s.ProcessingTotal.Microseconds()) / float64(s.ProcessingCount)
}

// HistogramBounds returns the bucket upper bounds used by Stats.Histogram.
func HistogramBounds() []time.Duration {
	out := make([]time.Duration, len(histogramBounds))
	copy(out, histogramBounds)
	return out
}

// WriteTo prints a one-line summary, used by the stats dump command.
func (s Stats) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "%-9s pub=%d dlv=%d drop=%d rej=%d exp=%d fault=%d pend=%d peak=%d subs=%d avg=%.1fus\n",
		s.Bus, s.Published, s.Delivered, s.Dropped, s.Rejected, s.Expired, s.Faults,
		s.Pending, s.PeakQueueDepth, s.Subscribers, s.AvgProcessingMicros())
	return int64(n), err
}

type counters struct {
	published uint64
	delivered uint64
	dropped   uint64
	rejected  uint64
	expired   uint64
	faults    uint64
	peak      int
	procCount uint64
	procTotal time.Duration
	histogram []uint64
	perType   []uint64
}

func newCounters(numTypes int) counters {
	return counters{
		histogram: make([]uint64, len(histogramBounds)+1),
		perType:   make([]uint64, numTypes),
	}
}

func (c *counters) observe(d time.Duration) {
	c.procCount++
	c.procTotal += d
	for i, b := range histogramBounds {
		if d <= b {
			c.histogram[i]++
			return
		}
	}
	c.histogram[len(histogramBounds)]++
}
