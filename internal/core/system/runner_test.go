package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var order []string
	rec := func(name string, p Phase) System {
		return Func{P: p, Fn: func(time.Duration) { order = append(order, name) }}
	}
	r := NewRunner()
	r.Register(rec("archive", PhasePersist))
	r.Register(rec("poll", PhasePreUpdate))
	r.Register(rec("drain", PhaseUpdate))
	r.Register(rec("autonomy", PhaseUpdate))
	r.Register(rec("swap", PhaseInput))

	r.Tick(100 * time.Millisecond)
	assert.Equal(t, []string{"swap", "poll", "drain", "autonomy", "archive"}, order)

	order = nil
	r.TickPhase(PhaseUpdate, 0)
	assert.Equal(t, []string{"drain", "autonomy"}, order)
	assert.Equal(t, 5, r.Len())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "pre-update", PhasePreUpdate.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
