package system

import "time"

// Phase orders the framework's work inside one host world tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: grid swap, dedup gate sweep
	PhasePreUpdate               // 1: bridge group poll
	PhaseUpdate                  // 2: batch event drain, autonomy tick
	PhasePostUpdate              // 3: dungeon script OnUpdate
	PhaseOutput                  // 4: metrics gauges
	PhasePersist                 // 5: statistics archive flush
	PhaseCleanup                 // 6: despawned agents
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is one unit of per-tick framework work.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

// Func adapts a plain function into a System.
type Func struct {
	P  Phase
	Fn func(dt time.Duration)
}

func (f Func) Phase() Phase            { return f.P }
func (f Func) Update(dt time.Duration) { f.Fn(dt) }
