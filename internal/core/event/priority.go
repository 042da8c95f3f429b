package event

import "fmt"

// Priority orders pending events. Lower values are delivered first;
// PriorityDefault is replaced by the bus's per-type table at publish time.
type Priority uint8

const (
	PriorityDefault Priority = iota
	PriorityCritical
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityBatch
)

func (p Priority) String() string {
	switch p {
	case PriorityDefault:
		return "Default"
	case PriorityCritical:
		return "Critical"
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	case PriorityBatch:
		return "Batch"
	default:
		return fmt.Sprintf("Priority(%d)", uint8(p))
	}
}

// Valid reports whether p is one of the five concrete levels.
func (p Priority) Valid() bool {
	return p >= PriorityCritical && p <= PriorityBatch
}
