package evo

// ThreadSafety describes the concurrency guarantee a user-defined problem or
// algorithm makes about itself. It is queried once when the value is wrapped
// and cached; user code must not change its answer afterwards.
type ThreadSafety int

const (
	// SafetyNone: concurrent operations on distinct instances are unsafe.
	// The island scheduler refuses to dispatch such a type to its worker.
	SafetyNone ThreadSafety = iota

	// SafetyBasic: concurrent operations on distinct instances are safe.
	// This is the default for wrapped values that do not declare a level.
	SafetyBasic
)

// String returns the canonical lowercase rendering of the safety level.
func (ts ThreadSafety) String() string {
	switch ts {
	case SafetyNone:
		return "none"
	case SafetyBasic:
		return "basic"
	default:
		return "unknown"
	}
}

// MinSafety returns the weaker of two safety levels.
func MinSafety(a, b ThreadSafety) ThreadSafety {
	if a < b {
		return a
	}
	return b
}
