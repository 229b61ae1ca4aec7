package evo

import "fmt"

// ConstructionError indicates that a value could not be wrapped as a Problem
// or Algorithm, or that a supplied vector disagrees with the problem's
// declared dimensions.
type ConstructionError struct {
	Reason string
}

func (e *ConstructionError) Error() string {
	return "construction error: " + e.Reason
}

func (e *ConstructionError) Is(target error) bool {
	_, ok := target.(*ConstructionError)
	return ok
}

// IndexError indicates an out-of-range island or individual index.
type IndexError struct {
	Index int
	Size  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index error: index %d out of range (size %d)", e.Index, e.Size)
}

func (e *IndexError) Is(target error) bool {
	_, ok := target.(*IndexError)
	return ok
}

// QueueOverflowError indicates that an evolution request was dropped because
// the island's task queue was full. It is remembered by the island and
// surfaced exactly once by the next Get call.
type QueueOverflowError struct {
	Capacity int
}

func (e *QueueOverflowError) Error() string {
	return fmt.Sprintf("queue overflow: evolution request dropped, more than %d tasks pending", e.Capacity)
}

func (e *QueueOverflowError) Is(target error) bool {
	_, ok := target.(*QueueOverflowError)
	return ok
}

// ThreadSafetyViolationError indicates that a queued task found the installed
// algorithm or problem declaring no thread safety while being dispatched
// through the worker path. The task is not run; the error is remembered and
// surfaced exactly once by the next Get call.
type ThreadSafetyViolationError struct {
	Component string // "algorithm" or "problem"
	Name      string
}

func (e *ThreadSafetyViolationError) Error() string {
	return fmt.Sprintf("thread safety violation: %s %q declares no thread safety and cannot be evolved on an island worker", e.Component, e.Name)
}

func (e *ThreadSafetyViolationError) Is(target error) bool {
	_, ok := target.(*ThreadSafetyViolationError)
	return ok
}

// UnsupportedCapabilityError indicates a call to an operation the wrapped
// user value does not implement (e.g. SetSeed on a deterministic algorithm,
// Gradient on a problem without one).
type UnsupportedCapabilityError struct {
	Type       string
	Capability string
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("unsupported capability: %s does not implement %s", e.Type, e.Capability)
}

func (e *UnsupportedCapabilityError) Is(target error) bool {
	_, ok := target.(*UnsupportedCapabilityError)
	return ok
}
