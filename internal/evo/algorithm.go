package evo

import (
	"fmt"
	"sync"
	"time"
)

// UDA is the minimal contract a user-defined algorithm must satisfy to be
// wrapped in an Algorithm: a pure function from Population to Population.
// Evolve must not mutate the input population; it returns a replacement.
type UDA interface {
	Evolve(pop *Population) (*Population, error)
}

// VerbositySetter declares a controllable verbosity level on a UDA.
type VerbositySetter interface{ SetVerbosity(level uint) }

// EvolveRecord is one entry of an Algorithm's evolution log, appended after
// every completed Evolve call.
type EvolveRecord struct {
	Seq       int           `json:"seq"`
	Duration  time.Duration `json:"duration"`
	Fevals    uint64        `json:"fevals"`
	ChampionF []float64     `json:"championF,omitempty"`
}

// Algorithm is the type-erased holder of a user-defined algorithm. Like
// Problem, it caches the wrapped value's capabilities at construction time.
// It additionally keeps an append-only evolution log, cleared whenever the
// Algorithm is reconstructed.
//
// An Algorithm is exclusively owned by one Island; Clone performs a deep
// copy.
type Algorithm struct {
	uda UDA

	name   string
	extra  func() string
	safety ThreadSafety

	seedFn func(uint64)
	verbFn func(uint)

	mu  sync.Mutex
	log []EvolveRecord
}

// NewAlgorithm wraps a user-defined algorithm value. It fails with a
// ConstructionError if the value lacks the mandatory Evolve capability or is
// itself already an Algorithm.
func NewAlgorithm(uda any) (*Algorithm, error) {
	if uda == nil {
		return nil, &ConstructionError{Reason: "cannot wrap a nil algorithm"}
	}
	switch uda.(type) {
	case *Algorithm, Algorithm:
		return nil, &ConstructionError{Reason: "cannot wrap an Algorithm inside another Algorithm"}
	}

	inner, ok := uda.(UDA)
	if !ok {
		return nil, &ConstructionError{Reason: fmt.Sprintf("%T does not expose an Evolve method", uda)}
	}

	a := &Algorithm{
		uda:    inner,
		safety: SafetyBasic,
	}
	if n, ok := inner.(Named); ok {
		a.name = n.Name()
	} else {
		a.name = fmt.Sprintf("%T", inner)
	}
	if e, ok := inner.(ExtraInfoProvider); ok {
		a.extra = e.ExtraInfo
	}
	if s, ok := inner.(SafetyDeclarer); ok {
		a.safety = s.ThreadSafety()
	}
	if s, ok := inner.(Seedable); ok {
		a.seedFn = s.SetSeed
	}
	if v, ok := inner.(VerbositySetter); ok {
		a.verbFn = v.SetVerbosity
	}
	return a, nil
}

// NewDefaultAlgorithm returns an Algorithm wrapping the built-in null
// algorithm (identity evolve).
func NewDefaultAlgorithm() *Algorithm {
	a, err := NewAlgorithm(NullAlgorithm{})
	if err != nil {
		panic(err) // the null algorithm always satisfies the contract
	}
	return a
}

// ExtractAlgorithm returns the contained user value if it is of type T.
func ExtractAlgorithm[T any](a *Algorithm) (T, bool) {
	v, ok := a.uda.(T)
	return v, ok
}

// IsAlgorithm reports whether the contained user value is of type T.
func IsAlgorithm[T any](a *Algorithm) bool {
	_, ok := a.uda.(T)
	return ok
}

// UDA returns the contained user value. Exposed for the persistence layer;
// callers must not mutate the value while the Algorithm is installed on an
// island.
func (a *Algorithm) UDA() UDA { return a.uda }

// Evolve invokes the wrapped algorithm on pop and appends a record to the
// evolution log. The returned population is a wholesale replacement; the
// input is never mutated.
func (a *Algorithm) Evolve(pop *Population) (*Population, error) {
	if pop == nil {
		return nil, &ConstructionError{Reason: "cannot evolve a nil population"}
	}
	before := pop.Problem().Fevals()
	start := time.Now()

	out, err := a.uda.Evolve(pop)
	if err != nil {
		return nil, fmt.Errorf("algorithm %q: %w", a.name, err)
	}
	if out == nil {
		return nil, &ConstructionError{Reason: fmt.Sprintf("algorithm %q returned a nil population", a.name)}
	}

	rec := EvolveRecord{
		Duration: time.Since(start),
		Fevals:   out.Problem().Fevals() - before,
	}
	if out.Problem().NObj() == 1 && out.Size() > 0 {
		if f, err := out.ChampionF(); err == nil {
			rec.ChampionF = f
		}
	}
	a.mu.Lock()
	rec.Seq = len(a.log) + 1
	a.log = append(a.log, rec)
	a.mu.Unlock()

	return out, nil
}

// SetSeed reseeds a stochastic algorithm. Returns an
// UnsupportedCapabilityError for deterministic algorithms.
func (a *Algorithm) SetSeed(seed uint64) error {
	if a.seedFn == nil {
		return &UnsupportedCapabilityError{Type: a.name, Capability: "SetSeed"}
	}
	a.seedFn(seed)
	return nil
}

// SetVerbosity sets the wrapped algorithm's verbosity level. Returns an
// UnsupportedCapabilityError when the capability is absent.
func (a *Algorithm) SetVerbosity(level uint) error {
	if a.verbFn == nil {
		return &UnsupportedCapabilityError{Type: a.name, Capability: "SetVerbosity"}
	}
	a.verbFn(level)
	return nil
}

// HasSetSeed reports whether the wrapped value exposes a seed setter. This is
// recorded once at wrap time and is distinct from SetSeed being a no-op.
func (a *Algorithm) HasSetSeed() bool { return a.seedFn != nil }

// HasSetVerbosity reports whether the wrapped value exposes a verbosity
// setter.
func (a *Algorithm) HasSetVerbosity() bool { return a.verbFn != nil }

// ThreadSafety returns the safety level cached at construction.
func (a *Algorithm) ThreadSafety() ThreadSafety { return a.safety }

// Name returns the algorithm name.
func (a *Algorithm) Name() string { return a.name }

// ExtraInfo returns the wrapped value's diagnostic text, if any.
func (a *Algorithm) ExtraInfo() string {
	if a.extra == nil {
		return ""
	}
	return a.extra()
}

// Log returns a copy of the evolution log.
func (a *Algorithm) Log() []EvolveRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]EvolveRecord(nil), a.log...)
}

// Clone returns a deep copy of the Algorithm, including its evolution log.
// The wrapped value is deep-copied through its Clone hook when it has one.
func (a *Algorithm) Clone() *Algorithm {
	uda := a.uda
	if c, ok := uda.(Cloner); ok {
		if cloned, ok := c.Clone().(UDA); ok {
			uda = cloned
		}
	}
	na := &Algorithm{
		uda:    uda,
		name:   a.name,
		safety: a.safety,
	}
	if e, ok := uda.(ExtraInfoProvider); ok {
		na.extra = e.ExtraInfo
	}
	if s, ok := uda.(Seedable); ok {
		na.seedFn = s.SetSeed
	}
	if v, ok := uda.(VerbositySetter); ok {
		na.verbFn = v.SetVerbosity
	}
	a.mu.Lock()
	na.log = append([]EvolveRecord(nil), a.log...)
	a.mu.Unlock()
	return na
}

// String returns a short multi-line description of the algorithm.
func (a *Algorithm) String() string {
	return fmt.Sprintf("Algorithm name: %s\n\tThread safety: %s\n\tHas seed setter: %t\n\tHas verbosity setter: %t\n",
		a.name, a.safety, a.HasSetSeed(), a.HasSetVerbosity())
}
