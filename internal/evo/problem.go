package evo

import (
	"fmt"
	"math"
	"sync/atomic"
)

// UDP is the minimal contract a user-defined problem must satisfy to be
// wrapped in a Problem. Fitness maps a decision vector to a fitness vector
// (objectives first, then equality constraints, then inequality constraints);
// Bounds returns the box constraints as equal-length lower/upper vectors.
type UDP interface {
	Fitness(x []float64) []float64
	Bounds() (lo, hi []float64)
}

// Optional capabilities probed once at wrap time. A user value may implement
// any subset of these in addition to the mandatory UDP contract.
type (
	// Named provides a human-readable name for a wrapped value.
	Named interface{ Name() string }

	// ExtraInfoProvider provides free-form diagnostic text.
	ExtraInfoProvider interface{ ExtraInfo() string }

	// SafetyDeclarer lets a wrapped value declare its thread safety level.
	// Values that do not implement it default to SafetyBasic.
	SafetyDeclarer interface{ ThreadSafety() ThreadSafety }

	// GradientProvider declares a first-order derivative.
	GradientProvider interface{ Gradient(x []float64) []float64 }

	// HessiansProvider declares second-order derivatives, one matrix
	// (in sparse row-major form) per fitness component.
	HessiansProvider interface{ Hessians(x []float64) [][]float64 }

	// MultiObjective declares more than one objective.
	MultiObjective interface{ NObj() int }

	// EqualityConstrained declares equality constraints.
	EqualityConstrained interface{ NEC() int }

	// InequalityConstrained declares inequality constraints.
	InequalityConstrained interface{ NIC() int }

	// Seedable declares a controllable random seed (stochastic values).
	Seedable interface{ SetSeed(seed uint64) }

	// Cloner lets a wrapped value deep-copy itself. Values holding mutable
	// state should implement it; values without it are copied as plain
	// interface values and must treat their state as immutable.
	Cloner interface{ Clone() any }
)

// Problem is the type-erased holder of a user-defined problem. It caches the
// wrapped value's capabilities at construction time, validates every fitness
// and gradient call against the declared dimensions, and counts evaluations.
//
// A Problem is exclusively owned by one Population at a time; Clone performs
// a deep copy and preserves the evaluation counters.
type Problem struct {
	udp UDP

	name   string
	extra  func() string
	safety ThreadSafety

	nx, nobj, nec, nic int
	lb, ub             []float64
	ctol               []float64

	gradFn func([]float64) []float64
	hessFn func([]float64) [][]float64
	seedFn func(uint64)

	fevals atomic.Uint64
	gevals atomic.Uint64
	hevals atomic.Uint64
}

// NewProblem wraps a user-defined problem value. It fails with a
// ConstructionError if the value lacks the mandatory fitness/bounds
// capabilities, if the declared bounds are inconsistent, or if the value is
// itself already a Problem.
func NewProblem(udp any) (*Problem, error) {
	if udp == nil {
		return nil, &ConstructionError{Reason: "cannot wrap a nil problem"}
	}
	switch udp.(type) {
	case *Problem, Problem:
		return nil, &ConstructionError{Reason: "cannot wrap a Problem inside another Problem"}
	}

	inner, ok := udp.(UDP)
	if !ok {
		if _, hasFitness := udp.(interface{ Fitness(x []float64) []float64 }); !hasFitness {
			return nil, &ConstructionError{Reason: fmt.Sprintf("%T does not expose a Fitness method", udp)}
		}
		return nil, &ConstructionError{Reason: fmt.Sprintf("%T does not expose a Bounds method", udp)}
	}

	lo, hi := inner.Bounds()
	if len(lo) == 0 {
		return nil, &ConstructionError{Reason: "problem dimension cannot be zero"}
	}
	if len(lo) != len(hi) {
		return nil, &ConstructionError{Reason: fmt.Sprintf("bounds length mismatch: %d lower vs %d upper", len(lo), len(hi))}
	}
	for i := range lo {
		if math.IsNaN(lo[i]) || math.IsNaN(hi[i]) {
			return nil, &ConstructionError{Reason: fmt.Sprintf("bound %d is NaN", i)}
		}
		if lo[i] > hi[i] {
			return nil, &ConstructionError{Reason: fmt.Sprintf("lower bound %g exceeds upper bound %g at index %d", lo[i], hi[i], i)}
		}
	}

	p := &Problem{
		udp:    inner,
		nx:     len(lo),
		nobj:   1,
		safety: SafetyBasic,
		lb:     append([]float64(nil), lo...),
		ub:     append([]float64(nil), hi...),
	}

	if n, ok := inner.(Named); ok {
		p.name = n.Name()
	} else {
		p.name = fmt.Sprintf("%T", inner)
	}
	if e, ok := inner.(ExtraInfoProvider); ok {
		p.extra = e.ExtraInfo
	}
	if s, ok := inner.(SafetyDeclarer); ok {
		p.safety = s.ThreadSafety()
	}
	if m, ok := inner.(MultiObjective); ok {
		if m.NObj() < 1 {
			return nil, &ConstructionError{Reason: "number of objectives must be at least 1"}
		}
		p.nobj = m.NObj()
	}
	if c, ok := inner.(EqualityConstrained); ok {
		if c.NEC() < 0 {
			return nil, &ConstructionError{Reason: "number of equality constraints cannot be negative"}
		}
		p.nec = c.NEC()
	}
	if c, ok := inner.(InequalityConstrained); ok {
		if c.NIC() < 0 {
			return nil, &ConstructionError{Reason: "number of inequality constraints cannot be negative"}
		}
		p.nic = c.NIC()
	}
	if g, ok := inner.(GradientProvider); ok {
		p.gradFn = g.Gradient
	}
	if h, ok := inner.(HessiansProvider); ok {
		p.hessFn = h.Hessians
	}
	if s, ok := inner.(Seedable); ok {
		p.seedFn = s.SetSeed
	}
	p.ctol = make([]float64, p.nec+p.nic)

	return p, nil
}

// NewDefaultProblem returns a Problem wrapping the built-in null problem.
func NewDefaultProblem() *Problem {
	p, err := NewProblem(NullProblem{})
	if err != nil {
		panic(err) // the null problem always satisfies the contract
	}
	return p
}

// ExtractProblem returns the contained user value if it is of type T.
func ExtractProblem[T any](p *Problem) (T, bool) {
	v, ok := p.udp.(T)
	return v, ok
}

// IsProblem reports whether the contained user value is of type T.
func IsProblem[T any](p *Problem) bool {
	_, ok := p.udp.(T)
	return ok
}

// UDP returns the contained user value. Exposed for the persistence layer;
// callers must not mutate the value while the Problem is installed on an
// island.
func (p *Problem) UDP() UDP { return p.udp }

// Fitness evaluates the wrapped problem at x and increments the fitness
// evaluation counter. The input length must equal NX; the output length must
// equal NF.
func (p *Problem) Fitness(x []float64) ([]float64, error) {
	if len(x) != p.nx {
		return nil, &ConstructionError{Reason: fmt.Sprintf("decision vector length %d does not match problem dimension %d", len(x), p.nx)}
	}
	f := p.udp.Fitness(x)
	p.fevals.Add(1)
	if len(f) != p.NF() {
		return nil, &ConstructionError{Reason: fmt.Sprintf("fitness vector length %d does not match declared length %d", len(f), p.NF())}
	}
	return f, nil
}

// Gradient evaluates the declared gradient at x. Returns an
// UnsupportedCapabilityError if the wrapped value has no gradient.
func (p *Problem) Gradient(x []float64) ([]float64, error) {
	if p.gradFn == nil {
		return nil, &UnsupportedCapabilityError{Type: p.name, Capability: "Gradient"}
	}
	if len(x) != p.nx {
		return nil, &ConstructionError{Reason: fmt.Sprintf("decision vector length %d does not match problem dimension %d", len(x), p.nx)}
	}
	g := p.gradFn(x)
	p.gevals.Add(1)
	return g, nil
}

// Hessians evaluates the declared hessians at x. Returns an
// UnsupportedCapabilityError if the wrapped value has none.
func (p *Problem) Hessians(x []float64) ([][]float64, error) {
	if p.hessFn == nil {
		return nil, &UnsupportedCapabilityError{Type: p.name, Capability: "Hessians"}
	}
	if len(x) != p.nx {
		return nil, &ConstructionError{Reason: fmt.Sprintf("decision vector length %d does not match problem dimension %d", len(x), p.nx)}
	}
	h := p.hessFn(x)
	p.hevals.Add(1)
	return h, nil
}

// SetSeed reseeds a stochastic problem. Returns an
// UnsupportedCapabilityError for deterministic problems.
func (p *Problem) SetSeed(seed uint64) error {
	if p.seedFn == nil {
		return &UnsupportedCapabilityError{Type: p.name, Capability: "SetSeed"}
	}
	p.seedFn(seed)
	return nil
}

// Bounds returns copies of the cached lower and upper bounds.
func (p *Problem) Bounds() (lo, hi []float64) {
	return append([]float64(nil), p.lb...), append([]float64(nil), p.ub...)
}

// NX returns the decision vector dimension.
func (p *Problem) NX() int { return p.nx }

// NF returns the fitness vector length (objectives plus constraints).
func (p *Problem) NF() int { return p.nobj + p.nec + p.nic }

// NObj returns the number of objectives.
func (p *Problem) NObj() int { return p.nobj }

// NEC returns the number of equality constraints.
func (p *Problem) NEC() int { return p.nec }

// NIC returns the number of inequality constraints.
func (p *Problem) NIC() int { return p.nic }

// NC returns the total number of constraints.
func (p *Problem) NC() int { return p.nec + p.nic }

// Fevals returns the number of fitness evaluations performed so far.
func (p *Problem) Fevals() uint64 { return p.fevals.Load() }

// Gevals returns the number of gradient evaluations performed so far.
func (p *Problem) Gevals() uint64 { return p.gevals.Load() }

// Hevals returns the number of hessian evaluations performed so far.
func (p *Problem) Hevals() uint64 { return p.hevals.Load() }

// HasGradient reports whether the wrapped value declares a gradient.
func (p *Problem) HasGradient() bool { return p.gradFn != nil }

// HasHessians reports whether the wrapped value declares hessians.
func (p *Problem) HasHessians() bool { return p.hessFn != nil }

// HasSetSeed reports whether the wrapped value is reseedable.
func (p *Problem) HasSetSeed() bool { return p.seedFn != nil }

// ThreadSafety returns the safety level cached at construction.
func (p *Problem) ThreadSafety() ThreadSafety { return p.safety }

// Name returns the problem name.
func (p *Problem) Name() string { return p.name }

// ExtraInfo returns the wrapped value's diagnostic text, if any.
func (p *Problem) ExtraInfo() string {
	if p.extra == nil {
		return ""
	}
	return p.extra()
}

// CTol returns a copy of the constraint tolerance vector.
func (p *Problem) CTol() []float64 {
	return append([]float64(nil), p.ctol...)
}

// SetCTol replaces the constraint tolerance vector. The length must equal NC
// and all entries must be non-negative.
func (p *Problem) SetCTol(tol []float64) error {
	if len(tol) != p.NC() {
		return &ConstructionError{Reason: fmt.Sprintf("constraint tolerance length %d does not match constraint count %d", len(tol), p.NC())}
	}
	for i, t := range tol {
		if t < 0 || math.IsNaN(t) {
			return &ConstructionError{Reason: fmt.Sprintf("constraint tolerance %g at index %d is invalid", t, i)}
		}
	}
	p.ctol = append([]float64(nil), tol...)
	return nil
}

// FeasibilityF reports whether a fitness vector satisfies all constraints
// within the configured tolerances. The input length must equal NF.
func (p *Problem) FeasibilityF(f []float64) (bool, error) {
	if len(f) != p.NF() {
		return false, &ConstructionError{Reason: fmt.Sprintf("fitness vector length %d does not match declared length %d", len(f), p.NF())}
	}
	for i := 0; i < p.nec; i++ {
		if math.Abs(f[p.nobj+i]) > p.ctol[i] {
			return false, nil
		}
	}
	for i := 0; i < p.nic; i++ {
		if f[p.nobj+p.nec+i] > p.ctol[p.nec+i] {
			return false, nil
		}
	}
	return true, nil
}

// FeasibilityX evaluates x (counting the evaluation) and reports whether the
// result is feasible.
func (p *Problem) FeasibilityX(x []float64) (bool, error) {
	f, err := p.Fitness(x)
	if err != nil {
		return false, err
	}
	return p.FeasibilityF(f)
}

// Clone returns a deep copy of the Problem, preserving the evaluation
// counters. The wrapped value is deep-copied through its Clone hook when it
// has one.
func (p *Problem) Clone() *Problem {
	udp := p.udp
	if c, ok := udp.(Cloner); ok {
		if cloned, ok := c.Clone().(UDP); ok {
			udp = cloned
		}
	}
	np := &Problem{
		udp:    udp,
		name:   p.name,
		safety: p.safety,
		nx:     p.nx,
		nobj:   p.nobj,
		nec:    p.nec,
		nic:    p.nic,
		lb:     append([]float64(nil), p.lb...),
		ub:     append([]float64(nil), p.ub...),
		ctol:   append([]float64(nil), p.ctol...),
	}
	// Re-probe optional capabilities against the (possibly cloned) value so
	// bound methods point at the copy, not the original.
	if e, ok := udp.(ExtraInfoProvider); ok {
		np.extra = e.ExtraInfo
	}
	if g, ok := udp.(GradientProvider); ok {
		np.gradFn = g.Gradient
	}
	if h, ok := udp.(HessiansProvider); ok {
		np.hessFn = h.Hessians
	}
	if s, ok := udp.(Seedable); ok {
		np.seedFn = s.SetSeed
	}
	np.fevals.Store(p.fevals.Load())
	np.gevals.Store(p.gevals.Load())
	np.hevals.Store(p.hevals.Load())
	return np
}

// String returns a short multi-line description of the problem.
func (p *Problem) String() string {
	return fmt.Sprintf("Problem name: %s\n\tDimension: %d\n\tObjectives: %d\n\tConstraints: %d\n\tFitness evaluations: %d\n\tThread safety: %s\n",
		p.name, p.nx, p.nobj, p.NC(), p.Fevals(), p.safety)
}
