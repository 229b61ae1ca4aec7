package evo

import (
	"errors"
	"time"
)

// quadratic is a minimal deterministic UDP: sum of squares over [-1,1]^dim.
type quadratic struct {
	dim int
}

func (q quadratic) Fitness(x []float64) []float64 {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return []float64{s}
}

func (q quadratic) Bounds() (lo, hi []float64) {
	lo = make([]float64, q.dim)
	hi = make([]float64, q.dim)
	for i := range lo {
		lo[i] = -1
		hi[i] = 1
	}
	return lo, hi
}

func (q quadratic) Name() string { return "Quadratic" }

// gradQuadratic adds a gradient to quadratic.
type gradQuadratic struct {
	quadratic
}

func (g gradQuadratic) Gradient(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = 2 * v
	}
	return out
}

// unsafeProblem declares no thread safety.
type unsafeProblem struct {
	quadratic
}

func (unsafeProblem) ThreadSafety() ThreadSafety { return SafetyNone }

// halver deterministically halves every decision vector. n applications of
// halver shrink the initial vectors by 2^n, which tests use to check FIFO
// ordering and exact replay.
type halver struct{}

func (halver) Evolve(pop *Population) (*Population, error) {
	out := pop.Clone()
	for i := 0; i < out.Size(); i++ {
		x, err := out.X(i)
		if err != nil {
			return nil, err
		}
		for j := range x {
			x[j] /= 2
		}
		if err := out.SetX(i, x); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (halver) Name() string { return "Halver" }

// slowAlgorithm holds the worker long enough for queue tests to observe busy
// state and overflow.
type slowAlgorithm struct {
	delay time.Duration
}

func (s slowAlgorithm) Evolve(pop *Population) (*Population, error) {
	time.Sleep(s.delay)
	return pop.Clone(), nil
}

func (s slowAlgorithm) Name() string { return "Slow" }

// failingAlgorithm always errors.
type failingAlgorithm struct{}

var errEvolveBoom = errors.New("boom")

func (failingAlgorithm) Evolve(pop *Population) (*Population, error) {
	return nil, errEvolveBoom
}

func (failingAlgorithm) Name() string { return "Failing" }

// unsafeAlgorithm declares no thread safety.
type unsafeAlgorithm struct{}

func (unsafeAlgorithm) Evolve(pop *Population) (*Population, error) {
	return pop.Clone(), nil
}

func (unsafeAlgorithm) Name() string { return "Unsafe" }

func (unsafeAlgorithm) ThreadSafety() ThreadSafety { return SafetyNone }

// seededAlgorithm records SetSeed/SetVerbosity calls for capability tests.
type seededAlgorithm struct {
	seed      uint64
	verbosity uint
}

func (s *seededAlgorithm) Evolve(pop *Population) (*Population, error) {
	return pop.Clone(), nil
}

func (s *seededAlgorithm) SetSeed(seed uint64)      { s.seed = seed }
func (s *seededAlgorithm) SetVerbosity(level uint)  { s.verbosity = level }
func (s *seededAlgorithm) Name() string             { return "Seeded" }
func (s *seededAlgorithm) Clone() any               { c := *s; return &c }

func mustProblem(udp any) *Problem {
	p, err := NewProblem(udp)
	if err != nil {
		panic(err)
	}
	return p
}

func mustAlgorithm(uda any) *Algorithm {
	a, err := NewAlgorithm(uda)
	if err != nil {
		panic(err)
	}
	return a
}

func mustPopulation(prob *Problem, size uint, seed uint64) *Population {
	pop, err := NewPopulation(prob, size, seed)
	if err != nil {
		panic(err)
	}
	return pop
}
