package evo

import (
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
)

// individualID is a process-wide monotonic counter; IDs stay unique for the
// life of every population in the process.
var individualID atomic.Uint64

func nextIndividualID() uint64 {
	return individualID.Add(1)
}

type individual struct {
	id uint64
	x  []float64
	f  []float64
}

// Population bundles a Problem with an ordered set of candidate decision
// vectors, their fitness vectors and unique IDs, plus the seed that drives
// its random number generator.
//
// A Population is exclusively owned by one Island; its methods are not safe
// for concurrent use. Algorithms receive it by value through Evolve and must
// return a replacement instead of editing in place.
type Population struct {
	prob *Problem
	inds []individual
	seed uint64
	rng  *rand.Rand
}

// NewPopulation creates a population of size random individuals drawn
// uniformly inside the problem's bounds, evaluating each one eagerly.
func NewPopulation(prob *Problem, size uint, seed uint64) (*Population, error) {
	if prob == nil {
		return nil, &ConstructionError{Reason: "cannot build a population on a nil problem"}
	}
	pop := NewEmptyPopulation(prob, seed)
	for i := uint(0); i < size; i++ {
		if err := pop.PushBack(pop.randomX()); err != nil {
			return nil, err
		}
	}
	return pop, nil
}

// NewEmptyPopulation creates a population with no individuals.
func NewEmptyPopulation(prob *Problem, seed uint64) *Population {
	return &Population{
		prob: prob,
		seed: seed,
		rng:  rand.New(rand.NewSource(int64(seed))),
	}
}

// randomX draws a decision vector uniformly inside the problem bounds.
func (pop *Population) randomX() []float64 {
	lo, hi := pop.prob.Bounds()
	x := make([]float64, len(lo))
	for i := range x {
		x[i] = lo[i] + pop.rng.Float64()*(hi[i]-lo[i])
	}
	return x
}

// PushBack evaluates x and appends it as a new individual with a fresh
// unique ID.
func (pop *Population) PushBack(x []float64) error {
	f, err := pop.prob.Fitness(x)
	if err != nil {
		return err
	}
	pop.inds = append(pop.inds, individual{
		id: nextIndividualID(),
		x:  append([]float64(nil), x...),
		f:  append([]float64(nil), f...),
	})
	return nil
}

// PushBackXF appends an individual with an already-known fitness vector,
// without re-evaluating the problem. Used by the persistence layer to
// rebuild populations from snapshots.
func (pop *Population) PushBackXF(x, f []float64) error {
	if len(x) != pop.prob.NX() {
		return &ConstructionError{Reason: fmt.Sprintf("decision vector length %d does not match problem dimension %d", len(x), pop.prob.NX())}
	}
	if len(f) != pop.prob.NF() {
		return &ConstructionError{Reason: fmt.Sprintf("fitness vector length %d does not match declared length %d", len(f), pop.prob.NF())}
	}
	pop.inds = append(pop.inds, individual{
		id: nextIndividualID(),
		x:  append([]float64(nil), x...),
		f:  append([]float64(nil), f...),
	})
	return nil
}

// SetX replaces individual i's decision vector, re-evaluating its fitness.
func (pop *Population) SetX(i int, x []float64) error {
	f, err := pop.prob.Fitness(x)
	if err != nil {
		return err
	}
	return pop.SetXF(i, x, f)
}

// SetXF replaces individual i's decision and fitness vectors. The ID is
// retained.
func (pop *Population) SetXF(i int, x, f []float64) error {
	if i < 0 || i >= len(pop.inds) {
		return &IndexError{Index: i, Size: len(pop.inds)}
	}
	if len(x) != pop.prob.NX() {
		return &ConstructionError{Reason: fmt.Sprintf("decision vector length %d does not match problem dimension %d", len(x), pop.prob.NX())}
	}
	if len(f) != pop.prob.NF() {
		return &ConstructionError{Reason: fmt.Sprintf("fitness vector length %d does not match declared length %d", len(f), pop.prob.NF())}
	}
	pop.inds[i].x = append([]float64(nil), x...)
	pop.inds[i].f = append([]float64(nil), f...)
	return nil
}

// Size returns the number of individuals.
func (pop *Population) Size() int { return len(pop.inds) }

// X returns a copy of individual i's decision vector.
func (pop *Population) X(i int) ([]float64, error) {
	if i < 0 || i >= len(pop.inds) {
		return nil, &IndexError{Index: i, Size: len(pop.inds)}
	}
	return append([]float64(nil), pop.inds[i].x...), nil
}

// F returns a copy of individual i's fitness vector.
func (pop *Population) F(i int) ([]float64, error) {
	if i < 0 || i >= len(pop.inds) {
		return nil, &IndexError{Index: i, Size: len(pop.inds)}
	}
	return append([]float64(nil), pop.inds[i].f...), nil
}

// ID returns individual i's unique identifier.
func (pop *Population) ID(i int) (uint64, error) {
	if i < 0 || i >= len(pop.inds) {
		return 0, &IndexError{Index: i, Size: len(pop.inds)}
	}
	return pop.inds[i].id, nil
}

// BestIdx returns the index of the individual with the lowest first
// objective. Only defined for single-objective problems with at least one
// individual.
func (pop *Population) BestIdx() (int, error) {
	if pop.prob.NObj() != 1 {
		return 0, &UnsupportedCapabilityError{Type: pop.prob.Name(), Capability: "BestIdx on a multi-objective problem"}
	}
	if len(pop.inds) == 0 {
		return 0, &IndexError{Index: 0, Size: 0}
	}
	best := 0
	for i := 1; i < len(pop.inds); i++ {
		if pop.inds[i].f[0] < pop.inds[best].f[0] {
			best = i
		}
	}
	return best, nil
}

// WorstIdx returns the index of the individual with the highest first
// objective, under the same restrictions as BestIdx.
func (pop *Population) WorstIdx() (int, error) {
	if pop.prob.NObj() != 1 {
		return 0, &UnsupportedCapabilityError{Type: pop.prob.Name(), Capability: "WorstIdx on a multi-objective problem"}
	}
	if len(pop.inds) == 0 {
		return 0, &IndexError{Index: 0, Size: 0}
	}
	worst := 0
	for i := 1; i < len(pop.inds); i++ {
		if pop.inds[i].f[0] > pop.inds[worst].f[0] {
			worst = i
		}
	}
	return worst, nil
}

// ChampionX returns a copy of the best individual's decision vector.
func (pop *Population) ChampionX() ([]float64, error) {
	best, err := pop.BestIdx()
	if err != nil {
		return nil, err
	}
	return pop.X(best)
}

// ChampionF returns a copy of the best individual's fitness vector.
func (pop *Population) ChampionF() ([]float64, error) {
	best, err := pop.BestIdx()
	if err != nil {
		return nil, err
	}
	return pop.F(best)
}

// Problem returns the owned problem.
func (pop *Population) Problem() *Problem { return pop.prob }

// Seed returns the seed this population was constructed with.
func (pop *Population) Seed() uint64 { return pop.seed }

// RNG returns the population's random number generator, for use by
// algorithms that derive randomness from the population rather than carrying
// their own seed.
func (pop *Population) RNG() *rand.Rand { return pop.rng }

// Clone returns a deep copy of the population, including a deep copy of the
// owned problem (evaluation counters preserved). Individual IDs are retained.
// The clone's RNG restarts from the stored seed.
func (pop *Population) Clone() *Population {
	np := &Population{
		prob: pop.prob.Clone(),
		seed: pop.seed,
		rng:  rand.New(rand.NewSource(int64(pop.seed))),
		inds: make([]individual, len(pop.inds)),
	}
	for i, ind := range pop.inds {
		np.inds[i] = individual{
			id: ind.id,
			x:  append([]float64(nil), ind.x...),
			f:  append([]float64(nil), ind.f...),
		}
	}
	return np
}

// String returns a short multi-line description of the population.
func (pop *Population) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Population size: %d\n", len(pop.inds))
	fmt.Fprintf(&b, "\tProblem: %s\n", pop.prob.Name())
	fmt.Fprintf(&b, "\tSeed: %d\n", pop.seed)
	if pop.prob.NObj() == 1 && len(pop.inds) > 0 {
		if f, err := pop.ChampionF(); err == nil {
			fmt.Fprintf(&b, "\tChampion fitness: %g\n", f[0])
		}
	}
	return b.String()
}
