package algos

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/pelago/internal/evo"
)

// Mayfly adapts the external mayfly optimizer to the evolve contract: it
// runs a full optimization against the population's problem and installs the
// global best over the population's worst individual.
//
// The external library takes scalar bounds, so the first dimension's bounds
// are used for every coordinate and the result is clamped back into the true
// box; it also requires a swarm of at least 20, so NPop is raised to that
// minimum when configured lower.
type Mayfly struct {
	Iters int    `json:"iters" yaml:"iters"`
	NPop  int    `json:"npop" yaml:"npop"`
	Seed  uint64 `json:"seed" yaml:"seed"`
}

// NewMayfly returns a Mayfly adapter.
func NewMayfly(iters, npop int, seed uint64) *Mayfly {
	return &Mayfly{Iters: iters, NPop: npop, Seed: seed}
}

// Evolve runs the external optimizer once.
func (m *Mayfly) Evolve(pop *evo.Population) (*evo.Population, error) {
	out := pop.Clone()
	prob := out.Problem()
	if err := requireSingleObjectiveUnconstrained("Mayfly", prob); err != nil {
		return nil, err
	}
	if out.Size() == 0 {
		return nil, &evo.ConstructionError{Reason: "Mayfly needs a non-empty population"}
	}

	lo, hi := prob.Bounds()

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(x []float64) float64 {
		f, err := prob.Fitness(x)
		if err != nil || len(f) == 0 || math.IsNaN(f[0]) {
			return math.Inf(1)
		}
		return f[0]
	}
	config.ProblemSize = prob.NX()
	config.MaxIterations = m.Iters
	npop := m.NPop
	if npop < 20 {
		npop = 20 // library minimum as of mayfly v0.1.0
	}
	config.NPop = npop
	config.LowerBound = lo[0]
	config.UpperBound = hi[0]
	config.Rand = rand.New(rand.NewSource(int64(m.Seed)))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, fmt.Errorf("mayfly optimize: %w", err)
	}

	best := make([]float64, prob.NX())
	for j := range best {
		best[j] = clamp(result.GlobalBest.Position[j], lo[j], hi[j])
	}
	bf, err := prob.Fitness(best)
	if err != nil {
		return nil, err
	}

	worst, err := out.WorstIdx()
	if err != nil {
		return nil, err
	}
	wf, _ := out.F(worst)
	if bf[0] <= wf[0] {
		if err := out.SetXF(worst, best, bf); err != nil {
			return nil, err
		}
	}

	m.Seed = m.Seed*6364136223846793005 + 1442695040888963407 // advance for the next call
	return out, nil
}

// SetSeed resets the generator state for the next Evolve call.
func (m *Mayfly) SetSeed(seed uint64) { m.Seed = seed }

// Name identifies the algorithm in summaries and the persistence registry.
func (m *Mayfly) Name() string { return "Mayfly" }

// ExtraInfo describes the configuration.
func (m *Mayfly) ExtraInfo() string {
	return fmt.Sprintf("Iterations: %d, NPop: %d, Seed: %d", m.Iters, m.NPop, m.Seed)
}

// Clone deep-copies the algorithm state.
func (m *Mayfly) Clone() any {
	c := *m
	return &c
}
