// Package algos provides the built-in user-defined algorithms consumed
// through the evo.Algorithm contract. All of them are single-objective,
// box-bounded metaheuristics; multi-objective or constrained populations are
// rejected at evolve time.
package algos

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/cwbudde/pelago/internal/evo"
)

// DE is a rand/1/bin differential evolution. Each Evolve call runs Gen
// generations over the incoming population and returns the evolved
// replacement. The seed advances deterministically after every call, so a
// sequence of evolutions is fully replayable from the initial seed.
type DE struct {
	Gen       uint    `json:"gen" yaml:"gen"`
	F         float64 `json:"f" yaml:"f"`
	CR        float64 `json:"cr" yaml:"cr"`
	Seed      uint64  `json:"seed" yaml:"seed"`
	Verbosity uint    `json:"-" yaml:"-"`
}

// NewDE returns a DE with the canonical F=0.8, CR=0.9 parameters.
func NewDE(gen uint, seed uint64) *DE {
	return &DE{Gen: gen, F: 0.8, CR: 0.9, Seed: seed}
}

// Evolve runs Gen generations of rand/1/bin DE.
func (de *DE) Evolve(pop *evo.Population) (*evo.Population, error) {
	out := pop.Clone()
	prob := out.Problem()
	if err := requireSingleObjectiveUnconstrained("DE", prob); err != nil {
		return nil, err
	}
	n := out.Size()
	if n < 5 {
		return nil, &evo.ConstructionError{Reason: fmt.Sprintf("DE needs a population of at least 5, got %d", n)}
	}

	rng := rand.New(rand.NewSource(int64(de.Seed)))
	lo, hi := prob.Bounds()
	dim := prob.NX()

	for g := uint(0); g < de.Gen; g++ {
		for i := 0; i < n; i++ {
			r1, r2, r3 := pickThree(rng, n, i)
			xi, _ := out.X(i)
			x1, _ := out.X(r1)
			x2, _ := out.X(r2)
			x3, _ := out.X(r3)

			trial := make([]float64, dim)
			jrand := rng.Intn(dim)
			for j := 0; j < dim; j++ {
				if rng.Float64() < de.CR || j == jrand {
					trial[j] = clamp(x1[j]+de.F*(x2[j]-x3[j]), lo[j], hi[j])
				} else {
					trial[j] = xi[j]
				}
			}

			tf, err := prob.Fitness(trial)
			if err != nil {
				return nil, err
			}
			fi, _ := out.F(i)
			if tf[0] <= fi[0] {
				if err := out.SetXF(i, trial, tf); err != nil {
					return nil, err
				}
			}
		}
		if de.Verbosity > 0 && g%uint(de.Verbosity) == 0 {
			if cf, err := out.ChampionF(); err == nil {
				slog.Debug("de generation", "gen", g, "best", cf[0], "fevals", prob.Fevals())
			}
		}
	}

	de.Seed = rng.Uint64()
	return out, nil
}

// SetSeed resets the generator state for the next Evolve call.
func (de *DE) SetSeed(seed uint64) { de.Seed = seed }

// SetVerbosity sets how often generation logs are emitted (0 disables).
func (de *DE) SetVerbosity(level uint) { de.Verbosity = level }

// Name identifies the algorithm in summaries and the persistence registry.
func (de *DE) Name() string { return "DE" }

// ExtraInfo describes the configuration.
func (de *DE) ExtraInfo() string {
	return fmt.Sprintf("Generations: %d, F: %g, CR: %g, Seed: %d", de.Gen, de.F, de.CR, de.Seed)
}

// Clone deep-copies the algorithm state.
func (de *DE) Clone() any {
	c := *de
	return &c
}

// pickThree draws three distinct indices from [0,n), all different from skip.
func pickThree(rng *rand.Rand, n, skip int) (int, int, int) {
	var idx [3]int
	for k := 0; k < 3; {
		v := rng.Intn(n)
		if v == skip || (k > 0 && v == idx[0]) || (k > 1 && v == idx[1]) {
			continue
		}
		idx[k] = v
		k++
	}
	return idx[0], idx[1], idx[2]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// requireSingleObjectiveUnconstrained rejects populations the built-in
// metaheuristics cannot handle.
func requireSingleObjectiveUnconstrained(algo string, prob *evo.Problem) error {
	if prob.NObj() != 1 {
		return &evo.UnsupportedCapabilityError{Type: algo, Capability: fmt.Sprintf("multi-objective problems (%s has %d objectives)", prob.Name(), prob.NObj())}
	}
	if prob.NC() != 0 {
		return &evo.UnsupportedCapabilityError{Type: algo, Capability: fmt.Sprintf("constrained problems (%s has %d constraints)", prob.Name(), prob.NC())}
	}
	return nil
}
