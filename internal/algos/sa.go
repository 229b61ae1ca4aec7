package algos

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/cwbudde/pelago/internal/evo"
)

// SA is a single-chain simulated annealing over the population champion:
// each Evolve anneals the current best individual for Iters steps under a
// geometric cooling schedule from Ts down to Tf and installs the best point
// found over the population's worst individual.
type SA struct {
	Ts        float64 `json:"ts" yaml:"ts"` // starting temperature
	Tf        float64 `json:"tf" yaml:"tf"` // final temperature
	Iters     uint    `json:"iters" yaml:"iters"`
	Seed      uint64  `json:"seed" yaml:"seed"`
	Verbosity uint    `json:"-" yaml:"-"`
}

// NewSA returns an SA with a 10 → 0.01 temperature sweep.
func NewSA(iters uint, seed uint64) *SA {
	return &SA{Ts: 10, Tf: 0.01, Iters: iters, Seed: seed}
}

// Evolve anneals the champion.
func (sa *SA) Evolve(pop *evo.Population) (*evo.Population, error) {
	out := pop.Clone()
	prob := out.Problem()
	if err := requireSingleObjectiveUnconstrained("SA", prob); err != nil {
		return nil, err
	}
	if out.Size() == 0 {
		return nil, &evo.ConstructionError{Reason: "SA needs a non-empty population"}
	}
	if sa.Ts <= sa.Tf || sa.Tf <= 0 {
		return nil, &evo.ConstructionError{Reason: fmt.Sprintf("SA temperatures must satisfy Ts > Tf > 0, got Ts=%g Tf=%g", sa.Ts, sa.Tf)}
	}

	rng := rand.New(rand.NewSource(int64(sa.Seed)))
	lo, hi := prob.Bounds()
	dim := prob.NX()

	cur, err := out.ChampionX()
	if err != nil {
		return nil, err
	}
	curF, _ := out.ChampionF()
	cur = append([]float64(nil), cur...)
	curVal := curF[0]
	bestX := append([]float64(nil), cur...)
	bestVal := curVal

	// Geometric cooling factor bringing Ts to Tf in Iters steps.
	cooling := math.Pow(sa.Tf/sa.Ts, 1/math.Max(1, float64(sa.Iters)))
	temp := sa.Ts

	for it := uint(0); it < sa.Iters; it++ {
		// Perturb one coordinate, with a step shrinking alongside the
		// temperature.
		j := rng.Intn(dim)
		step := (hi[j] - lo[j]) * (temp / sa.Ts) * (rng.Float64() - 0.5)
		cand := append([]float64(nil), cur...)
		cand[j] = clamp(cand[j]+step, lo[j], hi[j])

		fv, err := prob.Fitness(cand)
		if err != nil {
			return nil, err
		}
		delta := fv[0] - curVal
		if delta <= 0 || rng.Float64() < math.Exp(-delta/temp) {
			cur = cand
			curVal = fv[0]
			if curVal < bestVal {
				bestVal = curVal
				copy(bestX, cur)
			}
		}

		temp *= cooling
		if sa.Verbosity > 0 && it%uint(sa.Verbosity) == 0 {
			slog.Debug("sa iteration", "iter", it, "temp", temp, "current", curVal, "best", bestVal)
		}
	}

	worst, err := out.WorstIdx()
	if err != nil {
		return nil, err
	}
	if err := out.SetXF(worst, bestX, []float64{bestVal}); err != nil {
		return nil, err
	}

	sa.Seed = rng.Uint64()
	return out, nil
}

// SetSeed resets the generator state for the next Evolve call.
func (sa *SA) SetSeed(seed uint64) { sa.Seed = seed }

// SetVerbosity sets how often iteration logs are emitted (0 disables).
func (sa *SA) SetVerbosity(level uint) { sa.Verbosity = level }

// Name identifies the algorithm in summaries and the persistence registry.
func (sa *SA) Name() string { return "SA" }

// ExtraInfo describes the configuration.
func (sa *SA) ExtraInfo() string {
	return fmt.Sprintf("Ts: %g, Tf: %g, Iterations: %d, Seed: %d", sa.Ts, sa.Tf, sa.Iters, sa.Seed)
}

// Clone deep-copies the algorithm state.
func (sa *SA) Clone() any {
	c := *sa
	return &c
}
