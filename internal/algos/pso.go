package algos

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/cwbudde/pelago/internal/evo"
)

// PSO is a global-best particle swarm. Velocities are (re)initialized at the
// start of each Evolve call and live for its Gen iterations; the particles'
// final positions and fitnesses become the returned population.
type PSO struct {
	Gen       uint    `json:"gen" yaml:"gen"`
	Omega     float64 `json:"omega" yaml:"omega"` // inertia weight
	Eta1      float64 `json:"eta1" yaml:"eta1"`   // cognitive coefficient
	Eta2      float64 `json:"eta2" yaml:"eta2"`   // social coefficient
	Seed      uint64  `json:"seed" yaml:"seed"`
	Verbosity uint    `json:"-" yaml:"-"`
}

// NewPSO returns a PSO with the standard 0.7298 / 2.05 / 2.05 coefficients.
func NewPSO(gen uint, seed uint64) *PSO {
	return &PSO{Gen: gen, Omega: 0.7298, Eta1: 2.05, Eta2: 2.05, Seed: seed}
}

// Evolve runs Gen swarm iterations.
func (ps *PSO) Evolve(pop *evo.Population) (*evo.Population, error) {
	out := pop.Clone()
	prob := out.Problem()
	if err := requireSingleObjectiveUnconstrained("PSO", prob); err != nil {
		return nil, err
	}
	n := out.Size()
	if n < 2 {
		return nil, &evo.ConstructionError{Reason: fmt.Sprintf("PSO needs a population of at least 2, got %d", n)}
	}

	rng := rand.New(rand.NewSource(int64(ps.Seed)))
	lo, hi := prob.Bounds()
	dim := prob.NX()

	// Working copies of positions and fitnesses.
	x := make([][]float64, n)
	f := make([]float64, n)
	vel := make([][]float64, n)
	bestX := make([][]float64, n)
	bestF := make([]float64, n)
	for i := 0; i < n; i++ {
		xi, _ := out.X(i)
		fi, _ := out.F(i)
		x[i] = xi
		f[i] = fi[0]
		bestX[i] = append([]float64(nil), xi...)
		bestF[i] = fi[0]
		vel[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			span := hi[j] - lo[j]
			vel[i][j] = (rng.Float64() - 0.5) * span
		}
	}

	gbest := 0
	for i := 1; i < n; i++ {
		if bestF[i] < bestF[gbest] {
			gbest = i
		}
	}
	gx := append([]float64(nil), bestX[gbest]...)
	gf := bestF[gbest]

	for g := uint(0); g < ps.Gen; g++ {
		for i := 0; i < n; i++ {
			for j := 0; j < dim; j++ {
				r1, r2 := rng.Float64(), rng.Float64()
				vel[i][j] = ps.Omega*vel[i][j] +
					ps.Eta1*r1*(bestX[i][j]-x[i][j]) +
					ps.Eta2*r2*(gx[j]-x[i][j])
				x[i][j] = clamp(x[i][j]+vel[i][j], lo[j], hi[j])
			}
			fv, err := prob.Fitness(x[i])
			if err != nil {
				return nil, err
			}
			f[i] = fv[0]
			if f[i] < bestF[i] {
				bestF[i] = f[i]
				copy(bestX[i], x[i])
				if f[i] < gf {
					gf = f[i]
					copy(gx, x[i])
				}
			}
		}
		if ps.Verbosity > 0 && g%uint(ps.Verbosity) == 0 {
			slog.Debug("pso generation", "gen", g, "gbest", gf, "fevals", prob.Fevals())
		}
	}

	for i := 0; i < n; i++ {
		if err := out.SetXF(i, bestX[i], []float64{bestF[i]}); err != nil {
			return nil, err
		}
	}

	ps.Seed = rng.Uint64()
	return out, nil
}

// SetSeed resets the generator state for the next Evolve call.
func (ps *PSO) SetSeed(seed uint64) { ps.Seed = seed }

// SetVerbosity sets how often iteration logs are emitted (0 disables).
func (ps *PSO) SetVerbosity(level uint) { ps.Verbosity = level }

// Name identifies the algorithm in summaries and the persistence registry.
func (ps *PSO) Name() string { return "PSO" }

// ExtraInfo describes the configuration.
func (ps *PSO) ExtraInfo() string {
	return fmt.Sprintf("Generations: %d, Omega: %g, Eta1: %g, Eta2: %g, Seed: %d",
		ps.Gen, ps.Omega, ps.Eta1, ps.Eta2, ps.Seed)
}

// Clone deep-copies the algorithm state.
func (ps *PSO) Clone() any {
	c := *ps
	return &c
}
