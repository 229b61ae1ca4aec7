package problems

import (
	"fmt"
	"math"
)

// Rastrigin is a highly multimodal benchmark with a regular lattice of local
// minima, minimized at the origin. Box bounds are [-5.12, 5.12].
type Rastrigin struct {
	Dim int `json:"dim" yaml:"dim"`
}

// Fitness returns the Rastrigin value.
func (r Rastrigin) Fitness(x []float64) []float64 {
	sum := 10.0 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return []float64{sum}
}

// Bounds returns [-5.12, 5.12] per dimension.
func (r Rastrigin) Bounds() (lo, hi []float64) {
	lo = make([]float64, r.Dim)
	hi = make([]float64, r.Dim)
	for i := range lo {
		lo[i] = -5.12
		hi[i] = 5.12
	}
	return lo, hi
}

// Name identifies the problem in summaries and the persistence registry.
func (r Rastrigin) Name() string { return "Rastrigin" }

// ExtraInfo describes the instance.
func (r Rastrigin) ExtraInfo() string {
	return fmt.Sprintf("Dimension: %d", r.Dim)
}
