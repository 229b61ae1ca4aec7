// Package problems provides the built-in user-defined problems consumed
// through the evo.Problem contract.
package problems

import "fmt"

// Sphere is the canonical smoke-test problem: f(x) = sum x_i^2, minimized at
// the origin. Box bounds are [-10, 10] per dimension.
type Sphere struct {
	Dim int `json:"dim" yaml:"dim"`
}

// Fitness returns the sum of squares.
func (s Sphere) Fitness(x []float64) []float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return []float64{sum}
}

// Bounds returns [-10, 10] per dimension.
func (s Sphere) Bounds() (lo, hi []float64) {
	lo = make([]float64, s.Dim)
	hi = make([]float64, s.Dim)
	for i := range lo {
		lo[i] = -10
		hi[i] = 10
	}
	return lo, hi
}

// Gradient returns 2x.
func (s Sphere) Gradient(x []float64) []float64 {
	g := make([]float64, len(x))
	for i, v := range x {
		g[i] = 2 * v
	}
	return g
}

// Name identifies the problem in summaries and the persistence registry.
func (s Sphere) Name() string { return "Sphere" }

// ExtraInfo describes the instance.
func (s Sphere) ExtraInfo() string {
	return fmt.Sprintf("Dimension: %d", s.Dim)
}
