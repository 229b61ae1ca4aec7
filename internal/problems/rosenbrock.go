package problems

import "fmt"

// Rosenbrock is the classic banana-valley benchmark, minimized at (1,...,1).
// Box bounds are [-5, 10] per dimension; Dim must be at least 2.
type Rosenbrock struct {
	Dim int `json:"dim" yaml:"dim"`
}

// Fitness returns the Rosenbrock value.
func (r Rosenbrock) Fitness(x []float64) []float64 {
	sum := 0.0
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		sum += 100*a*a + b*b
	}
	return []float64{sum}
}

// Bounds returns [-5, 10] per dimension.
func (r Rosenbrock) Bounds() (lo, hi []float64) {
	lo = make([]float64, r.Dim)
	hi = make([]float64, r.Dim)
	for i := range lo {
		lo[i] = -5
		hi[i] = 10
	}
	return lo, hi
}

// Gradient returns the analytic gradient.
func (r Rosenbrock) Gradient(x []float64) []float64 {
	g := make([]float64, len(x))
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		g[i] += -400*x[i]*a - 2*(1-x[i])
		g[i+1] += 200 * a
	}
	return g
}

// Name identifies the problem in summaries and the persistence registry.
func (r Rosenbrock) Name() string { return "Rosenbrock" }

// ExtraInfo describes the instance.
func (r Rosenbrock) ExtraInfo() string {
	return fmt.Sprintf("Dimension: %d", r.Dim)
}
