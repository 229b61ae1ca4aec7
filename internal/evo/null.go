package evo

// NullProblem is the default problem installed on a default-constructed
// island: one dimension, one objective, constant zero fitness.
type NullProblem struct{}

// Fitness always returns zero.
func (NullProblem) Fitness(_ []float64) []float64 { return []float64{0} }

// Bounds returns the unit interval.
func (NullProblem) Bounds() (lo, hi []float64) {
	return []float64{0}, []float64{1}
}

// Name returns the canonical name.
func (NullProblem) Name() string { return "Null problem" }

// NullAlgorithm is the default algorithm installed on a default-constructed
// island. Evolve is the identity: it returns the input population unchanged
// (as a copy, to preserve the replacement contract).
type NullAlgorithm struct{}

// Evolve returns a copy of the input population.
func (NullAlgorithm) Evolve(pop *Population) (*Population, error) {
	return pop.Clone(), nil
}

// Name returns the canonical name.
func (NullAlgorithm) Name() string { return "Null algorithm" }
