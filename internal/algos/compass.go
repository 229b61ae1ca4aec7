package algos

import (
	"fmt"

	"github.com/cwbudde/pelago/internal/evo"
)

// CompassSearch is a deterministic coordinate pattern search over the
// population champion. It polls both directions along each axis with a
// shrinking step and installs the improved champion in place. Being fully
// deterministic it declares no seed setter, which exercises the
// absent-capability path of the Algorithm contract.
type CompassSearch struct {
	MaxFevals  uint    `json:"maxFevals" yaml:"maxFevals"`
	StartRange float64 `json:"startRange" yaml:"startRange"` // fraction of the bound span
	StopRange  float64 `json:"stopRange" yaml:"stopRange"`
	Reduction  float64 `json:"reduction" yaml:"reduction"`
}

// NewCompassSearch returns a compass search with the canonical 0.1 → 1e-5
// range sweep, halving on every failed poll.
func NewCompassSearch(maxFevals uint) *CompassSearch {
	return &CompassSearch{MaxFevals: maxFevals, StartRange: 0.1, StopRange: 1e-5, Reduction: 0.5}
}

// Evolve polls around the champion until the range underflows or the
// evaluation budget is spent.
func (cs *CompassSearch) Evolve(pop *evo.Population) (*evo.Population, error) {
	out := pop.Clone()
	prob := out.Problem()
	if err := requireSingleObjectiveUnconstrained("CompassSearch", prob); err != nil {
		return nil, err
	}
	if out.Size() == 0 {
		return nil, &evo.ConstructionError{Reason: "CompassSearch needs a non-empty population"}
	}
	if cs.StartRange <= cs.StopRange || cs.Reduction <= 0 || cs.Reduction >= 1 {
		return nil, &evo.ConstructionError{Reason: fmt.Sprintf("CompassSearch ranges must satisfy StartRange > StopRange and 0 < Reduction < 1, got %g/%g/%g", cs.StartRange, cs.StopRange, cs.Reduction)}
	}

	lo, hi := prob.Bounds()
	dim := prob.NX()

	bestIdx, err := out.BestIdx()
	if err != nil {
		return nil, err
	}
	cur, _ := out.X(bestIdx)
	curF, _ := out.F(bestIdx)
	curVal := curF[0]

	r := cs.StartRange
	var fevals uint
	for r > cs.StopRange && fevals < cs.MaxFevals {
		improved := false
		for j := 0; j < dim && fevals < cs.MaxFevals; j++ {
			for _, dir := range [2]float64{1, -1} {
				cand := append([]float64(nil), cur...)
				cand[j] = clamp(cand[j]+dir*r*(hi[j]-lo[j]), lo[j], hi[j])
				fv, err := prob.Fitness(cand)
				if err != nil {
					return nil, err
				}
				fevals++
				if fv[0] < curVal {
					cur = cand
					curVal = fv[0]
					improved = true
					break
				}
				if fevals >= cs.MaxFevals {
					break
				}
			}
		}
		if !improved {
			r *= cs.Reduction
		}
	}

	if err := out.SetXF(bestIdx, cur, []float64{curVal}); err != nil {
		return nil, err
	}
	return out, nil
}

// Name identifies the algorithm in summaries and the persistence registry.
func (cs *CompassSearch) Name() string { return "CompassSearch" }

// ExtraInfo describes the configuration.
func (cs *CompassSearch) ExtraInfo() string {
	return fmt.Sprintf("MaxFevals: %d, StartRange: %g, StopRange: %g, Reduction: %g",
		cs.MaxFevals, cs.StartRange, cs.StopRange, cs.Reduction)
}

// Clone deep-copies the algorithm state.
func (cs *CompassSearch) Clone() any {
	c := *cs
	return &c
}
