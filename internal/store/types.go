package store

import (
	"encoding/json"
	"time"
)

// IndividualSnapshot is one member of a serialized population. The ID is
// recorded for traceability only; restored individuals receive fresh IDs.
type IndividualSnapshot struct {
	ID uint64    `json:"id"`
	X  []float64 `json:"x"`
	F  []float64 `json:"f"`
}

// PopulationSnapshot serializes a population's individuals together with the
// seed its generator was constructed from.
type PopulationSnapshot struct {
	Seed        uint64               `json:"seed"`
	Individuals []IndividualSnapshot `json:"individuals"`
}

// ProblemSnapshot names a registered problem and carries its configuration
// verbatim. Config is the problem value's own JSON form, so the registry can
// rebuild an identical instance.
type ProblemSnapshot struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config,omitempty"`
}

// AlgorithmSnapshot names a registered algorithm and its configuration.
type AlgorithmSnapshot struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config,omitempty"`
}

// IslandSnapshot serializes one island: its identity plus the algorithm,
// problem and population needed to rebuild it.
type IslandSnapshot struct {
	Name       string             `json:"name"`
	Algorithm  AlgorithmSnapshot  `json:"algorithm"`
	Problem    ProblemSnapshot    `json:"problem"`
	Population PopulationSnapshot `json:"population"`
}

// RunSnapshot is a saved optimization run that can be restored later.
// All fields are serialized to JSON for persistence.
//
// The snapshot saves every island's population verbatim, but NOT the internal
// state of the algorithms beyond their configuration (DE does not persist
// mid-generation donor vectors, PSO does not persist velocities). Restoring
// therefore resumes from the exact individuals but with freshly initialized
// algorithm internals; the champion can never get worse, and for seeded
// algorithms the continuation is reproducible.
type RunSnapshot struct {
	// RunID is the unique identifier for this run
	RunID string `json:"runId"`

	// SavedAt records when this snapshot was created
	SavedAt time.Time `json:"savedAt"`

	// Islands holds one entry per island, in archipelago order
	Islands []IslandSnapshot `json:"islands"`
}

// RunInfo contains metadata about a run snapshot without the full population
// data. Used for listing runs without loading large decision-vector arrays.
type RunInfo struct {
	RunID     string    `json:"runId"`
	SavedAt   time.Time `json:"savedAt"`
	Islands   int       `json:"islands"`
	Problem   string    `json:"problem"`
	Algorithm string    `json:"algorithm"`

	// BestF is the lowest first-objective value across all islands.
	BestF float64 `json:"bestF"`
}

// NewRunSnapshot creates a run snapshot shell with the save time stamped.
func NewRunSnapshot(runID string, islands []IslandSnapshot) *RunSnapshot {
	return &RunSnapshot{
		RunID:   runID,
		SavedAt: time.Now(),
		Islands: islands,
	}
}

// ToInfo converts a full RunSnapshot to RunInfo (metadata only).
func (s *RunSnapshot) ToInfo() RunInfo {
	info := RunInfo{
		RunID:   s.RunID,
		SavedAt: s.SavedAt,
		Islands: len(s.Islands),
	}
	first := true
	for _, isl := range s.Islands {
		if info.Problem == "" {
			info.Problem = isl.Problem.Name
		}
		if info.Algorithm == "" {
			info.Algorithm = isl.Algorithm.Name
		}
		for _, ind := range isl.Population.Individuals {
			if len(ind.F) == 0 {
				continue
			}
			if first || ind.F[0] < info.BestF {
				info.BestF = ind.F[0]
				first = false
			}
		}
	}
	return info
}

// Validate checks if the snapshot has valid data.
// Returns an error if any required field is missing or inconsistent.
func (s *RunSnapshot) Validate() error {
	if s.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if s.SavedAt.IsZero() {
		return &ValidationError{Field: "SavedAt", Reason: "cannot be zero"}
	}
	if len(s.Islands) == 0 {
		return &ValidationError{Field: "Islands", Reason: "cannot be empty"}
	}
	for _, isl := range s.Islands {
		if isl.Problem.Name == "" {
			return &ValidationError{Field: "Problem.Name", Reason: "cannot be empty"}
		}
		if isl.Algorithm.Name == "" {
			return &ValidationError{Field: "Algorithm.Name", Reason: "cannot be empty"}
		}
		for _, ind := range isl.Population.Individuals {
			if len(ind.X) == 0 {
				return &ValidationError{Field: "Individuals.X", Reason: "cannot be empty"}
			}
			if len(ind.F) == 0 {
				return &ValidationError{Field: "Individuals.F", Reason: "cannot be empty"}
			}
		}
	}
	return nil
}

// ValidationError represents a snapshot validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
