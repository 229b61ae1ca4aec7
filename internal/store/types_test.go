package store

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRunSnapshot_Validate(t *testing.T) {
	valid := createTestSnapshot("valid")
	if err := valid.Validate(); err != nil {
		t.Fatalf("Valid snapshot rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*RunSnapshot)
	}{
		{"empty run ID", func(s *RunSnapshot) { s.RunID = "" }},
		{"zero timestamp", func(s *RunSnapshot) { s.SavedAt = time.Time{} }},
		{"no islands", func(s *RunSnapshot) { s.Islands = nil }},
		{"empty problem name", func(s *RunSnapshot) { s.Islands[0].Problem.Name = "" }},
		{"empty algorithm name", func(s *RunSnapshot) { s.Islands[0].Algorithm.Name = "" }},
		{"empty decision vector", func(s *RunSnapshot) { s.Islands[0].Population.Individuals[0].X = nil }},
		{"empty fitness vector", func(s *RunSnapshot) { s.Islands[0].Population.Individuals[0].F = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := createTestSnapshot("mutant")
			tt.mutate(snap)
			if err := snap.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestRunSnapshot_ToInfo(t *testing.T) {
	snap := createTestSnapshot("info-run")
	snap.Islands = append(snap.Islands, IslandSnapshot{
		Name:      "Thread island",
		Algorithm: AlgorithmSnapshot{Name: "PSO"},
		Problem:   ProblemSnapshot{Name: "Rastrigin"},
		Population: PopulationSnapshot{
			Seed: 7,
			Individuals: []IndividualSnapshot{
				{ID: 9, X: []float64{0.1}, F: []float64{0.05}},
			},
		},
	})

	info := snap.ToInfo()
	if info.RunID != "info-run" {
		t.Errorf("RunID: got %q", info.RunID)
	}
	if info.Islands != 2 {
		t.Errorf("Islands: got %d, want 2", info.Islands)
	}
	// First island names win.
	if info.Problem != "Sphere" || info.Algorithm != "DE" {
		t.Errorf("Identity: got %s/%s", info.Problem, info.Algorithm)
	}
	// Best fitness scans every island.
	if info.BestF != 0.05 {
		t.Errorf("BestF: got %g, want 0.05", info.BestF)
	}
}

func TestRunSnapshot_JSONRoundTrip(t *testing.T) {
	original := createTestSnapshot("json-run")

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded RunSnapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.RunID != original.RunID || len(decoded.Islands) != len(original.Islands) {
		t.Error("Round trip lost data")
	}
	if err := decoded.Validate(); err != nil {
		t.Errorf("Decoded snapshot should validate: %v", err)
	}
}
