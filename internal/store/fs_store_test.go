package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	return store, tempDir
}

// createTestSnapshot creates a run snapshot with test data.
func createTestSnapshot(runID string) *RunSnapshot {
	return &RunSnapshot{
		RunID:   runID,
		SavedAt: time.Now(),
		Islands: []IslandSnapshot{
			{
				Name:      "Thread island",
				Algorithm: AlgorithmSnapshot{Name: "DE", Config: []byte(`{"gen":10,"f":0.8,"cr":0.9,"seed":42}`)},
				Problem:   ProblemSnapshot{Name: "Sphere", Config: []byte(`{"dim":2}`)},
				Population: PopulationSnapshot{
					Seed: 123,
					Individuals: []IndividualSnapshot{
						{ID: 1, X: []float64{0.5, -0.5}, F: []float64{0.5}},
						{ID: 2, X: []float64{1, 1}, F: []float64{2}},
					},
				},
			},
		},
	}
}

func TestNewFSStore(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if store == nil {
		t.Fatal("Expected non-nil store")
	}
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestSaveRun(t *testing.T) {
	store, tempDir := setupTestStore(t)

	runID := "test-run-123"
	if err := store.SaveRun(runID, createTestSnapshot(runID)); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "runs", runID, "snapshot.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Snapshot file was not created at %s", expectedPath)
	}

	// Verify no temp file remains
	tempPath := expectedPath + ".tmp"
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Errorf("Temp file should not exist after save: %s", tempPath)
	}
}

func TestSaveRun_EmptyRunID(t *testing.T) {
	store, _ := setupTestStore(t)
	if err := store.SaveRun("", createTestSnapshot("any-id")); err == nil {
		t.Fatal("Expected error for empty runID")
	}
}

func TestSaveRun_NilSnapshot(t *testing.T) {
	store, _ := setupTestStore(t)
	if err := store.SaveRun("some-run", nil); err == nil {
		t.Fatal("Expected error for nil snapshot")
	}
}

func TestSaveRun_InvalidSnapshot(t *testing.T) {
	store, _ := setupTestStore(t)
	snap := createTestSnapshot("bad-run")
	snap.Islands = nil
	if err := store.SaveRun("bad-run", snap); err == nil {
		t.Fatal("Expected validation error for snapshot without islands")
	}
}

func TestLoadRun_RoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)

	runID := "round-trip"
	original := createTestSnapshot(runID)
	if err := store.SaveRun(runID, original); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	loaded, err := store.LoadRun(runID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}

	if loaded.RunID != original.RunID {
		t.Errorf("RunID mismatch: got %q, want %q", loaded.RunID, original.RunID)
	}
	if len(loaded.Islands) != len(original.Islands) {
		t.Fatalf("Island count mismatch: got %d, want %d", len(loaded.Islands), len(original.Islands))
	}
	isl := loaded.Islands[0]
	if isl.Algorithm.Name != "DE" || isl.Problem.Name != "Sphere" {
		t.Errorf("Identity mismatch: %s/%s", isl.Algorithm.Name, isl.Problem.Name)
	}
	if got := isl.Population.Individuals[0].X[0]; got != 0.5 {
		t.Errorf("Decision vector mismatch: got %g, want 0.5", got)
	}
}

func TestLoadRun_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadRun("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListRuns(t *testing.T) {
	store, _ := setupTestStore(t)

	// Empty store lists nothing
	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("Expected 0 runs, got %d", len(infos))
	}

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if err := store.SaveRun(id, createTestSnapshot(id)); err != nil {
			t.Fatalf("SaveRun(%s) failed: %v", id, err)
		}
	}

	infos, err = store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Islands != 1 || info.Problem != "Sphere" || info.Algorithm != "DE" {
			t.Errorf("Unexpected info: %+v", info)
		}
		if info.BestF != 0.5 {
			t.Errorf("BestF: got %g, want 0.5", info.BestF)
		}
	}
}

func TestDeleteRun(t *testing.T) {
	store, tempDir := setupTestStore(t)

	runID := "to-delete"
	if err := store.SaveRun(runID, createTestSnapshot(runID)); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	if err := store.DeleteRun(runID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tempDir, "runs", runID)); !os.IsNotExist(err) {
		t.Error("Run directory should be removed")
	}

	if err := store.DeleteRun(runID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSaveRun_OverwritesExisting(t *testing.T) {
	store, _ := setupTestStore(t)

	runID := "overwrite"
	first := createTestSnapshot(runID)
	if err := store.SaveRun(runID, first); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	second := createTestSnapshot(runID)
	second.Islands[0].Population.Individuals[0].F = []float64{0.01}
	if err := store.SaveRun(runID, second); err != nil {
		t.Fatalf("SaveRun (overwrite) failed: %v", err)
	}

	loaded, err := store.LoadRun(runID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}
	if got := loaded.Islands[0].Population.Individuals[0].F[0]; got != 0.01 {
		t.Errorf("Expected overwritten fitness 0.01, got %g", got)
	}
}
