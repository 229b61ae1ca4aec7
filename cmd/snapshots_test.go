package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/pelago/internal/store"
)

func TestSelectSnapshotsForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{RunID: "run1", SavedAt: now.AddDate(0, 0, -10)}, // 10 days old
		{RunID: "run2", SavedAt: now.AddDate(0, 0, -5)},  // 5 days old
		{RunID: "run3", SavedAt: now.AddDate(0, 0, -1)},  // 1 day old
		{RunID: "run4", SavedAt: now.AddDate(0, 0, -30)}, // 30 days old
	}

	// Delete snapshots older than 7 days
	toDelete := selectSnapshotsForDeletion(infos, 0, 7)

	if len(toDelete) != 2 {
		t.Errorf("Expected 2 snapshots to delete, got %d", len(toDelete))
	}

	// Verify correct snapshots selected
	found10 := false
	found30 := false
	for _, info := range toDelete {
		if info.RunID == "run1" {
			found10 = true
		}
		if info.RunID == "run4" {
			found30 = true
		}
	}

	if !found10 || !found30 {
		t.Error("Expected run1 and run4 to be selected for deletion")
	}
}

func TestSelectSnapshotsForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{RunID: "run1", SavedAt: now.AddDate(0, 0, -10)},
		{RunID: "run2", SavedAt: now.AddDate(0, 0, -5)},
		{RunID: "run3", SavedAt: now.AddDate(0, 0, -1)},
		{RunID: "run4", SavedAt: now.AddDate(0, 0, -30)},
	}

	// Keep only last 2 snapshots
	toDelete := selectSnapshotsForDeletion(infos, 2, 0)

	if len(toDelete) != 2 {
		t.Errorf("Expected 2 snapshots to delete, got %d", len(toDelete))
	}

	// Should delete oldest two (run4 and run1)
	found30 := false
	found10 := false
	for _, info := range toDelete {
		if info.RunID == "run4" {
			found30 = true
		}
		if info.RunID == "run1" {
			found10 = true
		}
	}

	if !found30 || !found10 {
		t.Error("Expected run4 and run1 to be selected for deletion (oldest)")
	}
}

func TestSelectSnapshotsForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{RunID: "run1", SavedAt: now.AddDate(0, 0, -10)},
		{RunID: "run2", SavedAt: now.AddDate(0, 0, -5)},
		{RunID: "run3", SavedAt: now.AddDate(0, 0, -1)},
		{RunID: "run4", SavedAt: now.AddDate(0, 0, -30)},
		{RunID: "run5", SavedAt: now.AddDate(0, 0, -2)},
	}

	// Delete older than 7 days AND keep only last 3. run4 and run1 qualify on
	// both criteria; the dedupe must keep them from appearing twice.
	toDelete := selectSnapshotsForDeletion(infos, 3, 7)

	if len(toDelete) != 2 {
		t.Errorf("Expected 2 snapshots to delete, got %d", len(toDelete))
	}
}

func TestGetDirSize(t *testing.T) {
	// Create temp directory with files
	tmpDir := t.TempDir()

	// Create a file
	testFile := filepath.Join(tmpDir, "test.txt")
	content := []byte("Hello, World!")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	// Get size
	size, err := getDirSize(tmpDir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}

	if size < int64(len(content)) {
		t.Errorf("Expected size >= %d, got %d", len(content), size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		result := formatBytes(tt.bytes)
		if result != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

// saveTestRun writes a restorable Sphere/DE snapshot with the given save time.
func saveTestRun(t *testing.T, dataDir, runID string, savedAt time.Time) {
	t.Helper()

	snapshotStore, err := store.NewFSStore(dataDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	snap := store.NewRunSnapshot(runID, []store.IslandSnapshot{
		{
			Name:      "island-1",
			Algorithm: store.AlgorithmSnapshot{Name: "DE"},
			Problem:   store.ProblemSnapshot{Name: "Sphere"},
			Population: store.PopulationSnapshot{
				Seed: 42,
				Individuals: []store.IndividualSnapshot{
					{ID: 1, X: []float64{0.5, -0.5}, F: []float64{0.5}},
					{ID: 2, X: []float64{1.0, 1.0}, F: []float64{2.0}},
				},
			},
		},
	})
	snap.SavedAt = savedAt

	if err := snapshotStore.SaveRun(runID, snap); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}
}

func TestSnapshotsListCommand_NoSnapshots(t *testing.T) {
	tmpDir := t.TempDir()

	// Set data dir
	originalDataDir := snapshotDataDir
	snapshotDataDir = tmpDir
	defer func() { snapshotDataDir = originalDataDir }()

	// Run list command
	err := runListSnapshots(nil, nil)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestSnapshotsListCommand_WithSnapshots(t *testing.T) {
	tmpDir := t.TempDir()

	saveTestRun(t, tmpDir, "test-run-id", time.Now())

	// Set data dir
	originalDataDir := snapshotDataDir
	snapshotDataDir = tmpDir
	defer func() { snapshotDataDir = originalDataDir }()

	// Run list command
	err := runListSnapshots(nil, nil)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestSnapshotsCleanCommand_NoFlags(t *testing.T) {
	tmpDir := t.TempDir()

	originalDataDir := snapshotDataDir
	snapshotDataDir = tmpDir
	defer func() { snapshotDataDir = originalDataDir }()

	// Reset flags
	keepLast = 0
	olderThanDays = 0

	// Should return error when no flags specified
	err := runCleanSnapshots(nil, nil)
	if err == nil {
		t.Error("Expected error when no flags specified")
	}
}

func TestSnapshotsCleanCommand_WithForce(t *testing.T) {
	tmpDir := t.TempDir()

	// Save a snapshot that is well past the age cutoff
	saveTestRun(t, tmpDir, "old-run", time.Now().AddDate(0, 0, -30))

	originalDataDir := snapshotDataDir
	snapshotDataDir = tmpDir
	defer func() { snapshotDataDir = originalDataDir }()

	// Set flags
	keepLast = 0
	olderThanDays = 7
	forceClean = true

	// Run clean command
	err := runCleanSnapshots(nil, nil)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	// Verify snapshot was deleted
	snapshotStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	_, err = snapshotStore.LoadRun("old-run")
	if err == nil {
		t.Error("Expected snapshot to be deleted")
	}
}
