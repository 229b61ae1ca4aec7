package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FSStore implements the Store interface using filesystem-based persistence.
// Snapshots are stored in a directory structure: <baseDir>/runs/<runID>/
//
// Thread-safety: this implementation uses atomic file operations (rename)
// and does not require locks. Multiple goroutines can safely call methods
// concurrently.
type FSStore struct {
	baseDir string // root directory for all run data (e.g. "./data")
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// BaseDir returns the root directory this store writes under.
func (fs *FSStore) BaseDir() string {
	return fs.baseDir
}

// runDir returns the directory path for a given run ID.
func (fs *FSStore) runDir(runID string) string {
	return filepath.Join(fs.baseDir, "runs", runID)
}

// snapshotPath returns the path to the snapshot.json file for a run.
func (fs *FSStore) snapshotPath(runID string) string {
	return filepath.Join(fs.runDir(runID), "snapshot.json")
}

// SaveRun atomically saves a snapshot for the given run.
// Uses temp file + rename to ensure atomicity.
func (fs *FSStore) SaveRun(runID string, snap *RunSnapshot) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}
	if err := snap.Validate(); err != nil {
		return err
	}

	runDir := fs.runDir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	tempPath := fs.snapshotPath(runID) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp snapshot file: %w", err)
	}

	finalPath := fs.snapshotPath(runID)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}

	slog.Debug("Snapshot saved", "runID", runID, "path", finalPath)
	return nil
}

// LoadRun retrieves the snapshot for the given run.
func (fs *FSStore) LoadRun(runID string) (*RunSnapshot, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	path := fs.snapshotPath(runID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &NotFoundError{RunID: runID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap RunSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot: %w", err)
	}

	slog.Debug("Snapshot loaded", "runID", runID, "path", path)
	return &snap, nil
}

// ListRuns returns metadata for all available run snapshots.
func (fs *FSStore) ListRuns() ([]RunInfo, error) {
	runsDir := filepath.Join(fs.baseDir, "runs")

	if _, err := os.Stat(runsDir); os.IsNotExist(err) {
		return []RunInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat runs directory: %w", err)
	}

	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var infos []RunInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		runID := entry.Name()
		if _, err := os.Stat(fs.snapshotPath(runID)); os.IsNotExist(err) {
			continue // skip directories without snapshot.json
		}

		snap, err := fs.LoadRun(runID)
		if err != nil {
			slog.Warn("Failed to load snapshot for listing", "runID", runID, "error", err)
			continue // skip corrupted snapshots
		}
		infos = append(infos, snap.ToInfo())
	}

	slog.Debug("Listed runs", "count", len(infos))
	return infos, nil
}

// DeleteRun removes the snapshot and all associated artifacts.
func (fs *FSStore) DeleteRun(runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}

	runDir := fs.runDir(runID)
	if _, err := os.Stat(runDir); os.IsNotExist(err) {
		return &NotFoundError{RunID: runID}
	} else if err != nil {
		return fmt.Errorf("failed to stat run directory: %w", err)
	}

	if err := os.RemoveAll(runDir); err != nil {
		return fmt.Errorf("failed to remove run directory: %w", err)
	}

	slog.Debug("Snapshot deleted", "runID", runID, "path", runDir)
	return nil
}
