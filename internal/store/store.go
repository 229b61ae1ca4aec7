// Package store persists optimization runs: it serializes archipelagos to
// JSON snapshots, rebuilds them through a name-keyed registry of problem and
// algorithm factories, and appends per-generation trace lines.
package store

// Store defines the interface for run snapshot persistence.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if a snapshot doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun atomically saves a snapshot for the given run. If a snapshot
	// already exists for this runID, it is overwritten. Implementations
	// should use atomic write strategies (temp file + rename) to prevent
	// corruption on failure.
	SaveRun(runID string, snap *RunSnapshot) error

	// LoadRun retrieves the snapshot for the given run.
	// Returns ErrNotFound if no snapshot exists for this runID.
	LoadRun(runID string) (*RunSnapshot, error)

	// ListRuns returns metadata for all available run snapshots. The
	// returned slice may be empty.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes the snapshot and all associated artifacts for the
	// given run, including snapshot.json and trace.jsonl.
	// Returns ErrNotFound if no snapshot exists for this runID.
	DeleteRun(runID string) error
}

// ErrNotFound is returned when a requested run snapshot does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run snapshot.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run snapshot not found: " + e.RunID
	}
	return "run snapshot not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
