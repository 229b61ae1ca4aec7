package server

import (
	"context"
	"testing"
	"time"

	"github.com/cwbudde/pelago/internal/store"
)

func TestRunJob_Success(t *testing.T) {
	jm := NewJobManager()
	config := JobConfig{
		Problem:     "Sphere",
		Dim:         3,
		Algorithm:   "DE",
		Islands:     2,
		PopSize:     20,
		Generations: 5,
		Seed:        42,
	}

	job := jm.CreateJob(config)

	err := runJob(context.Background(), jm, nil, store.DefaultRegistry(), job.ID)
	if err != nil {
		t.Errorf("runJob should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Errorf("Job should be completed, got %s", updated.State)
	}
	if updated.Generation != 5 {
		t.Errorf("Expected 5 generations, got %d", updated.Generation)
	}
	if len(updated.BestX) != 3 {
		t.Errorf("Expected 3-dimensional champion, got %d", len(updated.BestX))
	}
	if updated.BestF > updated.InitialF {
		t.Errorf("Champion worsened: %g -> %g", updated.InitialF, updated.BestF)
	}
	if updated.Fevals == 0 {
		t.Error("Fevals should be counted")
	}
}

func TestRunJob_UnknownProblem(t *testing.T) {
	jm := NewJobManager()
	config := JobConfig{
		Problem:     "NoSuchProblem",
		Algorithm:   "DE",
		Islands:     1,
		PopSize:     10,
		Generations: 1,
	}

	job := jm.CreateJob(config)

	err := runJob(context.Background(), jm, nil, store.DefaultRegistry(), job.ID)
	if err == nil {
		t.Error("runJob should fail with unknown problem")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateFailed {
		t.Errorf("Job should be failed, got %s", updated.State)
	}
	if updated.Error == "" {
		t.Error("Error message should be set")
	}
}

func TestRunJob_Cancellation(t *testing.T) {
	jm := NewJobManager()
	config := JobConfig{
		Problem:     "Rastrigin",
		Dim:         10,
		Algorithm:   "DE",
		Islands:     4,
		PopSize:     50,
		Generations: 100000, // Long-running job
		Seed:        42,
	}

	job := jm.CreateJob(config)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- runJob(ctx, jm, nil, store.DefaultRegistry(), job.ID)
	}()

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	// Cancel the job
	cancel()

	// Wait for completion
	err := <-done
	if err == nil {
		t.Error("runJob should return error when cancelled")
	}

	updated, _ := jm.GetJob(job.ID)
	// State could be running or cancelled depending on timing
	if updated.State != StateRunning && updated.State != StateCancelled {
		t.Errorf("Job should be running or cancelled, got %s", updated.State)
	}
}

func TestRunJob_SavesSnapshot(t *testing.T) {
	st, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	jm := NewJobManager()
	config := JobConfig{
		Problem:      "Sphere",
		Dim:          2,
		Algorithm:    "PSO",
		Islands:      2,
		PopSize:      10,
		Generations:  3,
		Seed:         7,
		SaveSnapshot: true,
	}

	job := jm.CreateJob(config)

	if err := runJob(context.Background(), jm, st, store.DefaultRegistry(), job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}

	snap, err := st.LoadRun(job.ID)
	if err != nil {
		t.Fatalf("Snapshot should exist: %v", err)
	}
	if len(snap.Islands) != 2 {
		t.Errorf("Expected 2 islands in snapshot, got %d", len(snap.Islands))
	}

	// The snapshot must restore into a working archipelago.
	arch, err := store.DefaultRegistry().RestoreArchipelago(snap)
	if err != nil {
		t.Fatalf("RestoreArchipelago failed: %v", err)
	}
	defer arch.Close()
	arch.Evolve(1)
	if err := arch.Get(); err != nil {
		t.Errorf("Restored archipelago should evolve: %v", err)
	}

	// The convergence trace is written alongside.
	tr, err := store.NewTraceReader(st.BaseDir(), job.ID)
	if err != nil {
		t.Fatalf("Trace should exist: %v", err)
	}
	defer tr.Close()
	entries, err := tr.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 trace entries, got %d", len(entries))
	}
}

func TestRunJob_FailingAlgorithmConfig(t *testing.T) {
	jm := NewJobManager()
	config := JobConfig{
		Problem:         "Sphere",
		Dim:             2,
		Algorithm:       "SA",
		AlgorithmConfig: []byte(`{"ts":1,"tf":10,"iters":5}`), // Ts <= Tf is rejected mid-evolution
		Islands:         1,
		PopSize:         10,
		Generations:     3,
		Seed:            1,
	}

	job := jm.CreateJob(config)

	err := runJob(context.Background(), jm, nil, store.DefaultRegistry(), job.ID)
	if err == nil {
		t.Error("runJob should surface evolution errors")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateFailed {
		t.Errorf("Job should be failed, got %s", updated.State)
	}
	if updated.Error == "" {
		t.Error("Error message should be recorded on the job")
	}
}
