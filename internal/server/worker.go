package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/pelago/internal/evo"
	"github.com/cwbudde/pelago/internal/store"
)

// runJob executes an optimization job in the background. It builds an
// archipelago from the job config, evolves it one generation at a time and
// publishes progress after every round. If st is not nil and the job enables
// snapshots, restorable run snapshots are saved under the job ID.
func runJob(ctx context.Context, jm *JobManager, st store.Store, registry *store.Registry, jobID string) error {
	// Get the job
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	// Update state to running
	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "problem", job.Config.Problem, "algorithm", job.Config.Algorithm)

	// Build the problem and algorithm from the registry
	prob, err := registry.BuildProblem(job.Config.Problem, problemConfig(job.Config))
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	algo, err := registry.BuildAlgorithm(job.Config.Algorithm, job.Config.AlgorithmConfig)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	if job.Config.Seed != 0 && algo.HasSetSeed() {
		if err := algo.SetSeed(job.Config.Seed); err != nil {
			markJobFailed(jm, jobID, err)
			return err
		}
	}

	// Build the archipelago. An explicit job seed derives one island seed per
	// island for reproducible runs; otherwise seeds are drawn automatically.
	arch := evo.NewArchipelago()
	defer arch.Close()
	for i := 0; i < job.Config.Islands; i++ {
		if job.Config.Seed != 0 {
			err = arch.PushBackNewSeeded(algo, prob, uint(job.Config.PopSize), job.Config.Seed+uint64(i))
		} else {
			err = arch.PushBackNew(algo, prob, uint(job.Config.PopSize))
		}
		if err != nil {
			markJobFailed(jm, jobID, err)
			return err
		}
	}

	slog.Info("Built archipelago", "job_id", jobID, "islands", arch.Size(), "pop_size", job.Config.PopSize)

	// Record the starting champion
	initialX, initialF, _, err := archChampion(arch)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	jm.UpdateJob(jobID, func(j *Job) {
		j.InitialF = initialF
		j.BestF = initialF
		j.BestX = initialX
	})

	start := time.Now()

	// Check for cancellation before starting expensive work
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	// Start progress monitoring goroutine
	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, start, progressDone)

	// Start snapshot monitoring goroutine if enabled
	if st != nil && job.Config.SnapshotInterval > 0 {
		snapshotDone := make(chan struct{})
		defer close(snapshotDone)
		go monitorSnapshots(ctx, jm, st, arch, jobID, snapshotDone)
	}

	// Open the convergence trace alongside snapshots
	var trace *store.TraceWriter
	if st != nil && job.Config.SaveSnapshot {
		if trace, err = store.NewTraceWriter(dataDirOf(st), jobID, false); err != nil {
			slog.Warn("Failed to open trace writer", "job_id", jobID, "error", err)
			trace = nil
		} else {
			defer trace.Close()
		}
	}

	for gen := 1; gen <= job.Config.Generations; gen++ {
		select {
		case <-ctx.Done():
			close(progressDone)
			markJobCancelled(jm, jobID)
			return ctx.Err()
		default:
		}

		arch.Evolve(1)
		arch.Wait()
		if err := arch.Get(); err != nil {
			close(progressDone)
			markJobFailed(jm, jobID, err)
			return err
		}

		bestX, bestF, fevals, err := archChampion(arch)
		if err != nil {
			close(progressDone)
			markJobFailed(jm, jobID, err)
			return err
		}

		jm.UpdateJob(jobID, func(j *Job) {
			j.Generation = gen
			j.Fevals = fevals
			if bestF <= j.BestF {
				j.BestF = bestF
				j.BestX = bestX
			}
		})

		if trace != nil {
			entry := store.TraceEntry{
				Generation: gen,
				BestF:      bestF,
				Fevals:     fevals,
				Timestamp:  time.Now(),
			}
			if err := trace.Write(entry); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}
	}

	close(progressDone)
	elapsed := time.Since(start)

	// Check for cancellation after optimization
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	// Save the final restorable snapshot
	if st != nil && job.Config.SaveSnapshot {
		if err := saveSnapshot(st, arch, jobID); err != nil {
			slog.Error("Failed to save final snapshot", "job_id", jobID, "error", err)
		}
		if trace != nil {
			if err := trace.Flush(); err != nil {
				slog.Warn("Failed to flush trace", "job_id", jobID, "error", err)
			}
		}
	}

	// Update job with results
	job, _ = jm.GetJob(jobID)
	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	// Compute throughput
	eps := float64(job.Fevals) / elapsed.Seconds()

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"initial_f", job.InitialF,
		"best_f", job.BestF,
		"evals_per_second", eps,
	)

	// Broadcast final completion event
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:       jobID,
		State:       StateCompleted,
		Generation:  job.Generation,
		BestF:       job.BestF,
		EvalsPerSec: eps,
		Timestamp:   time.Now(),
	})

	return nil
}

// problemConfig resolves the effective problem config blob: an explicit blob
// wins, a bare Dim shortcut is expanded, otherwise the factory default holds.
func problemConfig(cfg JobConfig) json.RawMessage {
	if len(cfg.ProblemConfig) > 0 {
		return cfg.ProblemConfig
	}
	if cfg.Dim > 0 {
		return json.RawMessage(fmt.Sprintf(`{"dim":%d}`, cfg.Dim))
	}
	return nil
}

// archChampion scans every island for the lowest first-objective champion and
// sums the fitness evaluation counters.
func archChampion(arch *evo.Archipelago) (x []float64, f float64, fevals uint64, err error) {
	found := false
	for i := 0; i < arch.Size(); i++ {
		isl, e := arch.At(i)
		if e != nil {
			return nil, 0, 0, e
		}
		pop := isl.Population()
		fevals += pop.Problem().Fevals()
		cf, e := pop.ChampionF()
		if e != nil {
			continue // empty population
		}
		if !found || cf[0] < f {
			f = cf[0]
			x, _ = pop.ChampionX()
			found = true
		}
	}
	if !found {
		return nil, 0, fevals, fmt.Errorf("archipelago has no evaluated individuals")
	}
	return x, f, fevals, nil
}

// monitorProgress periodically broadcasts progress events during optimization
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, startTime time.Time, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond) // Throttle to 2 updates per second
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Get current job state
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}

			elapsed := time.Since(startTime).Seconds()

			var eps float64
			if elapsed > 0 {
				eps = float64(job.Fevals) / elapsed
			}

			// Broadcast progress event
			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:       jobID,
				State:       job.State,
				Generation:  job.Generation,
				BestF:       job.BestF,
				EvalsPerSec: eps,
				Timestamp:   time.Now(),
			})
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}

// monitorSnapshots periodically saves restorable snapshots during optimization
func monitorSnapshots(ctx context.Context, jm *JobManager, st store.Store, arch *evo.Archipelago, jobID string, done chan struct{}) {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return
	}

	interval := time.Duration(job.Config.SnapshotInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := saveSnapshot(st, arch, jobID); err != nil {
				slog.Error("Failed to save snapshot", "job_id", jobID, "error", err)
			}
		}
	}
}

// saveSnapshot captures the archipelago and persists it under the job ID.
// Island accessors hand out idle deep copies, so capturing is safe while the
// islands are still evolving.
func saveSnapshot(st store.Store, arch *evo.Archipelago, jobID string) error {
	snap, err := store.CaptureArchipelago(jobID, arch)
	if err != nil {
		return fmt.Errorf("failed to capture archipelago: %w", err)
	}
	if err := st.SaveRun(jobID, snap); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	slog.Info("Snapshot saved", "job_id", jobID, "islands", len(snap.Islands))
	return nil
}

// dataDirOf returns the base directory of a filesystem store, or "./data"
// for other implementations. The trace writer needs a directory; the Store
// interface deliberately doesn't expose one.
func dataDirOf(st store.Store) string {
	if fs, ok := st.(interface{ BaseDir() string }); ok {
		return fs.BaseDir()
	}
	return "./data"
}
