package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/pelago/internal/store"
	"github.com/spf13/cobra"
)

var (
	resumeDataDir string
	resumeGens    int
	resumeSave    bool
)

var resumeCmd = &cobra.Command{
	Use:   "resume [run-id]",
	Short: "Resume an optimization from a saved snapshot",
	Long: `Restores the archipelago from a run snapshot, evolves it for additional
generations and prints the champion. With --save, the snapshot is updated in
place.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for snapshot storage")
	resumeCmd.Flags().IntVar(&resumeGens, "gens", 100, "Additional evolution rounds")
	resumeCmd.Flags().BoolVar(&resumeSave, "save", false, "Update the snapshot when done")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	runID := args[0]

	snapshotStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}

	snap, err := snapshotStore.LoadRun(runID)
	if err != nil {
		return err
	}

	registry := store.DefaultRegistry()
	arch, err := registry.RestoreArchipelago(snap)
	if err != nil {
		return fmt.Errorf("failed to restore archipelago: %w", err)
	}
	defer arch.Close()

	initialF, err := championF(arch)
	if err != nil {
		return err
	}

	slog.Info("Resuming optimization",
		"run_id", runID,
		"islands", arch.Size(),
		"generations", resumeGens,
		"best_f", initialF,
	)

	start := time.Now()
	for gen := 1; gen <= resumeGens; gen++ {
		arch.Evolve(1)
		arch.Wait()
		if err := arch.Get(); err != nil {
			return fmt.Errorf("generation %d: %w", gen, err)
		}
	}
	elapsed := time.Since(start)

	bestX, bestF, fevals, err := championXF(arch)
	if err != nil {
		return err
	}

	slog.Info("Resume complete",
		"run_id", runID,
		"elapsed", elapsed,
		"best_f", bestF,
		"improvement", initialF-bestF,
		"fevals", fevals,
	)

	fmt.Printf("Best fitness: %g (resumed from %g, %d evaluations in %s)\n", bestF, initialF, fevals, elapsed.Round(time.Millisecond))
	fmt.Printf("Best decision vector: %v\n", bestX)

	if resumeSave {
		newSnap, err := store.CaptureArchipelago(runID, arch)
		if err != nil {
			return err
		}
		if err := snapshotStore.SaveRun(runID, newSnap); err != nil {
			return err
		}
		fmt.Printf("Updated snapshot: %s\n", runID)
	}

	return nil
}
