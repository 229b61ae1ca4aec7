package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cwbudde/pelago/internal/evo"
	"github.com/cwbudde/pelago/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// runOptions collects everything the run command needs. The same structure
// doubles as the YAML config file format; explicitly set flags override file
// values.
type runOptions struct {
	Problem         string `yaml:"problem"`
	Dim             int    `yaml:"dim"`
	ProblemConfig   string `yaml:"problemConfig"`
	Algorithm       string `yaml:"algorithm"`
	AlgorithmConfig string `yaml:"algorithmConfig"`
	Islands         int    `yaml:"islands"`
	PopSize         int    `yaml:"popSize"`
	Generations     int    `yaml:"generations"`
	Seed            uint64 `yaml:"seed"`
	DataDir         string `yaml:"dataDir"`
	Save            bool   `yaml:"save"`
	RunID           string `yaml:"runId"`
}

var (
	runOpts    runOptions
	runCfgFile string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single optimization to completion",
	Long: `Builds an archipelago from the given problem and algorithm, evolves it
for the requested number of generations and prints the champion. With --save,
a restorable snapshot and a convergence trace are written to the data
directory.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&runOpts.Problem, "problem", "", "Problem name (required unless set in --config)")
	runCmd.Flags().IntVar(&runOpts.Dim, "dim", 0, "Problem dimension (0 = factory default)")
	runCmd.Flags().StringVar(&runOpts.ProblemConfig, "problem-config", "", "Problem config as JSON (overrides --dim)")
	runCmd.Flags().StringVar(&runOpts.Algorithm, "algorithm", "DE", "Algorithm name")
	runCmd.Flags().StringVar(&runOpts.AlgorithmConfig, "algo-config", "", "Algorithm config as JSON")
	runCmd.Flags().IntVar(&runOpts.Islands, "islands", 4, "Number of islands")
	runCmd.Flags().IntVar(&runOpts.PopSize, "pop", 30, "Population size per island")
	runCmd.Flags().IntVar(&runOpts.Generations, "gens", 100, "Number of evolution rounds")
	runCmd.Flags().Uint64Var(&runOpts.Seed, "seed", 0, "Random seed (0 = auto)")
	runCmd.Flags().StringVar(&runOpts.DataDir, "data-dir", "./data", "Base directory for snapshot storage")
	runCmd.Flags().BoolVar(&runOpts.Save, "save", false, "Save a restorable snapshot when done")
	runCmd.Flags().StringVar(&runOpts.RunID, "run-id", "", "Run ID for the snapshot (default: random)")
	runCmd.Flags().StringVar(&runCfgFile, "config", "", "YAML config file (flags override file values)")

	rootCmd.AddCommand(runCmd)
}

// loadRunConfig merges a YAML config file under the explicitly set flags.
func loadRunConfig(cmd *cobra.Command) error {
	if runCfgFile == "" {
		return nil
	}

	data, err := os.ReadFile(runCfgFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileOpts runOptions
	if err := yaml.Unmarshal(data, &fileOpts); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// Flags the user set on the command line win over the file.
	merged := fileOpts
	flagged := map[string]func(){
		"problem":        func() { merged.Problem = runOpts.Problem },
		"dim":            func() { merged.Dim = runOpts.Dim },
		"problem-config": func() { merged.ProblemConfig = runOpts.ProblemConfig },
		"algorithm":      func() { merged.Algorithm = runOpts.Algorithm },
		"algo-config":    func() { merged.AlgorithmConfig = runOpts.AlgorithmConfig },
		"islands":        func() { merged.Islands = runOpts.Islands },
		"pop":            func() { merged.PopSize = runOpts.PopSize },
		"gens":           func() { merged.Generations = runOpts.Generations },
		"seed":           func() { merged.Seed = runOpts.Seed },
		"data-dir":       func() { merged.DataDir = runOpts.DataDir },
		"save":           func() { merged.Save = runOpts.Save },
		"run-id":         func() { merged.RunID = runOpts.RunID },
	}
	for name, apply := range flagged {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}

	// File values may leave gaps; fall back to flag defaults.
	if merged.Algorithm == "" {
		merged.Algorithm = runOpts.Algorithm
	}
	if merged.Islands <= 0 {
		merged.Islands = runOpts.Islands
	}
	if merged.PopSize <= 0 {
		merged.PopSize = runOpts.PopSize
	}
	if merged.Generations <= 0 {
		merged.Generations = runOpts.Generations
	}
	if merged.DataDir == "" {
		merged.DataDir = runOpts.DataDir
	}

	runOpts = merged
	return nil
}

func runOptimization(cmd *cobra.Command, args []string) error {
	if err := loadRunConfig(cmd); err != nil {
		return err
	}
	if runOpts.Problem == "" {
		return fmt.Errorf("--problem is required (or set problem in --config)")
	}

	registry := store.DefaultRegistry()

	probCfg := json.RawMessage(runOpts.ProblemConfig)
	if len(probCfg) == 0 && runOpts.Dim > 0 {
		probCfg = json.RawMessage(fmt.Sprintf(`{"dim":%d}`, runOpts.Dim))
	}

	prob, err := registry.BuildProblem(runOpts.Problem, probCfg)
	if err != nil {
		return err
	}
	algo, err := registry.BuildAlgorithm(runOpts.Algorithm, json.RawMessage(runOpts.AlgorithmConfig))
	if err != nil {
		return err
	}
	if runOpts.Seed != 0 && algo.HasSetSeed() {
		if err := algo.SetSeed(runOpts.Seed); err != nil {
			return err
		}
	}

	slog.Info("Starting optimization",
		"problem", prob.Name(),
		"algorithm", algo.Name(),
		"islands", runOpts.Islands,
		"pop_size", runOpts.PopSize,
		"generations", runOpts.Generations,
	)

	arch := evo.NewArchipelago()
	defer arch.Close()
	for i := 0; i < runOpts.Islands; i++ {
		if runOpts.Seed != 0 {
			err = arch.PushBackNewSeeded(algo, prob, uint(runOpts.PopSize), runOpts.Seed+uint64(i))
		} else {
			err = arch.PushBackNew(algo, prob, uint(runOpts.PopSize))
		}
		if err != nil {
			return err
		}
	}

	initialF, err := championF(arch)
	if err != nil {
		return err
	}

	start := time.Now()
	for gen := 1; gen <= runOpts.Generations; gen++ {
		arch.Evolve(1)
		arch.Wait()
		if err := arch.Get(); err != nil {
			return fmt.Errorf("generation %d: %w", gen, err)
		}
		if f, err := championF(arch); err == nil {
			slog.Debug("Generation complete", "generation", gen, "best_f", f)
		}
	}
	elapsed := time.Since(start)

	bestX, bestF, fevals, err := championXF(arch)
	if err != nil {
		return err
	}

	slog.Info("Optimization complete",
		"elapsed", elapsed,
		"initial_f", initialF,
		"best_f", bestF,
		"improvement", initialF-bestF,
		"fevals", fevals,
	)

	fmt.Printf("Best fitness: %g (from %g, %d evaluations in %s)\n", bestF, initialF, fevals, elapsed.Round(time.Millisecond))
	fmt.Printf("Best decision vector: %v\n", bestX)

	if runOpts.Save {
		runID := runOpts.RunID
		if runID == "" {
			runID = uuid.New().String()
		}
		if err := saveRun(arch, runOpts.DataDir, runID); err != nil {
			return err
		}
		fmt.Printf("Saved snapshot: %s\n", runID)
	}

	return nil
}

// championF returns the archipelago-wide best first objective.
func championF(arch *evo.Archipelago) (float64, error) {
	_, f, _, err := championXF(arch)
	return f, err
}

// championXF scans every island for the champion and sums evaluation counts.
func championXF(arch *evo.Archipelago) (x []float64, f float64, fevals uint64, err error) {
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
			continue
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

// saveRun captures the archipelago and persists it under runID.
func saveRun(arch *evo.Archipelago, dataDir, runID string) error {
	st, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	snap, err := store.CaptureArchipelago(runID, arch)
	if err != nil {
		return err
	}
	return st.SaveRun(runID, snap)
}
