package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cwbudde/pelago/internal/algos"
	"github.com/cwbudde/pelago/internal/evo"
	"github.com/cwbudde/pelago/internal/problems"
)

// ProblemFactory builds a user-defined problem from its serialized
// configuration. An empty config must yield a usable default instance.
type ProblemFactory func(config json.RawMessage) (evo.UDP, error)

// AlgorithmFactory builds a user-defined algorithm from its serialized
// configuration.
type AlgorithmFactory func(config json.RawMessage) (evo.UDA, error)

// Registry maps problem and algorithm names to factories. Snapshots store
// only a name and a config blob; the registry turns them back into live
// instances. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	problems   map[string]ProblemFactory
	algorithms map[string]AlgorithmFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		problems:   make(map[string]ProblemFactory),
		algorithms: make(map[string]AlgorithmFactory),
	}
}

// DefaultRegistry returns a registry pre-loaded with every built-in problem
// and algorithm. The keys match the Name() each type reports, so captured
// snapshots restore without extra wiring.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterProblem("Sphere", func(cfg json.RawMessage) (evo.UDP, error) {
		p := problems.Sphere{Dim: 2}
		if err := applyConfig(cfg, &p); err != nil {
			return nil, err
		}
		return p, nil
	})
	r.RegisterProblem("Rosenbrock", func(cfg json.RawMessage) (evo.UDP, error) {
		p := problems.Rosenbrock{Dim: 2}
		if err := applyConfig(cfg, &p); err != nil {
			return nil, err
		}
		return p, nil
	})
	r.RegisterProblem("Rastrigin", func(cfg json.RawMessage) (evo.UDP, error) {
		p := problems.Rastrigin{Dim: 2}
		if err := applyConfig(cfg, &p); err != nil {
			return nil, err
		}
		return p, nil
	})
	r.RegisterProblem("CircleFit", func(cfg json.RawMessage) (evo.UDP, error) {
		var p problems.CircleFit
		if err := applyConfig(cfg, &p); err != nil {
			return nil, err
		}
		return p, nil
	})

	r.RegisterAlgorithm("DE", func(cfg json.RawMessage) (evo.UDA, error) {
		a := algos.NewDE(100, 0)
		if err := applyConfig(cfg, a); err != nil {
			return nil, err
		}
		return a, nil
	})
	r.RegisterAlgorithm("PSO", func(cfg json.RawMessage) (evo.UDA, error) {
		a := algos.NewPSO(100, 0)
		if err := applyConfig(cfg, a); err != nil {
			return nil, err
		}
		return a, nil
	})
	r.RegisterAlgorithm("SA", func(cfg json.RawMessage) (evo.UDA, error) {
		a := algos.NewSA(1000, 0)
		if err := applyConfig(cfg, a); err != nil {
			return nil, err
		}
		return a, nil
	})
	r.RegisterAlgorithm("CompassSearch", func(cfg json.RawMessage) (evo.UDA, error) {
		a := algos.NewCompassSearch(1000)
		if err := applyConfig(cfg, a); err != nil {
			return nil, err
		}
		return a, nil
	})
	r.RegisterAlgorithm("Mayfly", func(cfg json.RawMessage) (evo.UDA, error) {
		a := algos.NewMayfly(100, 20, 0)
		if err := applyConfig(cfg, a); err != nil {
			return nil, err
		}
		return a, nil
	})

	return r
}

// applyConfig overlays a JSON config blob onto an already-defaulted value.
func applyConfig(cfg json.RawMessage, v any) error {
	if len(cfg) == 0 {
		return nil
	}
	if err := json.Unmarshal(cfg, v); err != nil {
		return fmt.Errorf("failed to apply config: %w", err)
	}
	return nil
}

// RegisterProblem adds or replaces a problem factory under the given name.
func (r *Registry) RegisterProblem(name string, f ProblemFactory) {
	r.mu.Lock()
	r.problems[name] = f
	r.mu.Unlock()
}

// RegisterAlgorithm adds or replaces an algorithm factory under the given
// name.
func (r *Registry) RegisterAlgorithm(name string, f AlgorithmFactory) {
	r.mu.Lock()
	r.algorithms[name] = f
	r.mu.Unlock()
}

// ProblemNames returns the registered problem names, sorted.
func (r *Registry) ProblemNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.problems))
	for name := range r.problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AlgorithmNames returns the registered algorithm names, sorted.
func (r *Registry) AlgorithmNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.algorithms))
	for name := range r.algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildProblem constructs a wrapped problem from a registered name and its
// config blob.
func (r *Registry) BuildProblem(name string, config json.RawMessage) (*evo.Problem, error) {
	r.mu.RLock()
	f, ok := r.problems[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown problem %q (registered: %v)", name, r.ProblemNames())
	}
	udp, err := f(config)
	if err != nil {
		return nil, fmt.Errorf("problem %q: %w", name, err)
	}
	return evo.NewProblem(udp)
}

// BuildAlgorithm constructs a wrapped algorithm from a registered name and
// its config blob.
func (r *Registry) BuildAlgorithm(name string, config json.RawMessage) (*evo.Algorithm, error) {
	r.mu.RLock()
	f, ok := r.algorithms[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown algorithm %q (registered: %v)", name, r.AlgorithmNames())
	}
	uda, err := f(config)
	if err != nil {
		return nil, fmt.Errorf("algorithm %q: %w", name, err)
	}
	return evo.NewAlgorithm(uda)
}

// CapturePopulation serializes a population's individuals and seed.
func CapturePopulation(pop *evo.Population) PopulationSnapshot {
	snap := PopulationSnapshot{
		Seed:        pop.Seed(),
		Individuals: make([]IndividualSnapshot, pop.Size()),
	}
	for i := 0; i < pop.Size(); i++ {
		id, _ := pop.ID(i)
		x, _ := pop.X(i)
		f, _ := pop.F(i)
		snap.Individuals[i] = IndividualSnapshot{ID: id, X: x, F: f}
	}
	return snap
}

// CaptureIsland serializes an island's algorithm, problem and population.
// The island should be idle; callers typically Wait() first.
func CaptureIsland(isl *evo.Island) (*IslandSnapshot, error) {
	algo := isl.Algorithm()
	pop := isl.Population()
	prob := pop.Problem()

	algoCfg, err := json.Marshal(algo.UDA())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize algorithm %q: %w", algo.Name(), err)
	}
	probCfg, err := json.Marshal(prob.UDP())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize problem %q: %w", prob.Name(), err)
	}

	return &IslandSnapshot{
		Name:       isl.Name(),
		Algorithm:  AlgorithmSnapshot{Name: algo.Name(), Config: algoCfg},
		Problem:    ProblemSnapshot{Name: prob.Name(), Config: probCfg},
		Population: CapturePopulation(pop),
	}, nil
}

// CaptureArchipelago serializes every island of an archipelago into a run
// snapshot.
func CaptureArchipelago(runID string, arch *evo.Archipelago) (*RunSnapshot, error) {
	islands := make([]IslandSnapshot, 0, arch.Size())
	for i := 0; i < arch.Size(); i++ {
		isl, err := arch.At(i)
		if err != nil {
			return nil, err
		}
		snap, err := CaptureIsland(isl)
		if err != nil {
			return nil, err
		}
		islands = append(islands, *snap)
	}
	return NewRunSnapshot(runID, islands), nil
}

// RestoreIsland rebuilds a live island from a snapshot. Individuals keep
// their decision and fitness vectors without re-evaluation; their IDs are
// regenerated.
func (r *Registry) RestoreIsland(snap *IslandSnapshot) (*evo.Island, error) {
	prob, err := r.BuildProblem(snap.Problem.Name, snap.Problem.Config)
	if err != nil {
		return nil, err
	}
	algo, err := r.BuildAlgorithm(snap.Algorithm.Name, snap.Algorithm.Config)
	if err != nil {
		return nil, err
	}

	pop := evo.NewEmptyPopulation(prob, snap.Population.Seed)
	for _, ind := range snap.Population.Individuals {
		if err := pop.PushBackXF(ind.X, ind.F); err != nil {
			return nil, fmt.Errorf("failed to restore individual: %w", err)
		}
	}
	return evo.NewIsland(algo, pop), nil
}

// RestoreArchipelago rebuilds a live archipelago from a run snapshot,
// preserving island order.
func (r *Registry) RestoreArchipelago(snap *RunSnapshot) (*evo.Archipelago, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	arch := evo.NewArchipelago()
	for i := range snap.Islands {
		isl, err := r.RestoreIsland(&snap.Islands[i])
		if err != nil {
			arch.Close()
			return nil, fmt.Errorf("island %d: %w", i, err)
		}
		arch.PushBack(isl)
	}
	return arch, nil
}
