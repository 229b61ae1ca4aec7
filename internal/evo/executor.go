package evo

// Executor is the pluggable backing that an island's worker delegates each
// evolution task to. RunEvolve reads the island's current algorithm and
// population through the public accessors, performs one evolution, and
// installs the result back. An executor may optionally implement Named and
// ExtraInfoProvider; the island derives its own name and extra info from
// them.
//
// Executors run on the island's single worker goroutine, one task at a time,
// so they never need internal synchronization of their own.
type Executor interface {
	RunEvolve(isl *Island) error
}

// ThreadExecutor is the default executor: it evolves in place on the worker
// goroutine.
type ThreadExecutor struct{}

// RunEvolve takes consistent snapshots of the island's algorithm and
// population, evolves, and installs both the advanced algorithm (its log and
// any internal state moved forward) and the replacement population.
func (ThreadExecutor) RunEvolve(isl *Island) error {
	algo := isl.Algorithm()
	pop := isl.Population()
	newPop, err := algo.Evolve(pop)
	if err != nil {
		return err
	}
	isl.SetAlgorithm(algo)
	isl.SetPopulation(newPop)
	return nil
}

// Name identifies the executor in island summaries.
func (ThreadExecutor) Name() string { return "Thread island" }

// ExtraInfo describes the execution model.
func (ThreadExecutor) ExtraInfo() string {
	return "Evolutions run sequentially on a dedicated goroutine per island."
}
