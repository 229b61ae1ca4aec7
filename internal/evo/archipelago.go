package evo

import (
	"strings"
	"sync"
)

// Archipelago is an ordered, growable collection of islands. It fans evolve,
// wait and get operations out to every island and aggregates the outcomes;
// islands remain fully independent of each other.
type Archipelago struct {
	mu        sync.Mutex
	islands   []*Island
	usedSeeds map[uint64]struct{}
}

// NewArchipelago returns an empty archipelago.
func NewArchipelago() *Archipelago {
	return &Archipelago{usedSeeds: make(map[uint64]struct{})}
}

// NewArchipelagoReplicate builds n islands replicating the same algorithm
// and problem, each with its own freshly drawn population and a distinct
// automatic seed.
func NewArchipelagoReplicate(n int, algo *Algorithm, prob *Problem, size uint) (*Archipelago, error) {
	return NewArchipelagoReplicateWithExecutor(n, ThreadExecutor{}, algo, prob, size)
}

// NewArchipelagoReplicateWithExecutor is NewArchipelagoReplicate with an
// explicit executor kind shared by every island.
func NewArchipelagoReplicateWithExecutor(n int, exec Executor, algo *Algorithm, prob *Problem, size uint) (*Archipelago, error) {
	arch := NewArchipelago()
	for i := 0; i < n; i++ {
		if err := arch.PushBackNewWithExecutor(exec, algo, prob, size); err != nil {
			arch.Close()
			return nil, err
		}
	}
	return arch, nil
}

// NewArchipelagoFromPop builds n islands reusing one already-built
// population's problem, each island drawing its own population with a
// distinct automatic seed.
func NewArchipelagoFromPop(n int, exec Executor, algo *Algorithm, pop *Population) (*Archipelago, error) {
	arch := NewArchipelago()
	for i := 0; i < n; i++ {
		if err := arch.PushBackNewWithExecutor(exec, algo, pop.Problem().Clone(), uint(pop.Size())); err != nil {
			arch.Close()
			return nil, err
		}
	}
	return arch, nil
}

// PushBack appends an existing island.
func (arch *Archipelago) PushBack(isl *Island) {
	arch.mu.Lock()
	arch.islands = append(arch.islands, isl)
	arch.mu.Unlock()
}

// PushBackNew appends a fresh island built from algo and prob with an
// automatically drawn seed, distinct from every other automatic seed in this
// archipelago.
func (arch *Archipelago) PushBackNew(algo *Algorithm, prob *Problem, size uint) error {
	return arch.PushBackNewWithExecutor(ThreadExecutor{}, algo, prob, size)
}

// PushBackNewSeeded appends a fresh island built with an explicit seed.
func (arch *Archipelago) PushBackNewSeeded(algo *Algorithm, prob *Problem, size uint, seed uint64) error {
	isl, err := NewIslandFromProblem(algo, prob, size, seed)
	if err != nil {
		return err
	}
	arch.PushBack(isl)
	return nil
}

// PushBackNewWithExecutor appends a fresh island with an explicit executor
// and an automatically drawn distinct seed.
func (arch *Archipelago) PushBackNewWithExecutor(exec Executor, algo *Algorithm, prob *Problem, size uint) error {
	arch.mu.Lock()
	seed := drawSeed(arch.usedSeeds)
	arch.mu.Unlock()
	isl, err := NewIslandFromProblemWithExecutor(exec, algo, prob, size, seed)
	if err != nil {
		return err
	}
	arch.PushBack(isl)
	return nil
}

// At returns island i. Both read and write paths go through the same bounds
// check; out-of-range access yields an IndexError.
func (arch *Archipelago) At(i int) (*Island, error) {
	arch.mu.Lock()
	defer arch.mu.Unlock()
	if i < 0 || i >= len(arch.islands) {
		return nil, &IndexError{Index: i, Size: len(arch.islands)}
	}
	return arch.islands[i], nil
}

// Size returns the island count.
func (arch *Archipelago) Size() int {
	arch.mu.Lock()
	defer arch.mu.Unlock()
	return len(arch.islands)
}

// snapshot returns the current island list without holding the lock during
// the fan-out.
func (arch *Archipelago) snapshot() []*Island {
	arch.mu.Lock()
	defer arch.mu.Unlock()
	return append([]*Island(nil), arch.islands...)
}

// Evolve enqueues n evolution requests on every island. Non-blocking; each
// island proceeds fully independently.
func (arch *Archipelago) Evolve(n uint) {
	for _, isl := range arch.snapshot() {
		isl.Evolve(n)
	}
}

// Busy reports whether any island has outstanding tasks.
func (arch *Archipelago) Busy() bool {
	for _, isl := range arch.snapshot() {
		if isl.Busy() {
			return true
		}
	}
	return false
}

// Wait blocks until every island's queue drains. Never raises.
func (arch *Archipelago) Wait() {
	for _, isl := range arch.snapshot() {
		isl.Wait()
	}
}

// Get calls Get on every island, draining every remembered error even after
// the first failure, and reports the first error encountered to the caller.
func (arch *Archipelago) Get() error {
	var first error
	for _, isl := range arch.snapshot() {
		if err := isl.Get(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Clone returns a new archipelago of idle clones of every island. Safe to
// call while islands are mid-evolution.
func (arch *Archipelago) Clone() *Archipelago {
	clone := NewArchipelago()
	for _, isl := range arch.snapshot() {
		clone.PushBack(isl.Clone())
	}
	return clone
}

// Close closes every island, joining all workers, and leaves the archipelago
// at size zero.
func (arch *Archipelago) Close() {
	arch.mu.Lock()
	islands := arch.islands
	arch.islands = nil
	arch.mu.Unlock()
	for _, isl := range islands {
		isl.Close()
	}
}

// String lists the per-island summaries in order.
func (arch *Archipelago) String() string {
	islands := arch.snapshot()
	var b strings.Builder
	b.WriteString("Archipelago\n")
	for _, isl := range islands {
		b.WriteString(isl.String())
	}
	return b.String()
}
