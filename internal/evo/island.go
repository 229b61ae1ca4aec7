package evo

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// evolveQueueCap is the number of not-yet-started evolution tasks an island
// accepts before dropping further requests. Requests beyond this capacity are
// not run; the caller is informed asynchronously through the next Get call
// rather than blocked.
const evolveQueueCap = 2

// ErrIslandClosed is remembered when Evolve is called on a closed island.
var ErrIslandClosed = errors.New("island is closed")

// Island owns exactly one Algorithm and one Population and exposes
// asynchronous, queued evolution with bounded backpressure. All queued tasks
// are serviced in FIFO order by a single dedicated worker goroutine, so at
// most one algorithm/population mutation is ever in flight per island no
// matter how many goroutines call Evolve.
//
// The algorithm and population accessors are safe to call from any goroutine
// at any time, including while the worker is mid-evolution; each takes a
// short-lived lock on its half of the state and never waits on task
// completion.
type Island struct {
	exec  Executor
	name  string
	extra string

	algoMu sync.Mutex
	algo   *Algorithm

	popMu sync.Mutex
	pop   *Population

	mu       sync.Mutex
	cond     *sync.Cond
	pending  int // queued plus running tasks
	firstErr error
	closed   bool
	tasks    chan struct{}
	done     chan struct{}
}

// NewIsland builds an island from an algorithm and an already-constructed
// population, using the default thread executor.
func NewIsland(algo *Algorithm, pop *Population) *Island {
	return NewIslandWithExecutor(ThreadExecutor{}, algo, pop)
}

// NewIslandWithExecutor builds an island with an explicit executor. The
// island takes deep copies of the algorithm and population, so the caller's
// values are never aliased.
func NewIslandWithExecutor(exec Executor, algo *Algorithm, pop *Population) *Island {
	isl := &Island{
		exec:  exec,
		name:  "Unnamed island",
		extra: "",
		algo:  algo.Clone(),
		pop:   pop.Clone(),
		tasks: make(chan struct{}, evolveQueueCap),
		done:  make(chan struct{}),
	}
	if n, ok := exec.(Named); ok {
		isl.name = n.Name()
	}
	if e, ok := exec.(ExtraInfoProvider); ok {
		isl.extra = e.ExtraInfo()
	}
	isl.cond = sync.NewCond(&isl.mu)
	go isl.work()
	return isl
}

// NewIslandFromProblem builds an island whose population is freshly drawn
// from the given problem.
func NewIslandFromProblem(algo *Algorithm, prob *Problem, size uint, seed uint64) (*Island, error) {
	pop, err := NewPopulation(prob, size, seed)
	if err != nil {
		return nil, err
	}
	return NewIsland(algo, pop), nil
}

// NewIslandFromProblemWithExecutor is NewIslandFromProblem with an explicit
// executor.
func NewIslandFromProblemWithExecutor(exec Executor, algo *Algorithm, prob *Problem, size uint, seed uint64) (*Island, error) {
	pop, err := NewPopulation(prob, size, seed)
	if err != nil {
		return nil, err
	}
	return NewIslandWithExecutor(exec, algo, pop), nil
}

// NewDefaultIsland builds an island holding the null algorithm and an empty
// population of the null problem.
func NewDefaultIsland() *Island {
	return NewIsland(NewDefaultAlgorithm(), NewEmptyPopulation(NewDefaultProblem(), 0))
}

// work is the island's single worker loop. It drains the task queue in
// submission order until the queue is closed.
func (isl *Island) work() {
	defer close(isl.done)
	for range isl.tasks {
		isl.runOne()
		isl.mu.Lock()
		isl.pending--
		isl.cond.Broadcast()
		isl.mu.Unlock()
	}
}

// runOne executes a single queued evolution. Failures never corrupt the
// installed algorithm/population; they only set the remembered error.
func (isl *Island) runOne() {
	aSafety, pSafety := isl.GetThreadSafety()
	if aSafety == SafetyNone {
		isl.remember(&ThreadSafetyViolationError{Component: "algorithm", Name: isl.algoName()})
		return
	}
	if pSafety == SafetyNone {
		isl.remember(&ThreadSafetyViolationError{Component: "problem", Name: isl.probName()})
		return
	}
	if err := isl.exec.RunEvolve(isl); err != nil {
		slog.Debug("island evolution failed", "island", isl.name, "error", err)
		isl.remember(err)
	}
}

// remember stores err as the island's pending error unless one is already
// pending; the first error encountered wins.
func (isl *Island) remember(err error) {
	isl.mu.Lock()
	if isl.firstErr == nil {
		isl.firstErr = err
	}
	isl.mu.Unlock()
}

// Evolve enqueues n evolution requests and returns immediately. Requests
// that do not fit in the bounded queue are dropped and recorded as a
// QueueOverflowError, surfaced by the next Get call.
func (isl *Island) Evolve(n uint) {
	for i := uint(0); i < n; i++ {
		isl.mu.Lock()
		if isl.closed {
			if isl.firstErr == nil {
				isl.firstErr = ErrIslandClosed
			}
			isl.mu.Unlock()
			return
		}
		select {
		case isl.tasks <- struct{}{}:
			isl.pending++
		default:
			if isl.firstErr == nil {
				isl.firstErr = &QueueOverflowError{Capacity: evolveQueueCap}
			}
		}
		isl.mu.Unlock()
	}
}

// Busy reports whether at least one task is queued or running. It never
// blocks.
func (isl *Island) Busy() bool {
	isl.mu.Lock()
	defer isl.mu.Unlock()
	return isl.pending > 0
}

// Wait blocks until all currently queued and running tasks complete. It
// never surfaces a remembered error; it purely synchronizes.
func (isl *Island) Wait() {
	isl.mu.Lock()
	for isl.pending > 0 {
		isl.cond.Wait()
	}
	isl.mu.Unlock()
}

// Get blocks like Wait and then raises the first remembered error, if any,
// consuming it: a second Get with no new failing tasks in between returns
// nil.
func (isl *Island) Get() error {
	isl.mu.Lock()
	for isl.pending > 0 {
		isl.cond.Wait()
	}
	err := isl.firstErr
	isl.firstErr = nil
	isl.mu.Unlock()
	return err
}

// Algorithm returns a deep copy of the currently installed algorithm.
func (isl *Island) Algorithm() *Algorithm {
	isl.algoMu.Lock()
	defer isl.algoMu.Unlock()
	return isl.algo.Clone()
}

// SetAlgorithm installs a deep copy of algo.
func (isl *Island) SetAlgorithm(algo *Algorithm) {
	clone := algo.Clone()
	isl.algoMu.Lock()
	isl.algo = clone
	isl.algoMu.Unlock()
}

// Population returns a deep copy of the currently installed population.
// Readers never observe a population mid-replacement.
func (isl *Island) Population() *Population {
	isl.popMu.Lock()
	defer isl.popMu.Unlock()
	return isl.pop.Clone()
}

// SetPopulation installs a deep copy of pop.
func (isl *Island) SetPopulation(pop *Population) {
	clone := pop.Clone()
	isl.popMu.Lock()
	isl.pop = clone
	isl.popMu.Unlock()
}

// GetThreadSafety returns the safety levels of the currently installed
// algorithm and of the problem inside the current population, queried fresh.
func (isl *Island) GetThreadSafety() (algo, prob ThreadSafety) {
	isl.algoMu.Lock()
	algo = isl.algo.ThreadSafety()
	isl.algoMu.Unlock()
	isl.popMu.Lock()
	prob = isl.pop.Problem().ThreadSafety()
	isl.popMu.Unlock()
	return algo, prob
}

// Name returns the island name, derived from the executor when it declares
// one.
func (isl *Island) Name() string { return isl.name }

// ExtraInfo returns the executor-provided description, if any.
func (isl *Island) ExtraInfo() string { return isl.extra }

// Clone returns a new idle island holding consistent deep copies of the
// source's algorithm and population. Cloning is safe while the source is
// mid-evolution; the clone starts with an empty queue and no remembered
// error.
func (isl *Island) Clone() *Island {
	return NewIslandWithExecutor(isl.exec, isl.Algorithm(), isl.Population())
}

// Close drains all queued tasks and joins the worker goroutine. After Close,
// Evolve requests are rejected (remembered as ErrIslandClosed). Close is
// idempotent.
func (isl *Island) Close() {
	isl.mu.Lock()
	if isl.closed {
		isl.mu.Unlock()
		<-isl.done
		return
	}
	isl.closed = true
	isl.mu.Unlock()
	close(isl.tasks)
	<-isl.done
}

func (isl *Island) algoName() string {
	isl.algoMu.Lock()
	defer isl.algoMu.Unlock()
	return isl.algo.Name()
}

func (isl *Island) probName() string {
	isl.popMu.Lock()
	defer isl.popMu.Unlock()
	return isl.pop.Problem().Name()
}

func (isl *Island) popSize() int {
	isl.popMu.Lock()
	defer isl.popMu.Unlock()
	return isl.pop.Size()
}

// String summarizes the island: name, busy state, algorithm, problem and
// population size. The rendering is reproducible byte for byte from the same
// logical state, which the persistence round trip relies on.
func (isl *Island) String() string {
	status := "idle"
	if isl.Busy() {
		status = "busy"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Island name: %s\n", isl.name)
	fmt.Fprintf(&b, "\tStatus: %s\n", status)
	fmt.Fprintf(&b, "\tAlgorithm: %s\n", isl.algoName())
	fmt.Fprintf(&b, "\tProblem: %s\n", isl.probName())
	fmt.Fprintf(&b, "\tPopulation size: %d\n", isl.popSize())
	return b.String()
}
