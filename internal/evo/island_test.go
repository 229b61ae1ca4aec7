package evo

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestIsland_Defaults(t *testing.T) {
	isl := NewDefaultIsland()
	defer isl.Close()

	if !IsAlgorithm[NullAlgorithm](isl.Algorithm()) {
		t.Error("default island should hold the null algorithm")
	}
	if !IsProblem[NullProblem](isl.Population().Problem()) {
		t.Error("default island should hold the null problem")
	}
	if isl.Population().Size() != 0 {
		t.Error("default island population should be empty")
	}
	if isl.Name() != "Thread island" {
		t.Errorf("island name = %q", isl.Name())
	}
	if isl.ExtraInfo() == "" {
		t.Error("thread executor should provide extra info")
	}
}

func TestIsland_BusyWaitGetLifecycle(t *testing.T) {
	isl := NewIsland(
		mustAlgorithm(slowAlgorithm{delay: 100 * time.Millisecond}),
		mustPopulation(mustProblem(quadratic{dim: 2}), 5, 1),
	)
	defer isl.Close()

	if isl.Busy() {
		t.Error("island should be idle before the first evolve")
	}

	isl.Evolve(1)
	if !isl.Busy() {
		t.Error("island should be busy right after evolve")
	}

	isl.Wait()
	if isl.Busy() {
		t.Error("island should be idle after wait")
	}
	if err := isl.Get(); err != nil {
		t.Errorf("get after clean run should return nil, got %v", err)
	}
}

func TestIsland_EvolveAppliesAlgorithmInOrder(t *testing.T) {
	pop := mustPopulation(mustProblem(quadratic{dim: 2}), 4, 11)
	isl := NewIsland(mustAlgorithm(halver{}), pop)
	defer isl.Close()

	const rounds = 6
	for i := 0; i < rounds; i++ {
		isl.Evolve(1)
		isl.Wait()
	}
	if err := isl.Get(); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	got := isl.Population()
	scale := math.Pow(2, rounds)
	for i := 0; i < pop.Size(); i++ {
		orig, _ := pop.X(i)
		cur, _ := got.X(i)
		for j := range orig {
			if want := orig[j] / scale; math.Abs(cur[j]-want) > 1e-12 {
				t.Fatalf("individual %d coord %d = %g, want %g", i, j, cur[j], want)
			}
		}
	}
}

func TestIsland_QueueOverflowSurfacedOnce(t *testing.T) {
	isl := NewIsland(
		mustAlgorithm(slowAlgorithm{delay: 50 * time.Millisecond}),
		mustPopulation(mustProblem(quadratic{dim: 2}), 3, 1),
	)
	defer isl.Close()

	// Far more requests than the queue admits; the excess is dropped and
	// remembered, never run.
	for i := 0; i < 4; i++ {
		isl.Evolve(10)
	}

	err := isl.Get()
	if !errors.Is(err, &QueueOverflowError{}) {
		t.Fatalf("expected QueueOverflowError, got %v", err)
	}
	if err := isl.Get(); err != nil {
		t.Errorf("second get should return nil, got %v", err)
	}
	isl.Wait() // must return normally
}

func TestIsland_ThreadSafetyViolation(t *testing.T) {
	pop := mustPopulation(mustProblem(quadratic{dim: 2}), 3, 5)
	isl := NewIsland(mustAlgorithm(unsafeAlgorithm{}), pop)
	defer isl.Close()

	before := isl.Population()

	isl.Evolve(1)
	err := isl.Get()
	if !errors.Is(err, &ThreadSafetyViolationError{}) {
		t.Fatalf("expected ThreadSafetyViolationError, got %v", err)
	}
	if err := isl.Get(); err != nil {
		t.Errorf("error should be consumed exactly once, got %v", err)
	}

	// The population must be untouched by the refused task.
	after := isl.Population()
	for i := 0; i < before.Size(); i++ {
		xb, _ := before.X(i)
		xa, _ := after.X(i)
		for j := range xb {
			if xb[j] != xa[j] {
				t.Fatal("refused task mutated the population")
			}
		}
	}
}

func TestIsland_UnsafeProblemViolation(t *testing.T) {
	pop := mustPopulation(mustProblem(unsafeProblem{quadratic{dim: 2}}), 3, 5)
	isl := NewIsland(mustAlgorithm(halver{}), pop)
	defer isl.Close()

	isl.Evolve(1)
	err := isl.Get()
	var tsv *ThreadSafetyViolationError
	if !errors.As(err, &tsv) {
		t.Fatalf("expected ThreadSafetyViolationError, got %v", err)
	}
	if tsv.Component != "problem" {
		t.Errorf("violation component = %q, want problem", tsv.Component)
	}
}

func TestIsland_TaskErrorKeepsLastGoodResult(t *testing.T) {
	pop := mustPopulation(mustProblem(quadratic{dim: 2}), 3, 5)
	isl := NewIsland(mustAlgorithm(halver{}), pop)
	defer isl.Close()

	isl.Evolve(1)
	isl.Wait()
	good := isl.Population()

	isl.SetAlgorithm(mustAlgorithm(failingAlgorithm{}))
	isl.Evolve(1)
	err := isl.Get()
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected the task error, got %v", err)
	}

	after := isl.Population()
	x0good, _ := good.X(0)
	x0after, _ := after.X(0)
	if x0good[0] != x0after[0] {
		t.Error("failed task must leave the last successful population installed")
	}
}

func TestIsland_AccessorsSafeDuringEvolution(t *testing.T) {
	isl := NewIsland(
		mustAlgorithm(slowAlgorithm{delay: 5 * time.Millisecond}),
		mustPopulation(mustProblem(quadratic{dim: 2}), 8, 3),
	)
	defer isl.Close()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got := isl.Population()
				if got.Size() != 8 {
					t.Errorf("observed torn population of size %d", got.Size())
					return
				}
				isl.SetPopulation(mustPopulation(mustProblem(quadratic{dim: 2}), 8, seed))
				_, _ = isl.GetThreadSafety()
			}
		}(uint64(g + 100))
	}

	for i := 0; i < 20; i++ {
		isl.Evolve(1)
		isl.Wait()
	}
	close(stop)
	wg.Wait()

	if err := isl.Get(); err != nil {
		t.Errorf("unexpected remembered error: %v", err)
	}
}

func TestIsland_CloneMidEvolution(t *testing.T) {
	isl := NewIsland(
		mustAlgorithm(slowAlgorithm{delay: 80 * time.Millisecond}),
		mustPopulation(mustProblem(quadratic{dim: 2}), 6, 2),
	)
	defer isl.Close()

	isl.Evolve(2)
	clone := isl.Clone()
	defer clone.Close()

	if clone.Busy() {
		t.Error("clone must start idle")
	}
	if clone.Population().Size() != 6 {
		t.Errorf("clone population size = %d, want 6", clone.Population().Size())
	}
	if err := clone.Get(); err != nil {
		t.Errorf("clone inherited an error: %v", err)
	}
	isl.Wait()
}

func TestIsland_EvolveAfterClose(t *testing.T) {
	isl := NewIsland(mustAlgorithm(halver{}), mustPopulation(mustProblem(quadratic{dim: 2}), 2, 1))
	isl.Close()
	isl.Close() // idempotent

	isl.Evolve(1)
	if err := isl.Get(); !errors.Is(err, ErrIslandClosed) {
		t.Errorf("expected ErrIslandClosed, got %v", err)
	}
}

func TestIsland_StringIsReproducible(t *testing.T) {
	isl := NewIsland(mustAlgorithm(halver{}), mustPopulation(mustProblem(quadratic{dim: 2}), 7, 4))
	defer isl.Close()

	s1 := isl.String()
	s2 := isl.String()
	if s1 != s2 {
		t.Error("String must be reproducible from the same state")
	}
	for _, want := range []string{"Thread island", "Halver", "Quadratic", "Population size: 7", "idle"} {
		if !strings.Contains(s1, want) {
			t.Errorf("summary missing %q:\n%s", want, s1)
		}
	}
}

func TestIsland_GetThreadSafety(t *testing.T) {
	isl := NewIsland(mustAlgorithm(unsafeAlgorithm{}), mustPopulation(mustProblem(quadratic{dim: 2}), 2, 1))
	defer isl.Close()

	algoTS, probTS := isl.GetThreadSafety()
	if algoTS != SafetyNone || probTS != SafetyBasic {
		t.Errorf("safety = (%s, %s), want (none, basic)", algoTS, probTS)
	}

	isl.SetAlgorithm(mustAlgorithm(halver{}))
	algoTS, _ = isl.GetThreadSafety()
	if algoTS != SafetyBasic {
		t.Error("GetThreadSafety must query the freshly installed algorithm")
	}
}
