package evo

import (
	"errors"
	"testing"
)

func TestNewAlgorithm_MissingEvolve(t *testing.T) {
	if _, err := NewAlgorithm(struct{}{}); !errors.Is(err, &ConstructionError{}) {
		t.Errorf("expected ConstructionError, got %v", err)
	}
	if _, err := NewAlgorithm(nil); !errors.Is(err, &ConstructionError{}) {
		t.Errorf("expected ConstructionError for nil, got %v", err)
	}
}

func TestNewAlgorithm_WrapAWrapper(t *testing.T) {
	a := mustAlgorithm(halver{})
	if _, err := NewAlgorithm(a); !errors.Is(err, &ConstructionError{}) {
		t.Errorf("wrapping an Algorithm should fail, got %v", err)
	}
}

func TestAlgorithm_SeedAndVerbosityCapabilities(t *testing.T) {
	plain := mustAlgorithm(halver{})
	if plain.HasSetSeed() || plain.HasSetVerbosity() {
		t.Error("halver should declare neither setter")
	}
	if err := plain.SetSeed(1); !errors.Is(err, &UnsupportedCapabilityError{}) {
		t.Errorf("SetSeed on halver should fail, got %v", err)
	}
	if err := plain.SetVerbosity(1); !errors.Is(err, &UnsupportedCapabilityError{}) {
		t.Errorf("SetVerbosity on halver should fail, got %v", err)
	}

	uda := &seededAlgorithm{}
	seeded := mustAlgorithm(uda)
	if !seeded.HasSetSeed() || !seeded.HasSetVerbosity() {
		t.Fatal("seeded algorithm capabilities not detected")
	}
	if err := seeded.SetSeed(99); err != nil {
		t.Fatalf("SetSeed failed: %v", err)
	}
	if err := seeded.SetVerbosity(3); err != nil {
		t.Fatalf("SetVerbosity failed: %v", err)
	}
	if uda.seed != 99 || uda.verbosity != 3 {
		t.Errorf("setters not forwarded: seed=%d verbosity=%d", uda.seed, uda.verbosity)
	}
}

func TestAlgorithm_EvolveLogsRecords(t *testing.T) {
	a := mustAlgorithm(halver{})
	pop := mustPopulation(mustProblem(quadratic{dim: 2}), 5, 42)

	out, err := a.Evolve(pop)
	if err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}
	if out.Size() != 5 {
		t.Errorf("population size changed: %d", out.Size())
	}
	if _, err = a.Evolve(out); err != nil {
		t.Fatal(err)
	}

	log := a.Log()
	if len(log) != 2 {
		t.Fatalf("log has %d entries, want 2", len(log))
	}
	if log[0].Seq != 1 || log[1].Seq != 2 {
		t.Errorf("log sequence numbers wrong: %d, %d", log[0].Seq, log[1].Seq)
	}
	if len(log[0].ChampionF) != 1 {
		t.Errorf("champion fitness not recorded: %v", log[0].ChampionF)
	}

	// Reconstruction clears the log.
	fresh := mustAlgorithm(halver{})
	if len(fresh.Log()) != 0 {
		t.Error("fresh algorithm should have an empty log")
	}
}

func TestAlgorithm_CloneIsDeep(t *testing.T) {
	uda := &seededAlgorithm{}
	a := mustAlgorithm(uda)
	pop := mustPopulation(mustProblem(quadratic{dim: 2}), 3, 1)
	if _, err := a.Evolve(pop); err != nil {
		t.Fatal(err)
	}

	clone := a.Clone()
	if len(clone.Log()) != 1 {
		t.Errorf("clone log has %d entries, want 1", len(clone.Log()))
	}

	// Reseeding the clone must not touch the original's wrapped value.
	if err := clone.SetSeed(123); err != nil {
		t.Fatal(err)
	}
	if uda.seed == 123 {
		t.Error("clone aliases the original user value")
	}
}

func TestAlgorithm_ExtractAndIs(t *testing.T) {
	a := mustAlgorithm(halver{})
	if !IsAlgorithm[halver](a) {
		t.Error("IsAlgorithm[halver] should be true")
	}
	if IsAlgorithm[failingAlgorithm](a) {
		t.Error("IsAlgorithm[failingAlgorithm] should be false")
	}
	if _, ok := ExtractAlgorithm[halver](a); !ok {
		t.Error("ExtractAlgorithm[halver] should succeed")
	}
}
