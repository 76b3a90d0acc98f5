package evo

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"matrixevo/internal/matrix"
)

type lastSlotSelector struct{}

func (lastSlotSelector) Name() string { return "last_slot" }

func (lastSlotSelector) PickParent(_ *rand.Rand, pop Population) (matrix.Matrix, error) {
	return pop.Genomes[pop.Len()-1].Clone(), nil
}

func TestDefaultStrategiesRegistered(t *testing.T) {
	names := ListStrategies()
	for _, want := range []string{"tournament", "double_tournament", "roulette"} {
		if !slices.Contains(names.Selection, want) {
			t.Fatalf("missing selection %s in %v", want, names.Selection)
		}
	}
	if !slices.Equal(names.Crossover, []string{"single_point", "uniform"}) {
		t.Fatalf("unexpected crossovers: %v", names.Crossover)
	}
	if !slices.Equal(names.Mutation, []string{"bit_flip", "row_gated"}) {
		t.Fatalf("unexpected mutations: %v", names.Mutation)
	}
}

func TestRegisterAndResolveSelector(t *testing.T) {
	resetStrategyRegistryForTests()
	t.Cleanup(resetStrategyRegistryForTests)

	if err := RegisterSelector("last_slot", func(Config) Selector { return lastSlotSelector{} }); err != nil {
		t.Fatalf("register: %v", err)
	}
	sel, err := ResolveSelector("last_slot", DefaultConfig())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sel.Name() != "last_slot" {
		t.Fatalf("unexpected selector: %s", sel.Name())
	}

	cfg := DefaultConfig()
	cfg.Selection = "last_slot"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected custom selection to validate: %v", err)
	}
}

func TestRegisterStrategyDuplicate(t *testing.T) {
	resetStrategyRegistryForTests()
	t.Cleanup(resetStrategyRegistryForTests)

	err := RegisterMutator("bit_flip", func(cfg Config) Mutator { return BitFlipMutation{Rate: cfg.MutationRate} })
	if !errors.Is(err, ErrStrategyExists) {
		t.Fatalf("expected ErrStrategyExists, got: %v", err)
	}
	if err := RegisterCrossover("", nil); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestResolveUnknownStrategy(t *testing.T) {
	if _, err := ResolveCrossover("three_point", DefaultConfig()); !errors.Is(err, ErrStrategyNotFound) {
		t.Fatalf("expected ErrStrategyNotFound, got: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Mutation = "gaussian"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got: %v", err)
	}
}

func TestResolvedStrategiesCarryConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TournamentSize = 7
	cfg.CrossoverRate = 0.3
	cfg.CrossoverRateMode = RateBias
	cfg.MutationRate = 0.125

	sel, _ := ResolveSelector("tournament", cfg)
	if got := sel.(TournamentSelector).Size; got != 7 {
		t.Fatalf("tournament size = %d", got)
	}
	cx, _ := ResolveCrossover("uniform", cfg)
	if got := cx.(UniformCrossover); got.Rate != 0.3 || got.Mode != RateBias {
		t.Fatalf("unexpected crossover %+v", got)
	}
	mut, _ := ResolveMutator("row_gated", cfg)
	if got := mut.(RowGatedMutation).Rate; got != 0.125 {
		t.Fatalf("mutation rate = %v", got)
	}
}
