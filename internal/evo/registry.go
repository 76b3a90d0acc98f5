package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrStrategyExists   = errors.New("strategy already registered")
	ErrStrategyNotFound = errors.New("strategy not found")
)

type (
	SelectorFactory  func(cfg Config) Selector
	CrossoverFactory func(cfg Config) Crossover
	MutatorFactory   func(cfg Config) Mutator
)

var strategyRegistry = struct {
	mu         sync.RWMutex
	selectors  map[string]SelectorFactory
	crossovers map[string]CrossoverFactory
	mutators   map[string]MutatorFactory
}{
	selectors:  make(map[string]SelectorFactory),
	crossovers: make(map[string]CrossoverFactory),
	mutators:   make(map[string]MutatorFactory),
}

func init() {
	registerDefaultStrategies()
}

func registerDefaultStrategies() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(RegisterSelector("tournament", func(cfg Config) Selector {
		return TournamentSelector{Size: cfg.TournamentSize}
	}))
	must(RegisterSelector("double_tournament", func(Config) Selector {
		return DoubleTournamentSelector{}
	}))
	must(RegisterSelector("roulette", func(Config) Selector {
		return RouletteSelector{}
	}))
	must(RegisterCrossover("uniform", func(cfg Config) Crossover {
		return UniformCrossover{Rate: cfg.CrossoverRate, Mode: cfg.CrossoverRateMode}
	}))
	must(RegisterCrossover("single_point", func(Config) Crossover {
		return SinglePointCrossover{}
	}))
	must(RegisterMutator("bit_flip", func(cfg Config) Mutator {
		return BitFlipMutation{Rate: cfg.MutationRate}
	}))
	must(RegisterMutator("row_gated", func(cfg Config) Mutator {
		return RowGatedMutation{Rate: cfg.MutationRate}
	}))
}

func RegisterSelector(name string, factory SelectorFactory) error {
	if name == "" || factory == nil {
		return errors.New("selector name and factory are required")
	}
	strategyRegistry.mu.Lock()
	defer strategyRegistry.mu.Unlock()
	if _, exists := strategyRegistry.selectors[name]; exists {
		return fmt.Errorf("%w: selection %s", ErrStrategyExists, name)
	}
	strategyRegistry.selectors[name] = factory
	return nil
}

func RegisterCrossover(name string, factory CrossoverFactory) error {
	if name == "" || factory == nil {
		return errors.New("crossover name and factory are required")
	}
	strategyRegistry.mu.Lock()
	defer strategyRegistry.mu.Unlock()
	if _, exists := strategyRegistry.crossovers[name]; exists {
		return fmt.Errorf("%w: crossover %s", ErrStrategyExists, name)
	}
	strategyRegistry.crossovers[name] = factory
	return nil
}

func RegisterMutator(name string, factory MutatorFactory) error {
	if name == "" || factory == nil {
		return errors.New("mutation name and factory are required")
	}
	strategyRegistry.mu.Lock()
	defer strategyRegistry.mu.Unlock()
	if _, exists := strategyRegistry.mutators[name]; exists {
		return fmt.Errorf("%w: mutation %s", ErrStrategyExists, name)
	}
	strategyRegistry.mutators[name] = factory
	return nil
}

func ResolveSelector(name string, cfg Config) (Selector, error) {
	strategyRegistry.mu.RLock()
	factory, ok := strategyRegistry.selectors[name]
	strategyRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: selection %s", ErrStrategyNotFound, name)
	}
	return factory(cfg), nil
}

func ResolveCrossover(name string, cfg Config) (Crossover, error) {
	strategyRegistry.mu.RLock()
	factory, ok := strategyRegistry.crossovers[name]
	strategyRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: crossover %s", ErrStrategyNotFound, name)
	}
	return factory(cfg), nil
}

func ResolveMutator(name string, cfg Config) (Mutator, error) {
	strategyRegistry.mu.RLock()
	factory, ok := strategyRegistry.mutators[name]
	strategyRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: mutation %s", ErrStrategyNotFound, name)
	}
	return factory(cfg), nil
}

// StrategyNames lists registered strategy names per kind, sorted.
type StrategyNames struct {
	Selection []string
	Crossover []string
	Mutation  []string
}

func ListStrategies() StrategyNames {
	strategyRegistry.mu.RLock()
	defer strategyRegistry.mu.RUnlock()

	return StrategyNames{
		Selection: sortedKeys(strategyRegistry.selectors),
		Crossover: sortedKeys(strategyRegistry.crossovers),
		Mutation:  sortedKeys(strategyRegistry.mutators),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetStrategyRegistryForTests() {
	strategyRegistry.mu.Lock()
	strategyRegistry.selectors = make(map[string]SelectorFactory)
	strategyRegistry.crossovers = make(map[string]CrossoverFactory)
	strategyRegistry.mutators = make(map[string]MutatorFactory)
	strategyRegistry.mu.Unlock()
	registerDefaultStrategies()
}
