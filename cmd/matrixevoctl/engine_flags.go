package main

import (
	"github.com/spf13/cobra"

	"matrixevo/internal/evo"
)

// engineFlags mirrors evo.Config on the command line. Only flags the user set
// override the loaded configuration.
type engineFlags struct {
	algorithm      string
	population     int
	generations    int
	crossoverRate  float64
	crossoverMode  string
	mutationRate   float64
	tournamentSize int
	elitism        int
	noise          float64
	lsAttempts     int
	resetThreshold int
	selection      string
	crossover      string
	mutation       string
	seed           int64
}

func bindEngineFlags(cmd *cobra.Command, f *engineFlags) {
	def := evo.DefaultConfig()
	fs := cmd.Flags()
	fs.StringVar(&f.algorithm, "algorithm", string(def.Algorithm), "ga|memetic")
	fs.IntVar(&f.population, "pop", def.PopulationSize, "population size")
	fs.IntVar(&f.generations, "gens", def.MaxGenerations, "maximum generations")
	fs.Float64Var(&f.crossoverRate, "crossover-rate", def.CrossoverRate, "crossover rate")
	fs.StringVar(&f.crossoverMode, "crossover-mode", string(def.CrossoverRateMode), "uniform crossover rate mode: skip|bias")
	fs.Float64Var(&f.mutationRate, "mutation-rate", def.MutationRate, "mutation rate")
	fs.IntVar(&f.tournamentSize, "tournament", def.TournamentSize, "tournament size")
	fs.IntVar(&f.elitism, "elitism", def.ElitismCount, "elite individuals carried per generation")
	fs.Float64Var(&f.noise, "noise", def.NoiseRate, "memetic base noise rate")
	fs.IntVar(&f.lsAttempts, "ls-attempts", def.MaxLocalSearchAttempts, "local search attempts without improvement")
	fs.IntVar(&f.resetThreshold, "reset-threshold", def.ResetThreshold, "generations without improvement before a reset")
	fs.StringVar(&f.selection, "selection", def.Selection, "selection strategy")
	fs.StringVar(&f.crossover, "crossover", def.Crossover, "crossover strategy")
	fs.StringVar(&f.mutation, "mutation", def.Mutation, "mutation strategy")
	fs.Int64Var(&f.seed, "seed", def.Seed, "random seed")
}

func (f *engineFlags) apply(cmd *cobra.Command, cfg *evo.Config) {
	fs := cmd.Flags()
	if fs.Changed("algorithm") {
		cfg.Algorithm = evo.Algorithm(f.algorithm)
	}
	if fs.Changed("pop") {
		cfg.PopulationSize = f.population
	}
	if fs.Changed("gens") {
		cfg.MaxGenerations = f.generations
	}
	if fs.Changed("crossover-rate") {
		cfg.CrossoverRate = f.crossoverRate
	}
	if fs.Changed("crossover-mode") {
		cfg.CrossoverRateMode = evo.RateMode(f.crossoverMode)
	}
	if fs.Changed("mutation-rate") {
		cfg.MutationRate = f.mutationRate
	}
	if fs.Changed("tournament") {
		cfg.TournamentSize = f.tournamentSize
	}
	if fs.Changed("elitism") {
		cfg.ElitismCount = f.elitism
	}
	if fs.Changed("noise") {
		cfg.NoiseRate = f.noise
	}
	if fs.Changed("ls-attempts") {
		cfg.MaxLocalSearchAttempts = f.lsAttempts
	}
	if fs.Changed("reset-threshold") {
		cfg.ResetThreshold = f.resetThreshold
	}
	if fs.Changed("selection") {
		cfg.Selection = f.selection
	}
	if fs.Changed("crossover") {
		cfg.Crossover = f.crossover
	}
	if fs.Changed("mutation") {
		cfg.Mutation = f.mutation
	}
	if fs.Changed("seed") {
		cfg.Seed = f.seed
	}
}
