package evo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"matrixevo/internal/matrix"
)

var (
	// ErrInvalidInput is matrix.ErrInvalidInput so callers only need one sentinel.
	ErrInvalidInput  = matrix.ErrInvalidInput
	ErrInvalidConfig = errors.New("invalid config")
	// ErrDimensionMismatch is only reported as a warning: a base matrix whose
	// shape differs from the target falls back to uniform-random seeding.
	ErrDimensionMismatch = errors.New("base matrix dimensions differ from target")
	ErrEngineBusy        = errors.New("engine is not idle")
)

// Population is an ordered set of genomes with an index-aligned fitness
// vector. A NaN fitness marks a slot that has not been scored yet.
type Population struct {
	Genomes []matrix.Matrix
	Fitness []float64
}

func newPopulation(capacity int) Population {
	return Population{
		Genomes: make([]matrix.Matrix, 0, capacity),
		Fitness: make([]float64, 0, capacity),
	}
}

func (p Population) Len() int {
	return len(p.Genomes)
}

func (p *Population) add(genome matrix.Matrix, fitness float64) {
	p.Genomes = append(p.Genomes, genome)
	p.Fitness = append(p.Fitness, fitness)
}

func (p Population) validate() error {
	if len(p.Genomes) == 0 {
		return errors.New("population is empty")
	}
	if len(p.Fitness) != len(p.Genomes) {
		return fmt.Errorf("fitness vector mismatch: genomes=%d fitness=%d", len(p.Genomes), len(p.Fitness))
	}
	return nil
}

// Ranked returns slot indices ordered by descending fitness. Ties keep the
// lower index first.
func (p Population) Ranked() []int {
	idx := make([]int, len(p.Fitness))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p.Fitness[idx[a]] > p.Fitness[idx[b]]
	})
	return idx
}

// Best returns the index of the highest scoring slot, first one on ties.
func (p Population) Best() int {
	best := 0
	for i := 1; i < len(p.Fitness); i++ {
		if p.Fitness[i] > p.Fitness[best] {
			best = i
		}
	}
	return best
}

// Worst returns the lowest fitness in the population.
func (p Population) Worst() float64 {
	worst := math.Inf(1)
	for _, f := range p.Fitness {
		if f < worst {
			worst = f
		}
	}
	return worst
}
