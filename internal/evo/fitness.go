package evo

import (
	"fmt"
	"math"

	"matrixevo/internal/matrix"
)

// Score returns the fraction of cells where genome and target agree.
func Score(genome, target matrix.Matrix) (float64, error) {
	if target.IsEmpty() {
		return 0, fmt.Errorf("%w: target is empty", ErrInvalidInput)
	}
	if !genome.SameShape(target) {
		return 0, fmt.Errorf("%w: genome %dx%d does not match target %dx%d",
			ErrInvalidInput, genome.Rows(), genome.Cols(), target.Rows(), target.Cols())
	}
	return float64(matches(genome, target)) / float64(target.Len()), nil
}

func matches(genome, target matrix.Matrix) int {
	n := 0
	for i := 0; i < target.Len(); i++ {
		if genome.Cell(i) == target.Cell(i) {
			n++
		}
	}
	return n
}

// EvaluatePopulation scores every slot whose fitness is NaN and leaves
// already scored slots untouched. It returns the number of evaluations made.
func EvaluatePopulation(pop *Population, target matrix.Matrix) (int, error) {
	if len(pop.Fitness) != len(pop.Genomes) {
		pop.Fitness = make([]float64, len(pop.Genomes))
		for i := range pop.Fitness {
			pop.Fitness[i] = math.NaN()
		}
	}
	evaluated := 0
	for i, genome := range pop.Genomes {
		if !math.IsNaN(pop.Fitness[i]) {
			continue
		}
		fitness, err := Score(genome, target)
		if err != nil {
			return evaluated, fmt.Errorf("score slot %d: %w", i, err)
		}
		pop.Fitness[i] = fitness
		evaluated++
	}
	return evaluated, nil
}
