package evo

import (
	"fmt"
	"math/rand"

	"matrixevo/internal/matrix"
)

// Crossover combines two parents into a new child genome. Parents are never
// modified.
type Crossover interface {
	Name() string
	Cross(rng *rand.Rand, p1, p2 matrix.Matrix) (matrix.Matrix, error)
}

// RateMode selects how UniformCrossover interprets its rate.
type RateMode string

const (
	// RateSkip treats the rate as the probability of performing crossover at
	// all; otherwise the child is a clone of the first parent.
	RateSkip RateMode = "skip"
	// RateBias always mixes cells and uses the rate as the per-cell
	// probability of inheriting from the first parent.
	RateBias RateMode = "bias"
)

func checkParents(p1, p2 matrix.Matrix) error {
	if p1.IsEmpty() || !p1.SameShape(p2) {
		return fmt.Errorf("%w: parents %dx%d and %dx%d differ", ErrInvalidInput, p1.Rows(), p1.Cols(), p2.Rows(), p2.Cols())
	}
	return nil
}

type UniformCrossover struct {
	Rate float64
	Mode RateMode
}

func (UniformCrossover) Name() string {
	return "uniform"
}

func (c UniformCrossover) Cross(rng *rand.Rand, p1, p2 matrix.Matrix) (matrix.Matrix, error) {
	if rng == nil {
		return matrix.Matrix{}, fmt.Errorf("random source is required")
	}
	if err := checkParents(p1, p2); err != nil {
		return matrix.Matrix{}, err
	}

	bias := 0.5
	switch c.Mode {
	case RateBias:
		bias = c.Rate
	case RateSkip, "":
		if rng.Float64() >= c.Rate {
			return p1.Clone(), nil
		}
	default:
		return matrix.Matrix{}, fmt.Errorf("%w: unknown crossover rate mode %q", ErrInvalidConfig, c.Mode)
	}

	child := p1.Clone()
	for i := 0; i < child.Len(); i++ {
		if rng.Float64() >= bias && child.Cell(i) != p2.Cell(i) {
			child.Flip(i)
		}
	}
	return child, nil
}

// SinglePointCrossover splits at row floor(rows/2): rows above the split come
// from the first parent, the rest from the second. It draws no randomness.
type SinglePointCrossover struct{}

func (SinglePointCrossover) Name() string {
	return "single_point"
}

func (SinglePointCrossover) Cross(_ *rand.Rand, p1, p2 matrix.Matrix) (matrix.Matrix, error) {
	if err := checkParents(p1, p2); err != nil {
		return matrix.Matrix{}, err
	}
	child := p1.Clone()
	for r := p1.Rows() / 2; r < p1.Rows(); r++ {
		child.CopyRow(r, p2)
	}
	return child, nil
}
