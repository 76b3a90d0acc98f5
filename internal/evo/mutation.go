package evo

import (
	"math/rand"

	"matrixevo/internal/matrix"
)

// Mutator flips bits of a genome in place and reports how many it flipped.
type Mutator interface {
	Name() string
	Mutate(rng *rand.Rand, genome matrix.Matrix) int
}

// BitFlipMutation inverts every cell independently with probability Rate.
type BitFlipMutation struct {
	Rate float64
}

func (BitFlipMutation) Name() string {
	return "bit_flip"
}

func (m BitFlipMutation) Mutate(rng *rand.Rand, genome matrix.Matrix) int {
	flipped := 0
	for i := 0; i < genome.Len(); i++ {
		if rng.Float64() < m.Rate {
			genome.Flip(i)
			flipped++
		}
	}
	return flipped
}

// RowGatedMutation first selects each row with probability Rate and then
// flips cells of a selected row with probability Rate, for an effective
// per-cell rate of Rate².
type RowGatedMutation struct {
	Rate float64
}

func (RowGatedMutation) Name() string {
	return "row_gated"
}

func (m RowGatedMutation) Mutate(rng *rand.Rand, genome matrix.Matrix) int {
	flipped := 0
	cols := genome.Cols()
	for r := 0; r < genome.Rows(); r++ {
		if rng.Float64() >= m.Rate {
			continue
		}
		for c := 0; c < cols; c++ {
			if rng.Float64() < m.Rate {
				genome.Flip(r*cols + c)
				flipped++
			}
		}
	}
	return flipped
}
