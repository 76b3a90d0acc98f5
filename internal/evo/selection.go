package evo

import (
	"fmt"
	"math/rand"

	"matrixevo/internal/matrix"
)

// Selector chooses a parent from a scored population. The returned genome is
// always a deep copy the caller owns.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, pop Population) (matrix.Matrix, error)
}

func checkSelectable(rng *rand.Rand, pop Population) error {
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	return pop.validate()
}

// TournamentSelector samples Size slots with replacement and picks the best
// fitness among them. On ties the first sampled slot wins.
type TournamentSelector struct {
	Size int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, pop Population) (matrix.Matrix, error) {
	if err := checkSelectable(rng, pop); err != nil {
		return matrix.Matrix{}, err
	}
	size := s.Size
	if size <= 0 {
		size = 3
	}

	best := rng.Intn(pop.Len())
	for i := 1; i < size; i++ {
		candidate := rng.Intn(pop.Len())
		if pop.Fitness[candidate] > pop.Fitness[best] {
			best = candidate
		}
	}
	return pop.Genomes[best].Clone(), nil
}

// DoubleTournamentSelector runs two binary tournaments over disjoint pairs and
// returns the better winner. Populations smaller than four fall back to draws
// with replacement. Ties favour the first slot of each comparison.
type DoubleTournamentSelector struct{}

func (DoubleTournamentSelector) Name() string {
	return "double_tournament"
}

func (DoubleTournamentSelector) PickParent(rng *rand.Rand, pop Population) (matrix.Matrix, error) {
	if err := checkSelectable(rng, pop); err != nil {
		return matrix.Matrix{}, err
	}

	var idx [4]int
	n := pop.Len()
	if n >= 4 {
		drawDistinct(rng, n, idx[:])
	} else {
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
	}

	better := func(a, b int) int {
		if pop.Fitness[b] > pop.Fitness[a] {
			return b
		}
		return a
	}
	winner := better(better(idx[0], idx[1]), better(idx[2], idx[3]))
	return pop.Genomes[winner].Clone(), nil
}

// drawDistinct fills out with distinct indices in [0, n) by rejection. It
// assumes len(out) <= n.
func drawDistinct(rng *rand.Rand, n int, out []int) {
	for i := range out {
	draw:
		for {
			candidate := rng.Intn(n)
			for j := 0; j < i; j++ {
				if out[j] == candidate {
					continue draw
				}
			}
			out[i] = candidate
			break
		}
	}
}

// RouletteSelector picks slots with probability proportional to fitness. When
// total fitness is zero the last slot is returned.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return "roulette"
}

func (RouletteSelector) PickParent(rng *rand.Rand, pop Population) (matrix.Matrix, error) {
	if err := checkSelectable(rng, pop); err != nil {
		return matrix.Matrix{}, err
	}

	total := 0.0
	for _, f := range pop.Fitness {
		total += f
	}
	last := pop.Len() - 1
	if total <= 0 {
		return pop.Genomes[last].Clone(), nil
	}

	pick := rng.Float64() * total
	acc := 0.0
	for i, f := range pop.Fitness {
		acc += f
		if acc >= pick {
			return pop.Genomes[i].Clone(), nil
		}
	}
	return pop.Genomes[last].Clone(), nil
}
