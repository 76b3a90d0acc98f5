package evo

import (
	"fmt"
	"math/rand"

	"matrixevo/internal/matrix"
)

// DefaultLocalSearchLowProbability is the local search trigger probability
// for offspring that do not beat the worst individual of their generation.
const DefaultLocalSearchLowProbability = 0.0625

// LocalSearch is a bit-flip hill climber. Each attempt flips one random cell
// and keeps it only if fitness strictly improves; an improvement resets the
// attempt counter.
type LocalSearch struct {
	MaxAttempts int
}

type LocalSearchOutcome struct {
	Fitness      float64
	Improvements int
	Attempts     int
}

// Refine improves genome in place. The returned fitness is never lower than
// the genome's score before the call.
func (ls LocalSearch) Refine(rng *rand.Rand, genome, target matrix.Matrix) (LocalSearchOutcome, error) {
	if rng == nil {
		return LocalSearchOutcome{}, fmt.Errorf("random source is required")
	}
	if _, err := Score(genome, target); err != nil {
		return LocalSearchOutcome{}, err
	}

	cells := target.Len()
	matched := matches(genome, target)
	out := LocalSearchOutcome{}
	failures := 0
	for failures < ls.MaxAttempts && matched < cells {
		out.Attempts++
		i := rng.Intn(cells)
		genome.Flip(i)
		next := matched - 1
		if genome.Cell(i) == target.Cell(i) {
			next = matched + 1
		}
		if next > matched {
			matched = next
			out.Improvements++
			failures = 0
			continue
		}
		genome.Flip(i)
		failures++
	}
	out.Fitness = float64(matched) / float64(cells)
	return out, nil
}

// TriggerProbability returns 1 when the offspring beats the generation's worst
// fitness and low otherwise.
func TriggerProbability(offspring, worst, low float64) float64 {
	if offspring > worst {
		return 1.0
	}
	return low
}
