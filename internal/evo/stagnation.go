package evo

import (
	"math"
	"math/rand"

	"matrixevo/internal/matrix"
)

// DefaultResetEliteFraction is the share of the population kept by a
// stagnation reset.
const DefaultResetEliteFraction = 0.1

// StagnationMonitor counts generations without a new best-ever fitness and
// signals when a partial population reset is due.
type StagnationMonitor struct {
	Threshold     int
	EliteFraction float64

	sinceImprovement int
}

// Observe records one generation. It returns true when the counter reached
// the threshold; the counter is then reset to zero.
func (m *StagnationMonitor) Observe(improved bool) bool {
	if improved {
		m.sinceImprovement = 0
		return false
	}
	m.sinceImprovement++
	if m.Threshold > 0 && m.sinceImprovement >= m.Threshold {
		m.sinceImprovement = 0
		return true
	}
	return false
}

func (m *StagnationMonitor) SinceImprovement() int {
	return m.sinceImprovement
}

// RetainCount is ceil(EliteFraction·n), clamped to [1, n].
func (m *StagnationMonitor) RetainCount(n int) int {
	fraction := m.EliteFraction
	if fraction <= 0 {
		fraction = DefaultResetEliteFraction
	}
	// The epsilon keeps products like 0.1*30 from rounding up past the integer.
	keep := int(math.Ceil(fraction*float64(n) - 1e-9))
	if keep < 1 {
		keep = 1
	}
	if keep > n {
		keep = n
	}
	return keep
}

// Reset keeps the top RetainCount slots of a scored population in place and
// replaces every other slot with a fresh random genome whose fitness is
// marked unscored. It returns the retained slot indices.
func (m *StagnationMonitor) Reset(rng *rand.Rand, pop *Population) []int {
	if pop.Len() == 0 {
		return nil
	}
	ranked := pop.Ranked()
	keep := m.RetainCount(pop.Len())
	retained := make(map[int]struct{}, keep)
	for _, idx := range ranked[:keep] {
		retained[idx] = struct{}{}
	}

	rows, cols := pop.Genomes[0].Rows(), pop.Genomes[0].Cols()
	for i := range pop.Genomes {
		if _, ok := retained[i]; ok {
			continue
		}
		pop.Genomes[i] = matrix.Random(rng, rows, cols)
		pop.Fitness[i] = math.NaN()
	}
	return append([]int(nil), ranked[:keep]...)
}
