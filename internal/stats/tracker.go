package stats

import (
	"math"

	"matrixevo/internal/model"
)

// Tracker accumulates per-generation statistics for a single run. History is
// append-only.
type Tracker struct {
	history    []model.GenerationRecord
	lastScores []float64
}

func NewTracker(capacity int) *Tracker {
	return &Tracker{history: make([]model.GenerationRecord, 0, capacity)}
}

// Record appends the statistics of one scored generation.
func (t *Tracker) Record(generation int, scores []float64) model.GenerationRecord {
	mean, std := MeanStd(scores)
	best := math.Inf(-1)
	for _, s := range scores {
		if s > best {
			best = s
		}
	}
	if len(scores) == 0 {
		best = 0
	}
	rec := model.GenerationRecord{
		Generation:     generation,
		BestFitness:    best,
		AverageFitness: mean,
		StdDevFitness:  std,
	}
	t.history = append(t.history, rec)
	t.lastScores = append(t.lastScores[:0], scores...)
	return rec
}

func (t *Tracker) Len() int {
	return len(t.history)
}

// History returns a copy of every recorded generation.
func (t *Tracker) History() []model.GenerationRecord {
	return append([]model.GenerationRecord(nil), t.history...)
}

func (t *Tracker) Summary() model.FitnessSummary {
	bests := make([]float64, len(t.history))
	for i, rec := range t.history {
		bests[i] = rec.BestFitness
	}
	bestMean, bestStd := MeanStd(bests)
	allMean, allStd := MeanStd(t.lastScores)
	return model.FitnessSummary{
		BestMean:   bestMean,
		BestStdDev: bestStd,
		AllMean:    allMean,
		AllStdDev:  allStd,
	}
}

// MeanStd returns the mean and population standard deviation. Both are zero
// for an empty input.
func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	mean := total / float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}
