package model

import "encoding/json"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// GenerationRecord summarizes one completed generation. Generation is 1-based.
type GenerationRecord struct {
	Generation     int     `json:"generation"`
	BestFitness    float64 `json:"best_fitness"`
	AverageFitness float64 `json:"average_fitness"`
	StdDevFitness  float64 `json:"stddev_fitness"`
}

// FitnessSummary aggregates a run: mean/stddev of the per-generation best and
// of the final generation's full fitness vector.
type FitnessSummary struct {
	BestMean   float64 `json:"best_mean"`
	BestStdDev float64 `json:"best_stddev"`
	AllMean    float64 `json:"all_mean"`
	AllStdDev  float64 `json:"all_stddev"`
}

// RunRecord is the persisted outcome of one engine run. Populations are never
// persisted, only the best genome in text form.
type RunRecord struct {
	VersionedRecord
	ID                  string          `json:"id"`
	CreatedAtUTC        string          `json:"created_at_utc"`
	Algorithm           string          `json:"algorithm"`
	Status              string          `json:"status"`
	Seed                int64           `json:"seed"`
	PopulationSize      int             `json:"population_size"`
	MaxGenerations      int             `json:"max_generations"`
	GenerationsExecuted int             `json:"generations_executed"`
	TargetRows          int             `json:"target_rows"`
	TargetCols          int             `json:"target_cols"`
	BestFitness         float64         `json:"best_fitness"`
	BestGenome          string          `json:"best_genome"`
	Summary             FitnessSummary  `json:"summary"`
	Warnings            []string        `json:"warnings,omitempty"`
	Config              json.RawMessage `json:"config,omitempty"`
}
