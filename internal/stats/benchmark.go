package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const benchmarksDir = "benchmarks"

// BenchmarkRun is the outcome of one seeded run of a benchmark. A run succeeds
// when it reaches a perfect match.
type BenchmarkRun struct {
	Seed                int64   `json:"seed"`
	RunID               string  `json:"run_id,omitempty"`
	Status              string  `json:"status"`
	GenerationsExecuted int     `json:"generations_executed"`
	Evaluations         int     `json:"evaluations"`
	FinalBest           float64 `json:"final_best"`
	Success             bool    `json:"success"`
}

type BenchmarkStats struct {
	TotalRuns       int            `json:"total_runs"`
	SuccessRuns     int            `json:"success_runs"`
	SuccessRate     float64        `json:"success_rate"`
	MeanFinalBest   float64        `json:"mean_final_best"`
	StdFinalBest    float64        `json:"std_final_best"`
	MeanGenerations float64        `json:"mean_generations"`
	StdGenerations  float64        `json:"std_generations"`
	MinGenerations  int            `json:"min_generations"`
	MaxGenerations  int            `json:"max_generations"`
	MeanEvaluations float64        `json:"mean_evaluations"`
	Runs            []BenchmarkRun `json:"runs"`
}

type BenchmarkReport struct {
	ID          string          `json:"id"`
	GeneratedAt string          `json:"generated_at_utc"`
	Config      json.RawMessage `json:"config,omitempty"`
	Stats       BenchmarkStats  `json:"stats"`
}

// BuildBenchmarkStats aggregates runs in the order given. Standard deviations
// are population deviations.
func BuildBenchmarkStats(runs []BenchmarkRun) BenchmarkStats {
	result := BenchmarkStats{
		TotalRuns: len(runs),
		Runs:      append([]BenchmarkRun(nil), runs...),
	}
	if len(runs) == 0 {
		return result
	}

	finals := make([]float64, len(runs))
	generations := make([]float64, len(runs))
	evaluations := make([]float64, len(runs))
	result.MinGenerations = runs[0].GenerationsExecuted
	result.MaxGenerations = runs[0].GenerationsExecuted
	for i, run := range runs {
		finals[i] = run.FinalBest
		generations[i] = float64(run.GenerationsExecuted)
		evaluations[i] = float64(run.Evaluations)
		if run.Success {
			result.SuccessRuns++
		}
		if run.GenerationsExecuted < result.MinGenerations {
			result.MinGenerations = run.GenerationsExecuted
		}
		if run.GenerationsExecuted > result.MaxGenerations {
			result.MaxGenerations = run.GenerationsExecuted
		}
	}
	result.SuccessRate = float64(result.SuccessRuns) / float64(result.TotalRuns)
	result.MeanFinalBest, result.StdFinalBest = MeanStd(finals)
	result.MeanGenerations, result.StdGenerations = MeanStd(generations)
	result.MeanEvaluations, _ = MeanStd(evaluations)
	return result
}

// WriteBenchmarkReport writes report.json and runs.csv below
// baseDir/benchmarks/<id>/ and returns that directory.
func WriteBenchmarkReport(baseDir string, report BenchmarkReport) (string, error) {
	if report.ID == "" {
		return "", fmt.Errorf("benchmark id is required")
	}
	reportDir := filepath.Join(baseDir, benchmarksDir, report.ID)
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return "", err
	}
	if report.GeneratedAt == "" {
		report.GeneratedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if err := writeJSON(filepath.Join(reportDir, "report.json"), report); err != nil {
		return "", err
	}
	if err := writeBenchmarkRuns(filepath.Join(reportDir, "runs.csv"), report.Stats.Runs); err != nil {
		return "", err
	}
	return reportDir, nil
}

func writeBenchmarkRuns(path string, runs []BenchmarkRun) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"seed", "status", "generations", "evaluations", "final_best", "success"}); err != nil {
		return err
	}
	for _, run := range runs {
		if err := writer.Write([]string{
			strconv.FormatInt(run.Seed, 10),
			run.Status,
			strconv.Itoa(run.GenerationsExecuted),
			strconv.Itoa(run.Evaluations),
			strconv.FormatFloat(run.FinalBest, 'f', -1, 64),
			strconv.FormatBool(run.Success),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
