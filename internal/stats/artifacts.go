package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"matrixevo/internal/model"
)

const (
	configFile      = "config.json"
	generationsFile = "generations.csv"
	bestGenomeFile  = "best_genome.txt"
	summaryFile     = "summary.json"
)

var generationsHeader = []string{"generation", "best_fitness", "average_fitness", "stddev_fitness"}

// WriteRunArtifacts exports one run below baseDir/<run id>/ and returns the run
// directory.
func WriteRunArtifacts(baseDir string, run model.RunRecord, history []model.GenerationRecord) (string, error) {
	if strings.TrimSpace(run.ID) == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	config := run.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	if err := writeJSON(filepath.Join(runDir, configFile), config); err != nil {
		return "", err
	}
	if err := writeGenerations(filepath.Join(runDir, generationsFile), history); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, bestGenomeFile), []byte(run.BestGenome+"\n"), 0o644); err != nil {
		return "", err
	}
	summary := run
	summary.Config = nil
	if err := writeJSON(filepath.Join(runDir, summaryFile), summary); err != nil {
		return "", err
	}
	return runDir, nil
}

func ReadRunSummary(baseDir, runID string) (model.RunRecord, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, summaryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

func ReadGenerations(baseDir, runID string) ([]model.GenerationRecord, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, generationsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []model.GenerationRecord{}, true, nil
		}
		return nil, false, err
	}
	if len(header) != len(generationsHeader) {
		return nil, false, fmt.Errorf("generations header must have %d columns", len(generationsHeader))
	}

	history := make([]model.GenerationRecord, 0, 128)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, err
		}
		rec, err := parseGenerationRow(row)
		if err != nil {
			return nil, false, err
		}
		history = append(history, rec)
	}
	return history, true, nil
}

func writeGenerations(path string, history []model.GenerationRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(generationsHeader); err != nil {
		return err
	}
	for _, rec := range history {
		if err := writer.Write([]string{
			strconv.Itoa(rec.Generation),
			strconv.FormatFloat(rec.BestFitness, 'f', -1, 64),
			strconv.FormatFloat(rec.AverageFitness, 'f', -1, 64),
			strconv.FormatFloat(rec.StdDevFitness, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseGenerationRow(row []string) (model.GenerationRecord, error) {
	if len(row) != len(generationsHeader) {
		return model.GenerationRecord{}, fmt.Errorf("generations row must have %d columns", len(generationsHeader))
	}
	generation, err := strconv.Atoi(row[0])
	if err != nil {
		return model.GenerationRecord{}, err
	}
	values := make([]float64, 3)
	for i := range values {
		values[i], err = strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return model.GenerationRecord{}, err
		}
	}
	return model.GenerationRecord{
		Generation:     generation,
		BestFitness:    values[0],
		AverageFitness: values[1],
		StdDevFitness:  values[2],
	}, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
