package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"matrixevo/internal/matrix"
	"matrixevo/pkg/matrixevo"
)

func (a *app) runCommand() *cobra.Command {
	var (
		engine           engineFlags
		basePath         string
		outPath          string
		jsonOut          bool
		noProgress       bool
		progressInterval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run <target-file>",
		Short: "Evolve a population toward the target matrix and store the run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := loadMatrix(args[0])
			if err != nil {
				return err
			}
			var base matrix.Matrix
			if basePath != "" {
				if base, err = loadMatrix(basePath); err != nil {
					return err
				}
			}
			cfg := a.settings.Engine
			engine.apply(cmd, &cfg)

			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			req := matrixevo.RunRequest{Config: cfg, Target: target, Base: base}
			var progress *progressPrinter
			if !noProgress {
				progress = newProgressPrinter(a.stderr, progressInterval)
				req.Progress = progress
			}
			summary, err := client.Run(cmd.Context(), req)
			if progress != nil {
				progress.Flush()
			}
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := writeMatrix(outPath, summary.BestGenome); err != nil {
					return err
				}
			}

			if jsonOut {
				return writeJSON(a.stdout, map[string]any{
					"run_id":               summary.RunID,
					"status":               summary.Status,
					"generations_executed": summary.GenerationsExecuted,
					"best_fitness":         summary.BestFitness,
					"best_genome":          summary.BestGenome,
					"summary":              summary.Summary,
					"warnings":             summary.Warnings,
					"evaluations":          summary.Evaluations,
					"local_searches":       summary.LocalSearches,
					"stagnation_resets":    summary.StagnationResets,
				})
			}
			for _, w := range summary.Warnings {
				fmt.Fprintf(a.stdout, "warning: %s\n", w)
			}
			fmt.Fprintf(a.stdout, "run_id=%s status=%s generations=%d best_fitness=%.6f\n",
				summary.RunID, summary.Status, summary.GenerationsExecuted, summary.BestFitness)
			fmt.Fprintf(a.stdout, "best_mean=%.6f best_std=%.6f all_mean=%.6f all_std=%.6f\n",
				summary.Summary.BestMean, summary.Summary.BestStdDev, summary.Summary.AllMean, summary.Summary.AllStdDev)
			fmt.Fprintln(a.stdout, matrix.Format(summary.BestGenome))
			return nil
		},
	}
	bindEngineFlags(cmd, &engine)
	fs := cmd.Flags()
	fs.StringVar(&basePath, "base", "", "base matrix that seeds the memetic population")
	fs.StringVar(&outPath, "out", "", "write the best genome to this file")
	fs.BoolVar(&jsonOut, "json", false, "emit the run summary as JSON")
	fs.BoolVar(&noProgress, "no-progress", false, "do not print per-generation progress")
	fs.DurationVar(&progressInterval, "progress-interval", 250*time.Millisecond, "minimum time between progress lines; 0 prints every generation")
	return cmd
}

func (a *app) benchmarkCommand() *cobra.Command {
	var (
		engine      engineFlags
		basePath    string
		runs        int
		concurrency int
		reportDir   string
		jsonOut     bool
	)
	cmd := &cobra.Command{
		Use:   "benchmark <target-file>",
		Short: "Run the same configuration over consecutive seeds and report success statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := loadMatrix(args[0])
			if err != nil {
				return err
			}
			var base matrix.Matrix
			if basePath != "" {
				if base, err = loadMatrix(basePath); err != nil {
					return err
				}
			}
			cfg := a.settings.Engine
			engine.apply(cmd, &cfg)

			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			summary, err := client.Benchmark(cmd.Context(), matrixevo.BenchmarkRequest{
				Config:      cfg,
				Target:      target,
				Base:        base,
				Runs:        runs,
				Concurrency: concurrency,
				ReportDir:   reportDir,
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(a.stdout, summary)
			}
			st := summary.Stats
			fmt.Fprintf(a.stdout, "benchmark_id=%s runs=%d success=%d success_rate=%.4f\n",
				summary.ID, st.TotalRuns, st.SuccessRuns, st.SuccessRate)
			fmt.Fprintf(a.stdout, "final_best_mean=%.6f final_best_std=%.6f generations_mean=%.2f generations_std=%.2f\n",
				st.MeanFinalBest, st.StdFinalBest, st.MeanGenerations, st.StdGenerations)
			if summary.ReportDir != "" {
				fmt.Fprintf(a.stdout, "report=%s\n", summary.ReportDir)
			}
			return nil
		},
	}
	bindEngineFlags(cmd, &engine)
	fs := cmd.Flags()
	fs.StringVar(&basePath, "base", "", "base matrix that seeds the memetic population")
	fs.IntVar(&runs, "runs", 10, "number of seeded runs")
	fs.IntVar(&concurrency, "concurrency", 0, "parallel runs; 0 uses GOMAXPROCS")
	fs.StringVar(&reportDir, "report-dir", "", "write a benchmark report below this directory")
	fs.BoolVar(&jsonOut, "json", false, "emit the benchmark summary as JSON")
	return cmd
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
