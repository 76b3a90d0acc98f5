package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"matrixevo/pkg/matrixevo"
)

func (a *app) runsCommand() *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("limit must be > 0")
			}
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			runs, err := client.Runs(cmd.Context(), matrixevo.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(a.stdout, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(a.stdout, "no runs found")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(a.stdout, "run_id=%s created_at=%s algorithm=%s status=%s seed=%d target=%dx%d generations=%d best_fitness=%.6f\n",
					r.ID, r.CreatedAtUTC, r.Algorithm, r.Status, r.Seed, r.TargetRows, r.TargetCols, r.GenerationsExecuted, r.BestFitness)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit runs as JSON")
	return cmd
}

func (a *app) historyCommand() *cobra.Command {
	var (
		runID   string
		latest  bool
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show per-generation statistics of a stored run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			history, err := client.History(cmd.Context(), matrixevo.HistoryRequest{RunID: runID, Latest: latest})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(a.stdout, history)
			}
			for _, rec := range history {
				fmt.Fprintf(a.stdout, "generation=%d best=%.6f mean=%.6f std=%.6f\n",
					rec.Generation, rec.BestFitness, rec.AverageFitness, rec.StdDevFitness)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&latest, "latest", false, "use the newest run")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit history as JSON")
	return cmd
}

func (a *app) exportCommand() *cobra.Command {
	var (
		runID  string
		latest bool
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write config, generation history, best genome and summary of a stored run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			exported, err := client.Export(cmd.Context(), matrixevo.ExportRequest{RunID: runID, Latest: latest, OutDir: outDir})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	cmd.Flags().BoolVar(&latest, "latest", false, "use the newest run")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (defaults to --exports-dir)")
	return cmd
}

func (a *app) inspectCommand() *cobra.Command {
	var (
		runID   string
		dir     string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the summary and history of an exported run directory",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if runID == "" {
				return errors.New("--run-id is required")
			}
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			inspected, err := client.Inspect(matrixevo.InspectRequest{RunID: runID, Dir: dir})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(a.stdout, map[string]any{
					"run":     inspected.Run,
					"history": inspected.History,
				})
			}
			r := inspected.Run
			fmt.Fprintf(a.stdout, "run_id=%s algorithm=%s status=%s generations=%d best_fitness=%.6f\n",
				r.ID, r.Algorithm, r.Status, r.GenerationsExecuted, r.BestFitness)
			for _, rec := range inspected.History {
				fmt.Fprintf(a.stdout, "generation=%d best=%.6f mean=%.6f std=%.6f\n",
					rec.Generation, rec.BestFitness, rec.AverageFitness, rec.StdDevFitness)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	cmd.Flags().StringVar(&dir, "dir", "", "export directory (defaults to --exports-dir)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit summary and history as JSON")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a stored run and its history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runID == "" {
				return errors.New("--run-id is required")
			}
			client, err := a.newClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if err := client.DeleteRun(cmd.Context(), runID); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "deleted run_id=%s\n", runID)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id")
	return cmd
}
