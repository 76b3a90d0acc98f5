// Package matrixevo is the public entry point for reconstructing binary
// matrices with the genetic and memetic engines, persisting run summaries and
// exporting them.
package matrixevo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"matrixevo/internal/evo"
	"matrixevo/internal/matrix"
	"matrixevo/internal/model"
	"matrixevo/internal/stats"
	"matrixevo/internal/storage"
)

const (
	defaultExportsDir = "exports"
	defaultDBPath     = "matrixevo.db"
	defaultRunsLimit  = 20

	// Fixed width so stored timestamps sort lexically.
	createdAtLayout = "2006-01-02T15:04:05.000000000Z"
)

var tracer = otel.Tracer("matrixevo")

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
	Logger     *slog.Logger
}

type Client struct {
	store      storage.Store
	logger     *slog.Logger
	exportsDir string

	initMu      sync.Mutex
	initialized bool
}

type RunRequest struct {
	Config evo.Config
	Target matrix.Matrix
	// Base seeds the memetic variant; leave it zero to seed at random.
	Base     matrix.Matrix
	Progress evo.ProgressSink
}

type RunSummary struct {
	RunID               string
	Status              string
	BestGenome          matrix.Matrix
	BestFitness         float64
	GenerationsExecuted int
	History             []model.GenerationRecord
	Summary             model.FitnessSummary
	Warnings            []string
	Evaluations         int
	LocalSearches       int
	StagnationResets    int
}

type BenchmarkRequest struct {
	Config evo.Config
	Target matrix.Matrix
	Base   matrix.Matrix
	// Seeds lists the seed of every run. When empty, Runs consecutive seeds
	// starting at Config.Seed are used.
	Seeds       []int64
	Runs        int
	Concurrency int
	// ReportDir receives benchmarks/<id>/report.json when set.
	ReportDir string
}

type BenchmarkSummary struct {
	ID        string
	Stats     stats.BenchmarkStats
	ReportDir string
}

type RunsRequest struct {
	Limit int
}

type HistoryRequest struct {
	RunID  string
	Latest bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

// InspectRequest names an exported run. Dir defaults to the client's exports
// directory.
type InspectRequest struct {
	RunID string
	Dir   string
}

type InspectSummary struct {
	Run     model.RunRecord
	History []model.GenerationRecord
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind
	}
	dbPath := opts.DBPath
	if dbPath == "" && storeKind == "sqlite" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath, logger.With(slog.String("component", "store")))
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		logger:     logger,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init opens the backing store. Every other method calls it on demand.
func (c *Client) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Run executes one engine run and persists its summary and generation
// history. A cancelled run is persisted too and returns a nil error.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "matrixevo.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("run.algorithm", string(req.Config.Algorithm)),
		attribute.Int("run.population", req.Config.PopulationSize),
		attribute.Int("run.max_generations", req.Config.MaxGenerations),
		attribute.Int64("run.seed", req.Config.Seed),
	))
	defer span.End()

	result, effective, err := c.execute(ctx, req.Config, req.Target, req.Base, req.Progress)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunSummary{}, err
	}
	span.SetAttributes(
		attribute.String("run.status", result.Status.String()),
		attribute.Int("run.generations", result.GenerationsExecuted),
		attribute.Float64("run.best_fitness", result.BestFitness),
	)

	record, err := newRunRecord(runID, effective, req.Target, result)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunSummary{}, fmt.Errorf("save run %s: %w", runID, err)
	}
	if err := c.store.SaveGenerations(ctx, runID, result.History); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunSummary{}, fmt.Errorf("save generations %s: %w", runID, err)
	}
	c.logger.Info("run persisted",
		slog.String("run_id", runID),
		slog.String("status", record.Status),
		slog.Float64("best_fitness", record.BestFitness),
	)

	return RunSummary{
		RunID:               runID,
		Status:              result.Status.String(),
		BestGenome:          result.BestGenome,
		BestFitness:         result.BestFitness,
		GenerationsExecuted: result.GenerationsExecuted,
		History:             result.History,
		Summary:             result.Summary,
		Warnings:            result.Warnings,
		Evaluations:         result.Evaluations,
		LocalSearches:       result.LocalSearches,
		StagnationResets:    result.StagnationResets,
	}, nil
}

// Benchmark runs the same configuration once per seed. Each run owns its
// engine and random source; runs share nothing. Benchmark runs are not
// persisted as individual runs.
func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest) (BenchmarkSummary, error) {
	seeds := req.Seeds
	if len(seeds) == 0 {
		if req.Runs <= 0 {
			return BenchmarkSummary{}, errors.New("benchmark requires seeds or a positive run count")
		}
		seeds = make([]int64, req.Runs)
		for i := range seeds {
			seeds[i] = req.Config.Seed + int64(i)
		}
	}
	if err := req.Config.Validate(); err != nil {
		return BenchmarkSummary{}, err
	}
	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	id := uuid.NewString()
	ctx, span := tracer.Start(ctx, "matrixevo.benchmark", trace.WithAttributes(
		attribute.String("benchmark.id", id),
		attribute.Int("benchmark.runs", len(seeds)),
		attribute.Int("benchmark.concurrency", concurrency),
	))
	defer span.End()

	runs := make([]stats.BenchmarkRun, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, seed := range seeds {
		g.Go(func() error {
			cfg := req.Config
			cfg.Seed = seed
			result, _, err := c.execute(gctx, cfg, req.Target, req.Base, nil)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			runs[i] = stats.BenchmarkRun{
				Seed:                seed,
				Status:              result.Status.String(),
				GenerationsExecuted: result.GenerationsExecuted,
				Evaluations:         result.Evaluations,
				FinalBest:           result.BestFitness,
				Success:             result.BestFitness >= 1.0,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return BenchmarkSummary{}, err
	}

	summary := BenchmarkSummary{ID: id, Stats: stats.BuildBenchmarkStats(runs)}
	span.SetAttributes(attribute.Float64("benchmark.success_rate", summary.Stats.SuccessRate))
	c.logger.Info("benchmark finished",
		slog.String("benchmark_id", id),
		slog.Int("runs", summary.Stats.TotalRuns),
		slog.Float64("success_rate", summary.Stats.SuccessRate),
		slog.Float64("mean_final_best", summary.Stats.MeanFinalBest),
	)

	if req.ReportDir != "" {
		configJSON, err := json.Marshal(req.Config)
		if err != nil {
			return BenchmarkSummary{}, err
		}
		dir, err := stats.WriteBenchmarkReport(req.ReportDir, stats.BenchmarkReport{
			ID:     id,
			Config: configJSON,
			Stats:  summary.Stats,
		})
		if err != nil {
			return BenchmarkSummary{}, err
		}
		summary.ReportDir = dir
	}
	return summary, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}

	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}
	return runs, nil
}

func (c *Client) History(ctx context.Context, req HistoryRequest) ([]model.GenerationRecord, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no generation history for %s", storage.ErrRunNotFound, runID)
	}
	return history, nil
}

// Export writes the artifacts of a stored run below OutDir/<run id>/.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("%w: %s", storage.ErrRunNotFound, runID)
	}
	history, _, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}

	dir, err := stats.WriteRunArtifacts(req.OutDir, run, history)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(dir)}, nil
}

// Inspect reads back a run previously written by Export, without touching the
// store.
func (c *Client) Inspect(req InspectRequest) (InspectSummary, error) {
	if req.RunID == "" {
		return InspectSummary{}, errors.New("run id is required")
	}
	if req.Dir == "" {
		req.Dir = c.exportsDir
	}

	run, ok, err := stats.ReadRunSummary(req.Dir, req.RunID)
	if err != nil {
		return InspectSummary{}, fmt.Errorf("read summary %s: %w", req.RunID, err)
	}
	if !ok {
		return InspectSummary{}, fmt.Errorf("%w: no export of %s in %s", storage.ErrRunNotFound, req.RunID, req.Dir)
	}
	history, _, err := stats.ReadGenerations(req.Dir, req.RunID)
	if err != nil {
		return InspectSummary{}, fmt.Errorf("read generations %s: %w", req.RunID, err)
	}
	return InspectSummary{Run: run, History: history}, nil
}

func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	if err := c.Init(ctx); err != nil {
		return err
	}
	return c.store.DeleteRun(ctx, runID)
}

// Score returns the fraction of cells where candidate matches target.
func (c *Client) Score(candidate, target matrix.Matrix) (float64, error) {
	return evo.Score(candidate, target)
}

func (c *Client) Strategies() evo.StrategyNames {
	return evo.ListStrategies()
}

// execute runs one engine and also returns the configuration the engine
// actually applied.
func (c *Client) execute(ctx context.Context, cfg evo.Config, target, base matrix.Matrix, sink evo.ProgressSink) (evo.RunResult, evo.Config, error) {
	opts := []evo.Option{evo.WithLogger(c.logger)}
	if sink != nil {
		opts = append(opts, evo.WithProgress(sink))
	}
	engine, err := evo.NewEngine(cfg, opts...)
	if err != nil {
		return evo.RunResult{}, cfg, err
	}
	result, err := engine.Run(ctx, target, base)
	return result, engine.Config(), err
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID == "" && !latest {
		return "", errors.New("run id or latest is required")
	}
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	if runID != "" {
		return runID, nil
	}

	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w: no runs available", storage.ErrRunNotFound)
	}
	return runs[0].ID, nil
}

func newRunRecord(runID string, cfg evo.Config, target matrix.Matrix, result evo.RunResult) (model.RunRecord, error) {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return model.RunRecord{}, err
	}
	return model.RunRecord{
		VersionedRecord:     storage.CurrentVersion(),
		ID:                  runID,
		CreatedAtUTC:        time.Now().UTC().Format(createdAtLayout),
		Algorithm:           string(cfg.Algorithm),
		Status:              result.Status.String(),
		Seed:                cfg.Seed,
		PopulationSize:      cfg.PopulationSize,
		MaxGenerations:      cfg.MaxGenerations,
		GenerationsExecuted: result.GenerationsExecuted,
		TargetRows:          target.Rows(),
		TargetCols:          target.Cols(),
		BestFitness:         result.BestFitness,
		BestGenome:          matrix.Format(result.BestGenome),
		Summary:             result.Summary,
		Warnings:            result.Warnings,
		Config:              configJSON,
	}, nil
}
