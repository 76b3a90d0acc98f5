package matrixevo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrixevo/internal/evo"
	"matrixevo/internal/matrix"
	"matrixevo/internal/storage"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind:  "memory",
		ExportsDir: filepath.Join(t.TempDir(), "exports"),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testConfig() evo.Config {
	cfg := evo.DefaultConfig()
	cfg.PopulationSize = 20
	cfg.MaxGenerations = 200
	cfg.ElitismCount = 2
	return cfg
}

var identity = matrix.MustFromRows([][]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})

func TestClientRunPersistsAndExports(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	events := 0
	summary, err := client.Run(ctx, RunRequest{
		Config: testConfig(),
		Target: identity,
		Progress: evo.ProgressFunc(func(context.Context, evo.ProgressEvent) {
			events++
		}),
	})
	require.NoError(t, err)
	require.NotEmpty(t, summary.RunID)
	assert.Equal(t, "completed", summary.Status)
	assert.Equal(t, 1.0, summary.BestFitness)
	assert.True(t, summary.BestGenome.Equal(identity))
	assert.Equal(t, summary.GenerationsExecuted, events)
	assert.Len(t, summary.History, summary.GenerationsExecuted)

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].ID)
	assert.Equal(t, "1,0,0\n0,1,0\n0,0,1", runs[0].BestGenome)
	assert.Equal(t, 3, runs[0].TargetRows)

	history, err := client.History(ctx, HistoryRequest{Latest: true})
	require.NoError(t, err)
	assert.Equal(t, summary.History, history)

	exported, err := client.Export(ctx, ExportRequest{RunID: summary.RunID})
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, exported.RunID)
	genome, err := os.ReadFile(filepath.Join(exported.Directory, "best_genome.txt"))
	require.NoError(t, err)
	parsed, err := matrix.Parse(string(genome))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(identity))

	inspected, err := client.Inspect(InspectRequest{RunID: summary.RunID})
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, inspected.Run.ID)
	assert.Equal(t, summary.BestFitness, inspected.Run.BestFitness)
	assert.Equal(t, summary.History, inspected.History)

	require.NoError(t, client.DeleteRun(ctx, summary.RunID))
	_, err = client.History(ctx, HistoryRequest{RunID: summary.RunID})
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

func TestClientRunsNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	var ids []string
	for seed := int64(1); seed <= 3; seed++ {
		cfg := testConfig()
		cfg.Seed = seed
		summary, err := client.Run(ctx, RunRequest{Config: cfg, Target: identity})
		require.NoError(t, err)
		ids = append(ids, summary.RunID)
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}

func TestClientRunRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.Run(ctx, RunRequest{Config: testConfig()})
	assert.ErrorIs(t, err, evo.ErrInvalidInput)

	cfg := testConfig()
	cfg.ElitismCount = cfg.PopulationSize + 1
	_, err = client.Run(ctx, RunRequest{Config: cfg, Target: identity})
	assert.ErrorIs(t, err, evo.ErrInvalidConfig)

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestClientRunReportsBaseMismatch(t *testing.T) {
	cfg := testConfig()
	cfg.Algorithm = evo.AlgorithmMemetic
	cfg.MaxGenerations = 3

	summary, err := newTestClient(t).Run(context.Background(), RunRequest{
		Config: cfg,
		Target: identity,
		Base:   matrix.MustFromRows([][]int{{1, 0}}),
	})
	require.NoError(t, err)
	require.Len(t, summary.Warnings, 1)
	assert.True(t, strings.Contains(summary.Warnings[0], evo.ErrDimensionMismatch.Error()))
}

func TestClientCancelledRunIsPersisted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := newTestClient(t)

	cfg := testConfig()
	cfg.MaxGenerations = 1000
	rngTarget := matrix.MustFromRows([][]int{
		{1, 0, 1, 1, 0, 0, 1, 0, 1, 1},
		{0, 1, 1, 0, 1, 0, 0, 1, 1, 0},
		{1, 1, 0, 0, 1, 1, 0, 1, 0, 0},
		{0, 0, 1, 1, 0, 1, 1, 0, 0, 1},
	})
	summary, err := client.Run(ctx, RunRequest{
		Config: cfg,
		Target: rngTarget,
		Progress: evo.ProgressFunc(func(_ context.Context, ev evo.ProgressEvent) {
			if ev.Generation == 2 {
				cancel()
			}
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", summary.Status)
	assert.Equal(t, 2, summary.GenerationsExecuted)

	runs, err := client.Runs(context.Background(), RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "cancelled", runs[0].Status)
}

func TestClientBenchmark(t *testing.T) {
	client := newTestClient(t)
	reportDir := t.TempDir()

	summary, err := client.Benchmark(context.Background(), BenchmarkRequest{
		Config:      testConfig(),
		Target:      identity,
		Runs:        6,
		Concurrency: 3,
		ReportDir:   reportDir,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Stats.TotalRuns)
	assert.Equal(t, 1.0, summary.Stats.SuccessRate)
	assert.Equal(t, 1.0, summary.Stats.MeanFinalBest)
	for i, run := range summary.Stats.Runs {
		assert.Equal(t, int64(1+i), run.Seed)
	}
	assert.FileExists(t, filepath.Join(summary.ReportDir, "report.json"))

	runs, err := client.Runs(context.Background(), RunsRequest{})
	require.NoError(t, err)
	assert.Empty(t, runs, "benchmark runs are not stored individually")
}

func TestClientBenchmarkIsDeterministicPerSeed(t *testing.T) {
	client := newTestClient(t)
	cfg := testConfig()
	cfg.MaxGenerations = 15
	target := matrix.MustFromRows([][]int{
		{1, 0, 1, 1, 0, 0},
		{0, 1, 1, 0, 1, 0},
		{1, 1, 0, 0, 1, 1},
	})

	first, err := client.Benchmark(context.Background(), BenchmarkRequest{Config: cfg, Target: target, Seeds: []int64{4, 9}, Concurrency: 2})
	require.NoError(t, err)
	second, err := client.Benchmark(context.Background(), BenchmarkRequest{Config: cfg, Target: target, Seeds: []int64{4, 9}, Concurrency: 1})
	require.NoError(t, err)
	assert.Equal(t, first.Stats.Runs, second.Stats.Runs)
}

func TestClientBenchmarkRequiresRuns(t *testing.T) {
	_, err := newTestClient(t).Benchmark(context.Background(), BenchmarkRequest{Config: testConfig(), Target: identity})
	assert.Error(t, err)
}

func TestClientResolveRunID(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.Export(ctx, ExportRequest{RunID: "x", Latest: true})
	assert.Error(t, err)
	_, err = client.Export(ctx, ExportRequest{})
	assert.Error(t, err)
	_, err = client.History(ctx, HistoryRequest{Latest: true})
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
	_, err = client.Export(ctx, ExportRequest{RunID: "missing"})
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

func TestClientInspectMissingExport(t *testing.T) {
	client := newTestClient(t)
	_, err := client.Inspect(InspectRequest{RunID: "missing", Dir: t.TempDir()})
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
	_, err = client.Inspect(InspectRequest{})
	assert.Error(t, err)
}

func TestClientRecordsEffectiveMemeticConfig(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	cfg := evo.DefaultConfig()
	cfg.Algorithm = evo.AlgorithmMemetic
	cfg.PopulationSize = 4
	cfg.MaxGenerations = 5
	summary, err := client.Run(ctx, RunRequest{Config: cfg, Target: identity})
	require.NoError(t, err)

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].ID)

	var stored evo.Config
	require.NoError(t, json.Unmarshal(runs[0].Config, &stored))
	assert.Equal(t, evo.AlgorithmMemetic, stored.Algorithm)
	assert.Equal(t, 1, stored.ElitismCount)
}

func TestClientScoreAndStrategies(t *testing.T) {
	client := newTestClient(t)
	score, err := client.Score(identity.Invert(), identity)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	_, err = client.Score(identity, matrix.MustFromRows([][]int{{1}}))
	assert.ErrorIs(t, err, evo.ErrInvalidInput)

	assert.Contains(t, client.Strategies().Selection, "tournament")
}
