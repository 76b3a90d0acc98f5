package evo

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"
)

var (
	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matrixevo_generations_total",
		Help: "Completed generations by algorithm",
	}, []string{"algorithm"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matrixevo_runs_total",
		Help: "Finished runs by algorithm and terminal state",
	}, []string{"algorithm", "status"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matrixevo_run_duration_seconds",
		Help:    "Wall time of a run",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"algorithm"})

	bestFitnessGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "matrixevo_best_fitness",
		Help: "Best-ever fitness of the most recently updated run",
	}, []string{"algorithm"})

	localSearchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matrixevo_local_search_total",
		Help: "Local search invocations by outcome",
	}, []string{"outcome"}) // "improved" or "unchanged"

	stagnationResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matrixevo_stagnation_resets_total",
		Help: "Partial population resets triggered by stagnation",
	})
)

// loggerWithTrace adds trace and span ids when ctx carries a recording span.
func loggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}
