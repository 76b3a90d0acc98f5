package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"

	"matrixevo/internal/matrix"
	"matrixevo/internal/model"
	"matrixevo/internal/stats"
)

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// RunResult is the outcome of one engine run. A cancelled run carries the data
// of the last completed generation.
type RunResult struct {
	Status              State
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

type Option func(*Engine)

// WithRand injects the random source. Every random draw of the run flows
// through it, so a fixed seed reproduces the run exactly.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

func WithProgress(sink ProgressSink) Option {
	return func(e *Engine) { e.sink = sink }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithYield installs a hook called at every generation boundary after the
// scheduler yield.
func WithYield(fn func(ctx context.Context)) Option {
	return func(e *Engine) { e.yield = fn }
}

// Engine runs the generation loop for both the plain genetic algorithm and the
// memetic variant. An engine performs a single run: Idle -> Running ->
// Completed or Cancelled.
type Engine struct {
	cfg Config

	rng         *rand.Rand
	selector    Selector
	crossover   Crossover
	mutator     Mutator
	memeticPick Selector
	localSearch LocalSearch
	stagnation  StagnationMonitor

	sink   ProgressSink
	logger *slog.Logger
	yield  func(ctx context.Context)

	state     atomic.Int32
	cancelled atomic.Bool
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	selector, err := ResolveSelector(cfg.Selection, cfg)
	if err != nil {
		return nil, err
	}
	crossover, err := ResolveCrossover(cfg.Crossover, cfg)
	if err != nil {
		return nil, err
	}
	mutator, err := ResolveMutator(cfg.Mutation, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Algorithm == AlgorithmMemetic {
		cfg.ElitismCount = 1
	}

	e := &Engine{
		cfg:         cfg,
		selector:    selector,
		crossover:   crossover,
		mutator:     mutator,
		memeticPick: DoubleTournamentSelector{},
		localSearch: LocalSearch{MaxAttempts: cfg.MaxLocalSearchAttempts},
		stagnation: StagnationMonitor{
			Threshold:     cfg.ResetThreshold,
			EliteFraction: cfg.ResetEliteFraction,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	if e.sink == nil {
		e.sink = discardSink{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Config returns the effective configuration. For the memetic variant
// ElitismCount reports the single carried-over individual.
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

// Cancel asks a running engine to stop. The flag is observed at the next
// generation boundary; the run then finishes as Cancelled.
func (e *Engine) Cancel() {
	e.cancelled.Store(true)
}

// Run evolves a population toward target. base is optional (pass the zero
// Matrix when absent) and only seeds the memetic variant. Cancellation through
// Cancel or ctx is not an error: the result reports StateCancelled.
func (e *Engine) Run(ctx context.Context, target, base matrix.Matrix) (RunResult, error) {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return RunResult{}, fmt.Errorf("%w: state=%s", ErrEngineBusy, e.State())
	}
	if target.IsEmpty() {
		e.state.Store(int32(StateIdle))
		return RunResult{}, fmt.Errorf("%w: target matrix is empty", ErrInvalidInput)
	}

	started := time.Now()
	algorithm := string(e.cfg.Algorithm)
	logger := loggerWithTrace(ctx, e.logger).With(slog.String("algorithm", algorithm))
	logger.Info("run started",
		slog.Int("rows", target.Rows()),
		slog.Int("cols", target.Cols()),
		slog.Int("population", e.cfg.PopulationSize),
		slog.Int("max_generations", e.cfg.MaxGenerations),
	)

	bestGenome, _ := matrix.New(target.Rows(), target.Cols())
	result := RunResult{BestGenome: bestGenome}
	tracker := stats.NewTracker(e.cfg.MaxGenerations)
	pop := e.seed(target, base, &result, logger)
	haveBest := false

	status := StateCompleted
	for gen := 1; gen <= e.cfg.MaxGenerations; gen++ {
		evaluated, err := EvaluatePopulation(&pop, target)
		result.Evaluations += evaluated
		if err != nil {
			e.state.Store(int32(StateIdle))
			return RunResult{}, err
		}

		rec := tracker.Record(gen, pop.Fitness)
		improved := false
		if best := pop.Best(); !haveBest || pop.Fitness[best] > result.BestFitness {
			improved = true
			haveBest = true
			result.BestFitness = pop.Fitness[best]
			result.BestGenome = pop.Genomes[best].Clone()
		}
		result.GenerationsExecuted = gen

		generationsTotal.WithLabelValues(algorithm).Inc()
		bestFitnessGauge.WithLabelValues(algorithm).Set(result.BestFitness)
		logger.Debug("generation complete",
			slog.Int("generation", gen),
			slog.Float64("best", rec.BestFitness),
			slog.Float64("best_ever", result.BestFitness),
			slog.Float64("mean", rec.AverageFitness),
			slog.Float64("stddev", rec.StdDevFitness),
			slog.Int("stagnant_generations", e.stagnation.SinceImprovement()),
		)
		e.sink.Publish(ctx, ProgressEvent{
			Generation:      gen,
			BestFitness:     rec.BestFitness,
			BestEverFitness: result.BestFitness,
			AverageFitness:  rec.AverageFitness,
			StdDevFitness:   rec.StdDevFitness,
			BestGenome:      result.BestGenome.Clone(),
		})

		if e.cancelled.Load() || ctx.Err() != nil {
			status = StateCancelled
			break
		}
		if result.BestFitness >= 1.0 || gen == e.cfg.MaxGenerations {
			break
		}

		runtime.Gosched()
		if e.yield != nil {
			e.yield(ctx)
		}

		pop, err = e.nextGeneration(pop, target, improved, &result, logger)
		if err != nil {
			e.state.Store(int32(StateIdle))
			return RunResult{}, err
		}
	}

	result.Status = status
	result.History = tracker.History()
	result.Summary = tracker.Summary()
	e.state.Store(int32(status))

	runsTotal.WithLabelValues(algorithm, status.String()).Inc()
	runDuration.WithLabelValues(algorithm).Observe(time.Since(started).Seconds())
	logger.Info("run finished",
		slog.String("status", status.String()),
		slog.Int("generations", result.GenerationsExecuted),
		slog.Float64("best_fitness", result.BestFitness),
		slog.Int("evaluations", result.Evaluations),
		slog.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// seed builds the initial population. The memetic variant perturbs base with
// NoiseRate when its shape matches target and otherwise falls back to uniform
// random genomes with a warning.
func (e *Engine) seed(target, base matrix.Matrix, result *RunResult, logger *slog.Logger) Population {
	rows, cols := target.Rows(), target.Cols()
	useBase := false
	if e.cfg.Algorithm == AlgorithmMemetic && !base.IsEmpty() {
		if base.SameShape(target) {
			useBase = true
		} else {
			warning := fmt.Sprintf("%v: base %dx%d, target %dx%d; seeding uniformly at random",
				ErrDimensionMismatch, base.Rows(), base.Cols(), rows, cols)
			result.Warnings = append(result.Warnings, warning)
			logger.Warn("base matrix ignored", slog.String("reason", warning))
		}
	}

	pop := newPopulation(e.cfg.PopulationSize)
	for i := 0; i < e.cfg.PopulationSize; i++ {
		if useBase {
			pop.add(matrix.Noisy(e.rng, base, e.cfg.NoiseRate), math.NaN())
			continue
		}
		pop.add(matrix.Random(e.rng, rows, cols), math.NaN())
	}
	return pop
}

func (e *Engine) nextGeneration(pop Population, target matrix.Matrix, improved bool, result *RunResult, logger *slog.Logger) (Population, error) {
	if e.cfg.Algorithm == AlgorithmMemetic {
		return e.nextMemeticGeneration(pop, target, result)
	}

	if e.stagnation.Observe(improved) {
		retained := e.stagnation.Reset(e.rng, &pop)
		result.StagnationResets++
		stagnationResetsTotal.Inc()
		logger.Warn("stagnation reset",
			slog.Int("generation", result.GenerationsExecuted),
			slog.Int("retained", len(retained)),
			slog.Int("replaced", pop.Len()-len(retained)),
		)
		return pop, nil
	}

	next := newPopulation(e.cfg.PopulationSize)
	for _, idx := range pop.Ranked()[:e.cfg.ElitismCount] {
		next.add(pop.Genomes[idx].Clone(), pop.Fitness[idx])
	}
	for next.Len() < e.cfg.PopulationSize {
		child, err := e.breed(e.selector, pop)
		if err != nil {
			return Population{}, err
		}
		next.add(child, math.NaN())
	}
	return next, nil
}

// nextMemeticGeneration keeps the single best individual and fills the rest
// with offspring scored immediately so the local search trigger can compare
// them against the generation's worst fitness.
func (e *Engine) nextMemeticGeneration(pop Population, target matrix.Matrix, result *RunResult) (Population, error) {
	next := newPopulation(e.cfg.PopulationSize)
	best := pop.Best()
	next.add(pop.Genomes[best].Clone(), pop.Fitness[best])

	worst := pop.Worst()
	for next.Len() < e.cfg.PopulationSize {
		child, err := e.breed(e.memeticPick, pop)
		if err != nil {
			return Population{}, err
		}
		fitness, err := Score(child, target)
		if err != nil {
			return Population{}, err
		}
		result.Evaluations++

		pls := TriggerProbability(fitness, worst, e.cfg.LocalSearchLowProbability)
		if e.rng.Float64() < pls && e.localSearch.MaxAttempts > 0 {
			outcome, err := e.localSearch.Refine(e.rng, child, target)
			if err != nil {
				return Population{}, err
			}
			result.LocalSearches++
			if outcome.Improvements > 0 {
				localSearchTotal.WithLabelValues("improved").Inc()
			} else {
				localSearchTotal.WithLabelValues("unchanged").Inc()
			}
			fitness = outcome.Fitness
		}
		next.add(child, fitness)
	}
	return next, nil
}

// breed draws the first parent from first and the second from the configured
// selector, then applies crossover and mutation.
func (e *Engine) breed(first Selector, pop Population) (matrix.Matrix, error) {
	p1, err := first.PickParent(e.rng, pop)
	if err != nil {
		return matrix.Matrix{}, err
	}
	p2, err := e.selector.PickParent(e.rng, pop)
	if err != nil {
		return matrix.Matrix{}, err
	}
	child, err := e.crossover.Cross(e.rng, p1, p2)
	if err != nil {
		return matrix.Matrix{}, err
	}
	e.mutator.Mutate(e.rng, child)
	return child, nil
}
