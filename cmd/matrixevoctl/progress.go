package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"matrixevo/internal/evo"
)

// progressPrinter writes one line per generation, holding back lines that
// arrive faster than the configured interval. An interval of zero prints every
// generation. Flush prints the last held-back line so the final generation is
// always shown.
type progressPrinter struct {
	w       io.Writer
	limiter *rate.Limiter
	pending *evo.ProgressEvent
}

func newProgressPrinter(w io.Writer, interval time.Duration) *progressPrinter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &progressPrinter{w: w, limiter: rate.NewLimiter(limit, 1)}
}

func (p *progressPrinter) Publish(_ context.Context, ev evo.ProgressEvent) {
	if !p.limiter.Allow() {
		p.pending = &ev
		return
	}
	p.pending = nil
	p.print(ev)
}

func (p *progressPrinter) Flush() {
	if p.pending == nil {
		return
	}
	p.print(*p.pending)
	p.pending = nil
}

func (p *progressPrinter) print(ev evo.ProgressEvent) {
	fmt.Fprintf(p.w, "gen=%d best=%.4f best_ever=%.4f mean=%.4f std=%.4f\n",
		ev.Generation, ev.BestFitness, ev.BestEverFitness, ev.AverageFitness, ev.StdDevFitness)
}
