package evo

import (
	"context"

	"matrixevo/internal/matrix"
)

// ProgressEvent is published once per completed generation.
type ProgressEvent struct {
	Generation      int
	BestFitness     float64
	BestEverFitness float64
	AverageFitness  float64
	StdDevFitness   float64
	// BestGenome is a copy of the best genome seen so far.
	BestGenome matrix.Matrix
}

// ProgressSink receives progress events. Publish is called synchronously from
// the generation loop; slow sinks slow the run down.
type ProgressSink interface {
	Publish(ctx context.Context, ev ProgressEvent)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(ctx context.Context, ev ProgressEvent)

func (f ProgressFunc) Publish(ctx context.Context, ev ProgressEvent) {
	f(ctx, ev)
}

// ChannelSink forwards events to a channel. A send blocks until the receiver
// is ready or ctx is done, in which case the event is dropped.
type ChannelSink chan<- ProgressEvent

func (c ChannelSink) Publish(ctx context.Context, ev ProgressEvent) {
	select {
	case c <- ev:
	case <-ctx.Done():
	}
}

type discardSink struct{}

func (discardSink) Publish(context.Context, ProgressEvent) {}
