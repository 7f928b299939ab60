package flow

import (
	"context"
	"log/slog"
	"slices"

	"github.com/df07/go-nearfield-flow/pkg/core"
	"github.com/df07/go-nearfield-flow/pkg/streamline"
)

// Bundle traces many seeds with one tracer on a worker pool.
type Bundle struct {
	tracer  *streamline.Tracer
	workers int
	logger  *slog.Logger
}

// NewBundle creates a bundle tracer. workers <= 0 means one per CPU.
func NewBundle(tracer *streamline.Tracer, workers int, logger *slog.Logger) *Bundle {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bundle{tracer: tracer, workers: workers, logger: logger}
}

// Stream traces seeds concurrently and delivers results as they complete.
// The channel is closed when every seed is done or ctx is cancelled.
func (b *Bundle) Stream(ctx context.Context, seeds []core.Vec3) <-chan TraceResult {
	out := make(chan TraceResult)

	go func() {
		defer close(out)

		pool := NewWorkerPool(b.tracer, b.workers, len(seeds))
		pool.Start(ctx)
		for i, seed := range seeds {
			pool.SubmitTask(TraceTask{TaskID: i, Seed: seed})
		}
		go pool.Stop()

		b.logger.Debug("tracing bundle", "seeds", len(seeds), "workers", pool.GetNumWorkers())

		for {
			result, ok := pool.GetResult()
			if !ok {
				return
			}
			b.logResult(result)
			select {
			case out <- result:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// TraceAll traces every seed and returns results in seed order. Seeds whose
// field is degenerate carry their error in the result; only cancellation
// fails the call.
func (b *Bundle) TraceAll(ctx context.Context, seeds []core.Vec3) ([]TraceResult, error) {
	results := make([]TraceResult, 0, len(seeds))
	for r := range b.Stream(ctx, seeds) {
		results = append(results, r)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b TraceResult) int { return a.TaskID - b.TaskID })
	return results, nil
}

func (b *Bundle) logResult(r TraceResult) {
	if r.Err != nil {
		b.logger.Warn("streamline skipped", "seed", r.TaskID,
			"x", r.Seed.X, "y", r.Seed.Y, "z", r.Seed.Z, "error", r.Err)
		return
	}
	b.logger.Debug("streamline traced", "seed", r.TaskID,
		"points", len(r.Trajectory),
		"length", r.Stats.Length,
		"refinements", r.Stats.Refinements,
		"termination", r.Stats.Termination.String())
}

// Summary aggregates the statistics of a bundle.
type Summary struct {
	Lines       int     `json:"lines"` // successfully traced
	Failed      int     `json:"failed"`
	Capped      int     `json:"capped"` // stopped by the iteration cap
	Points      int     `json:"points"`
	Iterations  int     `json:"iterations"`
	Refinements int     `json:"refinements"`
	NonFinite   int     `json:"nonFinite"`
	TotalLength float64 `json:"totalLength"`
}

// Summarize folds per-line results into a Summary.
func Summarize(results []TraceResult) Summary {
	var s Summary
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Lines++
		s.Points += len(r.Trajectory)
		s.Iterations += r.Stats.Iterations
		s.Refinements += r.Stats.Refinements
		s.NonFinite += r.Stats.NonFinite
		s.TotalLength += r.Stats.Length
		if r.Stats.Termination == streamline.IterationCap {
			s.Capped++
		}
	}
	return s
}
