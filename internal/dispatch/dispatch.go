// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch fans conversion requests out to a bounded pool of workers
// and collects exactly one outcome per request.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// Sentinel errors for dispatch.
var (
	// ErrJobPanic marks an outcome produced from a recovered panic.
	ErrJobPanic = errors.New("conversion job crashed")

	// ErrInvalidWorkerCount reports a non-positive pool size.
	ErrInvalidWorkerCount = errors.New("invalid worker count")

	// ErrDuplicateOutput marks a request whose Markdown path is already
	// claimed by an earlier request in the same batch.
	ErrDuplicateOutput = errors.New("duplicate output path")
)

// Stage names recorded on outcomes the dispatcher synthesizes itself.
const (
	stageNotStarted = "pending"
	stageCrashed    = "crashed"
)

// Runner converts one request. convert.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, req types.ConversionRequest) types.ConversionOutcome
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, req types.ConversionRequest) types.ConversionOutcome

// Run calls f(ctx, req).
func (f RunnerFunc) Run(ctx context.Context, req types.ConversionRequest) types.ConversionOutcome {
	return f(ctx, req)
}

// Dispatcher runs conversion jobs on a fixed number of workers.
type Dispatcher struct {
	runner  Runner
	workers int
	logger  *zap.Logger
}

// New returns a dispatcher with the given pool size.
func New(runner Runner, workers int, logger *zap.Logger) (*Dispatcher, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: %d (must be >= 1)", ErrInvalidWorkerCount, workers)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{runner: runner, workers: workers, logger: logger}, nil
}

// Workers returns the pool size.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// Run converts every request and blocks until each has an outcome. Outcomes
// come back in completion order. When ctx is cancelled no new job starts;
// requests that never started get a failed outcome carrying ctx.Err().
func (d *Dispatcher) Run(ctx context.Context, reqs []types.ConversionRequest) []types.ConversionOutcome {
	if len(reqs) == 0 {
		return nil
	}

	workers := min(d.workers, len(reqs))

	jobs := make(chan int)
	outcomes := make(chan types.ConversionOutcome, len(reqs))

	var g errgroup.Group
	g.Go(func() error {
		defer close(jobs)
		for i := range reqs {
			if ctx.Err() != nil {
				d.abandon(ctx, reqs[i:], outcomes)
				return nil
			}
			select {
			case <-ctx.Done():
				d.abandon(ctx, reqs[i:], outcomes)
				return nil
			case jobs <- i:
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for idx := range jobs {
				outcomes <- d.runOne(ctx, reqs[idx])
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(outcomes)
	}()

	results := make([]types.ConversionOutcome, 0, len(reqs))
	for o := range outcomes {
		d.logOutcome(o)
		results = append(results, o)
	}
	return results
}

// abandon reports every request that was never handed to a worker.
func (d *Dispatcher) abandon(ctx context.Context, reqs []types.ConversionRequest, outcomes chan<- types.ConversionOutcome) {
	for _, req := range reqs {
		outcomes <- types.ConversionOutcome{
			Source:     req.Source,
			OutputPath: req.OutputPath(),
			Stage:      stageNotStarted,
			Err:        fmt.Errorf("not started: %w", ctx.Err()),
		}
	}
}

// runOne runs a single job and turns a panic into a failed outcome so the
// pool keeps going.
func (d *Dispatcher) runOne(ctx context.Context, req types.ConversionRequest) (out types.ConversionOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 8<<10)
			buf = buf[:runtime.Stack(buf, false)]
			d.logger.Error("conversion job panicked",
				zap.String("source", req.Source.Path),
				zap.Any("panic", r),
				zap.ByteString("stack", buf))
			out = types.ConversionOutcome{
				Source:     req.Source,
				OutputPath: req.OutputPath(),
				Stage:      stageCrashed,
				Err:        fmt.Errorf("%w: %v", ErrJobPanic, r),
				Duration:   time.Since(start),
			}
		}
	}()
	return d.runner.Run(ctx, req)
}

func (d *Dispatcher) logOutcome(o types.ConversionOutcome) {
	if o.Success {
		d.logger.Info("converted",
			zap.String("source", o.Source.Path),
			zap.String("output", o.OutputPath),
			zap.String("method", string(o.Method)),
			zap.Int("images", o.Images),
			zap.Duration("duration", o.Duration.Round(time.Millisecond)))
		return
	}
	d.logger.Error("conversion failed",
		zap.String("source", o.Source.Path),
		zap.String("stage", o.Stage),
		zap.Error(o.Err))
}

// Dedupe keeps the first request for each output path. Every later request
// that maps to the same Markdown file (a.pdf and a.PDF) gets a failed outcome
// instead of silently overwriting the first one's output and images.
func Dedupe(reqs []types.ConversionRequest) ([]types.ConversionRequest, []types.ConversionOutcome) {
	claimed := make(map[string]string, len(reqs))
	kept := make([]types.ConversionRequest, 0, len(reqs))
	var rejected []types.ConversionOutcome
	for _, req := range reqs {
		out := req.OutputPath()
		if first, ok := claimed[out]; ok {
			rejected = append(rejected, types.ConversionOutcome{
				Source:     req.Source,
				OutputPath: out,
				Stage:      stageNotStarted,
				Err:        fmt.Errorf("%w: %s also written by %s", ErrDuplicateOutput, out, first),
			})
			continue
		}
		claimed[out] = req.Source.RelPath
		kept = append(kept, req)
	}
	return kept, rejected
}

// ResolveWorkers picks the pool size: an explicit positive value wins,
// otherwise GOMAXPROCS (quota-adjusted by automaxprocs at startup). The
// result is clamped to [1, files] when files > 0.
func ResolveWorkers(requested, files int) int {
	n := requested
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if files > 0 && n > files {
		n = files
	}
	if n < 1 {
		n = 1
	}
	return n
}
