// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf2md/internal/extract"
	"github.com/pdiddy/pdf2md/pkg/types"
)

// JobState is a state of the per-file conversion state machine.
type JobState int

const (
	StatePending JobState = iota
	StateExtractingPrimary
	StateFallingBack
	StateWritingOutput
	StateSucceeded
	StateFailed
)

var stateNames = map[JobState]string{
	StatePending:           "pending",
	StateExtractingPrimary: "extracting_primary",
	StateFallingBack:       "falling_back",
	StateWritingOutput:     "writing_output",
	StateSucceeded:         "succeeded",
	StateFailed:            "failed",
}

func (s JobState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("JobState(%d)", int(s))
}

// Terminal reports whether no further transition can happen from s.
func (s JobState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Job converts exactly one PDF. A Job is single-use.
//
//	Pending -> ExtractingPrimary -> WritingOutput -> Succeeded
//	                   |                   |
//	                   v                   v
//	              FallingBack ---------> Failed
//
// A primary failure always gets one fallback attempt; only a fallback
// failure or a write failure is terminal.
type Job struct {
	req       types.ConversionRequest
	extractor extract.Extractor
	fallback  Converter
	logger    *zap.Logger

	state    JobState
	trace    []JobState
	failedIn JobState

	placer     *ImagePlacer
	content    string
	method     types.ConversionMethod
	images     int
	primaryErr error
	err        error
}

// NewJob prepares a job for req.
func NewJob(req types.ConversionRequest, extractor extract.Extractor, fallback Converter, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		req:       req,
		extractor: extractor,
		fallback:  fallback,
		logger:    logger,
		state:     StatePending,
		trace:     []JobState{StatePending},
	}
}

// Trace returns the states the job has passed through, in order.
func (j *Job) Trace() []JobState {
	out := make([]JobState, len(j.trace))
	copy(out, j.trace)
	return out
}

// Run drives the state machine to a terminal state and reports the outcome.
func (j *Job) Run(ctx context.Context) types.ConversionOutcome {
	start := time.Now()

	j.transition(StateExtractingPrimary)
	for !j.state.Terminal() {
		switch j.state {
		case StateExtractingPrimary:
			j.runPrimary(ctx)
		case StateFallingBack:
			j.runFallback(ctx)
		case StateWritingOutput:
			j.runWrite()
		default:
			j.fail(fmt.Errorf("unexpected job state %s", j.state))
		}
	}

	out := types.ConversionOutcome{
		Source:     j.req.Source,
		OutputPath: j.req.OutputPath(),
		Success:    j.state == StateSucceeded,
		Method:     j.method,
		Images:     j.images,
		Err:        j.err,
		Duration:   time.Since(start),
	}
	if !out.Success {
		out.Stage = j.failedIn.String()
		j.clearStale(ctx, out.OutputPath)
	}
	return out
}

// clearStale removes output left by an earlier run after a real conversion
// failure. An interrupted run leaves the previous output in place.
func (j *Job) clearStale(ctx context.Context, path string) {
	if ctx.Err() != nil {
		j.logger.Debug("run interrupted, keeping previous output", zap.String("output", path))
		return
	}
	if err := removeStale(path); err != nil {
		j.logger.Warn("could not remove stale output", zap.String("output", path), zap.Error(err))
	}
}

func (j *Job) transition(next JobState) {
	j.state = next
	j.trace = append(j.trace, next)
}

func (j *Job) fail(err error) {
	j.failedIn = j.state
	j.err = err
	j.transition(StateFailed)
}

// runPrimary extracts pages and places their images. Any failure moves the
// job to FallingBack.
func (j *Job) runPrimary(ctx context.Context) {
	content, images, err := j.renderPrimary(ctx)
	if err != nil {
		j.primaryErr = err
		j.logger.Warn("primary extraction failed, falling back",
			zap.String("source", j.req.Source.Path), zap.Error(err))
		j.transition(StateFallingBack)
		return
	}
	j.content = content
	j.images = images
	j.method = types.MethodPrimary
	j.transition(StateWritingOutput)
}

func (j *Job) renderPrimary(ctx context.Context) (string, int, error) {
	if j.extractor == nil {
		return "", 0, fmt.Errorf("%w: no extractor configured", extract.ErrExtraction)
	}

	pages, err := j.extractor.Extract(ctx, j.req.Source.Path)
	if err != nil {
		return "", 0, err
	}

	placer := NewImagePlacer(j.req)
	j.placer = placer
	var doc Document
	for _, page := range pages {
		doc.AddPage(page.PageNumber, page.Text)
		for _, img := range page.Images {
			fragment, err := placer.Place(img)
			if err != nil {
				placer.Discard()
				return "", 0, err
			}
			doc.Add(fragment)
		}
	}
	return doc.String(), placer.Placed(), nil
}

// runFallback calls the fallback converter exactly once.
func (j *Job) runFallback(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		j.fail(afterPrimary(j.primaryErr, err))
		return
	}
	if j.fallback == nil {
		j.fail(afterPrimary(j.primaryErr, fmt.Errorf("%w: no fallback configured", ErrConversion)))
		return
	}

	content, err := j.fallback.Convert(ctx, j.req.Source.Path)
	if err != nil {
		if !errors.Is(err, ErrConversion) {
			err = fmt.Errorf("%w: %w", ErrConversion, err)
		}
		j.fail(afterPrimary(j.primaryErr, err))
		return
	}
	j.content = content
	j.method = types.MethodFallback
	j.transition(StateWritingOutput)
}

func (j *Job) runWrite() {
	if err := writeAtomic(j.req.OutputPath(), []byte(j.content)); err != nil {
		if j.method == types.MethodPrimary && j.placer != nil {
			j.placer.Discard()
		}
		j.fail(err)
		return
	}
	j.transition(StateSucceeded)
}

// afterPrimary combines the primary failure with the error that ended the
// fallback attempt; both stay matchable with errors.Is.
func afterPrimary(primary, err error) error {
	return fmt.Errorf("%w; %w", primary, err)
}

// Pipeline holds the collaborators shared by every job of a run.
type Pipeline struct {
	Extractor extract.Extractor
	Fallback  Converter
	Logger    *zap.Logger
}

// Run converts one request with a fresh Job.
func (p *Pipeline) Run(ctx context.Context, req types.ConversionRequest) types.ConversionOutcome {
	return NewJob(req, p.Extractor, p.Fallback, p.Logger).Run(ctx)
}
