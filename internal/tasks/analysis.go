// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/arxiv-explorer/internal/analyze"
	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

// AnalysisWorker analyzes one abstract through the analysis backend,
// bounded by a hard timeout. The index is opaque routing data: it ties
// the result back to the caller's slot for that paper.
//
// A timeout emits OnError with a distinguishable "timed out" message.
// Cancellation via Stop emits nothing at all: the caller asked to stop
// and already knows. Stop joins the backing goroutine, so no callback
// fires after Stop returns.
type AnalysisWorker struct {
	taskMeta

	backend  analyze.Backend
	abstract string
	index    int
	timeout  time.Duration
	ctx      context.Context
	op       *Operation

	// OnFinished receives the analysis text and the routing index.
	OnFinished func(text string, index int)

	// OnError receives a failure message and the routing index.
	OnError func(msg string, index int)

	// OnProgress, when set, receives elapsed-time heartbeats while the
	// call is in flight.
	OnProgress func(elapsed time.Duration)
}

// NewAnalysisWorker returns an unstarted analysis worker. pollInterval
// paces OnProgress heartbeats; zero selects the default.
func NewAnalysisWorker(ctx context.Context, backend analyze.Backend, abstract string, index int, timeout, pollInterval time.Duration) *AnalysisWorker {
	return &AnalysisWorker{
		taskMeta: newTaskMeta(types.CategoryAnalysis),
		backend:  backend,
		abstract: abstract,
		index:    index,
		timeout:  timeout,
		ctx:      ctx,
		op:       NewOperation(timeout, pollInterval),
	}
}

// Index returns the opaque routing index for this analysis.
func (w *AnalysisWorker) Index() int { return w.index }

// Start launches the backing goroutine.
func (w *AnalysisWorker) Start() {
	w.setState(types.TaskRunning)
	go w.run()
}

// Stop requests cancellation and blocks until the backing goroutine has
// exited. The in-flight call is not interrupted; Stop waits for it to
// observe the flag at its next checkpoint and unwind.
func (w *AnalysisWorker) Stop() {
	w.op.Stop()
	<-w.done
}

func (w *AnalysisWorker) run() {
	defer close(w.done)

	fn := func() (any, error) {
		if w.op.Stopped() {
			return nil, ErrCancelled
		}
		text, err := w.backend.Analyze(w.ctx, w.abstract)
		// Post-call checkpoint: discard the response if stop was
		// requested while it was in flight.
		if w.op.Stopped() {
			return nil, ErrCancelled
		}
		if err != nil {
			return nil, err
		}
		return text, nil
	}

	result, outcome, err := w.op.Run(fn, w.OnProgress)
	switch outcome {
	case OutcomeCompleted:
		w.setState(types.TaskCompleted)
		if w.OnFinished != nil {
			w.OnFinished(result.(string), w.index)
		}
	case OutcomeTimedOut:
		w.setState(types.TaskFailed)
		if w.OnError != nil {
			w.OnError(fmt.Sprintf("analysis timed out after %v", w.timeout), w.index)
		}
	case OutcomeCancelled:
		// Silent by design: no finished, no error.
		w.setState(types.TaskCancelled)
	default:
		w.setState(types.TaskFailed)
		if w.OnError != nil {
			w.OnError(err.Error(), w.index)
		}
	}
}
