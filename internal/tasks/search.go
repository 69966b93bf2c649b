// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tasks

import (
	"context"

	"github.com/pdiddy/arxiv-explorer/internal/arxiv"
	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

// SearchWorker performs one rate-limited arXiv query on its own
// goroutine. On success it emits the result list through OnFinished; any
// failure emits OnError. Stop sets the cancellation flag without joining;
// a stopped worker discards its result silently.
type SearchWorker struct {
	taskMeta

	client *arxiv.Client
	params arxiv.Params
	ctx    context.Context
	op     *Operation

	// OnFinished receives the search results. Invoked from the worker goroutine.
	OnFinished func(papers []types.Paper)

	// OnError receives a failure message. Invoked from the worker goroutine.
	OnError func(msg string)
}

// NewSearchWorker returns an unstarted search worker. ctx bounds the
// underlying HTTP call and rate-limit wait; it is not used for Stop,
// which is cooperative.
func NewSearchWorker(ctx context.Context, client *arxiv.Client, params arxiv.Params) *SearchWorker {
	return &SearchWorker{
		taskMeta: newTaskMeta(types.CategorySearch),
		client:   client,
		params:   params,
		ctx:      ctx,
		op:       NewOperation(0, 0),
	}
}

// Start launches the backing goroutine.
func (w *SearchWorker) Start() {
	w.setState(types.TaskRunning)
	go w.run()
}

// Stop requests cancellation. The in-flight query is not interrupted;
// its result is discarded when it returns.
func (w *SearchWorker) Stop() { w.op.Stop() }

func (w *SearchWorker) run() {
	defer close(w.done)

	fn := func() (any, error) {
		if w.op.Stopped() {
			return nil, ErrCancelled
		}
		papers, err := w.client.Search(w.ctx, w.params)
		if w.op.Stopped() {
			return nil, ErrCancelled
		}
		if err != nil {
			return nil, err
		}
		return papers, nil
	}

	result, outcome, err := w.op.Run(fn, nil)
	switch outcome {
	case OutcomeCompleted:
		w.setState(types.TaskCompleted)
		if w.OnFinished != nil {
			w.OnFinished(result.([]types.Paper))
		}
	case OutcomeCancelled:
		w.setState(types.TaskCancelled)
	default:
		w.setState(types.TaskFailed)
		if w.OnError != nil {
			w.OnError(err.Error())
		}
	}
}
