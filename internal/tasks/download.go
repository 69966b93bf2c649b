// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tasks

import (
	"context"
	"net/http"

	"github.com/pdiddy/arxiv-explorer/internal/download"
	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

// DownloadWorker streams one PDF to disk, reporting percent complete
// after each chunk when the server advertises a content length. When it
// does not, only the final outcome is emitted.
//
// OnFinished(false) means the request completed but the server signaled
// failure; OnError means an exception during transfer. Stop joins the
// backing goroutine; between-chunk checkpoints make stops responsive
// even mid-transfer.
type DownloadWorker struct {
	taskMeta

	client   *http.Client
	url      string
	destPath string
	cfg      types.DownloadConfig
	ctx      context.Context
	op       *Operation

	// OnProgress receives percent complete in 0..100, strictly increasing.
	OnProgress func(percent int)

	// OnFinished reports whether the download succeeded.
	OnFinished func(ok bool)

	// OnError receives a failure message for exceptional failures.
	OnError func(msg string)
}

// NewDownloadWorker returns an unstarted download worker.
func NewDownloadWorker(ctx context.Context, client *http.Client, url, destPath string, cfg types.DownloadConfig) *DownloadWorker {
	return &DownloadWorker{
		taskMeta: newTaskMeta(types.CategoryDownload),
		client:   client,
		url:      url,
		destPath: destPath,
		cfg:      cfg,
		ctx:      ctx,
		op:       NewOperation(0, 0),
	}
}

// Dest returns the destination path the worker writes to.
func (w *DownloadWorker) Dest() string { return w.destPath }

// Start launches the backing goroutine.
func (w *DownloadWorker) Start() {
	w.setState(types.TaskRunning)
	go w.run()
}

// Stop requests cancellation and blocks until the backing goroutine has
// exited. The transfer aborts at the next chunk boundary.
func (w *DownloadWorker) Stop() {
	w.op.Stop()
	<-w.done
}

func (w *DownloadWorker) run() {
	defer close(w.done)

	lastPercent := -1
	onChunk := func(written, total int64) error {
		if w.op.Stopped() {
			return ErrCancelled
		}
		if total <= 0 {
			return nil
		}
		percent := int(written * 100 / total)
		if percent > lastPercent {
			lastPercent = percent
			if w.OnProgress != nil {
				w.OnProgress(percent)
			}
		}
		return nil
	}

	fn := func() (any, error) {
		if w.op.Stopped() {
			return nil, ErrCancelled
		}
		err := download.File(w.ctx, w.client, w.url, w.destPath, w.cfg, onChunk)
		if w.op.Stopped() {
			return nil, ErrCancelled
		}
		return nil, err
	}

	_, outcome, err := w.op.Run(fn, nil)
	switch outcome {
	case OutcomeCompleted:
		w.setState(types.TaskCompleted)
		if w.OnFinished != nil {
			w.OnFinished(true)
		}
	case OutcomeCancelled:
		w.setState(types.TaskCancelled)
	default:
		w.setState(types.TaskFailed)
		if download.IsServerFailure(err) {
			// The request completed; the server said no.
			if w.OnFinished != nil {
				w.OnFinished(false)
			}
			return
		}
		if w.OnError != nil {
			w.OnError(err.Error())
		}
	}
}
