// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tasks runs rate-limited, potentially slow network operations
// off the interactive path: it wraps single blocking calls with
// cooperative cancellation and timeouts, supervises per-category worker
// goroutines, and serializes queued analyses with an enforced delay.
package tasks

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrCancelled marks a call abandoned because its stop flag was set.
// Worker functions return it from their cancellation checkpoints; the
// outcome is suppressed rather than surfaced as an error.
var ErrCancelled = errors.New("operation cancelled")

// ErrTimedOut marks a call that exceeded its deadline before completing.
var ErrTimedOut = errors.New("operation timed out")

// Outcome classifies how an Operation ended.
type Outcome int

const (
	// OutcomeCompleted means the call returned its result in time.
	OutcomeCompleted Outcome = iota

	// OutcomeFailed means the call returned an error other than cancellation.
	OutcomeFailed

	// OutcomeTimedOut means the deadline elapsed first; the call was told
	// to stop and its eventual result is discarded.
	OutcomeTimedOut

	// OutcomeCancelled means the stop flag was observed; no result is
	// delivered and nothing is reported.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// defaultPollInterval paces progress heartbeats while a call is in flight.
const defaultPollInterval = 100 * time.Millisecond

// Operation wraps a single blocking network call with a cooperative
// cancellation flag and a hard timeout. The call runs on its own
// goroutine; Run races its completion against the deadline instead of
// busy polling. The stop flag is monotonic: once set it never reverts.
//
// Cancellation is cooperative only. Stop does not interrupt an in-flight
// call; the wrapped function is expected to check Stopped before issuing
// its network call and again after receiving the response, returning
// ErrCancelled from either checkpoint.
type Operation struct {
	timeout      time.Duration
	pollInterval time.Duration
	stopped      atomic.Bool
}

// NewOperation returns an Operation with the given hard timeout. A zero
// timeout means the call may run indefinitely. pollInterval paces the
// optional progress heartbeat (default 100ms).
func NewOperation(timeout, pollInterval time.Duration) *Operation {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Operation{timeout: timeout, pollInterval: pollInterval}
}

// Stop requests cancellation. It is safe to call from any goroutine and
// any number of times.
func (o *Operation) Stop() { o.stopped.Store(true) }

// Stopped reports whether cancellation has been requested.
func (o *Operation) Stopped() bool { return o.stopped.Load() }

// callResult carries fn's return values across the goroutine boundary.
type callResult struct {
	value any
	err   error
}

// Run executes fn on a dedicated goroutine and waits for it to finish,
// time out, or get cancelled. While waiting, onProgress (when non-nil)
// fires every poll interval with the elapsed time, a status heartbeat,
// not a cancellation check.
//
// The deadline tie-break is elapsed >= timeout: when the timer fires the
// operation reports OutcomeTimedOut even if the call would have delivered
// in the same instant. On timeout the stop flag is set and the call's
// eventual result is drained and discarded; the goroutine is not killed
// and may hold resources until it naturally unwinds.
//
// A result arriving after Stop was requested is discarded and reported as
// OutcomeCancelled, even if the call succeeded. Errors other than
// cancellation propagate as OutcomeFailed with the original error.
func (o *Operation) Run(fn func() (any, error), onProgress func(elapsed time.Duration)) (any, Outcome, error) {
	done := make(chan callResult, 1)
	start := time.Now()

	go func() {
		value, err := fn()
		done <- callResult{value: value, err: err}
	}()

	var timeoutC <-chan time.Time
	if o.timeout > 0 {
		timer := time.NewTimer(o.timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	var tickC <-chan time.Time
	if onProgress != nil {
		ticker := time.NewTicker(o.pollInterval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	for {
		select {
		case r := <-done:
			if errors.Is(r.err, ErrCancelled) || o.Stopped() {
				return nil, OutcomeCancelled, ErrCancelled
			}
			if r.err != nil {
				return nil, OutcomeFailed, r.err
			}
			return r.value, OutcomeCompleted, nil

		case <-timeoutC:
			o.Stop()
			return nil, OutcomeTimedOut, ErrTimedOut

		case <-tickC:
			onProgress(time.Since(start))
		}
	}
}
