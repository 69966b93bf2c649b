// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tasks

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

// Entry is one pending analysis request: the paper, its abstract, and
// the opaque index routing the result back to the right slot.
type Entry struct {
	Paper    types.Paper
	Abstract string
	Index    int
}

// Sequencer drains a FIFO queue of pending analysis requests one at a
// time with an enforced inter-request delay. Its core guarantee: at most
// one analysis is in flight system-wide, under arbitrary enqueue, stop,
// and re-enqueue cycles.
//
// The sequencer does not run workers itself. The injected start function
// spawns one; when that worker reaches a terminal outcome other than
// silent cancellation, the owner calls Completed to release the slot.
// After a Clear (stop-all path) the owner must not call Completed for
// the cleared in-flight worker; Clear already reset the slot.
type Sequencer struct {
	delay time.Duration

	// valid reports whether an index still maps to a live target.
	// Entries failing the check are discarded without delay.
	valid func(index int) bool

	// start spawns the analysis worker for an entry. Called without the
	// sequencer lock held.
	start func(e Entry)

	logger *log.Logger

	mu    sync.Mutex
	queue []Entry
	busy  bool
	timer *time.Timer
}

// NewSequencer returns an idle sequencer. delay throttles consecutive
// analyses; valid may be nil to accept every entry.
func NewSequencer(delay time.Duration, valid func(index int) bool, start func(e Entry), logger *log.Logger) *Sequencer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Sequencer{
		delay:  delay,
		valid:  valid,
		start:  start,
		logger: logger,
	}
}

// EnqueueAll appends entries preserving arrival order. An entry whose
// index is already queued is dropped: the queue holds at most one entry
// per index regardless of caller discipline.
func (s *Sequencer) EnqueueAll(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queued := make(map[int]bool, len(s.queue))
	for _, e := range s.queue {
		queued[e.Index] = true
	}
	for _, e := range entries {
		if queued[e.Index] {
			s.logger.Debug("dropping duplicate analysis entry", "index", e.Index)
			continue
		}
		queued[e.Index] = true
		s.queue = append(s.queue, e)
	}
}

// PumpIfIdle starts the next analysis when none is in flight. Invalid
// entries are discarded immediately without counting as an analysis or
// incurring the delay. No-op while busy or when the queue is empty.
func (s *Sequencer) PumpIfIdle() {
	s.mu.Lock()
	var next Entry
	for {
		if s.busy || len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		next = s.queue[0]
		s.queue = s.queue[1:]
		if s.valid != nil && !s.valid(next.Index) {
			s.logger.Debug("discarding stale analysis entry", "index", next.Index)
			continue
		}
		s.busy = true
		break
	}
	s.mu.Unlock()

	s.start(next)
}

// Completed releases the in-flight slot after a worker reaches a
// terminal outcome (success, error, or timeout; never silent
// cancellation, which goes through Clear instead). When entries remain,
// the next pump is scheduled only after the configured delay.
func (s *Sequencer) Completed() {
	s.mu.Lock()
	s.busy = false
	pending := len(s.queue) > 0
	if pending {
		if s.timer != nil {
			s.timer.Stop()
		}
		s.timer = time.AfterFunc(s.delay, s.PumpIfIdle)
	}
	s.mu.Unlock()
}

// Clear drops all pending entries, cancels any scheduled pump, and
// resets the in-flight slot. Used before a new search and on shutdown,
// after the supervisor has stopped the workers.
func (s *Sequencer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.queue = nil
	s.busy = false
}

// Len returns the number of queued entries.
func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Busy reports whether an analysis is in flight.
func (s *Sequencer) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}
