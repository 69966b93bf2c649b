// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tasks

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

// Supervisor tracks all live workers and is the single point other code
// uses to manage worker lifetime. A handle stays registered while its
// task is pending or running; terminal handles are reaped
// opportunistically. Safe for concurrent use: worker callbacks may reap
// while the coordinating goroutine spawns or stops.
type Supervisor struct {
	mu      sync.Mutex
	workers map[uuid.UUID]Worker
	logger  *log.Logger
}

// NewSupervisor returns an empty Supervisor. logger may be nil.
func NewSupervisor(logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Supervisor{
		workers: make(map[uuid.UUID]Worker),
		logger:  logger,
	}
}

// Spawn registers the worker and starts it, returning the worker for
// further wiring. Callers starting a new worker of a category must have
// stopped that category's predecessor first.
func (s *Supervisor) Spawn(w Worker) Worker {
	s.mu.Lock()
	s.workers[w.ID()] = w
	s.mu.Unlock()

	s.logger.Debug("spawning worker", "id", w.ID(), "category", w.Category())
	w.Start()
	return w
}

// StopAll stops every live worker and waits for each backing goroutine
// to terminate before returning. Workers that already finished are
// no-ops. Calling StopAll twice in a row is a no-op the second time.
//
// The join happens outside the registry lock so in-flight worker
// callbacks can still reach the supervisor without deadlocking.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	live := make([]Worker, 0, len(s.workers))
	for id, w := range s.workers {
		live = append(live, w)
		delete(s.workers, id)
	}
	s.mu.Unlock()

	for _, w := range live {
		w.Stop()
		<-w.Done()
		s.logger.Debug("worker stopped", "id", w.ID(), "category", w.Category(), "state", w.State())
	}
}

// ReapFinished removes workers whose backing goroutine has terminated.
// It never blocks.
func (s *Supervisor) ReapFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range s.workers {
		if Finished(w) {
			s.logger.Debug("reaping worker", "id", id, "category", w.Category(), "state", w.State())
			delete(s.workers, id)
		}
	}
}

// Live returns the number of registered workers.
func (s *Supervisor) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

// LiveByCategory returns the number of registered workers in a category.
func (s *Supervisor) LiveByCategory(c types.TaskCategory) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.workers {
		if w.Category() == c {
			n++
		}
	}
	return n
}
