// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tasks

import (
	"sync"

	"github.com/google/uuid"

	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

// Worker is a unit of background execution performing exactly one
// network operation and reporting its outcome through callbacks invoked
// from its goroutine. Callbacks from one worker never overlap.
//
// Start launches the backing goroutine; calling it twice on the same
// worker is a caller error. Stop requests cancellation; analysis and
// download workers additionally join their goroutine so no callback
// fires after Stop returns. Done is closed when the goroutine exits.
type Worker interface {
	ID() uuid.UUID
	Category() types.TaskCategory
	State() types.TaskState
	Start()
	Stop()
	Done() <-chan struct{}
}

// taskMeta carries the identity and lifecycle state shared by all
// worker variants.
type taskMeta struct {
	id       uuid.UUID
	category types.TaskCategory
	done     chan struct{}

	mu    sync.Mutex
	state types.TaskState
}

func newTaskMeta(category types.TaskCategory) taskMeta {
	return taskMeta{
		id:       uuid.New(),
		category: category,
		done:     make(chan struct{}),
		state:    types.TaskPending,
	}
}

// ID returns the task's unique identifier.
func (m *taskMeta) ID() uuid.UUID { return m.id }

// Category returns the task's operation category.
func (m *taskMeta) Category() types.TaskCategory { return m.category }

// State returns the current lifecycle state.
func (m *taskMeta) State() types.TaskState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Done is closed when the backing goroutine has exited.
func (m *taskMeta) Done() <-chan struct{} { return m.done }

// setState transitions the lifecycle state. Terminal states are
// immutable: a transition out of one is ignored.
func (m *taskMeta) setState(s types.TaskState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Terminal() {
		return
	}
	m.state = s
}

// Finished reports whether the backing goroutine has exited, without blocking.
func Finished(w Worker) bool {
	select {
	case <-w.Done():
		return true
	default:
		return false
	}
}
