// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TaskState is the lifecycle state of a supervised background task.
type TaskState string

const (
	// TaskPending means the task is registered but its goroutine has not started.
	TaskPending TaskState = "pending"

	// TaskRunning means the task's goroutine is executing its operation.
	TaskRunning TaskState = "running"

	// TaskCompleted means the operation finished and delivered its result.
	TaskCompleted TaskState = "completed"

	// TaskFailed means the operation finished with an error or timed out.
	TaskFailed TaskState = "failed"

	// TaskCancelled means the task was stopped before delivering a result.
	TaskCancelled TaskState = "cancelled"
)

// Terminal reports whether the state is final. Terminal tasks never
// change state again and are eligible for reaping.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	}
	return false
}

// TaskCategory identifies the kind of network operation a task performs.
// At most one task per category runs at a time.
type TaskCategory string

const (
	CategorySearch   TaskCategory = "search"
	CategoryAnalysis TaskCategory = "analysis"
	CategoryDownload TaskCategory = "download"
)
