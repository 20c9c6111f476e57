// Package queue provides the orchestration worker pool: bounded
// submission, per-session cancellation, and graceful drain.
package queue

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for queue operations.
var (
	// ErrQueueFull indicates the submission buffer is at capacity.
	ErrQueueFull = errors.New("queue full")

	// ErrPoolStopped indicates the pool no longer accepts work.
	ErrPoolStopped = errors.New("pool stopped")
)

// Status is the terminal state of a processed task.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusBlocked   Status = "blocked"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusTimedOut  Status = "timed_out"
)

// Task is one queued orchestration request.
type Task struct {
	SessionID  string
	Input      string
	Mode       string
	EnqueuedAt time.Time
}

// ExecutionResult is lightweight, just the terminal state. Evidence and
// session state were already written by the executor during processing.
type ExecutionResult struct {
	Status Status
	Output string
	Error  error
	// SessionID is the orchestrator-assigned session, set when the run
	// got far enough to open one. Completion hooks use it to look up the
	// evidence pack.
	SessionID string
}

// TaskExecutor is the interface for task processing. The executor owns
// the entire session lifecycle internally; the worker only handles
// claiming, timeout, cancellation, and result delivery.
type TaskExecutor interface {
	Execute(ctx context.Context, task Task) *ExecutionResult
}

// CompletionFunc is invoked after each task reaches a terminal state.
// Called from worker goroutines; implementations must be thread-safe.
type CompletionFunc func(task Task, result *ExecutionResult)

// PoolHealth contains health information for the entire worker pool.
type PoolHealth struct {
	IsHealthy      bool           `json:"is_healthy"`
	ActiveWorkers  int            `json:"active_workers"`
	TotalWorkers   int            `json:"total_workers"`
	ActiveSessions int            `json:"active_sessions"`
	QueueDepth     int            `json:"queue_depth"`
	WorkerStats    []WorkerHealth `json:"worker_stats"`
}

// WorkerHealth contains health information for a single worker.
type WorkerHealth struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"` // "idle" or "working"
	CurrentSessionID  string    `json:"current_session_id,omitempty"`
	SessionsProcessed int       `json:"sessions_processed"`
	LastActivity      time.Time `json:"last_activity"`
}
