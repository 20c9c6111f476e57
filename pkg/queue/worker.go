package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// WorkerStatus represents the current state of a worker.
type WorkerStatus string

// Worker status constants.
const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// Worker is a single queue worker consuming from the pool's task channel.
type Worker struct {
	id   string
	pool *WorkerPool
	wg   sync.WaitGroup

	// Health tracking
	mu                sync.RWMutex
	status            WorkerStatus
	currentSessionID  string
	sessionsProcessed int
	lastActivity      time.Time
}

func newWorker(id string, pool *WorkerPool) *Worker {
	return &Worker{
		id:           id,
		pool:         pool,
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Wait blocks until the worker loop has exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Health returns the current worker health status.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:                w.id,
		Status:            string(w.status),
		CurrentSessionID:  w.currentSessionID,
		SessionsProcessed: w.sessionsProcessed,
		LastActivity:      w.lastActivity,
	}
}

// run is the main worker loop. It exits when the task channel is closed
// (graceful drain) or the pool context is cancelled.
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id)
	log.Info("Worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Context cancelled, worker shutting down")
			return
		case task, ok := <-w.pool.tasks:
			if !ok {
				log.Info("Worker shutting down")
				return
			}
			w.process(ctx, task)
		}
	}
}

func (w *Worker) process(ctx context.Context, task Task) {
	log := slog.With("session_id", task.SessionID, "worker_id", w.id)
	log.Info("Task claimed", "queued_for", time.Since(task.EnqueuedAt))

	w.setStatus(WorkerStatusWorking, task.SessionID)
	defer w.setStatus(WorkerStatusIdle, "")

	taskCtx, cancelTask := context.WithTimeout(ctx, w.pool.timeout)
	defer cancelTask()

	// Register cancel function for API-triggered cancellation.
	w.pool.RegisterSession(task.SessionID, cancelTask)
	defer w.pool.UnregisterSession(task.SessionID)

	result := w.pool.executor.Execute(taskCtx, task)

	// Synthesize a safe result if the executor returned nil or left the
	// status open on a dead context.
	if result == nil {
		result = &ExecutionResult{}
	}
	if result.Status == "" {
		switch {
		case errors.Is(taskCtx.Err(), context.DeadlineExceeded):
			result.Status = StatusTimedOut
			result.Error = fmt.Errorf("task timed out after %v", w.pool.timeout)
		case errors.Is(taskCtx.Err(), context.Canceled):
			result.Status = StatusCancelled
			result.Error = context.Canceled
		case result.Error != nil:
			result.Status = StatusFailed
		default:
			result.Status = StatusCompleted
		}
	}

	if w.pool.onComplete != nil {
		w.pool.onComplete(task, result)
	}

	w.mu.Lock()
	w.sessionsProcessed++
	w.mu.Unlock()

	log.Info("Task processing complete", "status", result.Status)
}

// setStatus updates the worker's health tracking state.
func (w *Worker) setStatus(status WorkerStatus, sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentSessionID = sessionID
	w.lastActivity = time.Now()
}
