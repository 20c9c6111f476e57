package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ygn-labs/ygn-brain/pkg/config"
)

// DefaultTaskTimeout bounds a single orchestration run.
const DefaultTaskTimeout = 5 * time.Minute

// WorkerPool manages a pool of queue workers over a bounded channel.
type WorkerPool struct {
	config     *config.QueueConfig
	executor   TaskExecutor
	onComplete CompletionFunc
	timeout    time.Duration

	tasks   chan Task
	workers []*Worker

	// Session cancel registry: session_id -> cancel function
	activeSessions map[string]context.CancelFunc
	mu             sync.RWMutex
	started        bool
	stopped        bool
}

// PoolOption configures optional pool behavior.
type PoolOption func(*WorkerPool)

// WithCompletionFunc registers a callback invoked after each task
// reaches a terminal state.
func WithCompletionFunc(fn CompletionFunc) PoolOption {
	return func(p *WorkerPool) { p.onComplete = fn }
}

// WithTaskTimeout overrides the per-task execution deadline.
func WithTaskTimeout(d time.Duration) PoolOption {
	return func(p *WorkerPool) { p.timeout = d }
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(cfg *config.QueueConfig, executor TaskExecutor, opts ...PoolOption) *WorkerPool {
	p := &WorkerPool{
		config:         cfg,
		executor:       executor,
		timeout:        DefaultTaskTimeout,
		tasks:          make(chan Task, cfg.QueueSize),
		workers:        make([]*Worker, 0, cfg.MaxWorkers),
		activeSessions: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start spawns worker goroutines. It is safe to call multiple times;
// subsequent calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		slog.Warn("Worker pool already started, ignoring duplicate Start call")
		return
	}
	p.started = true

	slog.Info("Starting worker pool",
		"worker_count", p.config.MaxWorkers,
		"queue_size", p.config.QueueSize)

	for i := 0; i < p.config.MaxWorkers; i++ {
		worker := newWorker(fmt.Sprintf("worker-%d", i), p)
		p.workers = append(p.workers, worker)
		worker.Start(ctx)
	}
}

// Stop drains the pool gracefully: submissions are rejected immediately,
// queued and in-flight tasks run to completion.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped || !p.started {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	active := p.activeSessionIDs()
	p.mu.Unlock()

	if len(active) > 0 {
		slog.Info("Waiting for active sessions to complete",
			"count", len(active),
			"session_ids", active)
	}

	close(p.tasks)
	for _, worker := range p.workers {
		worker.Wait()
	}
	slog.Info("Worker pool stopped gracefully")
}

// Submit enqueues a task. Returns ErrQueueFull when the buffer is at
// capacity and ErrPoolStopped after Stop.
func (p *WorkerPool) Submit(task Task) error {
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}

	// The lock is held across the send so Stop cannot close the channel
	// between the stopped check and the enqueue.
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// RegisterSession stores a cancel function for manual cancellation.
func (p *WorkerPool) RegisterSession(sessionID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activeSessions[sessionID] = cancel
}

// UnregisterSession removes the cancel function when processing ends.
func (p *WorkerPool) UnregisterSession(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.activeSessions, sessionID)
}

// CancelSession triggers context cancellation for an in-flight session.
// Returns true if the session was found and cancelled.
func (p *WorkerPool) CancelSession(sessionID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if cancel, ok := p.activeSessions[sessionID]; ok {
		cancel()
		return true
	}
	return false
}

// Health returns the current health status of the pool.
func (p *WorkerPool) Health() *PoolHealth {
	p.mu.RLock()
	activeSessions := len(p.activeSessions)
	p.mu.RUnlock()

	workerStats := make([]WorkerHealth, len(p.workers))
	activeWorkers := 0
	for i, worker := range p.workers {
		stats := worker.Health()
		workerStats[i] = stats
		if stats.Status == string(WorkerStatusWorking) {
			activeWorkers++
		}
	}

	return &PoolHealth{
		IsHealthy:      len(p.workers) > 0,
		ActiveWorkers:  activeWorkers,
		TotalWorkers:   len(p.workers),
		ActiveSessions: activeSessions,
		QueueDepth:     len(p.tasks),
		WorkerStats:    workerStats,
	}
}

// activeSessionIDs returns IDs of currently processing sessions.
// Caller must hold at least a read lock.
func (p *WorkerPool) activeSessionIDs() []string {
	sessions := make([]string, 0, len(p.activeSessions))
	for id := range p.activeSessions {
		sessions = append(sessions, id)
	}
	return sessions
}
