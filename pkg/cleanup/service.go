// Package cleanup provides data retention and cleanup services.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/ygn-labs/ygn-brain/pkg/config"
)

// RetentionStore is the persistence surface the cleanup loop drives.
// *database.Client satisfies it.
type RetentionStore interface {
	SoftDeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service periodically enforces retention policies:
//   - Soft-deletes finished sessions past their retention age
//   - Hard-deletes soft-deleted sessions after a grace period, cascading
//     to evidence, guard checks, memories, and artifact handles
//
// All operations are idempotent and safe to run from multiple replicas.
type Service struct {
	config *config.RetentionConfig
	store  RetentionStore

	cancel context.CancelFunc
	done   chan struct{}
}

// purgeGrace is how long soft-deleted sessions linger before hard
// deletion, leaving a window for operator recovery.
const purgeGrace = 7 * 24 * time.Hour

// NewService creates a new cleanup service.
func NewService(cfg *config.RetentionConfig, store RetentionStore) *Service {
	return &Service{
		config: cfg,
		store:  store,
	}
}

// Start launches the background cleanup loop. No-op when retention is
// disabled or the service is already running.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	if s.config.MaxAgeHours <= 0 {
		slog.Info("Cleanup service disabled, retention age is zero")
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started",
		"max_age_hours", s.config.MaxAgeHours,
		"interval_minutes", s.config.IntervalMinutes)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) interval() time.Duration {
	if s.config.IntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.config.IntervalMinutes) * time.Minute
}

func (s *Service) runAll(ctx context.Context) {
	s.softDeleteOldSessions(ctx)
	s.purgeDeletedSessions(ctx)
}

func (s *Service) softDeleteOldSessions(ctx context.Context) {
	cutoff := time.Now().Add(-time.Duration(s.config.MaxAgeHours) * time.Hour)
	count, err := s.store.SoftDeleteSessionsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: soft-delete sessions failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: soft-deleted old sessions", "count", count)
	}
}

func (s *Service) purgeDeletedSessions(ctx context.Context) {
	count, err := s.store.PurgeDeletedBefore(ctx, time.Now().Add(-purgeGrace))
	if err != nil {
		slog.Error("Retention: purge failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: purged soft-deleted sessions", "count", count)
	}
}
