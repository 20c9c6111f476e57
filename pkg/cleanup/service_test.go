package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ygn-labs/ygn-brain/pkg/config"
)

type fakeStore struct {
	mu sync.Mutex

	softDeleteCutoffs []time.Time
	purgeCutoffs      []time.Time
	softDeleted       int64
	purged            int64
	err               error
}

func (f *fakeStore) SoftDeleteSessionsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.softDeleteCutoffs = append(f.softDeleteCutoffs, cutoff)
	return f.softDeleted, f.err
}

func (f *fakeStore) PurgeDeletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purgeCutoffs = append(f.purgeCutoffs, cutoff)
	return f.purged, f.err
}

func (f *fakeStore) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.softDeleteCutoffs), len(f.purgeCutoffs)
}

func TestRunAll_UsesRetentionCutoff(t *testing.T) {
	store := &fakeStore{softDeleted: 3, purged: 1}
	cfg := &config.RetentionConfig{MaxAgeHours: 24, IntervalMinutes: 60}

	NewService(cfg, store).runAll(context.Background())

	softCalls, purgeCalls := store.calls()
	require.Equal(t, 1, softCalls)
	require.Equal(t, 1, purgeCalls)

	wantSoft := time.Now().Add(-24 * time.Hour)
	assert.WithinDuration(t, wantSoft, store.softDeleteCutoffs[0], time.Minute)

	wantPurge := time.Now().Add(-purgeGrace)
	assert.WithinDuration(t, wantPurge, store.purgeCutoffs[0], time.Minute)
}

func TestRunAll_StoreErrorsDoNotAbort(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset")}
	cfg := &config.RetentionConfig{MaxAgeHours: 24, IntervalMinutes: 60}

	// Both passes still run despite errors.
	NewService(cfg, store).runAll(context.Background())

	softCalls, purgeCalls := store.calls()
	assert.Equal(t, 1, softCalls)
	assert.Equal(t, 1, purgeCalls)
}

func TestStartStop(t *testing.T) {
	store := &fakeStore{}
	cfg := &config.RetentionConfig{MaxAgeHours: 24, IntervalMinutes: 60}
	svc := NewService(cfg, store)

	svc.Start(context.Background())
	// Second start is a no-op.
	svc.Start(context.Background())

	require.Eventually(t, func() bool {
		softCalls, _ := store.calls()
		return softCalls >= 1
	}, time.Second, 10*time.Millisecond)

	svc.Stop()
	// Stop after stop is safe.
	svc.Stop()
}

func TestStart_DisabledWhenRetentionZero(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(&config.RetentionConfig{MaxAgeHours: 0}, store)

	svc.Start(context.Background())
	svc.Stop()

	softCalls, _ := store.calls()
	assert.Zero(t, softCalls)
}

func TestInterval_Default(t *testing.T) {
	svc := NewService(&config.RetentionConfig{MaxAgeHours: 1}, &fakeStore{})
	assert.Equal(t, time.Hour, svc.interval())

	svc = NewService(&config.RetentionConfig{MaxAgeHours: 1, IntervalMinutes: 15}, &fakeStore{})
	assert.Equal(t, 15*time.Minute, svc.interval())
}
