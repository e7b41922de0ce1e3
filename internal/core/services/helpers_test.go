package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/adapters/storage/memory"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
)

var errStoreDown = errors.New("connection refused")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// failingStorage delegates to an in-memory store and fails the operations
// listed in failOn.
type failingStorage struct {
	*memory.Storage
	failOn map[string]bool
	calls  map[string]int
}

func newFailingStorage(ops ...string) *failingStorage {
	s := &failingStorage{Storage: memory.New(), failOn: make(map[string]bool), calls: make(map[string]int)}
	for _, op := range ops {
		s.failOn[op] = true
	}
	return s
}

func (s *failingStorage) check(op string) error {
	s.calls[op]++
	if s.failOn[op] {
		return errStoreDown
	}
	return nil
}

func (s *failingStorage) IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if err := s.check("incr"); err != nil {
		return 0, err
	}
	return s.Storage.IncrementWithExpiry(ctx, key, ttl)
}

func (s *failingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.check("get"); err != nil {
		return "", false, err
	}
	return s.Storage.Get(ctx, key)
}

func (s *failingStorage) ListLength(ctx context.Context, key string) (int64, error) {
	if err := s.check("llen"); err != nil {
		return 0, err
	}
	return s.Storage.ListLength(ctx, key)
}

func (s *failingStorage) ListIndex(ctx context.Context, key string, index int64) (string, bool, error) {
	if err := s.check("lindex"); err != nil {
		return "", false, err
	}
	return s.Storage.ListIndex(ctx, key, index)
}

func (s *failingStorage) ListPush(ctx context.Context, key, value string) (int64, error) {
	if err := s.check("rpush"); err != nil {
		return 0, err
	}
	return s.Storage.ListPush(ctx, key, value)
}

func (s *failingStorage) ListTrim(ctx context.Context, key string, keepLast int64) error {
	if err := s.check("ltrim"); err != nil {
		return err
	}
	return s.Storage.ListTrim(ctx, key, keepLast)
}

func (s *failingStorage) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.check("expire"); err != nil {
		return err
	}
	return s.Storage.Expire(ctx, key, ttl)
}

type recordingRecorder struct {
	mu        sync.Mutex
	decisions []domain.Decision
}

func (r *recordingRecorder) RecordDecision(decision domain.Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, decision)
}

func (r *recordingRecorder) outcomes() []domain.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Outcome, 0, len(r.decisions))
	for _, d := range r.decisions {
		result = append(result, d.Outcome)
	}
	return result
}
