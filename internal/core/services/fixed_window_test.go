package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/adapters/storage/memory"
	redisstorage "github.com/AmirSarvestani/API-Rate-Limiter/internal/adapters/storage/redis"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
)

type FixedWindowLimiterTestSuite struct {
	suite.Suite
	clock   *fakeClock
	storage *memory.Storage
	limiter *FixedWindowLimiter
	rule    domain.RateLimitRule
	key     domain.ClientKey
}

func TestFixedWindowLimiter(t *testing.T) {
	suite.Run(t, new(FixedWindowLimiterTestSuite))
}

func (ts *FixedWindowLimiterTestSuite) SetupTest() {
	ts.clock = newFakeClock()
	ts.storage = memory.New(memory.WithClock(ts.clock.Now))

	var err error
	ts.limiter, err = NewFixedWindowLimiter(ts.storage)
	ts.Require().NoError(err)

	ts.rule, err = domain.NewRateLimitRule("users", time.Hour, 3)
	ts.Require().NoError(err)
	ts.key = domain.ClientKey{Endpoint: "users", Client: "10.0.0.1"}
}

func (ts *FixedWindowLimiterTestSuite) TestFirstRequestCreatesCounterWithExpiry() {
	ctx := context.Background()

	decision, err := ts.limiter.Decide(ctx, ts.key, ts.rule)
	ts.Require().NoError(err)
	ts.True(decision.Allowed)
	ts.Equal(domain.OutcomeAdmitted, decision.Outcome)
	ts.EqualValues(1, decision.Count)

	ttl, found, err := ts.storage.TTL(ctx, ts.key.StorageKey(domain.StrategyFixedWindow))
	ts.Require().NoError(err)
	ts.True(found)
	ts.Equal(time.Hour, ttl)
}

func (ts *FixedWindowLimiterTestSuite) TestRejectsAfterLimit() {
	ctx := context.Background()

	for i := 0; i < ts.rule.Limit; i++ {
		decision, err := ts.limiter.Decide(ctx, ts.key, ts.rule)
		ts.Require().NoError(err, "request %d", i+1)
		ts.True(decision.Allowed)
	}

	decision, err := ts.limiter.Decide(ctx, ts.key, ts.rule)
	ts.True(domain.IsRateExceeded(err))
	ts.False(decision.Allowed)
	ts.Equal(domain.OutcomeRejected, decision.Outcome)
	ts.EqualValues(ts.rule.Limit+1, decision.Count)

	// Rejected requests still increment the counter.
	decision, err = ts.limiter.Decide(ctx, ts.key, ts.rule)
	ts.True(domain.IsRateExceeded(err))
	ts.EqualValues(ts.rule.Limit+2, decision.Count)
}

func (ts *FixedWindowLimiterTestSuite) TestExpiryDoesNotMoveWithinWindow() {
	ctx := context.Background()

	_, err := ts.limiter.Decide(ctx, ts.key, ts.rule)
	ts.Require().NoError(err)
	ts.clock.Advance(20 * time.Minute)
	_, err = ts.limiter.Decide(ctx, ts.key, ts.rule)
	ts.Require().NoError(err)

	ttl, _, err := ts.storage.TTL(ctx, ts.key.StorageKey(domain.StrategyFixedWindow))
	ts.Require().NoError(err)
	ts.Equal(40*time.Minute, ttl)
}

func (ts *FixedWindowLimiterTestSuite) TestCounterResetsAfterWindow() {
	ctx := context.Background()

	for i := 0; i <= ts.rule.Limit; i++ {
		_, _ = ts.limiter.Decide(ctx, ts.key, ts.rule)
	}
	_, err := ts.limiter.Decide(ctx, ts.key, ts.rule)
	ts.Require().True(domain.IsRateExceeded(err))

	ts.clock.Advance(time.Hour)

	decision, err := ts.limiter.Decide(ctx, ts.key, ts.rule)
	ts.Require().NoError(err)
	ts.True(decision.Allowed)
	ts.EqualValues(1, decision.Count)
}

func (ts *FixedWindowLimiterTestSuite) TestClientsAreIsolated() {
	ctx := context.Background()

	for i := 0; i <= ts.rule.Limit; i++ {
		_, _ = ts.limiter.Decide(ctx, ts.key, ts.rule)
	}

	other := domain.ClientKey{Endpoint: "users", Client: "10.0.0.2"}
	decision, err := ts.limiter.Decide(ctx, other, ts.rule)
	ts.Require().NoError(err)
	ts.True(decision.Allowed)
	ts.EqualValues(1, decision.Count)
}

func (ts *FixedWindowLimiterTestSuite) TestStoreFailureIsNotAdmission() {
	limiter, err := NewFixedWindowLimiter(newFailingStorage("incr"))
	ts.Require().NoError(err)

	decision, err := limiter.Decide(context.Background(), ts.key, ts.rule)
	ts.Require().Error(err)
	ts.True(domain.IsStoreFailure(err))
	ts.ErrorIs(err, errStoreDown)
	ts.False(decision.Allowed)
	ts.Equal(domain.OutcomeStoreError, decision.Outcome)
}

func (ts *FixedWindowLimiterTestSuite) TestRequiresStorage() {
	_, err := NewFixedWindowLimiter(nil)
	ts.Error(err)
}

func TestFixedWindowLimiter_ConcurrentRequestsOnRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	storage, err := redisstorage.New(redisstorage.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	limiter, err := NewFixedWindowLimiter(storage)
	require.NoError(t, err)
	rule, err := domain.NewRateLimitRule("users", time.Hour, 10)
	require.NoError(t, err)
	key := domain.ClientKey{Endpoint: "users", Client: "10.0.0.1"}

	var admitted, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := limiter.Decide(context.Background(), key, rule)
			switch {
			case err == nil && decision.Allowed:
				admitted.Add(1)
			case domain.IsRateExceeded(err):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, admitted.Load())
	assert.EqualValues(t, 50, rejected.Load())

	counter, err := mr.Get(key.StorageKey(domain.StrategyFixedWindow))
	require.NoError(t, err)
	assert.Equal(t, "60", counter)
	assert.Equal(t, time.Hour, mr.TTL(key.StorageKey(domain.StrategyFixedWindow)))
}
