package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	storage, err := New(Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage, mr
}

func TestNew_RequiresAddress(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNew_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(Config{Addr: addr, DialTimeout: 100 * time.Millisecond})
	assert.Error(t, err)
}

func TestStorage_IncrementWithExpiry(t *testing.T) {
	storage, mr := newTestStorage(t)
	ctx := context.Background()

	count, err := storage.IncrementWithExpiry(ctx, "users/10.0.0.1", time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, time.Hour, mr.TTL("users/10.0.0.1"))

	mr.FastForward(10 * time.Minute)
	count, err = storage.IncrementWithExpiry(ctx, "users/10.0.0.1", time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, 50*time.Minute, mr.TTL("users/10.0.0.1"))

	mr.FastForward(50 * time.Minute)
	count, err = storage.IncrementWithExpiry(ctx, "users/10.0.0.1", time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestStorage_GetSetTTL(t *testing.T) {
	storage, mr := newTestStorage(t)
	ctx := context.Background()

	_, found, err := storage.Get(ctx, "override:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, storage.SetWithExpiry(ctx, "override:10.0.0.1", "300", time.Hour))

	value, found, err := storage.Get(ctx, "override:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "300", value)

	ttl, found, err := storage.TTL(ctx, "override:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, time.Hour, ttl)

	_, found, err = storage.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	mr.FastForward(time.Hour)
	_, found, err = storage.Get(ctx, "override:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStorage_ListOperations(t *testing.T) {
	storage, mr := newTestStorage(t)
	ctx := context.Background()
	key := "ratelimit:sliding-log:/api/10.0.0.1"

	for _, ts := range []string{"1000", "2000", "3000"} {
		_, err := storage.ListPush(ctx, key, ts)
		require.NoError(t, err)
	}

	length, err := storage.ListLength(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 3, length)

	require.NoError(t, storage.ListTrim(ctx, key, 2))
	values, err := mr.List(key)
	require.NoError(t, err)
	assert.Equal(t, []string{"2000", "3000"}, values)

	oldest, found, err := storage.ListIndex(ctx, key, 0)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2000", oldest)

	_, found, err = storage.ListIndex(ctx, "missing", 0)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, storage.Expire(ctx, key, time.Hour))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestStorage_ErrorsAreReturned(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	storage := NewFromClient(client)
	t.Cleanup(func() { _ = storage.Close() })

	mr.SetError("ERR store unavailable")
	ctx := context.Background()

	_, err := storage.IncrementWithExpiry(ctx, "k", time.Minute)
	assert.Error(t, err)
	_, _, err = storage.Get(ctx, "k")
	assert.Error(t, err)
	_, err = storage.ListLength(ctx, "k")
	assert.Error(t, err)
	_, _, err = storage.ListIndex(ctx, "k", 0)
	assert.Error(t, err)
}
