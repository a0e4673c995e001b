package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocker(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *redis.Client, Locker) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client, NewRedisSlotLocker(client, ttl)
}

func TestWithSlotLock_RunsAndReleases(t *testing.T) {
	mr, _, locker := setupLocker(t, 5*time.Second)

	ran := false
	err := locker.WithSlotLock(context.Background(), "2026-02-14T15:30", func(ctx context.Context) error {
		ran = true
		assert.True(t, mr.Exists("lock:slot:2026-02-14T15:30"))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists("lock:slot:2026-02-14T15:30"))
}

func TestWithSlotLock_ContendedSlot(t *testing.T) {
	_, _, locker := setupLocker(t, 5*time.Second)

	err := locker.WithSlotLock(context.Background(), "2026-02-14T15:30", func(ctx context.Context) error {
		inner := locker.WithSlotLock(ctx, "2026-02-14T15:30", func(context.Context) error {
			t.Fatal("second holder must not run")
			return nil
		})
		assert.ErrorIs(t, inner, ErrLockNotAcquired)

		// a different slot is independent
		return locker.WithSlotLock(ctx, "2026-02-14T16:00", func(context.Context) error { return nil })
	})
	require.NoError(t, err)
}

func TestWithSlotLock_PropagatesCallbackError(t *testing.T) {
	mr, _, locker := setupLocker(t, 5*time.Second)
	boom := errors.New("boom")

	err := locker.WithSlotLock(context.Background(), "2026-02-14T09:00", func(context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:slot:2026-02-14T09:00"))
}

func TestWithSlotLock_DoesNotReleaseForeignToken(t *testing.T) {
	mr, client, locker := setupLocker(t, 5*time.Second)

	err := locker.WithSlotLock(context.Background(), "2026-02-14T10:00", func(ctx context.Context) error {
		// simulate expiry and takeover by another holder
		require.NoError(t, client.Set(ctx, "lock:slot:2026-02-14T10:00", "other-holder", time.Minute).Err())
		return nil
	})
	require.NoError(t, err)

	val, err := mr.Get("lock:slot:2026-02-14T10:00")
	require.NoError(t, err)
	assert.Equal(t, "other-holder", val)
}

func TestWithSlotLock_RedisDown(t *testing.T) {
	mr, _, locker := setupLocker(t, time.Second)
	mr.Close()

	err := locker.WithSlotLock(context.Background(), "2026-02-14T11:00", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.NotErrorIs(t, err, ErrLockNotAcquired)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	assert.Equal(t, 10, rdb.Options().PoolSize)
	assert.NoError(t, Ping(context.Background(), rdb))

	mr.Close()
	assert.Error(t, Ping(context.Background(), rdb))
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), Options{Addr: addr})
	assert.Error(t, err)
}
