package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const slotKeyPrefix = "lock:slot:"

var (
	// ErrLockNotAcquired means another booking currently holds the slot.
	ErrLockNotAcquired = errors.New("slot lock not acquired")
	// ErrLockUnavailable means Redis could not be asked for the lock at all.
	ErrLockUnavailable = errors.New("slot lock unavailable")
)

// Locker serializes bookings that target the same date and time, so the
// conflict scan and the write happen as one step per slot.
type Locker interface {
	WithSlotLock(ctx context.Context, slotKey string, fn func(ctx context.Context) error) error
}

// compare-and-delete: only the holder's token may free the key
var releaseSlot = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

type SlotLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSlotLocker returns a Locker backed by one SET NX key per slot.
// The key expires after ttl even if the holder never releases it.
func NewRedisSlotLocker(rdb *redis.Client, ttl time.Duration) *SlotLocker {
	return &SlotLocker{rdb: rdb, ttl: ttl}
}

// WithSlotLock runs fn while holding the slot. fn gets a context bounded by
// the lock TTL so work cannot outlive the key.
func (l *SlotLocker) WithSlotLock(ctx context.Context, slotKey string, fn func(ctx context.Context) error) error {
	key := slotKeyPrefix + slotKey
	holder := uuid.NewString()

	acquired, err := l.rdb.SetNX(ctx, key, holder, l.ttl).Result()
	switch {
	case err != nil:
		return fmt.Errorf("lock %s: %w: %w", slotKey, ErrLockUnavailable, err)
	case !acquired:
		return ErrLockNotAcquired
	}
	defer l.release(ctx, key, holder)

	held, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()
	return fn(held)
}

// release survives cancellation of the request context; a key it fails to
// delete still expires on its own.
func (l *SlotLocker) release(ctx context.Context, key, holder string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	_ = releaseSlot.Run(releaseCtx, l.rdb, []string{key}, holder).Err()
}
