package lottery

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Lock strategy:
// - acquire with SET NX (single round trip)
// - release with a Lua script so only the owner can delete the key
const releaseLockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// DistributedLockManager guards ingestion runs that may overlap across processes
type DistributedLockManager struct {
	redisClient   *redis.Client
	lockTimeout   time.Duration
	retryInterval time.Duration
	expiration    time.Duration
}

// NewLockManager creates a new distributed lock manager
func NewLockManager(redisClient *redis.Client, lockTimeout, retryInterval time.Duration) *DistributedLockManager {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	return &DistributedLockManager{
		redisClient:   redisClient,
		lockTimeout:   lockTimeout,
		retryInterval: retryInterval,
		expiration:    DefaultLockExpiration,
	}
}

// WithExpiration sets how long an acquired lock lives before Redis drops it.
// It must outlast the longest run it guards; non-positive values keep the current expiry.
func (m *DistributedLockManager) WithExpiration(expiration time.Duration) *DistributedLockManager {
	if expiration > 0 {
		m.expiration = expiration
	}
	return m
}

// Expiration returns the TTL set on acquired locks
func (m *DistributedLockManager) Expiration() time.Duration { return m.expiration }

// Lock is a held distributed lock
type Lock struct {
	manager *DistributedLockManager
	key     string
	value   string
}

// Key returns the full Redis key of the lock
func (l *Lock) Key() string { return l.key }

// TryAcquire makes a single SET NX attempt; a nil lock with nil error means it is held elsewhere
func (m *DistributedLockManager) TryAcquire(ctx context.Context, name string) (*Lock, error) {
	if name == "" {
		return nil, ErrInvalidParameters.WithDetails("empty lock name")
	}

	lock := &Lock{manager: m, key: LockKeyPrefix + name, value: uuid.NewString()}
	acquired, err := m.redisClient.SetNX(ctx, lock.key, lock.value, m.expiration).Result()
	if err != nil {
		return nil, ErrLockAcquisitionFailed.WithCause(err)
	}
	if !acquired {
		return nil, nil
	}
	return lock, nil
}

// Acquire retries TryAcquire until the lock is obtained or the lock timeout elapses
func (m *DistributedLockManager) Acquire(ctx context.Context, name string) (*Lock, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, m.lockTimeout)
	defer cancel()

	for {
		lock, err := m.TryAcquire(timeoutCtx, name)
		if err != nil && timeoutCtx.Err() == nil {
			return nil, err
		}
		if lock != nil {
			return lock, nil
		}

		select {
		case <-timeoutCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrLockTimeout.WithDetails(name)
		case <-time.After(m.retryInterval):
		}
	}
}

// Release deletes the lock if this holder still owns it; false means it had already expired or moved
func (l *Lock) Release(ctx context.Context) (bool, error) {
	result, err := l.manager.redisClient.Eval(ctx, releaseLockScript, []string{l.key}, l.value).Int64()
	if err != nil {
		return false, ErrLockReleaseFailure.WithCause(err)
	}
	return result == 1, nil
}
