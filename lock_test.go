package lottery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributedLockManager_TryAcquire(t *testing.T) {
	ctx := context.Background()
	key := LockKeyPrefix + "ingest:powerball"

	t.Run("acquired", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		lm := NewLockManager(db, time.Second, 10*time.Millisecond)

		mock.Regexp().ExpectSetNX(key, ".+", DefaultLockExpiration).SetVal(true)

		lock, err := lm.TryAcquire(ctx, "ingest:powerball")
		require.NoError(t, err)
		require.NotNil(t, lock)
		assert.Equal(t, key, lock.Key())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("held elsewhere", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		lm := NewLockManager(db, time.Second, 10*time.Millisecond)

		mock.Regexp().ExpectSetNX(key, ".+", DefaultLockExpiration).SetVal(false)

		lock, err := lm.TryAcquire(ctx, "ingest:powerball")
		require.NoError(t, err)
		assert.Nil(t, lock)
	})

	t.Run("redis error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		lm := NewLockManager(db, time.Second, 10*time.Millisecond)

		mock.Regexp().ExpectSetNX(key, ".+", DefaultLockExpiration).SetErr(errors.New("connection refused"))

		_, err := lm.TryAcquire(ctx, "ingest:powerball")
		assert.ErrorIs(t, err, ErrLockAcquisitionFailed)
	})

	t.Run("empty name", func(t *testing.T) {
		db, _ := redismock.NewClientMock()
		lm := NewLockManager(db, time.Second, 10*time.Millisecond)

		_, err := lm.TryAcquire(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidParameters)
	})
}

func TestDistributedLockManager_WithExpiration(t *testing.T) {
	ctx := context.Background()
	key := LockKeyPrefix + "ingest:powerball"
	db, mock := redismock.NewClientMock()

	lm := NewLockManager(db, time.Second, 10*time.Millisecond).WithExpiration(10 * time.Minute)
	assert.Equal(t, 10*time.Minute, lm.Expiration())

	mock.Regexp().ExpectSetNX(key, ".+", 10*time.Minute).SetVal(true)

	lock, err := lm.TryAcquire(ctx, "ingest:powerball")
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.NoError(t, mock.ExpectationsWereMet())

	// 非正数保持原值
	assert.Equal(t, 10*time.Minute, lm.WithExpiration(0).Expiration())
	assert.Equal(t, DefaultLockExpiration, NewLockManager(db, time.Second, 0).Expiration())
}

func TestDistributedLockManager_AcquireRetries(t *testing.T) {
	ctx := context.Background()
	key := LockKeyPrefix + "ingest:powerball"
	db, mock := redismock.NewClientMock()
	lm := NewLockManager(db, time.Second, 5*time.Millisecond)

	mock.Regexp().ExpectSetNX(key, ".+", DefaultLockExpiration).SetVal(false)
	mock.Regexp().ExpectSetNX(key, ".+", DefaultLockExpiration).SetVal(true)

	lock, err := lm.Acquire(ctx, "ingest:powerball")
	require.NoError(t, err)
	require.NotNil(t, lock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistributedLockManager_AcquireTimeout(t *testing.T) {
	ctx := context.Background()
	key := LockKeyPrefix + "ingest:powerball"
	db, mock := redismock.NewClientMock()

	lm := NewLockManager(db, 50*time.Millisecond, 20*time.Millisecond)
	for i := 0; i < 10; i++ {
		mock.Regexp().ExpectSetNX(key, ".+", DefaultLockExpiration).SetVal(false)
	}

	_, err := lm.Acquire(ctx, "ingest:powerball")
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestLock_Release(t *testing.T) {
	ctx := context.Background()
	key := LockKeyPrefix + "ingest:powerball"

	t.Run("owner releases", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		lock := &Lock{manager: NewLockManager(db, time.Second, 0), key: key, value: "owner-1"}

		mock.ExpectEval(releaseLockScript, []string{key}, "owner-1").SetVal(int64(1))

		released, err := lock.Release(ctx)
		require.NoError(t, err)
		assert.True(t, released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already expired", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		lock := &Lock{manager: NewLockManager(db, time.Second, 0), key: key, value: "owner-1"}

		mock.ExpectEval(releaseLockScript, []string{key}, "owner-1").SetVal(int64(0))

		released, err := lock.Release(ctx)
		require.NoError(t, err)
		assert.False(t, released)
	})

	t.Run("redis error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		lock := &Lock{manager: NewLockManager(db, time.Second, 0), key: key, value: "owner-1"}

		mock.ExpectEval(releaseLockScript, []string{key}, "owner-1").SetErr(errors.New("broken pipe"))

		_, err := lock.Release(ctx)
		assert.ErrorIs(t, err, ErrLockReleaseFailure)
	})
}
