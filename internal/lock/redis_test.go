package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

func setupRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	l, err := NewRedisLocker(RedisLockerConfig{
		Client: client,
		Prefix: "metaschema:",
		Lease:  time.Minute,
		Retry:  5 * time.Millisecond,
	})
	require.NoError(t, err)
	return l, mr
}

func TestNewRedisLocker_Validation(t *testing.T) {
	_, err := NewRedisLocker(RedisLockerConfig{Lease: time.Second, Retry: time.Millisecond})
	assert.Error(t, err)

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	_, err = NewRedisLocker(RedisLockerConfig{Client: client, Retry: time.Millisecond})
	assert.Error(t, err)

	_, err = NewRedisLocker(RedisLockerConfig{Client: client, Lease: time.Second})
	assert.Error(t, err)
}

func TestRedisLocker_AcquireSetsLease(t *testing.T) {
	l, mr := setupRedisLocker(t)
	ctx := context.Background()

	lease, err := l.Acquire(ctx, "lock:schema:1:-:-:image", time.Second)
	require.NoError(t, err)

	assert.True(t, mr.Exists("metaschema:lock:schema:1:-:-:image"))
	assert.Equal(t, time.Minute, mr.TTL("metaschema:lock:schema:1:-:-:image"))

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists("metaschema:lock:schema:1:-:-:image"))
}

func TestRedisLocker_Timeout(t *testing.T) {
	l, _ := setupRedisLocker(t)
	ctx := context.Background()

	held, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	defer held.Release(ctx)

	_, err = l.Acquire(ctx, "k", 30*time.Millisecond)
	assert.ErrorIs(t, err, types.ErrLockTimeout)
}

func TestRedisLocker_WaitsForRelease(t *testing.T) {
	l, _ := setupRedisLocker(t)
	ctx := context.Background()

	held, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = held.Release(ctx)
	}()

	next, err := l.Acquire(ctx, "k", 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, next.Release(ctx))
}

func TestRedisLocker_ExpiredLeaseDoesNotReleaseSuccessor(t *testing.T) {
	l, mr := setupRedisLocker(t)
	ctx := context.Background()

	first, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	second, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err, "expired lease frees the key")

	require.NoError(t, first.Release(ctx))
	assert.True(t, mr.Exists("metaschema:k"), "stale holder must not delete the new lease")

	require.NoError(t, second.Release(ctx))
	assert.False(t, mr.Exists("metaschema:k"))
}

func TestRedisLocker_ContextCancel(t *testing.T) {
	l, _ := setupRedisLocker(t)

	held, err := l.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	defer held.Release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "k", 10*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
