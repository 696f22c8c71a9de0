package lock

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// releaseScript deletes the lock only if the caller still owns it, so a
// holder whose lease expired cannot release its successor's lock.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker hands out leases stored in Redis, shared by every process
// that talks to the same server. A lease expires after its TTL so a crashed
// holder cannot block a key forever.
type RedisLocker struct {
	client *redis.Client
	prefix string
	lease  time.Duration
	retry  time.Duration
	logger *zap.Logger
}

// RedisLockerConfig holds configuration for the Redis locker.
type RedisLockerConfig struct {
	// Client is the Redis client to use.
	Client *redis.Client
	// Prefix is prepended to every lock key.
	Prefix string
	// Lease is the TTL of a held lock.
	Lease time.Duration
	// Retry is the polling interval while the lock is held elsewhere.
	Retry time.Duration
	// Logger receives acquire and release events. Nil disables logging.
	Logger *zap.Logger
}

// NewRedisLocker creates a Redis locker.
func NewRedisLocker(config RedisLockerConfig) (*RedisLocker, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.Lease <= 0 {
		return nil, errors.New("lease must be greater than 0")
	}
	if config.Retry <= 0 {
		return nil, errors.New("retry interval must be greater than 0")
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client: config.Client,
		prefix: config.Prefix,
		lease:  config.Lease,
		retry:  config.Retry,
		logger: logger.Named("lock"),
	}, nil
}

// Acquire polls SET NX until the lease is taken, wait elapses, or ctx is
// done.
func (r *RedisLocker) Acquire(ctx context.Context, key string, wait time.Duration) (types.Lease, error) {
	redisKey := r.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.lease).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			r.logger.Debug("lock acquired", zap.String("key", key))
			return &redisLease{locker: r, key: redisKey, token: token}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, timeoutError(key)
		}
		pause := r.retry
		if pause > remaining {
			pause = remaining
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

type redisLease struct {
	locker   *RedisLocker
	key      string
	token    string
	released atomic.Bool
}

func (l *redisLease) Release(ctx context.Context) error {
	if !l.released.CompareAndSwap(false, true) {
		return nil
	}
	n, err := releaseScript.Run(ctx, l.locker.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("redis unlock %s: %w", l.key, err)
	}
	if n == 0 {
		l.locker.logger.Debug("lease expired before release", zap.String("key", l.key))
	}
	return nil
}
