// Package lock provides the named, timeout-bounded build locks that keep
// concurrent cache misses for one context from recomputing together.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

var (
	_ types.Locker = (*MemoryLocker)(nil)
	_ types.Locker = (*RedisLocker)(nil)
)

// New builds the locker that pairs with the configured cache: a Redis cache
// shared between processes needs a Redis lock, an in-process cache only
// needs an in-process one.
func New(config types.Config, client *redis.Client, logger *zap.Logger) (types.Locker, error) {
	if config.Cache.Driver != types.CacheRedis {
		return NewMemoryLocker(), nil
	}
	return NewRedisLocker(RedisLockerConfig{
		Client: client,
		Prefix: config.Cache.Prefix,
		Lease:  config.Lock.Lease,
		Retry:  config.Lock.Retry,
		Logger: logger,
	})
}

// MemoryLocker serializes holders of the same key within one process. A
// key's slot lives only while someone holds or waits for it.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// slot is a single-entry channel plus the number of holders and waiters
// using it.
type slot struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker creates an in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]*slot)}
}

func (l *MemoryLocker) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *MemoryLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// Acquire takes the lock for key, waiting at most wait.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, wait time.Duration) (types.Lease, error) {
	s := l.ref(key)
	lease := &memoryLease{locker: l, key: key, slot: s}

	select {
	case s.ch <- struct{}{}:
		return lease, nil
	default:
	}
	if wait <= 0 {
		l.unref(key, s)
		return nil, timeoutError(key)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		return lease, nil
	case <-timer.C:
		l.unref(key, s)
		return nil, timeoutError(key)
	case <-ctx.Done():
		l.unref(key, s)
		return nil, ctx.Err()
	}
}

type memoryLease struct {
	once   sync.Once
	locker *MemoryLocker
	key    string
	slot   *slot
}

func (m *memoryLease) Release(context.Context) error {
	m.once.Do(func() {
		<-m.slot.ch
		m.locker.unref(m.key, m.slot)
	})
	return nil
}

func timeoutError(key string) error {
	return fmt.Errorf("%w: %s", types.ErrLockTimeout, key)
}
