package types

import (
	"context"
	"time"
)

// Cache stores resolved schemas. Entries never expire on their own; they are
// removed only by Forget or Flush.
type Cache interface {
	// Get returns the value for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Has reports whether key is present.
	Has(ctx context.Context, key string) (bool, error)

	// PutForever stores value under key with no expiry.
	PutForever(ctx context.Context, key string, value []byte) error

	// Forget removes key. Removing a missing key is not an error.
	Forget(ctx context.Context, key string) error

	// Flush removes every entry owned by this cache. Keys under
	// LockNamespace are build leases, not entries, and survive.
	Flush(ctx context.Context) error
}

// LockNamespace prefixes build lock keys. A cache and a locker sharing one
// key prefix keep leases apart from entries with it.
const LockNamespace = "lock:"

// Locker hands out named mutual-exclusion leases.
type Locker interface {
	// Acquire blocks until the lease for key is held, wait elapses, or ctx
	// is done. It returns ErrLockTimeout when wait elapses and ctx.Err()
	// when ctx is done first.
	Acquire(ctx context.Context, key string, wait time.Duration) (Lease, error)
}

// Lease is a held lock.
type Lease interface {
	// Release gives the lock back. Releasing twice is a no-op.
	Release(ctx context.Context) error
}
