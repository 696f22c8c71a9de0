package types

import "errors"

// Resolution errors. ErrInvalidArgument is a caller or configuration problem
// and is never retried; ErrLockTimeout is transient.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrLockTimeout     = errors.New("timed out waiting for schema build lock")
)

// Cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrDSNEmpty           = errors.New("postgres backend requires a dsn")
	ErrCacheDriverUnknown = errors.New("unknown cache driver")
	ErrRedisAddrEmpty     = errors.New("redis cache requires an address")
	ErrLockBoundInvalid   = errors.New("lock durations must not be negative")
)

// MsgFieldConfigUnavailable is the upstream message for any failure in this
// layer.
const MsgFieldConfigUnavailable = "could not load field configuration"

// IsRetryable reports whether retrying the whole resolution may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}

// UserMessage maps an engine error to the generic user-facing message,
// distinguishing configuration problems from transient failures.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return MsgFieldConfigUnavailable + " (check the asset type and scope)"
	case errors.Is(err, ErrLockTimeout):
		return MsgFieldConfigUnavailable + " (temporary, please retry)"
	default:
		return MsgFieldConfigUnavailable
	}
}
