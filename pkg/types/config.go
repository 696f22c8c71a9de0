package types

import "time"

// Config holds backend selection and engine parameters for metaschema.Open.
type Config struct {
	Backend string      `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir string      `json:"data_dir" yaml:"data_dir,omitempty" mapstructure:"data_dir"`
	DSN     string      `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
	Cache   CacheConfig `json:"cache" yaml:"cache" mapstructure:"cache"`
	Redis   RedisConfig `json:"redis" yaml:"redis,omitempty" mapstructure:"redis"`
	Lock    LockConfig  `json:"lock" yaml:"lock" mapstructure:"lock"`
}

// CacheConfig selects the schema cache backend.
type CacheConfig struct {
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
}

// RedisConfig addresses the Redis server shared by the Redis cache and lock.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr,omitempty" mapstructure:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `json:"db" yaml:"db,omitempty" mapstructure:"db"`
}

// LockConfig bounds the cache-population lock.
type LockConfig struct {
	// Wait is how long a resolution waits for another resolver's build
	// lock before failing with ErrLockTimeout.
	Wait time.Duration `json:"wait" yaml:"wait" mapstructure:"wait"`
	// Lease is the Redis lease TTL. A holder that dies releases after Lease.
	Lease time.Duration `json:"lease" yaml:"lease" mapstructure:"lease"`
	// Retry is the Redis polling interval while waiting.
	Retry time.Duration `json:"retry" yaml:"retry" mapstructure:"retry"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Supported cache drivers.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Defaults applied by WithDefaults.
const (
	DefaultCachePrefix = "metaschema:"
	DefaultLockWait    = 30 * time.Second
	DefaultLockLease   = 60 * time.Second
	DefaultLockRetry   = 50 * time.Millisecond
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
}

// knownCacheDrivers lists the cache drivers that Validate accepts.
var knownCacheDrivers = map[string]bool{
	CacheMemory: true,
	CacheRedis:  true,
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheMemory
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = DefaultCachePrefix
	}
	if c.Lock.Wait == 0 {
		c.Lock.Wait = DefaultLockWait
	}
	if c.Lock.Lease == 0 {
		c.Lock.Lease = DefaultLockLease
	}
	if c.Lock.Retry == 0 {
		c.Lock.Retry = DefaultLockRetry
	}
	return c
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendPostgres && c.DSN == "" {
		return ErrDSNEmpty
	}
	return c.ValidateEngine()
}

// ValidateEngine checks the cache and lock settings alone. Engines built
// over a caller-supplied catalog have no backend to check.
func (c Config) ValidateEngine() error {
	if c.Cache.Driver != "" && !knownCacheDrivers[c.Cache.Driver] {
		return ErrCacheDriverUnknown
	}
	if c.Cache.Driver == CacheRedis && c.Redis.Addr == "" {
		return ErrRedisAddrEmpty
	}
	if c.Lock.Wait < 0 || c.Lock.Lease < 0 || c.Lock.Retry < 0 {
		return ErrLockBoundInvalid
	}
	return nil
}
