package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// MemoryCache is an in-process cache. Entries live until forgotten.
type MemoryCache struct {
	data   sync.Map
	prefix string
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache(prefix string) *MemoryCache {
	return &MemoryCache{prefix: prefix}
}

// Get retrieves a value from the cache.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, ok := m.data.Load(m.prefix + key)
	if !ok {
		return nil, types.ErrCacheMiss
	}
	stored := value.([]byte)
	out := make([]byte, len(stored))
	copy(out, stored)
	return out, nil
}

// Has checks if a key exists in the cache.
func (m *MemoryCache) Has(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := m.data.Load(m.prefix + key)
	return ok, nil
}

// PutForever stores a copy of value with no expiry.
func (m *MemoryCache) PutForever(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data.Store(m.prefix+key, stored)
	return nil
}

// Forget removes a value from the cache.
func (m *MemoryCache) Forget(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.data.Delete(m.prefix + key)
	return nil
}

// Flush removes every entry under this cache's prefix.
func (m *MemoryCache) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.data.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), m.prefix) {
			m.data.Delete(key)
		}
		return true
	})
	return nil
}
