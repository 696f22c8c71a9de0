package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

func TestMemoryCache_PutForeverAndGet(t *testing.T) {
	c := NewMemoryCache("test:")
	ctx := context.Background()

	require.NoError(t, c.PutForever(ctx, "k", []byte("v1")))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	ok, err := c.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_GetMiss(t *testing.T) {
	c := NewMemoryCache("test:")

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, types.ErrCacheMiss)

	ok, err := c.Has(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_StoredValueIsolated(t *testing.T) {
	c := NewMemoryCache("")
	ctx := context.Background()

	value := []byte("original")
	require.NoError(t, c.PutForever(ctx, "k", value))
	value[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got), "caller mutation must not reach the cache")

	got[0] = 'Y'
	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(again), "reader mutation must not reach the cache")
}

func TestMemoryCache_Forget(t *testing.T) {
	c := NewMemoryCache("test:")
	ctx := context.Background()

	require.NoError(t, c.PutForever(ctx, "k", []byte("v")))
	require.NoError(t, c.Forget(ctx, "k"))
	require.NoError(t, c.Forget(ctx, "k"), "forgetting a missing key is not an error")

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, types.ErrCacheMiss)
}

func TestMemoryCache_FlushOnlyOwnPrefix(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryCache("a:")
	require.NoError(t, a.PutForever(ctx, "1", []byte("x")))
	require.NoError(t, a.PutForever(ctx, "2", []byte("y")))

	require.NoError(t, a.Flush(ctx))

	for _, k := range []string{"1", "2"} {
		ok, err := a.Has(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, "key %s should be flushed", k)
	}
}

func TestMemoryCache_CancelledContext(t *testing.T) {
	c := NewMemoryCache("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, c.PutForever(ctx, "k", []byte("v")), context.Canceled)
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache("")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.PutForever(ctx, "shared", []byte("v"))
			_, _ = c.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	got, err := c.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestNew(t *testing.T) {
	c, err := New(types.CacheConfig{Driver: types.CacheMemory}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = New(types.CacheConfig{Driver: types.CacheRedis}, nil, nil)
	assert.ErrorIs(t, err, types.ErrRedisAddrEmpty)

	_, err = New(types.CacheConfig{Driver: "memcached"}, nil, nil)
	assert.ErrorIs(t, err, types.ErrCacheDriverUnknown)
}
