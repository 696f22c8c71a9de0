package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/metaschema/pkg/types"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client, "metaschema:", nil), mr
}

func TestRedisCache_PutForeverAndGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.PutForever(ctx, "schema:1:-:-:image", []byte(`{"fields":[]}`)))

	got, err := c.Get(ctx, "schema:1:-:-:image")
	require.NoError(t, err)
	assert.Equal(t, `{"fields":[]}`, string(got))

	assert.True(t, mr.Exists("metaschema:schema:1:-:-:image"), "key is stored under the prefix")
	assert.Equal(t, int64(0), int64(mr.TTL("metaschema:schema:1:-:-:image")), "entry has no expiry")
}

func TestRedisCache_GetMiss(t *testing.T) {
	c, _ := setupTestRedis(t)

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, types.ErrCacheMiss)
}

func TestRedisCache_Has(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	ok, err := c.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.PutForever(ctx, "k", []byte("v")))

	ok, err = c.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCache_Forget(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.PutForever(ctx, "k", []byte("v")))
	require.NoError(t, c.Forget(ctx, "k"))

	assert.False(t, mr.Exists("metaschema:k"))
}

func TestRedisCache_FlushKeepsForeignKeys(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.PutForever(ctx, "a", []byte("1")))
	require.NoError(t, c.PutForever(ctx, "b", []byte("2")))
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, c.Flush(ctx))

	assert.False(t, mr.Exists("metaschema:a"))
	assert.False(t, mr.Exists("metaschema:b"))
	assert.True(t, mr.Exists("other:key"), "keys outside the prefix survive")
}

func TestRedisCache_FlushKeepsBuildLeases(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.PutForever(ctx, "schema:7:-:-:image", []byte(`{"fields":[]}`)))
	require.NoError(t, mr.Set("metaschema:"+types.LockNamespace+"schema:7:-:-:image", "owner-token"))

	require.NoError(t, c.Flush(ctx))

	assert.False(t, mr.Exists("metaschema:schema:7:-:-:image"))
	assert.True(t, mr.Exists("metaschema:lock:schema:7:-:-:image"), "held lease survives a flush")
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrCacheMiss, "connection failures are not misses")
}
