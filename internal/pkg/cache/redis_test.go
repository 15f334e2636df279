package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/pkg/cache"
)

func setupTestRedis(t *testing.T) (cache.Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	c := cache.NewRedisCache(mr.Addr(), "storefront")
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_GetMiss(t *testing.T) {
	c, _ := setupTestRedis(t)

	_, err := c.Get(context.Background(), "nothing")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestRedisCache_SetGetExpire(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestRedisCache_SetNX(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Delete(ctx, "lock"))
	ok, err = c.SetNX(ctx, "lock", "c", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCache_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewRedisCacheWithClient(client, "storefront")
	defer c.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "checkout:c1")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Publish(ctx, "checkout:c1", "hello"))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Payload)
}

func TestRedisCache_GenerateKey(t *testing.T) {
	c, _ := setupTestRedis(t)
	assert.Equal(t, "storefront:product:42", c.GenerateKey("product", "42"))
}
