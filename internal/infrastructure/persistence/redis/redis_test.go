package redis

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要真实 Redis：REDIS_TEST_ADDR=localhost:6379
func setupRedis(t *testing.T) *Client {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("跳过集成测试：未设置 REDIS_TEST_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DB: 15})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("跳过集成测试：无法连接 Redis: %v", err)
	}
	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClientFromRedis(rdb)
}

func TestDocumentCacheReadThrough(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	cache := NewDocumentCache(client, time.Minute)

	var loads atomic.Int32
	loader := func(context.Context) ([]byte, error) {
		loads.Add(1)
		return []byte(`{"projects":[]}`), nil
	}

	doc, err := cache.GetOrLoad(ctx, loader)
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects":[]}`, string(doc))

	doc, err = cache.GetOrLoad(ctx, loader)
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects":[]}`, string(doc))
	assert.Equal(t, int32(1), loads.Load())

	require.NoError(t, cache.Invalidate(ctx))
	_, err = cache.GetOrLoad(ctx, loader)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load())
}

// 回源期间写入完成并清除缓存，旧文档不能被写回
func TestDocumentCacheDropsFillAfterConcurrentInvalidate(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	cache := NewDocumentCache(client, time.Minute)

	stale := func(ctx context.Context) ([]byte, error) {
		require.NoError(t, cache.Invalidate(ctx))
		return []byte(`{"projects":["old"]}`), nil
	}
	doc, err := cache.GetOrLoad(ctx, stale)
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects":["old"]}`, string(doc), "the caller still gets what it loaded")

	err = client.Redis().Get(ctx, DatasetKey).Err()
	assert.True(t, IsNil(err), "a document loaded before the invalidation must not be cached")

	var loads atomic.Int32
	fresh := func(context.Context) ([]byte, error) {
		loads.Add(1)
		return []byte(`{"projects":["new"]}`), nil
	}
	doc, err = cache.GetOrLoad(ctx, fresh)
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects":["new"]}`, string(doc))

	doc, err = cache.GetOrLoad(ctx, fresh)
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects":["new"]}`, string(doc))
	assert.Equal(t, int32(1), loads.Load(), "a load without concurrent writes fills the cache")
}

func TestDocumentCacheInvalidateBumpsGeneration(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	cache := NewDocumentCache(client, 0)

	gen, err := cache.generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0", gen)

	require.NoError(t, cache.Invalidate(ctx))
	require.NoError(t, cache.Invalidate(ctx))
	gen, err = cache.generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", gen)

	_, err = cache.GetOrLoad(ctx, func(context.Context) ([]byte, error) { return []byte(`{}`), nil })
	require.NoError(t, err)
	ttl, err := client.Redis().TTL(ctx, DatasetKey).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl, "ttl 0 stores without expiry")
}

func TestDocumentCacheSkipsEmptyDocument(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	cache := NewDocumentCache(client, time.Minute)

	doc, err := cache.GetOrLoad(ctx, func(context.Context) ([]byte, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, doc)

	err = client.Redis().Get(ctx, DatasetKey).Err()
	assert.True(t, IsNil(err))
}

func TestWriteLimiterWindow(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	limiter := NewWriteLimiter(client)
	now := time.Date(2025, 3, 1, 10, 0, 5, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	key := WriteRateLimitKey("127.0.0.1")

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	now = now.Add(time.Minute)
	ok, err = limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "a new window starts a fresh count")
}
