package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"project-schedule-api/pkg/logger"
	"project-schedule-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("cache")

// DatasetKey 数据集文档的缓存键
const DatasetKey = "dataset:document"

// fillScript 仅当代数未变化时回填，KEYS: 文档键、代数键；ARGV: 读取前的代数、文档、ttl 毫秒
var fillScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if not gen then gen = '0' end
if gen ~= ARGV[1] then return 0 end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// DocumentCache 数据集文档的 Read-Through 缓存
// 缓存内容是存储中的原始字节，不做二次序列化。
// 每次 Invalidate 递增代数，回源期间代数变化的结果不会写回缓存。
type DocumentCache struct {
	client *Client
	key    string
	genKey string
	ttl    time.Duration
	group  singleflight.Group
}

// NewDocumentCache 创建文档缓存，ttl 为 0 时不过期
func NewDocumentCache(client *Client, ttl time.Duration) *DocumentCache {
	return &DocumentCache{client: client, key: DatasetKey, genKey: DatasetKey + ":gen", ttl: ttl}
}

// GetOrLoad 命中则返回缓存，否则经 singleflight 调用 loader 并回填
// loader 返回 nil 表示尚无数据，此时不回填
// Redis 不可用时直接回源，缓存故障不影响读取
func (c *DocumentCache) GetOrLoad(ctx context.Context, loader func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", c.key)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
		return val, nil
	case IsNil(err):
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
	default:
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		logger.Warn(ctx, "dataset cache unavailable, loading from store", "error", err.Error())
		return loader(ctx)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	result, err, shared := c.group.Do(c.key, func() (interface{}, error) {
		gen, genErr := c.generation(ctx)
		doc, err := loader(ctx)
		if err != nil || doc == nil {
			return doc, err
		}
		if genErr != nil {
			logger.Warn(ctx, "failed to read dataset cache generation", "error", genErr.Error())
			return doc, nil
		}
		filled, err := fillScript.Run(ctx, c.client.rdb, []string{c.key, c.genKey},
			gen, doc, c.ttl.Milliseconds()).Int()
		switch {
		case err != nil:
			// 回填失败不影响返回结果
			logger.Warn(ctx, "failed to fill dataset cache", "error", err.Error())
		case filled == 0:
			metrics.CacheRequestsTotal.WithLabelValues("stale_fill").Inc()
			logger.Debug(ctx, "dataset changed while loading, skip cache fill", "generation", gen)
		}
		return doc, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	doc, _ := result.([]byte)
	return doc, nil
}

// Invalidate 写入成功后清除缓存
func (c *DocumentCache) Invalidate(ctx context.Context) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Invalidate",
		trace.WithAttributes(attribute.String("cache.key", c.key)))
	defer span.End()

	c.group.Forget(c.key)
	_, err := c.client.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, c.genKey)
		p.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// generation 当前缓存代数，键不存在时为 "0"
func (c *DocumentCache) generation(ctx context.Context) (string, error) {
	gen, err := c.client.rdb.Get(ctx, c.genKey).Result()
	if IsNil(err) {
		return "0", nil
	}
	return gen, err
}
