package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WriteLimiter 固定窗口写入计数
// 每个窗口一个计数键，键随窗口过期
type WriteLimiter struct {
	client *Client
	now    func() time.Time
}

// NewWriteLimiter 创建写入限流器
func NewWriteLimiter(client *Client) *WriteLimiter {
	return &WriteLimiter{client: client, now: time.Now}
}

// Allow 计入一次写入，返回当前窗口内是否仍在 limit 以内
func (l *WriteLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if window <= 0 {
		window = time.Minute
	}
	bucket := l.now().UnixMilli() / window.Milliseconds()
	bucketKey := fmt.Sprintf("%s:%d", key, bucket)

	ctx, span := tracer.Start(ctx, "redis.WriteLimiter.Allow",
		trace.WithAttributes(attribute.String("ratelimit.key", bucketKey), attribute.Int("ratelimit.limit", limit)))
	defer span.End()

	var count *redis.IntCmd
	_, err := l.client.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		count = p.Incr(ctx, bucketKey)
		p.PExpire(ctx, bucketKey, window)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	allowed := count.Val() <= int64(limit)
	span.SetAttributes(attribute.Int64("ratelimit.count", count.Val()), attribute.Bool("ratelimit.allowed", allowed))
	return allowed, nil
}

// WriteRateLimitKey 按客户端地址构建写入限流键
func WriteRateLimitKey(clientIP string) string {
	return "ratelimit:dataset:write:" + clientIP
}
