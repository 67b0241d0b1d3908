package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"project-schedule-api/pkg/logger"
	"project-schedule-api/pkg/metrics"
)

var tracer = otel.Tracer("messaging")

// 随消息传递的日志上下文
var propagatedKeys = []logger.ContextKey{logger.RequestIDKey, logger.TraceIDKey, logger.OperatorKey}

// PublisherConfig 发布者配置
type PublisherConfig struct {
	Stream Stream
	// MaxLen 流的近似长度上限，订阅者只关心最新事件
	MaxLen int64
}

// Publisher 把数据集替换事件追加到 Redis Stream
type Publisher struct {
	client *redis.Client
	stream Stream
	maxLen int64
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client, cfg PublisherConfig) *Publisher {
	if cfg.Stream == "" {
		cfg.Stream = StreamDatasetChanges
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = 1000
	}
	return &Publisher{client: client, stream: cfg.Stream, maxLen: cfg.MaxLen}
}

// PublishDatasetReplaced 发布一次整体替换，返回流条目 ID
func (p *Publisher) PublishDatasetReplaced(ctx context.Context, evt *DatasetReplaced) (string, error) {
	msg, err := NewMessage(MessageTypeDatasetReplaced, evt)
	if err != nil {
		return "", err
	}
	for _, key := range propagatedKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			msg.SetMetadata(string(key), v)
		}
	}

	ctx, span := tracer.Start(ctx, "publisher.PublishDatasetReplaced",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("stream", string(p.stream)),
			attribute.Int("dataset.size_bytes", evt.SizeBytes),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(p.stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"data": string(data)},
	}).Result()
	if err != nil {
		span.RecordError(err)
		metrics.RedisStreamPublished.WithLabelValues(string(p.stream), "error").Inc()
		return "", fmt.Errorf("failed to publish dataset change: %w", err)
	}
	metrics.RedisStreamPublished.WithLabelValues(string(p.stream), "success").Inc()
	return id, nil
}
