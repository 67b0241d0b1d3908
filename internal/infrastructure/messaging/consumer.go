package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"project-schedule-api/pkg/logger"
)

// MessageHandler 消息处理函数
type MessageHandler func(ctx context.Context, msg *Message) error

// Subscriber 广播订阅者
// 每个订阅者各自从流尾部读取，不使用消费者组，所有客户端都能收到同一条通知
type Subscriber struct {
	client       *redis.Client
	stream       Stream
	blockTimeout time.Duration
	errorBackoff time.Duration

	handlers map[string]MessageHandler
	mu       sync.RWMutex
	lastID   string
}

// SubscriberConfig 订阅者配置
type SubscriberConfig struct {
	Stream       Stream
	BlockTimeout time.Duration
	ErrorBackoff time.Duration
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client, cfg SubscriberConfig) *Subscriber {
	if cfg.Stream == "" {
		cfg.Stream = StreamDatasetChanges
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Subscriber{
		client:       client,
		stream:       cfg.Stream,
		blockTimeout: cfg.BlockTimeout,
		errorBackoff: cfg.ErrorBackoff,
		handlers:     make(map[string]MessageHandler),
		lastID:       "$",
	}
}

// RegisterHandler 注册消息处理器
func (s *Subscriber) RegisterHandler(msgType string, handler MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[msgType] = handler
}

// Run 阻塞读取直到 ctx 取消，只处理订阅之后的新消息
func (s *Subscriber) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("subscriber started", "stream", s.stream)

	for {
		if ctx.Err() != nil {
			log.Info("subscriber stopped")
			return nil
		}

		streams, err := s.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{string(s.stream), s.lastID},
			Count:   10,
			Block:   s.blockTimeout,
		}).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			log.Error("failed to read from stream", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.errorBackoff):
			}
			continue
		}

		for _, stream := range streams {
			for _, xmsg := range stream.Messages {
				s.lastID = xmsg.ID
				s.dispatch(ctx, xmsg)
			}
		}
	}
}

// dispatch 处理单条消息，处理失败只记录日志
func (s *Subscriber) dispatch(ctx context.Context, xmsg redis.XMessage) {
	ctx, span := tracer.Start(ctx, "subscriber.dispatch",
		trace.WithAttributes(
			attribute.String("stream", string(s.stream)),
			attribute.String("stream.message_id", xmsg.ID),
		))
	defer span.End()

	msg, err := decodeMessage(xmsg.Values)
	if err != nil {
		logger.FromContext(ctx).Error("skip malformed message", "error", err, "message_id", xmsg.ID)
		return
	}
	for _, key := range propagatedKeys {
		if v := msg.GetMetadata(string(key)); v != "" {
			ctx = logger.WithContext(ctx, key, v)
		}
	}

	s.mu.RLock()
	handler, exists := s.handlers[msg.Type]
	s.mu.RUnlock()
	if !exists {
		logger.Debug(ctx, "no handler for message type", "type", msg.Type)
		return
	}

	span.SetAttributes(attribute.String("message.type", msg.Type))
	if err := handler(ctx, msg); err != nil {
		span.RecordError(err)
		logger.FromContext(ctx).Error("handler failed", "error", err, "message_id", msg.ID)
	}
}
