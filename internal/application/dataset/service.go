// Package dataset 编排数据集文档的读取与整体替换
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"project-schedule-api/internal/domain/entity"
	"project-schedule-api/internal/domain/repository"
	"project-schedule-api/internal/infrastructure/messaging"
	apperrors "project-schedule-api/pkg/errors"
	"project-schedule-api/pkg/logger"
	"project-schedule-api/pkg/metrics"
	"project-schedule-api/pkg/retry"
	"project-schedule-api/pkg/tracer"
)

// Cache 文档读缓存
type Cache interface {
	GetOrLoad(ctx context.Context, loader func(ctx context.Context) ([]byte, error)) ([]byte, error)
	Invalidate(ctx context.Context) error
}

// Publisher 数据集变更通知
type Publisher interface {
	PublishDatasetReplaced(ctx context.Context, evt *messaging.DatasetReplaced) (string, error)
}

// Option 服务选项
type Option func(*Service)

// WithCache 设置读缓存
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithPublisher 设置变更通知
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRetry 设置写入重试策略
func WithRetry(cfg retry.Config) Option {
	return func(s *Service) { s.retry = cfg }
}

// Service 数据集服务
type Service struct {
	store     repository.DocumentStore
	driver    string
	cache     Cache
	publisher Publisher
	retry     retry.Config
	now       func() time.Time
}

// NewService 创建数据集服务，driver 仅用于指标与通知
func NewService(store repository.DocumentStore, driver string, opts ...Option) *Service {
	s := &Service{
		store:  store,
		driver: driver,
		retry:  retry.DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get 返回当前文档；尚无数据时返回各集合为空的文档
func (s *Service) Get(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "dataset.Get")
	defer span.End()

	var (
		doc []byte
		err error
	)
	if s.cache != nil {
		doc, err = s.cache.GetOrLoad(ctx, s.store.Load)
	} else {
		doc, err = s.store.Load(ctx)
	}
	if err != nil {
		tracer.Fail(span, err)
		return nil, apperrors.Wrap(err, apperrors.CodeReadFailed, "failed to read data")
	}
	if doc == nil {
		return json.Marshal(entity.EmptyDataset())
	}
	return doc, nil
}

// Replace 用 body 整体替换文档
// body 必须是 JSON 对象；存储失败按固定间隔重试，耗尽后返回 WRITE_FAILED
func (s *Service) Replace(ctx context.Context, body []byte) error {
	ctx, span := tracer.Start(ctx, "dataset.Replace")
	defer span.End()

	if !gjson.ValidBytes(body) {
		return apperrors.ErrBadRequest.WithDetail("invalid JSON body")
	}
	if !gjson.ParseBytes(body).IsObject() {
		return apperrors.ErrBadRequest.WithDetail("request body must be a JSON object")
	}
	metrics.DocumentSizeBytes.Observe(float64(len(body)))

	start := s.now()
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		err := s.store.Save(ctx, body)
		if err == nil {
			metrics.DocumentWriteAttempts.WithLabelValues(s.driver, "success").Inc()
			return nil
		}
		metrics.DocumentWriteAttempts.WithLabelValues(s.driver, "failure").Inc()
		if errors.Is(err, apperrors.ErrValidationFailed) {
			return retry.Permanent(err)
		}
		return err
	}, func(attempt int, err error) {
		logger.Warn(ctx, "dataset write attempt failed",
			"attempt", attempt,
			"max_attempts", s.retry.Attempts,
			"driver", s.driver,
			"error", err.Error(),
		)
	})
	metrics.DocumentWriteDuration.WithLabelValues(s.driver).Observe(time.Since(start).Seconds())
	if err != nil {
		tracer.Fail(span, err)
		logger.Error(ctx, "dataset write failed", err, "driver", s.driver)
		return apperrors.ErrWriteFailed.WithDetail(writeFailureDetail(err)).WithError(err)
	}

	s.afterReplace(ctx, body)
	return nil
}

// writeFailureDetail 保留底层应用错误的错误码与字段级详情
func writeFailureDetail(err error) string {
	if !apperrors.IsAppError(err) {
		return err.Error()
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Detail == "" {
		return fmt.Sprintf("%s: %s", appErr.Code, appErr.Message)
	}
	return fmt.Sprintf("%s: %s", appErr.Code, appErr.Detail)
}

// afterReplace 清理缓存并发布通知，失败只记录日志
func (s *Service) afterReplace(ctx context.Context, body []byte) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			logger.Warn(ctx, "failed to invalidate dataset cache", "error", err.Error())
		}
	}
	if s.publisher == nil {
		return
	}
	evt := &messaging.DatasetReplaced{
		Driver:     s.driver,
		SizeBytes:  len(body),
		Counts:     CollectionCounts(body),
		ReplacedAt: s.now(),
	}
	if _, err := s.publisher.PublishDatasetReplaced(ctx, evt); err != nil {
		logger.Warn(ctx, "failed to publish dataset change", "error", err.Error())
	}
}

// CollectionCounts 统计文档中各集合的元素个数，非数组计为 0
func CollectionCounts(body []byte) map[string]int {
	counts := make(map[string]int, len(entity.CollectionNames))
	for _, name := range entity.CollectionNames {
		v := gjson.GetBytes(body, name)
		if v.IsArray() {
			counts[name] = int(v.Get("#").Int())
		} else {
			counts[name] = 0
		}
	}
	return counts
}
