// Package postgres 提供关系型存储：实体管理器与数据集文档仓储
package postgres

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"project-schedule-api/internal/config"
	"project-schedule-api/internal/domain/entity"
	"project-schedule-api/pkg/logger"
)

var tracer = otel.Tracer("postgres")

// Client 持有 GORM 连接
type Client struct {
	db *gorm.DB
}

// slogWriter 把 GORM 的慢查询与错误日志转到全局日志器
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	logger.Warn(context.Background(), "gorm", "detail", fmt.Sprintf(format, args...))
}

// NewClient 打开连接池并确认数据库可达
func NewClient(cfg *config.PostgresConfig) (*Client, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.New(slogWriter{}, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		// 事务边界由 TxManager 决定
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	c := &Client{db: db}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.HealthCheck(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return c, nil
}

// NewClientFromDB 使用已打开的 GORM 实例构造客户端
func NewClientFromDB(db *gorm.DB) *Client {
	return &Client{db: db}
}

func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck 就绪探针
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.Ping")
	defer span.End()

	sqlDB, err := c.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

// Models 关系型存储管理的全部表，顺序即迁移顺序
func Models() []any {
	return []any{
		&entity.Project{},
		&entity.Task{},
		&entity.TaskType{},
		&entity.PMO{},
		&entity.ProductManager{},
		&entity.HistoryRecord{},
		&entity.AIConfig{},
		&entity.AIProvider{},
	}
}

// documentModels 属于数据集文档的表，整体替换时清空
func documentModels() []any {
	return []any{
		&entity.Project{},
		&entity.Task{},
		&entity.TaskType{},
		&entity.PMO{},
		&entity.ProductManager{},
		&entity.HistoryRecord{},
	}
}

// AutoMigrate 创建或更新表结构
func (c *Client) AutoMigrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.AutoMigrate")
	defer span.End()

	if err := c.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
