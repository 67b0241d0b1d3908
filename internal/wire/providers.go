// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"

	"project-schedule-api/internal/application/dataset"
	"project-schedule-api/internal/config"
	"project-schedule-api/internal/domain/entity"
	"project-schedule-api/internal/domain/repository"
	"project-schedule-api/internal/infrastructure/messaging"
	"project-schedule-api/internal/infrastructure/persistence/filestore"
	"project-schedule-api/internal/infrastructure/persistence/postgres"
	"project-schedule-api/internal/infrastructure/persistence/redis"
	"project-schedule-api/internal/interfaces/http/handler"
	"project-schedule-api/internal/interfaces/http/router"
	"project-schedule-api/pkg/logger"
	"project-schedule-api/pkg/retry"
)

// ProvideFs 提供真实文件系统
func ProvideFs() afero.Fs {
	return afero.NewOsFs()
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvidePostgresClientOptional 仅在 postgres 驱动下连接数据库，文件驱动时返回 nil
func ProvidePostgresClientOptional(cfg *config.Config) (*postgres.Client, func(), error) {
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return nil, func() {}, nil
	}
	return ProvidePostgresClient(cfg)
}

// ProvideRedisClientOptional Redis 未启用或不可达时返回 nil，缓存、通知与限流随之关闭
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, cache and change stream disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideDocumentStore 按存储驱动选择文档仓储
func ProvideDocumentStore(cfg *config.Config, fs afero.Fs, pg *postgres.Client, v *validator.Validate) (repository.DocumentStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverFile:
		store := filestore.New(cfg.Storage.FilePath,
			filestore.WithFs(fs),
			filestore.WithStaleAfter(cfg.Storage.LockStaleAfter),
		)
		return filestore.NewDocumentStore(store), nil
	case config.StorageDriverPostgres:
		if pg == nil {
			return nil, fmt.Errorf("postgres client not configured")
		}
		return postgres.NewDocumentStore(pg, postgres.NewTxManager(pg), v), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Storage.Driver)
	}
}

// ProvideDatasetService 提供数据集服务，Redis 可用时挂载缓存与变更通知
func ProvideDatasetService(cfg *config.Config, store repository.DocumentStore, rc *redis.Client) *dataset.Service {
	opts := []dataset.Option{
		dataset.WithRetry(retry.Config{
			Attempts: cfg.Storage.WriteRetry.Attempts,
			Delay:    cfg.Storage.WriteRetry.Delay,
		}),
	}
	if rc != nil {
		opts = append(opts, dataset.WithCache(redis.NewDocumentCache(rc, cfg.Cache.DatasetTTL)))
		if cfg.Messaging.RedisStream.Enabled {
			publisher := messaging.NewPublisher(rc.Redis(), messaging.PublisherConfig{
				Stream: messaging.Stream(cfg.Messaging.RedisStream.Stream),
				MaxLen: int64(cfg.Messaging.RedisStream.MaxLen),
			})
			opts = append(opts, dataset.WithPublisher(publisher))
		}
	}
	return dataset.NewService(store, cfg.Storage.Driver, opts...)
}

// ProvideResources 关系型驱动下提供实体 REST 处理器
func ProvideResources(pg *postgres.Client, v *validator.Validate) []handler.Registrar {
	if pg == nil {
		return nil
	}
	return []handler.Registrar{
		handler.NewResourceHandler[entity.Project]("/projects", postgres.NewProjectRepository(pg, v)),
		handler.NewResourceHandler[entity.Task]("/tasks", postgres.NewTaskRepository(pg, v)),
		handler.NewResourceHandler[entity.TaskType]("/task-types", postgres.NewTaskTypeRepository(pg, v)),
		handler.NewResourceHandler[entity.PMO]("/pmos", postgres.NewPMORepository(pg, v)),
		handler.NewResourceHandler[entity.ProductManager]("/product-managers", postgres.NewProductManagerRepository(pg, v)),
		handler.NewResourceHandler[entity.HistoryRecord]("/history-records", postgres.NewHistoryRecordRepository(pg, v)),
		handler.NewResourceHandler[entity.AIConfig]("/ai-configs", postgres.NewAIConfigRepository(pg, v)),
		handler.NewResourceHandler[entity.AIProvider]("/ai-providers", postgres.NewAIProviderRepository(pg, v)),
	}
}

// ProvideHealthHandler 提供健康检查，存储为必需项，Redis 为可选项
func ProvideHealthHandler(cfg *config.Config, fs afero.Fs, pg *postgres.Client, rc *redis.Client) *handler.HealthHandler {
	var probes []handler.Probe
	if pg != nil {
		probes = append(probes, handler.Probe{Name: "postgres", Required: true, Check: pg.HealthCheck})
	} else {
		dir := filepath.Dir(cfg.Storage.FilePath)
		probes = append(probes, handler.Probe{Name: "storage", Required: true, Check: func(context.Context) error {
			return fs.MkdirAll(dir, 0o755)
		}})
	}
	if rc != nil {
		probes = append(probes, handler.Probe{Name: "redis", Check: rc.HealthCheck})
	}
	return handler.NewHealthHandler(cfg.App.Version, probes...)
}

// ProvideHandlers 组装路由依赖
func ProvideHandlers(
	cfg *config.Config,
	fs afero.Fs,
	health *handler.HealthHandler,
	svc *dataset.Service,
	resources []handler.Registrar,
	rc *redis.Client,
) router.Handlers {
	h := router.Handlers{
		Health:    health,
		Data:      handler.NewDataHandler(svc, cfg.Server.HTTP.MaxBodyBytes),
		Static:    handler.NewStaticHandler(fs, cfg.Storage.StaticDir),
		Resources: resources,
	}
	if rc != nil {
		h.Limiter = redis.NewWriteLimiter(rc)
		h.LimitKey = func(c *gin.Context) string { return redis.WriteRateLimitKey(c.ClientIP()) }
	}
	return h
}

// Bootstrap 初始化关系型存储所需的依赖
type Bootstrap struct {
	PgClient  *postgres.Client
	TaskTypes *postgres.TaskTypeRepository
}
