//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"project-schedule-api/internal/config"
	"project-schedule-api/internal/infrastructure/persistence/postgres"
	"project-schedule-api/internal/interfaces/http/router"
)

// StorageSet 存储提供者集合
var StorageSet = wire.NewSet(
	ProvideFs,
	ProvidePostgresClientOptional,
	ProvideRedisClientOptional,
	postgres.NewValidator,
	ProvideDocumentStore,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideDatasetService,
	ProvideResources,
	ProvideHealthHandler,
	ProvideHandlers,
	router.New,
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		StorageSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeBootstrap 初始化关系型存储（用于 bootstrap）
func InitializeBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, func(), error) {
	wire.Build(
		ProvidePostgresClient,
		postgres.NewValidator,
		postgres.NewTaskTypeRepository,
		wire.Struct(new(Bootstrap), "*"),
	)
	return nil, nil, nil
}
