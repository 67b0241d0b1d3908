package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"project-schedule-api/internal/config"
	"project-schedule-api/internal/domain/entity"
	"project-schedule-api/internal/domain/repository"
	"project-schedule-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting relational storage bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 连接数据库
	deps, cleanup, err := wire.InitializeBootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize postgres: %v", err)
	}
	defer cleanup()

	// 3. 建表
	if err := deps.PgClient.AutoMigrate(ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	fmt.Println("Schema migrated.")

	// 4. 写入默认任务类型，已存在的保持不动
	existing, err := deps.TaskTypes.List(ctx, repository.NewListOptions(0, 0))
	if err != nil {
		log.Fatalf("failed to list task types: %v", err)
	}
	known := make(map[string]bool, len(existing))
	for _, tt := range existing {
		known[tt.ID] = true
	}

	created := 0
	for _, tt := range entity.DefaultTaskTypes() {
		if known[tt.ID] {
			continue
		}
		tt := tt
		if _, err := deps.TaskTypes.Create(ctx, &tt); err != nil {
			log.Fatalf("failed to create task type %s: %v", tt.Name, err)
		}
		created++
	}
	fmt.Printf("Default task types: %d created, %d already present.\n", created, len(existing))

	fmt.Println("Bootstrap completed successfully.")
}
