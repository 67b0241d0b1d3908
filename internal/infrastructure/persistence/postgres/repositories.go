package postgres

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"project-schedule-api/internal/domain/entity"
	"project-schedule-api/internal/domain/repository"
)

// NewValidator 创建实体校验器，字段名使用 JSON 名称
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

// ProjectRepository 项目仓储实现
type ProjectRepository struct {
	*Manager[entity.Project, *entity.Project]
}

var _ repository.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository 创建项目仓储
func NewProjectRepository(client *Client, v *validator.Validate) *ProjectRepository {
	return &ProjectRepository{NewManager[entity.Project](client, v, ManagerConfig{
		Name:     "Project",
		IDPrefix: entity.IDPrefixProject,
		Filters: map[string]string{
			"status":         "status",
			"owner":          "owner",
			"pmo":            "pmo",
			"productManager": "product_manager",
			"startDate":      "start_date",
			"endDate":        "end_date",
		},
		DefaultOrder: "start_date ASC, id ASC",
	})}
}

// TaskRepository 任务仓储实现
type TaskRepository struct {
	*Manager[entity.Task, *entity.Task]
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

// NewTaskRepository 创建任务仓储
func NewTaskRepository(client *Client, v *validator.Validate) *TaskRepository {
	return &TaskRepository{NewManager[entity.Task](client, v, ManagerConfig{
		Name:     "Task",
		IDPrefix: entity.IDPrefixTask,
		Filters: map[string]string{
			"projectId": "project_id",
			"status":    "status",
			"startDate": "start_date",
			"endDate":   "end_date",
		},
		DefaultOrder: "start_date ASC, id ASC",
	})}
}

// DeleteByProject 删除项目下的所有任务
func (r *TaskRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.TaskRepository.DeleteByProject")
	defer span.End()

	result := getDB(ctx, r.client.db).Delete(&entity.Task{}, "project_id = ?", projectID)
	if result.Error != nil {
		span.RecordError(result.Error)
		return 0, fmt.Errorf("failed to delete project tasks: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// TaskTypeRepository 任务类型仓储实现
type TaskTypeRepository struct {
	*Manager[entity.TaskType, *entity.TaskType]
}

var _ repository.TaskTypeRepository = (*TaskTypeRepository)(nil)

// NewTaskTypeRepository 创建任务类型仓储
func NewTaskTypeRepository(client *Client, v *validator.Validate) *TaskTypeRepository {
	return &TaskTypeRepository{NewManager[entity.TaskType](client, v, ManagerConfig{
		Name:     "TaskType",
		IDPrefix: entity.IDPrefixTaskType,
		Filters: map[string]string{
			"enabled": "enabled",
		},
	})}
}

// PMORepository PMO 仓储实现
type PMORepository struct {
	*Manager[entity.PMO, *entity.PMO]
}

var _ repository.PMORepository = (*PMORepository)(nil)

// NewPMORepository 创建 PMO 仓储
func NewPMORepository(client *Client, v *validator.Validate) *PMORepository {
	return &PMORepository{NewManager[entity.PMO](client, v, ManagerConfig{
		Name:     "PMO",
		IDPrefix: entity.IDPrefixPMO,
		Filters:  map[string]string{"enabled": "enabled"},
	})}
}

// ProductManagerRepository 产品经理仓储实现
type ProductManagerRepository struct {
	*Manager[entity.ProductManager, *entity.ProductManager]
}

var _ repository.ProductManagerRepository = (*ProductManagerRepository)(nil)

// NewProductManagerRepository 创建产品经理仓储
func NewProductManagerRepository(client *Client, v *validator.Validate) *ProductManagerRepository {
	return &ProductManagerRepository{NewManager[entity.ProductManager](client, v, ManagerConfig{
		Name:     "ProductManager",
		IDPrefix: entity.IDPrefixProductManager,
		Filters:  map[string]string{"enabled": "enabled"},
	})}
}

// HistoryRecordRepository 历史记录仓储实现
type HistoryRecordRepository struct {
	*Manager[entity.HistoryRecord, *entity.HistoryRecord]
}

var _ repository.HistoryRecordRepository = (*HistoryRecordRepository)(nil)

// NewHistoryRecordRepository 创建历史记录仓储
func NewHistoryRecordRepository(client *Client, v *validator.Validate) *HistoryRecordRepository {
	return &HistoryRecordRepository{NewManager[entity.HistoryRecord](client, v, ManagerConfig{
		Name:     "HistoryRecord",
		IDPrefix: entity.IDPrefixHistory,
		Filters: map[string]string{
			"entityType": "entity_type",
			"entityId":   "entity_id",
			"operation":  "operation",
			"operator":   "operator",
		},
		SearchColumn: "entity_name",
		DefaultOrder: "operated_at DESC, id DESC",
	})}
}

// Clear 清空历史记录
func (r *HistoryRecordRepository) Clear(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.HistoryRecordRepository.Clear")
	defer span.End()

	result := getDB(ctx, r.client.db).Where("1 = 1").Delete(&entity.HistoryRecord{})
	if result.Error != nil {
		span.RecordError(result.Error)
		return 0, fmt.Errorf("failed to clear history records: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// AIConfigRepository AI 配置仓储实现
type AIConfigRepository struct {
	*Manager[entity.AIConfig, *entity.AIConfig]
}

var _ repository.AIConfigRepository = (*AIConfigRepository)(nil)

// NewAIConfigRepository 创建 AI 配置仓储
func NewAIConfigRepository(client *Client, v *validator.Validate) *AIConfigRepository {
	return &AIConfigRepository{NewManager[entity.AIConfig](client, v, ManagerConfig{
		Name:         "AIConfig",
		IDPrefix:     "aiconfig",
		Filters:      map[string]string{"key": "key"},
		SearchColumn: "key",
		DefaultOrder: "key ASC",
	})}
}

// AIProviderRepository AI 服务端点仓储实现
type AIProviderRepository struct {
	*Manager[entity.AIProvider, *entity.AIProvider]
}

var _ repository.AIProviderRepository = (*AIProviderRepository)(nil)

// NewAIProviderRepository 创建 AI 服务端点仓储
func NewAIProviderRepository(client *Client, v *validator.Validate) *AIProviderRepository {
	return &AIProviderRepository{NewManager[entity.AIProvider](client, v, ManagerConfig{
		Name:     "AIProvider",
		IDPrefix: "aiprovider",
		Filters: map[string]string{
			"enabled": "enabled",
			"model":   "model",
		},
	})}
}
