package repository

import (
	"project-schedule-api/internal/domain/entity"
)

// ProjectRepository 项目仓储
type ProjectRepository interface {
	CRUDRepository[entity.Project]
}

// TaskRepository 任务仓储
type TaskRepository interface {
	CRUDRepository[entity.Task]
}

// TaskTypeRepository 任务类型仓储
type TaskTypeRepository interface {
	CRUDRepository[entity.TaskType]
}

// PMORepository PMO 仓储
type PMORepository interface {
	CRUDRepository[entity.PMO]
}

// ProductManagerRepository 产品经理仓储
type ProductManagerRepository interface {
	CRUDRepository[entity.ProductManager]
}

// HistoryRecordRepository 历史记录仓储
type HistoryRecordRepository interface {
	CRUDRepository[entity.HistoryRecord]
}

// AIConfigRepository AI 配置仓储
type AIConfigRepository interface {
	CRUDRepository[entity.AIConfig]
}

// AIProviderRepository AI 服务端点仓储
type AIProviderRepository interface {
	CRUDRepository[entity.AIProvider]
}
