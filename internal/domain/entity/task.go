package entity

import (
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusNormal    TaskStatus = "normal"
	TaskStatusDelayed   TaskStatus = "delayed"
	TaskStatusRisk      TaskStatus = "risk"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusPending   TaskStatus = "pending"
)

// DailyTaskRecord 任务每日记录
type DailyTaskRecord struct {
	Date      string     `json:"date"`
	Progress  int        `json:"progress"`
	Status    TaskStatus `json:"status"`
	Content   string     `json:"content"`
	Assignees []string   `json:"assignees"`
}

// Task 任务实体
type Task struct {
	ID        string `json:"id" gorm:"type:varchar(64);primaryKey"`
	ProjectID string `json:"projectId" gorm:"type:varchar(64);index;not null" validate:"required"`
	Name      string `json:"name" gorm:"type:varchar(255);not null" validate:"required,max=255"`
	// TaskType 是创建时的快照而非引用，之后修改任务类型（例如颜色）不会影响已有任务
	TaskType     TaskType          `json:"taskType" gorm:"type:jsonb;serializer:json" validate:"-"`
	Status       TaskStatus        `json:"status" gorm:"type:varchar(20);default:'normal';index" validate:"omitempty,oneof=normal delayed risk completed pending"`
	Progress     int               `json:"progress" gorm:"default:0" validate:"min=0,max=100"`
	StartDate    string            `json:"startDate" gorm:"type:varchar(32)"`
	EndDate      string            `json:"endDate" gorm:"type:varchar(32)"`
	Assignees    []string          `json:"assignees" gorm:"type:jsonb;serializer:json"`
	DailyRecords []DailyTaskRecord `json:"dailyRecords,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time         `json:"createdAt,omitzero" gorm:"autoCreateTime"`
	UpdatedAt    time.Time         `json:"updatedAt,omitzero" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Task) TableName() string {
	return "tasks"
}

// EntityName 返回用于历史记录展示的名称
func (t *Task) EntityName() string {
	return t.Name
}
