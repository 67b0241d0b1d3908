package entity

import (
	"time"
)

// EntityType 历史记录关联的实体类型
type EntityType string

const (
	EntityTypeProject        EntityType = "project"
	EntityTypeTask           EntityType = "task"
	EntityTypeTaskType       EntityType = "taskType"
	EntityTypePMO            EntityType = "pmo"
	EntityTypeProductManager EntityType = "productManager"
)

// Operation 历史记录操作类型
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// DefaultOperator 未接入身份信息时的操作人
const DefaultOperator = "admin"

// FieldChange 单个字段的变更
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Changes 字段名到变更的映射
type Changes map[string]FieldChange

// HistoryRecord 操作历史，只追加，仅能整体清空
type HistoryRecord struct {
	ID         string     `json:"id" gorm:"type:varchar(64);primaryKey"`
	EntityType EntityType `json:"entityType" gorm:"type:varchar(32);index;not null" validate:"required,oneof=project task taskType pmo productManager"`
	EntityID   string     `json:"entityId" gorm:"type:varchar(64);index;not null" validate:"required"`
	EntityName string     `json:"entityName" gorm:"type:varchar(255)"`
	Operation  Operation  `json:"operation" gorm:"type:varchar(16);not null" validate:"required,oneof=create update delete"`
	Operator   string     `json:"operator" gorm:"type:varchar(100)"`
	OperatedAt time.Time  `json:"operatedAt" gorm:"index"`
	Changes    Changes    `json:"changes,omitempty" gorm:"type:jsonb;serializer:json"`
}

// TableName 指定表名
func (HistoryRecord) TableName() string {
	return "history_records"
}
