// Package entity 定义领域实体
package entity

import (
	"time"
)

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusNormal    ProjectStatus = "normal"
	ProjectStatusDelayed   ProjectStatus = "delayed"
	ProjectStatusRisk      ProjectStatus = "risk"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusPending   ProjectStatus = "pending"
	ProjectStatusPaused    ProjectStatus = "paused"
)

// Contact 项目联系人
type Contact struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone"`
}

// DailyProgress 项目每日进展
type DailyProgress struct {
	Date     string `json:"date"`
	Progress int    `json:"progress"`
	Content  string `json:"content"`
}

// Project 排期项目实体
// ProductManager 与 PMO 保存的是人员姓名而非 ID
type Project struct {
	ID             string          `json:"id" gorm:"type:varchar(64);primaryKey"`
	Name           string          `json:"name" gorm:"type:varchar(255);not null;index" validate:"required,max=255"`
	Status         ProjectStatus   `json:"status" gorm:"type:varchar(20);default:'normal';index" validate:"omitempty,oneof=normal delayed risk completed pending paused"`
	Progress       int             `json:"progress" gorm:"default:0" validate:"min=0,max=100"`
	StartDate      string          `json:"startDate" gorm:"type:varchar(32)"`
	EndDate        string          `json:"endDate" gorm:"type:varchar(32)"`
	Owner          string          `json:"owner" gorm:"type:varchar(100)"`
	Partners       []string        `json:"partners" gorm:"type:jsonb;serializer:json"`
	Developers     []string        `json:"developers" gorm:"type:jsonb;serializer:json"`
	Testers        []string        `json:"testers" gorm:"type:jsonb;serializer:json"`
	ProductManager string          `json:"productManager,omitempty" gorm:"type:varchar(100)"`
	PMO            string          `json:"pmo,omitempty" gorm:"column:pmo;type:varchar(100)"`
	Remark         string          `json:"remark,omitempty" gorm:"type:text"`
	ChatGroupLinks []string        `json:"chatGroupLinks,omitempty" gorm:"type:jsonb;serializer:json" validate:"omitempty,dive,url"`
	Contacts       []Contact       `json:"contacts,omitempty" gorm:"type:jsonb;serializer:json"`
	DailyProgress  []DailyProgress `json:"dailyProgress,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt      time.Time       `json:"createdAt,omitzero" gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `json:"updatedAt,omitzero" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// EntityName 返回用于历史记录展示的名称
func (p *Project) EntityName() string {
	return p.Name
}

// IsFinished 项目是否已结束
func (p *Project) IsFinished() bool {
	return p.Status == ProjectStatusCompleted
}
