package entity

import (
	"time"
)

// AIConfig AI 分析相关的键值配置，仅关系型存储持久化
type AIConfig struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	Key       string    `json:"key" gorm:"type:varchar(100);uniqueIndex;not null" validate:"required,max=100"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updatedAt,omitzero" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (AIConfig) TableName() string {
	return "ai_configs"
}

// AIProvider 大模型服务端点配置
type AIProvider struct {
	ID      string `json:"id" gorm:"type:varchar(64);primaryKey"`
	Name    string `json:"name" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	BaseURL string `json:"baseUrl" gorm:"type:varchar(500)" validate:"omitempty,url"`
	APIKey  string `json:"apiKey,omitempty" gorm:"type:varchar(500)"`
	Model   string `json:"model" gorm:"type:varchar(100)"`
	Enabled bool   `json:"enabled" gorm:"default:true"`
}

// TableName 指定表名
func (AIProvider) TableName() string {
	return "ai_providers"
}
