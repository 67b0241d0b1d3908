// Package messaging 提供基于 Redis Streams 的数据集变更通知
package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// 消息类型
const (
	MessageTypeDatasetReplaced = "dataset_replaced"
)

// Message 消息结构
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage 创建新消息
func NewMessage(msgType string, payload any) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   payloadBytes,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now(),
	}, nil
}

// SetMetadata 设置元数据
func (m *Message) SetMetadata(key, value string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// GetMetadata 获取元数据
func (m *Message) GetMetadata(key string) string {
	if m.Metadata == nil {
		return ""
	}
	return m.Metadata[key]
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// decodeMessage 从流条目的 data 字段还原消息
func decodeMessage(values map[string]interface{}) (*Message, error) {
	data, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid message format: missing data field")
	}
	var msg Message
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &msg, nil
}

// Stream 流定义
type Stream string

// StreamDatasetChanges 数据集整体替换事件流
const StreamDatasetChanges Stream = "stream:dataset:changes"

// DatasetReplaced 数据集被整体替换后的通知载荷
type DatasetReplaced struct {
	Driver     string         `json:"driver"`
	SizeBytes  int            `json:"size_bytes"`
	Counts     map[string]int `json:"counts,omitempty"`
	ReplacedAt time.Time      `json:"replaced_at"`
}
