// Package repository 定义数据访问层接口
package repository

import (
	"context"
)

// TxKey 事务上下文键类型
type TxKey struct{}

// Transactor 事务管理接口
type Transactor interface {
	// WithTransaction 在事务中执行操作
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SortOrder 排序方向
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// Sort 排序参数
type Sort struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// ListOptions 列表过滤条件，零值表示不限制
type ListOptions struct {
	// Filters 字段名到候选值，同一字段多值为 OR
	Filters map[string][]string
	Sort    *Sort
	Limit   int
	Offset  int
}

// NewListOptions 创建列表参数，limit 超出范围时截断
func NewListOptions(limit, offset int) ListOptions {
	if limit < 0 {
		limit = 0
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return ListOptions{Limit: limit, Offset: offset}
}

// Where 追加过滤条件
func (o ListOptions) Where(field string, values ...string) ListOptions {
	filters := make(map[string][]string, len(o.Filters)+1)
	for k, v := range o.Filters {
		filters[k] = v
	}
	filters[field] = append(append([]string{}, filters[field]...), values...)
	o.Filters = filters
	return o
}

// CRUDRepository 通用实体仓储
type CRUDRepository[T any] interface {
	// Create 校验并写入实体，返回写入后的实体
	Create(ctx context.Context, item *T) (*T, error)

	// List 按条件列出实体
	List(ctx context.Context, opts ListOptions) ([]*T, error)

	// GetByID 根据 ID 获取，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*T, error)

	// Update 局部更新，不存在时返回 nil, nil
	Update(ctx context.Context, id string, partial map[string]any) (*T, error)

	// Delete 删除实体，返回是否删除了记录
	Delete(ctx context.Context, id string) (bool, error)

	// Search 按名称关键字模糊搜索
	Search(ctx context.Context, keyword string, limit int) ([]*T, error)
}

// DocumentStore 整个数据集文档的存取
type DocumentStore interface {
	// Load 返回当前文档，不存在时返回 nil, nil
	Load(ctx context.Context) ([]byte, error)

	// Save 整体替换文档
	Save(ctx context.Context, doc []byte) error
}
