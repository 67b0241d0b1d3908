// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"project-schedule-api/internal/domain/repository"
	apperrors "project-schedule-api/pkg/errors"
	"project-schedule-api/pkg/metrics"
)

// Model 可被 Manager 管理的实体指针
type Model[T any] interface {
	*T
	GetID() string
	SetID(string)
}

// ManagerConfig 实体管理器配置
type ManagerConfig struct {
	// Name 实体名，用于 span 与指标
	Name string
	// IDPrefix 生成 ID 的前缀，形如 <prefix>-<毫秒时间戳>
	IDPrefix string
	// Filters 可过滤字段：JSON 字段名 -> 列名
	Filters map[string]string
	// SearchColumn 关键字搜索的列
	SearchColumn string
	// DefaultOrder 默认排序
	DefaultOrder string
}

// Manager 通用实体仓储，写入前做结构校验
type Manager[T any, PT Model[T]] struct {
	client   *Client
	validate *validator.Validate
	cfg      ManagerConfig
	now      func() time.Time
}

// NewManager 创建实体管理器
func NewManager[T any, PT Model[T]](client *Client, validate *validator.Validate, cfg ManagerConfig) *Manager[T, PT] {
	if cfg.SearchColumn == "" {
		cfg.SearchColumn = "name"
	}
	if cfg.DefaultOrder == "" {
		cfg.DefaultOrder = "id ASC"
	}
	return &Manager[T, PT]{
		client:   client,
		validate: validate,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Create 校验并创建实体
func (m *Manager[T, PT]) Create(ctx context.Context, item *T) (*T, error) {
	ctx, span := tracer.Start(ctx, m.spanName("Create"))
	defer span.End()

	if err := m.check(item); err != nil {
		return nil, err
	}
	p := PT(item)
	if p.GetID() == "" {
		p.SetID(fmt.Sprintf("%s-%d", m.cfg.IDPrefix, m.now().UnixMilli()))
	}

	if err := getDB(ctx, m.client.db).Create(item).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create %s: %w", m.cfg.Name, err)
	}
	return item, nil
}

// List 按条件列出实体
func (m *Manager[T, PT]) List(ctx context.Context, opts repository.ListOptions) ([]*T, error) {
	ctx, span := tracer.Start(ctx, m.spanName("List"))
	defer span.End()

	conds, err := resolveFilters(opts.Filters, m.cfg.Filters)
	if err != nil {
		return nil, err
	}
	order, err := resolveOrder(opts.Sort, m.cfg.Filters, m.cfg.DefaultOrder)
	if err != nil {
		return nil, err
	}

	db := getDB(ctx, m.client.db)
	for _, c := range conds {
		db = db.Where(c.column+" = ANY(?)", pq.Array(c.values))
	}
	db = db.Order(order)
	if opts.Limit > 0 {
		db = db.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		db = db.Offset(opts.Offset)
	}

	var items []*T
	if err := db.Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list %s: %w", m.cfg.Name, err)
	}
	return items, nil
}

// GetByID 根据 ID 获取，不存在返回 nil
func (m *Manager[T, PT]) GetByID(ctx context.Context, id string) (*T, error) {
	ctx, span := tracer.Start(ctx, m.spanName("GetByID"))
	defer span.End()

	var item T
	if err := getDB(ctx, m.client.db).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get %s: %w", m.cfg.Name, err)
	}
	return &item, nil
}

// Update 将 partial（JSON 字段名）合并到现有实体，校验后保存
func (m *Manager[T, PT]) Update(ctx context.Context, id string, partial map[string]any) (*T, error) {
	ctx, span := tracer.Start(ctx, m.spanName("Update"))
	defer span.End()

	current, err := m.GetByID(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}

	merged, err := mergePartial(current, partial)
	if err != nil {
		return nil, apperrors.ErrValidationFailed.WithDetail(err.Error()).WithError(err)
	}
	if err := m.check(merged); err != nil {
		return nil, err
	}

	if err := getDB(ctx, m.client.db).Save(merged).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update %s: %w", m.cfg.Name, err)
	}
	return merged, nil
}

// Delete 删除实体，返回是否有记录被删除
func (m *Manager[T, PT]) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, m.spanName("Delete"))
	defer span.End()

	result := getDB(ctx, m.client.db).Delete(new(T), "id = ?", id)
	if result.Error != nil {
		span.RecordError(result.Error)
		return false, fmt.Errorf("failed to delete %s: %w", m.cfg.Name, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Search 按关键字模糊匹配
func (m *Manager[T, PT]) Search(ctx context.Context, keyword string, limit int) ([]*T, error) {
	ctx, span := tracer.Start(ctx, m.spanName("Search"))
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var items []*T
	err := getDB(ctx, m.client.db).
		Where(m.cfg.SearchColumn+" ILIKE ?", "%"+escapeLike(keyword)+"%").
		Order(m.cfg.DefaultOrder).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search %s: %w", m.cfg.Name, err)
	}
	return items, nil
}

// check 结构校验，失败返回 VALIDATION_FAILED
func (m *Manager[T, PT]) check(item *T) error {
	if item == nil {
		return apperrors.ErrValidationFailed.WithDetail(m.cfg.Name + " is required")
	}
	if err := m.validate.Struct(item); err != nil {
		metrics.ValidationTotal.WithLabelValues(m.cfg.Name, "rejected").Inc()
		return apperrors.ErrValidationFailed.WithDetail(describeValidation(err)).WithError(err)
	}
	metrics.ValidationTotal.WithLabelValues(m.cfg.Name, "accepted").Inc()
	return nil
}

func (m *Manager[T, PT]) spanName(op string) string {
	return "postgres." + m.cfg.Name + "Repository." + op
}

type filterCond struct {
	column string
	values []string
}

// resolveFilters 把 JSON 字段过滤转换为列过滤，未知字段视为校验错误
func resolveFilters(filters map[string][]string, allowed map[string]string) ([]filterCond, error) {
	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	conds := make([]filterCond, 0, len(fields))
	for _, f := range fields {
		values := filters[f]
		if len(values) == 0 {
			continue
		}
		col, ok := allowed[f]
		if !ok {
			return nil, apperrors.ErrValidationFailed.WithDetail("unsupported filter: " + f)
		}
		conds = append(conds, filterCond{column: col, values: values})
	}
	return conds, nil
}

func resolveOrder(s *repository.Sort, allowed map[string]string, def string) (string, error) {
	if s == nil || s.Field == "" {
		return def, nil
	}
	col, ok := allowed[s.Field]
	if !ok {
		if s.Field != "name" && s.Field != "id" {
			return "", apperrors.ErrValidationFailed.WithDetail("unsupported sort field: " + s.Field)
		}
		col = s.Field
	}
	dir := repository.SortOrderAsc
	if strings.EqualFold(string(s.Order), string(repository.SortOrderDesc)) {
		dir = repository.SortOrderDesc
	}
	return col + " " + string(dir), nil
}

// mergePartial 以 JSON Merge Patch 合并局部字段，id 不可修改
func mergePartial[T any](current *T, partial map[string]any) (*T, error) {
	doc, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any, len(partial))
	for k, v := range partial {
		if k == "id" {
			continue
		}
		fields[k] = v
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	raw, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, fmt.Errorf("invalid merge patch: %w", err)
	}
	var merged T
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, fmt.Errorf("invalid field value: %w", err)
	}
	return &merged, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
