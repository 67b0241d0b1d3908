// Package schedule 实现客户端同步存储：乐观更新、操作历史、持久化重试与定时拉取
package schedule

import (
	"reflect"
	"time"

	"project-schedule-api/internal/domain/entity"
	"project-schedule-api/internal/domain/history"
	apperrors "project-schedule-api/pkg/errors"
)

// Meta 执行命令时的上下文
type Meta struct {
	Operator string
	Now      time.Time
	// IDs 为空时按 Now 生成
	IDs *IDGenerator
}

// Result 命令执行结果
type Result struct {
	State   entity.Dataset
	History []entity.HistoryRecord
	// Changed 为 false 表示状态未变化，无需持久化
	Changed bool
}

// Apply 在 state 的副本上执行命令，state 本身不会被修改
// 生成的历史记录按新记录在前插入到 State.HistoryRecords 头部
func Apply(state entity.Dataset, cmd Command, meta Meta) (Result, error) {
	if meta.Operator == "" {
		meta.Operator = entity.DefaultOperator
	}
	if meta.Now.IsZero() {
		meta.Now = time.Now()
	}
	if meta.IDs == nil {
		now := meta.Now
		meta.IDs = NewIDGenerator(func() time.Time { return now })
	}

	next := state.Clone()
	c := &changeSet{meta: meta}
	changed, err := cmd.apply(&next, c)
	if err != nil {
		return Result{State: state}, err
	}
	if !changed {
		return Result{State: state}, nil
	}

	if len(c.records) > 0 {
		merged := make([]entity.HistoryRecord, 0, len(c.records)+len(next.HistoryRecords))
		for i := len(c.records) - 1; i >= 0; i-- {
			merged = append(merged, c.records[i])
		}
		next.HistoryRecords = append(merged, next.HistoryRecords...)
	}
	next.Normalize()
	return Result{State: next, History: c.records, Changed: true}, nil
}

// changeSet 收集一次命令产生的历史记录
type changeSet struct {
	meta    Meta
	records []entity.HistoryRecord
}

func (c *changeSet) nextID(prefix string) string {
	return c.meta.IDs.Next(prefix)
}

func (c *changeSet) record(et entity.EntityType, id, name string, op entity.Operation, changes entity.Changes) {
	c.records = append(c.records, entity.HistoryRecord{
		ID:         c.nextID(entity.IDPrefixHistory),
		EntityType: et,
		EntityID:   id,
		EntityName: name,
		Operation:  op,
		Operator:   c.meta.Operator,
		OperatedAt: c.meta.Now,
		Changes:    changes,
	})
}

// item 可记录历史的实体指针
type item[T any] interface {
	*T
	GetID() string
	SetID(string)
	EntityName() string
}

func indexOf[T any, PT item[T]](items []T, id string) int {
	for i := range items {
		if PT(&items[i]).GetID() == id {
			return i
		}
	}
	return -1
}

func notFound(et entity.EntityType, id string) error {
	return apperrors.ErrNotFound.WithDetail(string(et) + " " + id + " not found")
}

func addItem[T any, PT item[T]](items []T, v T, et entity.EntityType, prefix string, c *changeSet) []T {
	p := PT(&v)
	if p.GetID() == "" {
		p.SetID(c.nextID(prefix))
	}
	c.record(et, p.GetID(), p.EntityName(), entity.OperationCreate, nil)
	return append(items, v)
}

// updateItem 原地更新 items 中的元素；补丁未改变任何字段时返回 false
// 只改动了噪声字段（如逐日记录）时更新状态但不生成历史
func updateItem[T any, PT item[T]](items []T, id string, et entity.EntityType, patch func(*T), c *changeSet) (bool, error) {
	i := indexOf[T, PT](items, id)
	if i < 0 {
		return false, notFound(et, id)
	}

	before := items[i]
	after := before
	patch(&after)
	PT(&after).SetID(id)
	if reflect.DeepEqual(before, after) {
		return false, nil
	}

	items[i] = after
	if changes := history.Diff(&before, &after); len(changes) > 0 {
		c.record(et, id, PT(&after).EntityName(), entity.OperationUpdate, changes)
	}
	return true, nil
}

func deleteItem[T any, PT item[T]](items []T, id string, et entity.EntityType, c *changeSet) ([]T, error) {
	i := indexOf[T, PT](items, id)
	if i < 0 {
		return nil, notFound(et, id)
	}
	c.record(et, id, PT(&items[i]).EntityName(), entity.OperationDelete, nil)

	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), nil
}

// replaceItems 用 next 替换 old，按 ID 对比逐个生成历史
func replaceItems[T any, PT item[T]](old, next []T, et entity.EntityType, prefix string, c *changeSet) ([]T, bool) {
	out := make([]T, len(next))
	copy(out, next)

	prev := make(map[string]int, len(old))
	for i := range old {
		prev[PT(&old[i]).GetID()] = i
	}
	seen := make(map[string]bool, len(out))

	for i := range out {
		p := PT(&out[i])
		if p.GetID() == "" {
			p.SetID(c.nextID(prefix))
		}
		seen[p.GetID()] = true

		j, ok := prev[p.GetID()]
		if !ok {
			c.record(et, p.GetID(), p.EntityName(), entity.OperationCreate, nil)
			continue
		}
		if changes := history.Diff(&old[j], &out[i]); len(changes) > 0 {
			c.record(et, p.GetID(), p.EntityName(), entity.OperationUpdate, changes)
		}
	}
	for i := range old {
		p := PT(&old[i])
		if !seen[p.GetID()] {
			c.record(et, p.GetID(), p.EntityName(), entity.OperationDelete, nil)
		}
	}
	return out, !sameItems(old, out)
}

func sameItems[T any](a, b []T) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
