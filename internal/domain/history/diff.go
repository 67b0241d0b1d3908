// Package history 计算实体字段级变更，用于生成操作历史
package history

import (
	"reflect"
	"sort"
	"strings"

	"project-schedule-api/internal/domain/entity"
)

// 不参与比较的字段：逐日记录变化频繁，时间戳每次更新都会变化
var noisyFields = map[string]bool{
	"id":            true,
	"dailyRecords":  true,
	"dailyProgress": true,
	"createdAt":     true,
	"updatedAt":     true,
}

// Diff 按 JSON 字段逐一比较 before 与 after，返回发生变化的字段
// 两者必须是同一结构体类型（或其指针）；nil 切片与空切片视为相同
func Diff(before, after any) entity.Changes {
	bv := indirect(reflect.ValueOf(before))
	av := indirect(reflect.ValueOf(after))
	if !bv.IsValid() || !av.IsValid() || bv.Type() != av.Type() || bv.Kind() != reflect.Struct {
		return nil
	}

	changes := entity.Changes{}
	t := bv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := jsonName(sf)
		if name == "" || noisyFields[name] {
			continue
		}

		from := bv.Field(i).Interface()
		to := av.Field(i).Interface()
		if equal(bv.Field(i), av.Field(i)) {
			continue
		}
		changes[name] = entity.FieldChange{From: from, To: to}
	}

	if len(changes) == 0 {
		return nil
	}
	return changes
}

// Fields 返回变更的字段名，按字母序
func Fields(changes entity.Changes) []string {
	names := make([]string, 0, len(changes))
	for k := range changes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// IsNoisy 字段是否被排除在比较之外
func IsNoisy(field string) bool {
	return noisyFields[field]
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name
	}
	return name
}

func equal(a, b reflect.Value) bool {
	if a.Kind() == reflect.Slice && b.Kind() == reflect.Slice && a.Len() == 0 && b.Len() == 0 {
		return true
	}
	if a.Kind() == reflect.Map && b.Kind() == reflect.Map && a.Len() == 0 && b.Len() == 0 {
		return true
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}
