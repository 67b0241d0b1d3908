package schedule

import (
	"time"

	"github.com/tidwall/gjson"

	"project-schedule-api/internal/domain/entity"
)

// Decode 把服务端返回的文档宽松地转换为数据集
// 集合不是数组时视为空，字段类型不符时取零值，非对象元素被跳过；永远不会失败
func Decode(raw []byte) entity.Dataset {
	root := gjson.ParseBytes(raw)
	d := entity.Dataset{
		Projects:        decodeArray(root.Get(entity.CollectionProjects), decodeProject),
		Tasks:           decodeArray(root.Get(entity.CollectionTasks), decodeTask),
		TaskTypes:       decodeArray(root.Get(entity.CollectionTaskTypes), decodeTaskType),
		PMOs:            decodeArray(root.Get(entity.CollectionPMOs), decodePMO),
		ProductManagers: decodeArray(root.Get(entity.CollectionProductManagers), decodeProductManager),
		HistoryRecords:  decodeArray(root.Get(entity.CollectionHistoryRecords), decodeHistoryRecord),
	}
	d.Normalize()
	return d
}

// HasCollections 文档中是否至少有一个非空集合
func HasCollections(raw []byte) bool {
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return false
	}
	for _, name := range entity.CollectionNames {
		if v := root.Get(name); v.IsArray() && len(v.Array()) > 0 {
			return true
		}
	}
	return false
}

func decodeArray[T any](v gjson.Result, fn func(gjson.Result) T) []T {
	if !v.IsArray() {
		return []T{}
	}
	elems := v.Array()
	out := make([]T, 0, len(elems))
	for _, e := range elems {
		if !e.IsObject() {
			continue
		}
		out = append(out, fn(e))
	}
	return out
}

func decodeProject(v gjson.Result) entity.Project {
	return entity.Project{
		ID:             str(v.Get("id")),
		Name:           str(v.Get("name")),
		Status:         entity.ProjectStatus(str(v.Get("status"))),
		Progress:       num(v.Get("progress")),
		StartDate:      str(v.Get("startDate")),
		EndDate:        str(v.Get("endDate")),
		Owner:          str(v.Get("owner")),
		Partners:       strs(v.Get("partners")),
		Developers:     strs(v.Get("developers")),
		Testers:        strs(v.Get("testers")),
		ProductManager: str(v.Get("productManager")),
		PMO:            str(v.Get("pmo")),
		Remark:         str(v.Get("remark")),
		ChatGroupLinks: optionalStrs(v.Get("chatGroupLinks")),
		Contacts:       optionalArray(v.Get("contacts"), decodeContact),
		DailyProgress:  optionalArray(v.Get("dailyProgress"), decodeDailyProgress),
		CreatedAt:      timestamp(v.Get("createdAt")),
		UpdatedAt:      timestamp(v.Get("updatedAt")),
	}
}

func decodeContact(v gjson.Result) entity.Contact {
	return entity.Contact{
		Name:  str(v.Get("name")),
		Role:  str(v.Get("role")),
		Phone: str(v.Get("phone")),
	}
}

func decodeDailyProgress(v gjson.Result) entity.DailyProgress {
	return entity.DailyProgress{
		Date:     str(v.Get("date")),
		Progress: num(v.Get("progress")),
		Content:  str(v.Get("content")),
	}
}

func decodeTask(v gjson.Result) entity.Task {
	return entity.Task{
		ID:           str(v.Get("id")),
		ProjectID:    str(v.Get("projectId")),
		Name:         str(v.Get("name")),
		TaskType:     decodeTaskType(v.Get("taskType")),
		Status:       entity.TaskStatus(str(v.Get("status"))),
		Progress:     num(v.Get("progress")),
		StartDate:    str(v.Get("startDate")),
		EndDate:      str(v.Get("endDate")),
		Assignees:    strs(v.Get("assignees")),
		DailyRecords: optionalArray(v.Get("dailyRecords"), decodeDailyTaskRecord),
		CreatedAt:    timestamp(v.Get("createdAt")),
		UpdatedAt:    timestamp(v.Get("updatedAt")),
	}
}

func decodeDailyTaskRecord(v gjson.Result) entity.DailyTaskRecord {
	return entity.DailyTaskRecord{
		Date:      str(v.Get("date")),
		Progress:  num(v.Get("progress")),
		Status:    entity.TaskStatus(str(v.Get("status"))),
		Content:   str(v.Get("content")),
		Assignees: strs(v.Get("assignees")),
	}
}

// decodeTaskType 对非对象输入同样返回零值
func decodeTaskType(v gjson.Result) entity.TaskType {
	return entity.TaskType{
		ID:      str(v.Get("id")),
		Name:    str(v.Get("name")),
		Color:   str(v.Get("color")),
		Enabled: boolean(v.Get("enabled")),
	}
}

func decodePMO(v gjson.Result) entity.PMO {
	return entity.PMO{
		ID:      str(v.Get("id")),
		Name:    str(v.Get("name")),
		Enabled: boolean(v.Get("enabled")),
	}
}

func decodeProductManager(v gjson.Result) entity.ProductManager {
	return entity.ProductManager{
		ID:      str(v.Get("id")),
		Name:    str(v.Get("name")),
		Enabled: boolean(v.Get("enabled")),
	}
}

func decodeHistoryRecord(v gjson.Result) entity.HistoryRecord {
	return entity.HistoryRecord{
		ID:         str(v.Get("id")),
		EntityType: entity.EntityType(str(v.Get("entityType"))),
		EntityID:   str(v.Get("entityId")),
		EntityName: str(v.Get("entityName")),
		Operation:  entity.Operation(str(v.Get("operation"))),
		Operator:   str(v.Get("operator")),
		OperatedAt: timestamp(v.Get("operatedAt")),
		Changes:    decodeChanges(v.Get("changes")),
	}
}

func decodeChanges(v gjson.Result) entity.Changes {
	if !v.IsObject() {
		return nil
	}
	changes := entity.Changes{}
	v.ForEach(func(key, value gjson.Result) bool {
		if value.IsObject() {
			changes[key.String()] = entity.FieldChange{
				From: value.Get("from").Value(),
				To:   value.Get("to").Value(),
			}
		}
		return true
	})
	if len(changes) == 0 {
		return nil
	}
	return changes
}

func str(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

func num(v gjson.Result) int {
	if v.Type != gjson.Number {
		return 0
	}
	return int(v.Int())
}

func boolean(v gjson.Result) bool {
	return v.Type == gjson.True
}

// strs 必填数组字段，缺失时为空切片
func strs(v gjson.Result) []string {
	out := []string{}
	if !v.IsArray() {
		return out
	}
	for _, e := range v.Array() {
		if e.Type == gjson.String {
			out = append(out, e.Str)
		}
	}
	return out
}

// optionalStrs 可选数组字段，缺失时保持 nil 以便序列化时省略
func optionalStrs(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	return strs(v)
}

func optionalArray[T any](v gjson.Result, fn func(gjson.Result) T) []T {
	if !v.IsArray() {
		return nil
	}
	return decodeArray(v, fn)
}

// timestamp 支持 RFC3339 字符串与毫秒时间戳
func timestamp(v gjson.Result) time.Time {
	switch v.Type {
	case gjson.String:
		t, err := time.Parse(time.RFC3339Nano, v.Str)
		if err != nil {
			return time.Time{}
		}
		return t
	case gjson.Number:
		return time.UnixMilli(v.Int())
	default:
		return time.Time{}
	}
}
