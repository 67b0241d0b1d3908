package schedule

import "project-schedule-api/internal/domain/entity"

// Ptr 返回 v 的指针，便于构造补丁
func Ptr[T any](v T) *T {
	return &v
}

// ProjectPatch 项目局部更新，nil 字段保持不变
// JSON 字段名与实体一致，可直接由 JSON 反序列化得到
type ProjectPatch struct {
	Name           *string                 `json:"name,omitempty"`
	Status         *entity.ProjectStatus   `json:"status,omitempty"`
	Progress       *int                    `json:"progress,omitempty"`
	StartDate      *string                 `json:"startDate,omitempty"`
	EndDate        *string                 `json:"endDate,omitempty"`
	Owner          *string                 `json:"owner,omitempty"`
	Partners       *[]string               `json:"partners,omitempty"`
	Developers     *[]string               `json:"developers,omitempty"`
	Testers        *[]string               `json:"testers,omitempty"`
	ProductManager *string                 `json:"productManager,omitempty"`
	PMO            *string                 `json:"pmo,omitempty"`
	Remark         *string                 `json:"remark,omitempty"`
	ChatGroupLinks *[]string               `json:"chatGroupLinks,omitempty"`
	Contacts       *[]entity.Contact       `json:"contacts,omitempty"`
	DailyProgress  *[]entity.DailyProgress `json:"dailyProgress,omitempty"`
}

func (p ProjectPatch) applyTo(x *entity.Project) {
	set(&x.Name, p.Name)
	set(&x.Status, p.Status)
	set(&x.Progress, p.Progress)
	set(&x.StartDate, p.StartDate)
	set(&x.EndDate, p.EndDate)
	set(&x.Owner, p.Owner)
	set(&x.Partners, p.Partners)
	set(&x.Developers, p.Developers)
	set(&x.Testers, p.Testers)
	set(&x.ProductManager, p.ProductManager)
	set(&x.PMO, p.PMO)
	set(&x.Remark, p.Remark)
	set(&x.ChatGroupLinks, p.ChatGroupLinks)
	set(&x.Contacts, p.Contacts)
	set(&x.DailyProgress, p.DailyProgress)
}

// TaskPatch 任务局部更新
type TaskPatch struct {
	ProjectID    *string                   `json:"projectId,omitempty"`
	Name         *string                   `json:"name,omitempty"`
	TaskType     *entity.TaskType          `json:"taskType,omitempty"`
	Status       *entity.TaskStatus        `json:"status,omitempty"`
	Progress     *int                      `json:"progress,omitempty"`
	StartDate    *string                   `json:"startDate,omitempty"`
	EndDate      *string                   `json:"endDate,omitempty"`
	Assignees    *[]string                 `json:"assignees,omitempty"`
	DailyRecords *[]entity.DailyTaskRecord `json:"dailyRecords,omitempty"`
}

func (p TaskPatch) applyTo(x *entity.Task) {
	set(&x.ProjectID, p.ProjectID)
	set(&x.Name, p.Name)
	set(&x.TaskType, p.TaskType)
	set(&x.Status, p.Status)
	set(&x.Progress, p.Progress)
	set(&x.StartDate, p.StartDate)
	set(&x.EndDate, p.EndDate)
	set(&x.Assignees, p.Assignees)
	set(&x.DailyRecords, p.DailyRecords)
}

// TaskTypePatch 任务类型局部更新
type TaskTypePatch struct {
	Name    *string `json:"name,omitempty"`
	Color   *string `json:"color,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

func (p TaskTypePatch) applyTo(x *entity.TaskType) {
	set(&x.Name, p.Name)
	set(&x.Color, p.Color)
	set(&x.Enabled, p.Enabled)
}

// PersonPatch PMO 与产品经理的局部更新
type PersonPatch struct {
	Name    *string `json:"name,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

func (p PersonPatch) applyToPMO(x *entity.PMO) {
	set(&x.Name, p.Name)
	set(&x.Enabled, p.Enabled)
}

func (p PersonPatch) applyToProductManager(x *entity.ProductManager) {
	set(&x.Name, p.Name)
	set(&x.Enabled, p.Enabled)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
