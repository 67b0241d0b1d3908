package schedule

import (
	"project-schedule-api/internal/domain/entity"
)

// Command 一次状态变更
// 所有命令都由 Apply 纯函数执行，不做任何 I/O
type Command interface {
	apply(d *entity.Dataset, c *changeSet) (bool, error)
}

// AddProject 新增项目，ID 为空时自动生成
type AddProject struct{ Project entity.Project }

func (cmd AddProject) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	d.Projects = addItem(d.Projects, cmd.Project, entity.EntityTypeProject, entity.IDPrefixProject, c)
	return true, nil
}

// UpdateProject 局部更新项目
type UpdateProject struct {
	ID    string
	Patch ProjectPatch
}

func (cmd UpdateProject) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	return updateItem(d.Projects, cmd.ID, entity.EntityTypeProject, cmd.Patch.applyTo, c)
}

// DeleteProject 删除项目，并在同一次变更中删除其下所有任务
type DeleteProject struct{ ID string }

func (cmd DeleteProject) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	projects, err := deleteItem(d.Projects, cmd.ID, entity.EntityTypeProject, c)
	if err != nil {
		return false, err
	}
	d.Projects = projects

	tasks := make([]entity.Task, 0, len(d.Tasks))
	for i := range d.Tasks {
		t := &d.Tasks[i]
		if t.ProjectID == cmd.ID {
			c.record(entity.EntityTypeTask, t.ID, t.EntityName(), entity.OperationDelete, nil)
			continue
		}
		tasks = append(tasks, *t)
	}
	d.Tasks = tasks
	return true, nil
}

// AddTask 新增任务，TaskType 按传入值保存快照
type AddTask struct{ Task entity.Task }

func (cmd AddTask) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	d.Tasks = addItem(d.Tasks, cmd.Task, entity.EntityTypeTask, entity.IDPrefixTask, c)
	return true, nil
}

// UpdateTask 局部更新任务
type UpdateTask struct {
	ID    string
	Patch TaskPatch
}

func (cmd UpdateTask) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	return updateItem(d.Tasks, cmd.ID, entity.EntityTypeTask, cmd.Patch.applyTo, c)
}

// DeleteTask 删除任务
type DeleteTask struct{ ID string }

func (cmd DeleteTask) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	tasks, err := deleteItem(d.Tasks, cmd.ID, entity.EntityTypeTask, c)
	if err != nil {
		return false, err
	}
	d.Tasks = tasks
	return true, nil
}

// AddTaskType 新增任务类型
type AddTaskType struct{ TaskType entity.TaskType }

func (cmd AddTaskType) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	d.TaskTypes = addItem(d.TaskTypes, cmd.TaskType, entity.EntityTypeTaskType, entity.IDPrefixTaskType, c)
	return true, nil
}

// UpdateTaskType 更新任务类型，已有任务中的快照不受影响
type UpdateTaskType struct {
	ID    string
	Patch TaskTypePatch
}

func (cmd UpdateTaskType) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	return updateItem(d.TaskTypes, cmd.ID, entity.EntityTypeTaskType, cmd.Patch.applyTo, c)
}

// DeleteTaskType 删除任务类型
type DeleteTaskType struct{ ID string }

func (cmd DeleteTaskType) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	items, err := deleteItem(d.TaskTypes, cmd.ID, entity.EntityTypeTaskType, c)
	if err != nil {
		return false, err
	}
	d.TaskTypes = items
	return true, nil
}

// AddPMO 新增 PMO
type AddPMO struct{ PMO entity.PMO }

func (cmd AddPMO) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	d.PMOs = addItem(d.PMOs, cmd.PMO, entity.EntityTypePMO, entity.IDPrefixPMO, c)
	return true, nil
}

// UpdatePMO 更新 PMO
type UpdatePMO struct {
	ID    string
	Patch PersonPatch
}

func (cmd UpdatePMO) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	return updateItem(d.PMOs, cmd.ID, entity.EntityTypePMO, cmd.Patch.applyToPMO, c)
}

// DeletePMO 删除 PMO
type DeletePMO struct{ ID string }

func (cmd DeletePMO) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	items, err := deleteItem(d.PMOs, cmd.ID, entity.EntityTypePMO, c)
	if err != nil {
		return false, err
	}
	d.PMOs = items
	return true, nil
}

// AddProductManager 新增产品经理
type AddProductManager struct{ ProductManager entity.ProductManager }

func (cmd AddProductManager) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	d.ProductManagers = addItem(d.ProductManagers, cmd.ProductManager, entity.EntityTypeProductManager, entity.IDPrefixProductManager, c)
	return true, nil
}

// UpdateProductManager 更新产品经理
type UpdateProductManager struct {
	ID    string
	Patch PersonPatch
}

func (cmd UpdateProductManager) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	return updateItem(d.ProductManagers, cmd.ID, entity.EntityTypeProductManager, cmd.Patch.applyToProductManager, c)
}

// DeleteProductManager 删除产品经理
type DeleteProductManager struct{ ID string }

func (cmd DeleteProductManager) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	items, err := deleteItem(d.ProductManagers, cmd.ID, entity.EntityTypeProductManager, c)
	if err != nil {
		return false, err
	}
	d.ProductManagers = items
	return true, nil
}

// SetProjects 整体替换项目集合，按 ID 对比生成新增、修改、删除记录
type SetProjects struct{ Projects []entity.Project }

func (cmd SetProjects) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	var changed bool
	d.Projects, changed = replaceItems(d.Projects, cmd.Projects, entity.EntityTypeProject, entity.IDPrefixProject, c)
	return changed, nil
}

// SetTasks 整体替换任务集合
type SetTasks struct{ Tasks []entity.Task }

func (cmd SetTasks) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	var changed bool
	d.Tasks, changed = replaceItems(d.Tasks, cmd.Tasks, entity.EntityTypeTask, entity.IDPrefixTask, c)
	return changed, nil
}

// SetTaskTypes 整体替换任务类型集合
type SetTaskTypes struct{ TaskTypes []entity.TaskType }

func (cmd SetTaskTypes) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	var changed bool
	d.TaskTypes, changed = replaceItems(d.TaskTypes, cmd.TaskTypes, entity.EntityTypeTaskType, entity.IDPrefixTaskType, c)
	return changed, nil
}

// SetPMOs 整体替换 PMO 集合
type SetPMOs struct{ PMOs []entity.PMO }

func (cmd SetPMOs) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	var changed bool
	d.PMOs, changed = replaceItems(d.PMOs, cmd.PMOs, entity.EntityTypePMO, entity.IDPrefixPMO, c)
	return changed, nil
}

// SetProductManagers 整体替换产品经理集合
type SetProductManagers struct{ ProductManagers []entity.ProductManager }

func (cmd SetProductManagers) apply(d *entity.Dataset, c *changeSet) (bool, error) {
	var changed bool
	d.ProductManagers, changed = replaceItems(d.ProductManagers, cmd.ProductManagers, entity.EntityTypeProductManager, entity.IDPrefixProductManager, c)
	return changed, nil
}

// SetHistoryRecords 整体替换历史记录，本身不产生历史
type SetHistoryRecords struct{ Records []entity.HistoryRecord }

func (cmd SetHistoryRecords) apply(d *entity.Dataset, _ *changeSet) (bool, error) {
	next := append([]entity.HistoryRecord{}, cmd.Records...)
	changed := !sameItems(d.HistoryRecords, next)
	d.HistoryRecords = next
	return changed, nil
}

// ClearHistory 清空历史记录
type ClearHistory struct{}

func (ClearHistory) apply(d *entity.Dataset, _ *changeSet) (bool, error) {
	if len(d.HistoryRecords) == 0 {
		return false, nil
	}
	d.HistoryRecords = []entity.HistoryRecord{}
	return true, nil
}
