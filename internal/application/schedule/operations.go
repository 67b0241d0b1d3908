package schedule

import (
	"context"

	"project-schedule-api/internal/domain/entity"
)

// AddProject 新增项目并返回带 ID 的结果
func (s *Store) AddProject(ctx context.Context, p entity.Project) (entity.Project, error) {
	res, err := s.Dispatch(ctx, AddProject{Project: p})
	if err != nil {
		return entity.Project{}, err
	}
	return res.State.Projects[len(res.State.Projects)-1], nil
}

// UpdateProject 局部更新项目
func (s *Store) UpdateProject(ctx context.Context, id string, patch ProjectPatch) error {
	_, err := s.Dispatch(ctx, UpdateProject{ID: id, Patch: patch})
	return err
}

// DeleteProject 删除项目及其任务
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	_, err := s.Dispatch(ctx, DeleteProject{ID: id})
	return err
}

// AddTask 新增任务
func (s *Store) AddTask(ctx context.Context, t entity.Task) (entity.Task, error) {
	res, err := s.Dispatch(ctx, AddTask{Task: t})
	if err != nil {
		return entity.Task{}, err
	}
	return res.State.Tasks[len(res.State.Tasks)-1], nil
}

// UpdateTask 局部更新任务
func (s *Store) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	_, err := s.Dispatch(ctx, UpdateTask{ID: id, Patch: patch})
	return err
}

// DeleteTask 删除任务
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	_, err := s.Dispatch(ctx, DeleteTask{ID: id})
	return err
}

// AddTaskType 新增任务类型
func (s *Store) AddTaskType(ctx context.Context, t entity.TaskType) (entity.TaskType, error) {
	res, err := s.Dispatch(ctx, AddTaskType{TaskType: t})
	if err != nil {
		return entity.TaskType{}, err
	}
	return res.State.TaskTypes[len(res.State.TaskTypes)-1], nil
}

// UpdateTaskType 更新任务类型
func (s *Store) UpdateTaskType(ctx context.Context, id string, patch TaskTypePatch) error {
	_, err := s.Dispatch(ctx, UpdateTaskType{ID: id, Patch: patch})
	return err
}

// DeleteTaskType 删除任务类型
func (s *Store) DeleteTaskType(ctx context.Context, id string) error {
	_, err := s.Dispatch(ctx, DeleteTaskType{ID: id})
	return err
}

// AddPMO 新增 PMO
func (s *Store) AddPMO(ctx context.Context, p entity.PMO) (entity.PMO, error) {
	res, err := s.Dispatch(ctx, AddPMO{PMO: p})
	if err != nil {
		return entity.PMO{}, err
	}
	return res.State.PMOs[len(res.State.PMOs)-1], nil
}

// UpdatePMO 更新 PMO
func (s *Store) UpdatePMO(ctx context.Context, id string, patch PersonPatch) error {
	_, err := s.Dispatch(ctx, UpdatePMO{ID: id, Patch: patch})
	return err
}

// DeletePMO 删除 PMO
func (s *Store) DeletePMO(ctx context.Context, id string) error {
	_, err := s.Dispatch(ctx, DeletePMO{ID: id})
	return err
}

// AddProductManager 新增产品经理
func (s *Store) AddProductManager(ctx context.Context, p entity.ProductManager) (entity.ProductManager, error) {
	res, err := s.Dispatch(ctx, AddProductManager{ProductManager: p})
	if err != nil {
		return entity.ProductManager{}, err
	}
	return res.State.ProductManagers[len(res.State.ProductManagers)-1], nil
}

// UpdateProductManager 更新产品经理
func (s *Store) UpdateProductManager(ctx context.Context, id string, patch PersonPatch) error {
	_, err := s.Dispatch(ctx, UpdateProductManager{ID: id, Patch: patch})
	return err
}

// DeleteProductManager 删除产品经理
func (s *Store) DeleteProductManager(ctx context.Context, id string) error {
	_, err := s.Dispatch(ctx, DeleteProductManager{ID: id})
	return err
}

// SetProjects 整体替换项目
func (s *Store) SetProjects(ctx context.Context, projects []entity.Project) error {
	_, err := s.Dispatch(ctx, SetProjects{Projects: projects})
	return err
}

// SetTasks 整体替换任务
func (s *Store) SetTasks(ctx context.Context, tasks []entity.Task) error {
	_, err := s.Dispatch(ctx, SetTasks{Tasks: tasks})
	return err
}

// SetTaskTypes 整体替换任务类型
func (s *Store) SetTaskTypes(ctx context.Context, taskTypes []entity.TaskType) error {
	_, err := s.Dispatch(ctx, SetTaskTypes{TaskTypes: taskTypes})
	return err
}

// SetPMOs 整体替换 PMO
func (s *Store) SetPMOs(ctx context.Context, pmos []entity.PMO) error {
	_, err := s.Dispatch(ctx, SetPMOs{PMOs: pmos})
	return err
}

// SetProductManagers 整体替换产品经理
func (s *Store) SetProductManagers(ctx context.Context, pms []entity.ProductManager) error {
	_, err := s.Dispatch(ctx, SetProductManagers{ProductManagers: pms})
	return err
}

// SetHistoryRecords 整体替换历史记录
func (s *Store) SetHistoryRecords(ctx context.Context, records []entity.HistoryRecord) error {
	_, err := s.Dispatch(ctx, SetHistoryRecords{Records: records})
	return err
}

// ClearHistory 清空历史记录
func (s *Store) ClearHistory(ctx context.Context) error {
	_, err := s.Dispatch(ctx, ClearHistory{})
	return err
}
