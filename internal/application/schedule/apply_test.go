package schedule

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-schedule-api/internal/domain/entity"
	apperrors "project-schedule-api/pkg/errors"
)

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func sampleState() entity.Dataset {
	d := entity.Dataset{
		Projects: []entity.Project{
			{
				ID: "project-1", Name: "会员中心改版", Status: entity.ProjectStatusNormal, Progress: 50,
				StartDate: "2025-03-01", EndDate: "2025-04-10", Owner: "王强",
				Developers: []string{"李娜"}, Testers: []string{"赵敏"}, PMO: "陈晨",
			},
			{ID: "project-2", Name: "结算系统升级", Status: entity.ProjectStatusRisk, Progress: 20},
		},
		Tasks: []entity.Task{
			{ID: "task-1-1", ProjectID: "project-1", Name: "开发", Progress: 60},
			{ID: "task-1-2", ProjectID: "project-1", Name: "联调", Progress: 10},
			{ID: "task-1-3", ProjectID: "project-1", Name: "测试"},
			{ID: "task-2-1", ProjectID: "project-2", Name: "开发"},
		},
		TaskTypes: entity.DefaultTaskTypes(),
	}
	d.Normalize()
	return d
}

func meta() Meta {
	return Meta{Now: fixedNow}
}

func TestUpdateProjectRecordsOnlyChangedField(t *testing.T) {
	state := sampleState()

	res, err := Apply(state, UpdateProject{ID: "project-1", Patch: ProjectPatch{Progress: Ptr(80)}}, meta())
	require.NoError(t, err)
	require.True(t, res.Changed)

	require.Len(t, res.History, 1)
	rec := res.History[0]
	assert.Equal(t, entity.EntityTypeProject, rec.EntityType)
	assert.Equal(t, "project-1", rec.EntityID)
	assert.Equal(t, "会员中心改版", rec.EntityName)
	assert.Equal(t, entity.OperationUpdate, rec.Operation)
	assert.Equal(t, entity.DefaultOperator, rec.Operator)
	assert.Equal(t, fixedNow, rec.OperatedAt)
	assert.Equal(t, entity.Changes{"progress": {From: 50, To: 80}}, rec.Changes)

	assert.Equal(t, 80, res.State.Projects[0].Progress)
	assert.Equal(t, []entity.HistoryRecord{rec}, res.State.HistoryRecords)
	assert.Equal(t, 50, state.Projects[0].Progress, "input state must not be mutated")
	assert.Empty(t, state.HistoryRecords)
}

func TestUpdateWithUnchangedFieldsOnlyDiffsChangedOnes(t *testing.T) {
	patch := ProjectPatch{
		Name:       Ptr("会员中心改版"),
		Owner:      Ptr("王强"),
		Status:     Ptr(entity.ProjectStatusDelayed),
		Developers: Ptr([]string{"李娜", "周杰"}),
	}
	res, err := Apply(sampleState(), UpdateProject{ID: "project-1", Patch: patch}, meta())
	require.NoError(t, err)

	require.Len(t, res.History, 1)
	assert.ElementsMatch(t, []string{"status", "developers"}, keys(res.History[0].Changes))
}

func TestNoopUpdateProducesNothing(t *testing.T) {
	state := sampleState()
	res, err := Apply(state, UpdateProject{ID: "project-1", Patch: ProjectPatch{Progress: Ptr(50)}}, meta())
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, res.History)
	assert.Equal(t, state, res.State)
}

func TestNoisyFieldUpdateChangesStateWithoutHistory(t *testing.T) {
	records := []entity.DailyTaskRecord{{Date: "2025-03-10", Progress: 70, Content: "完成接口"}}
	res, err := Apply(sampleState(), UpdateTask{ID: "task-1-1", Patch: TaskPatch{DailyRecords: &records}}, meta())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Empty(t, res.History)
	assert.Equal(t, records, res.State.Tasks[0].DailyRecords)
}

func TestDeleteProjectCascadesTasks(t *testing.T) {
	res, err := Apply(sampleState(), DeleteProject{ID: "project-1"}, meta())
	require.NoError(t, err)

	for _, task := range res.State.Tasks {
		assert.NotEqual(t, "project-1", task.ProjectID)
	}
	assert.Len(t, res.State.Tasks, 1)
	assert.Len(t, res.State.Projects, 1)

	require.Len(t, res.History, 4)
	assert.Equal(t, entity.EntityTypeProject, res.History[0].EntityType)
	for _, rec := range res.History[1:] {
		assert.Equal(t, entity.EntityTypeTask, rec.EntityType)
		assert.Equal(t, entity.OperationDelete, rec.Operation)
	}

	ids := map[string]bool{}
	for _, rec := range res.History {
		ids[rec.ID] = true
	}
	assert.Len(t, ids, 4, "history ids are unique within one command")
	assert.Equal(t, res.History[3].ID, res.State.HistoryRecords[0].ID, "newest record first")
}

func TestMissingEntityIsNotFound(t *testing.T) {
	cmds := []Command{
		UpdateProject{ID: "project-404", Patch: ProjectPatch{Progress: Ptr(1)}},
		DeleteProject{ID: "project-404"},
		UpdateTask{ID: "task-404"},
		DeleteTask{ID: "task-404"},
		UpdateTaskType{ID: "tasktype-404"},
		DeletePMO{ID: "pmo-404"},
		UpdateProductManager{ID: "pm-404"},
	}
	for _, cmd := range cmds {
		state := sampleState()
		res, err := Apply(state, cmd, meta())
		assert.ErrorIs(t, err, apperrors.ErrNotFound, "%T", cmd)
		assert.False(t, res.Changed)
		assert.Equal(t, state, res.State)
	}
}

func TestAddAssignsIDAndRecordsCreate(t *testing.T) {
	res, err := Apply(sampleState(), AddProject{Project: entity.Project{Name: "新项目"}}, meta())
	require.NoError(t, err)

	created := res.State.Projects[len(res.State.Projects)-1]
	assert.Regexp(t, `^project-\d+$`, created.ID)
	require.Len(t, res.History, 1)
	assert.Equal(t, entity.OperationCreate, res.History[0].Operation)
	assert.Equal(t, created.ID, res.History[0].EntityID)
	assert.Nil(t, res.History[0].Changes)
	assert.Regexp(t, `^history-\d+$`, res.History[0].ID)
}

func TestTaskKeepsTaskTypeSnapshot(t *testing.T) {
	state := sampleState()
	dev := state.TaskTypes[0]

	res, err := Apply(state, AddTask{Task: entity.Task{ProjectID: "project-2", Name: "接口开发", TaskType: dev}}, meta())
	require.NoError(t, err)

	res, err = Apply(res.State, UpdateTaskType{ID: dev.ID, Patch: TaskTypePatch{Color: Ptr("#000000")}}, meta())
	require.NoError(t, err)

	task := res.State.Tasks[len(res.State.Tasks)-1]
	assert.Equal(t, dev.Color, task.TaskType.Color)
	assert.Equal(t, "#000000", res.State.TaskTypes[0].Color)
}

func TestSetProjectsRecordsPerEntity(t *testing.T) {
	state := sampleState()
	updated := state.Projects[0]
	updated.Progress = 90

	res, err := Apply(state, SetProjects{Projects: []entity.Project{
		updated,
		{Name: "新增项目"},
	}}, meta())
	require.NoError(t, err)
	require.True(t, res.Changed)

	ops := map[entity.Operation][]string{}
	for _, rec := range res.History {
		ops[rec.Operation] = append(ops[rec.Operation], rec.EntityID)
	}
	assert.Equal(t, []string{"project-1"}, ops[entity.OperationUpdate])
	assert.Equal(t, []string{"project-2"}, ops[entity.OperationDelete])
	require.Len(t, ops[entity.OperationCreate], 1)
	assert.Regexp(t, `^project-\d+$`, ops[entity.OperationCreate][0])
}

func TestSetWithSameContentIsNoop(t *testing.T) {
	state := sampleState()
	res, err := Apply(state, SetTaskTypes{TaskTypes: entity.DefaultTaskTypes()}, meta())
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestHistoryCommandsDoNotRecordHistory(t *testing.T) {
	state := sampleState()
	res, err := Apply(state, DeleteTask{ID: "task-2-1"}, meta())
	require.NoError(t, err)
	require.Len(t, res.State.HistoryRecords, 1)

	cleared, err := Apply(res.State, ClearHistory{}, meta())
	require.NoError(t, err)
	assert.True(t, cleared.Changed)
	assert.Empty(t, cleared.State.HistoryRecords)
	assert.Empty(t, cleared.History)

	again, err := Apply(cleared.State, ClearHistory{}, meta())
	require.NoError(t, err)
	assert.False(t, again.Changed)

	restored, err := Apply(cleared.State, SetHistoryRecords{Records: res.State.HistoryRecords}, meta())
	require.NoError(t, err)
	assert.True(t, restored.Changed)
	assert.Equal(t, res.State.HistoryRecords, restored.State.HistoryRecords)
	assert.Empty(t, restored.History)
}

func TestOperatorIsInjectable(t *testing.T) {
	res, err := Apply(sampleState(), AddPMO{PMO: entity.PMO{Name: "陈晨", Enabled: true}}, Meta{Now: fixedNow, Operator: "李娜"})
	require.NoError(t, err)
	require.Len(t, res.History, 1)
	assert.Equal(t, "李娜", res.History[0].Operator)
}

func TestPeopleCommands(t *testing.T) {
	state := sampleState()
	res, err := Apply(state, AddProductManager{ProductManager: entity.ProductManager{ID: "pm-9", Name: "刘洋", Enabled: true}}, meta())
	require.NoError(t, err)

	res, err = Apply(res.State, UpdateProductManager{ID: "pm-9", Patch: PersonPatch{Enabled: Ptr(false)}}, meta())
	require.NoError(t, err)
	require.Len(t, res.History, 1)
	assert.Equal(t, entity.Changes{"enabled": {From: true, To: false}}, res.History[0].Changes)

	res, err = Apply(res.State, DeleteProductManager{ID: "pm-9"}, meta())
	require.NoError(t, err)
	assert.Empty(t, res.State.ProductManagers)
	assert.Len(t, res.State.HistoryRecords, 3)
}

func TestIDGeneratorIsMonotonic(t *testing.T) {
	gen := NewIDGenerator(func() time.Time { return fixedNow })
	a := gen.Next("task")
	b := gen.Next("task")
	assert.NotEqual(t, a, b)
	assert.Equal(t, "task-"+strconv.FormatInt(fixedNow.UnixMilli(), 10), a)
	assert.Equal(t, "task-"+strconv.FormatInt(fixedNow.UnixMilli()+1, 10), b)
}

func keys(c entity.Changes) []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	return out
}
