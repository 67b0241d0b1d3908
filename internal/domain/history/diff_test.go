package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-schedule-api/internal/domain/entity"
)

func sampleProject() entity.Project {
	return entity.Project{
		ID:         "project-1",
		Name:       "会员中心改版",
		Status:     entity.ProjectStatusNormal,
		Progress:   50,
		StartDate:  "2025-03-01",
		EndDate:    "2025-04-10",
		Owner:      "张伟",
		Developers: []string{"李娜"},
		Testers:    []string{"吴敏"},
	}
}

func TestDiffOnlyChangedField(t *testing.T) {
	before := sampleProject()
	after := before
	after.Progress = 80

	changes := Diff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, entity.FieldChange{From: 50, To: 80}, changes["progress"])
}

func TestDiffMultipleFields(t *testing.T) {
	before := sampleProject()
	after := before
	after.Status = entity.ProjectStatusRisk
	after.Developers = []string{"李娜", "周杰"}

	changes := Diff(&before, &after)
	assert.Equal(t, []string{"developers", "status"}, Fields(changes))
	assert.Equal(t, entity.ProjectStatusNormal, changes["status"].From)
	assert.Equal(t, []string{"李娜", "周杰"}, changes["developers"].To)
}

func TestDiffIgnoresNoisyFields(t *testing.T) {
	before := sampleProject()
	after := before
	after.DailyProgress = []entity.DailyProgress{{Date: "2025-03-02", Progress: 10, Content: "kickoff"}}
	after.UpdatedAt = time.Now()

	assert.Nil(t, Diff(before, after))

	task := entity.Task{ID: "task-1", Name: "开发"}
	edited := task
	edited.DailyRecords = []entity.DailyTaskRecord{{Date: "2025-03-02", Progress: 20}}
	assert.Nil(t, Diff(task, edited))
}

func TestDiffNilAndEmptySliceEqual(t *testing.T) {
	before := sampleProject()
	after := before
	before.Partners = nil
	after.Partners = []string{}

	assert.Nil(t, Diff(before, after))
}

func TestDiffEmbeddedSnapshot(t *testing.T) {
	before := entity.Task{ID: "task-1", TaskType: entity.TaskType{ID: "tasktype-dev", Name: "开发排期", Color: "#1677ff"}}
	after := before
	after.TaskType.Color = "#000000"

	changes := Diff(before, after)
	require.Contains(t, changes, "taskType")
	assert.Equal(t, "#1677ff", changes["taskType"].From.(entity.TaskType).Color)
}

func TestDiffMismatchedTypes(t *testing.T) {
	assert.Nil(t, Diff(entity.Project{}, entity.Task{}))
	assert.Nil(t, Diff((*entity.Project)(nil), &entity.Project{}))
	assert.Nil(t, Diff(1, 2))
}

func TestIsNoisy(t *testing.T) {
	assert.True(t, IsNoisy("dailyRecords"))
	assert.False(t, IsNoisy("progress"))
}
