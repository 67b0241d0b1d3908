package main

import (
	"bytes"
	"testing"
	"text/tabwriter"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-schedule-api/internal/domain/entity"
)

func sampleProjects() []entity.Project {
	return []entity.Project{
		{ID: "project-1", Name: "会员中心改版", Status: entity.ProjectStatusNormal, Progress: 60, StartDate: "2025-03-01", Developers: []string{"李娜", "周杰"}},
	}
}

func TestPrintOutputFormats(t *testing.T) {
	projects := sampleProjects()

	var buf bytes.Buffer
	require.NoError(t, printOutput(&buf, outputJSON, projects, nil))
	assert.Contains(t, buf.String(), `"startDate": "2025-03-01"`)

	buf.Reset()
	require.NoError(t, printOutput(&buf, outputYAML, projects, nil))
	assert.Contains(t, buf.String(), "startDate:")
	assert.Contains(t, buf.String(), "2025-03-01")
	assert.Contains(t, buf.String(), "name: 会员中心改版")

	buf.Reset()
	require.NoError(t, printOutput(&buf, outputTable, projects, projectTable(projects)))
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "project-1")
	assert.Contains(t, out, "60%")
	assert.Contains(t, out, "李娜,周杰")
}

func TestCheckOutput(t *testing.T) {
	assert.NoError(t, checkOutput("table"))
	assert.NoError(t, checkOutput("yaml"))
	assert.Error(t, checkOutput("xml"))
}

func TestResolveTaskType(t *testing.T) {
	types := []entity.TaskType{
		{ID: "tasktype-1", Name: "需求评审", Enabled: false},
		{ID: "tasktype-2", Name: "开发排期", Enabled: true},
	}

	tt, err := resolveTaskType(types, "")
	require.NoError(t, err)
	assert.Equal(t, "tasktype-2", tt.ID)

	tt, err = resolveTaskType(types, "需求评审")
	require.NoError(t, err)
	assert.Equal(t, "tasktype-1", tt.ID)

	_, err = resolveTaskType(types, "上线")
	assert.Error(t, err)

	_, err = resolveTaskType(nil, "")
	assert.Error(t, err)
}

func TestFilterHistory(t *testing.T) {
	records := []entity.HistoryRecord{
		{ID: "h3", EntityType: entity.EntityTypeTask, EntityID: "task-1"},
		{ID: "h2", EntityType: entity.EntityTypeProject, EntityID: "project-1"},
		{ID: "h1", EntityType: entity.EntityTypeProject, EntityID: "project-2"},
	}

	assert.Len(t, filterHistory(records, "", "", 0), 3)
	assert.Len(t, filterHistory(records, "", "", 2), 2)

	got := filterHistory(records, "project", "", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "h2", got[0].ID)

	assert.Empty(t, filterHistory(records, "pmo", "", 0))
}

func TestHistoryTable(t *testing.T) {
	records := []entity.HistoryRecord{{
		EntityType: entity.EntityTypeProject,
		EntityName: "会员中心改版",
		Operation:  entity.OperationUpdate,
		Operator:   "admin",
		OperatedAt: time.Now().Add(-2 * time.Hour),
		Changes: entity.Changes{
			"progress": {From: 50, To: 60},
			"owner":    {From: "李娜", To: "周杰"},
		},
	}}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	historyTable(records)(tw)
	require.NoError(t, tw.Flush())
	assert.Contains(t, buf.String(), "2 hours ago")
	assert.Contains(t, buf.String(), "owner,progress")
}

func TestProjectFromFlags(t *testing.T) {
	cmd := newProjectAddCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--name", "数据平台", "--developers", "李娜,周杰", "--progress", "10"}))

	p, err := projectFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, "数据平台", p.Name)
	assert.Equal(t, entity.ProjectStatusNormal, p.Status)
	assert.Equal(t, 10, p.Progress)
	assert.Equal(t, []string{"李娜", "周杰"}, p.Developers)

	cmd = newProjectAddCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--json", `{"name":"数据平台"}`, "--owner", "x"}))
	_, err = projectFromFlags(cmd)
	assert.Error(t, err)

	cmd = newProjectAddCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--json", `{"name":"数据平台","status":"risk"}`}))
	p, err = projectFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, entity.ProjectStatusRisk, p.Status)

	cmd = newProjectAddCmd()
	require.NoError(t, cmd.Flags().Parse(nil))
	_, err = projectFromFlags(cmd)
	assert.Error(t, err)
}

func TestProjectPatchOnlyChangedFields(t *testing.T) {
	cmd := newProjectUpdateCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--progress", "0", "--remark", ""}))

	patch := projectPatchFromFlags(cmd)
	require.NotNil(t, patch.Progress)
	assert.Equal(t, 0, *patch.Progress)
	require.NotNil(t, patch.Remark)
	assert.Nil(t, patch.Name)
	assert.Nil(t, patch.Developers)
}
