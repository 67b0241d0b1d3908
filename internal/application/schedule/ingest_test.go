package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-schedule-api/internal/domain/entity"
)

func TestDecodeCoercesMalformedDocument(t *testing.T) {
	raw := []byte(`{
		"projects": "oops",
		"tasks": [
			{"id": 7, "projectId": "project-1", "name": "联调", "progress": "50", "assignees": "bob", "taskType": "dev"},
			42,
			{"id": "task-2", "assignees": ["李娜", 3, null], "progress": 30.9}
		],
		"taskTypes": null,
		"pmos": [{"id": "pmo-1", "name": "陈晨", "enabled": "yes"}],
		"historyRecords": [{"id": "history-1", "operatedAt": 1741599000000, "changes": {"progress": {"from": 50, "to": 80}, "bad": 1}}]
	}`)

	d := Decode(raw)
	assert.NotNil(t, d.Projects)
	assert.Empty(t, d.Projects)
	assert.NotNil(t, d.TaskTypes)
	assert.Empty(t, d.ProductManagers)

	require.Len(t, d.Tasks, 2)
	assert.Equal(t, "", d.Tasks[0].ID)
	assert.Equal(t, "联调", d.Tasks[0].Name)
	assert.Equal(t, 0, d.Tasks[0].Progress)
	assert.Equal(t, []string{}, d.Tasks[0].Assignees)
	assert.Equal(t, entity.TaskType{}, d.Tasks[0].TaskType)
	assert.Equal(t, []string{"李娜"}, d.Tasks[1].Assignees)
	assert.Equal(t, 30, d.Tasks[1].Progress)

	require.Len(t, d.PMOs, 1)
	assert.False(t, d.PMOs[0].Enabled)

	require.Len(t, d.HistoryRecords, 1)
	assert.Equal(t, time.UnixMilli(1741599000000), d.HistoryRecords[0].OperatedAt)
	assert.Equal(t, entity.Changes{"progress": {From: float64(50), To: float64(80)}}, d.HistoryRecords[0].Changes)
}

func TestDecodeNonObjectDocument(t *testing.T) {
	for _, raw := range []string{`[]`, `"x"`, ``, `{"projects":`} {
		d := Decode([]byte(raw))
		assert.True(t, d.IsEmpty(), raw)
		assert.NotNil(t, d.HistoryRecords, raw)
	}
}

func TestDecodeRoundTripsWellFormedDocument(t *testing.T) {
	seed := entity.SeedDataset(fixedNow)
	res, err := Apply(seed, UpdateProject{ID: "project-1", Patch: ProjectPatch{Progress: Ptr(77)}}, meta())
	require.NoError(t, err)

	raw, err := json.Marshal(res.State)
	require.NoError(t, err)

	again, err := json.Marshal(Decode(raw))
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(again))
}

func TestHasCollections(t *testing.T) {
	assert.False(t, HasCollections([]byte(`{}`)))
	assert.False(t, HasCollections([]byte(`{"projects":[],"tasks":[]}`)))
	assert.False(t, HasCollections([]byte(`{"projects":"x"}`)))
	assert.False(t, HasCollections([]byte(`[1]`)))
	assert.True(t, HasCollections([]byte(`{"taskTypes":[{"id":"tasktype-dev"}]}`)))
}
