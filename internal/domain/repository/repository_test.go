package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewListOptionsClamps(t *testing.T) {
	tests := []struct {
		name          string
		limit, offset int
		wantLimit     int
		wantOffset    int
	}{
		{"zero means unlimited", 0, 0, 0, 0},
		{"negative", -1, -5, 0, 0},
		{"upper bound", 10000, 20, 500, 20},
		{"in range", 50, 100, 50, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewListOptions(tt.limit, tt.offset)
			assert.Equal(t, tt.wantLimit, o.Limit)
			assert.Equal(t, tt.wantOffset, o.Offset)
		})
	}
}

func TestWhereDoesNotShareFilters(t *testing.T) {
	base := NewListOptions(10, 0).Where("status", "normal")
	derived := base.Where("status", "risk").Where("project_id", "project-1")

	assert.Equal(t, []string{"normal"}, base.Filters["status"])
	assert.Equal(t, []string{"normal", "risk"}, derived.Filters["status"])
	assert.Equal(t, []string{"project-1"}, derived.Filters["project_id"])
	assert.NotContains(t, base.Filters, "project_id")
}
