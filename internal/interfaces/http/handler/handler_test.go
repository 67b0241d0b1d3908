package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"project-schedule-api/internal/domain/entity"
	"project-schedule-api/internal/domain/repository"
	apperrors "project-schedule-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memoryPMOs 内存版 PMO 仓储
type memoryPMOs struct {
	mu       sync.Mutex
	items    map[string]*entity.PMO
	lastOpts repository.ListOptions
	keyword  string
}

func newMemoryPMOs(items ...entity.PMO) *memoryPMOs {
	m := &memoryPMOs{items: map[string]*entity.PMO{}}
	for i := range items {
		p := items[i]
		m.items[p.ID] = &p
	}
	return m
}

func (m *memoryPMOs) Create(_ context.Context, item *entity.PMO) (*entity.PMO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.Name == "" {
		return nil, apperrors.ErrValidationFailed.WithDetail("name: required")
	}
	if item.ID == "" {
		item.ID = "pmo-new"
	}
	m.items[item.ID] = item
	return item, nil
}

func (m *memoryPMOs) List(_ context.Context, opts repository.ListOptions) ([]*entity.PMO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOpts = opts
	if _, ok := opts.Filters["owner"]; ok {
		return nil, apperrors.ErrValidationFailed.WithDetail("unsupported filter: owner")
	}
	var out []*entity.PMO
	for _, p := range m.items {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryPMOs) GetByID(_ context.Context, id string) (*entity.PMO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id], nil
}

func (m *memoryPMOs) Update(_ context.Context, id string, partial map[string]any) (*entity.PMO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	if name, ok := partial["name"].(string); ok {
		p.Name = name
	}
	return p, nil
}

func (m *memoryPMOs) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func (m *memoryPMOs) Search(_ context.Context, keyword string, _ int) ([]*entity.PMO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyword = keyword
	return nil, nil
}

func newResourceEngine(repo repository.CRUDRepository[entity.PMO]) *gin.Engine {
	e := gin.New()
	NewResourceHandler[entity.PMO]("/pmos", repo).Register(e.Group("/api/v1"))
	return e
}

func serve(e *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestResourceCRUD(t *testing.T) {
	repo := newMemoryPMOs(entity.PMO{ID: "pmo-1", Name: "陈静", Enabled: true})
	e := newResourceEngine(repo)

	w := serve(e, http.MethodGet, "/api/v1/pmos/pmo-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "陈静", gjson.Get(w.Body.String(), "data.name").String())

	w = serve(e, http.MethodPost, "/api/v1/pmos", `{"name":"刘洋","enabled":true}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pmo-new", gjson.Get(w.Body.String(), "data.id").String())

	w = serve(e, http.MethodPatch, "/api/v1/pmos/pmo-1", `{"name":"陈静静"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "陈静静", gjson.Get(w.Body.String(), "data.name").String())

	w = serve(e, http.MethodDelete, "/api/v1/pmos/pmo-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(e, http.MethodDelete, "/api/v1/pmos/pmo-1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", gjson.Get(w.Body.String(), "error.error_code").String())
}

func TestResourceMissingEntity(t *testing.T) {
	e := newResourceEngine(newMemoryPMOs())

	w := serve(e, http.MethodGet, "/api/v1/pmos/pmo-404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(e, http.MethodPatch, "/api/v1/pmos/pmo-404", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResourceValidationErrors(t *testing.T) {
	e := newResourceEngine(newMemoryPMOs())

	w := serve(e, http.MethodPost, "/api/v1/pmos", `{"enabled":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", gjson.Get(w.Body.String(), "error.error_code").String())
	assert.Equal(t, "name: required", gjson.Get(w.Body.String(), "error.details").String())

	w = serve(e, http.MethodPost, "/api/v1/pmos", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", gjson.Get(w.Body.String(), "error.error_code").String())

	w = serve(e, http.MethodGet, "/api/v1/pmos?owner=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResourceListQuery(t *testing.T) {
	repo := newMemoryPMOs(entity.PMO{ID: "pmo-1", Name: "陈静"})
	e := newResourceEngine(repo)

	w := serve(e, http.MethodGet, "/api/v1/pmos?enabled=true,false&limit=5&offset=2&sort=name&order=desc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "meta.count").Int())
	assert.Equal(t, []string{"true", "false"}, repo.lastOpts.Filters["enabled"])
	assert.Equal(t, 5, repo.lastOpts.Limit)
	assert.Equal(t, 2, repo.lastOpts.Offset)
	require.NotNil(t, repo.lastOpts.Sort)
	assert.Equal(t, repository.SortOrderDesc, repo.lastOpts.Sort.Order)

	w = serve(e, http.MethodGet, "/api/v1/pmos?q=%E9%99%88", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "陈", repo.keyword)
	assert.True(t, gjson.Get(w.Body.String(), "data").IsArray(), "empty results serialize as []")
	assert.Equal(t, "[]", gjson.Get(w.Body.String(), "data").Raw)
	assert.Equal(t, int64(0), gjson.Get(w.Body.String(), "meta.count").Int())
}

func TestResourceEmptyListKeepsData(t *testing.T) {
	e := newResourceEngine(newMemoryPMOs())

	w := serve(e, http.MethodGet, "/api/v1/pmos", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := gjson.Get(w.Body.String(), "data")
	require.True(t, data.Exists())
	assert.Equal(t, "[]", data.Raw)
}

func TestReadyReportsProbes(t *testing.T) {
	e := gin.New()
	h := NewHealthHandler("v1",
		Probe{Name: "storage", Required: true, Check: func(context.Context) error { return nil }},
		Probe{Name: "redis", Check: func(context.Context) error { return errors.New("refused") }},
	)
	e.GET("/ready", h.Ready)

	w := serve(e, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "degraded", gjson.Get(w.Body.String(), "checks.redis.status").String())

	e = gin.New()
	h = NewHealthHandler("v1",
		Probe{Name: "postgres", Required: true, Check: func(context.Context) error { return errors.New("down") }},
	)
	e.GET("/ready", h.Ready)

	w = serve(e, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_ready", gjson.Get(w.Body.String(), "status").String())
}
