package dataset

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-schedule-api/internal/infrastructure/messaging"
	"project-schedule-api/internal/infrastructure/persistence/filestore"
	apperrors "project-schedule-api/pkg/errors"
	"project-schedule-api/pkg/retry"
)

var fastRetry = retry.Config{Attempts: 3, Delay: 20 * time.Millisecond}

type fakeStore struct {
	mu       sync.Mutex
	doc      []byte
	failures int
	err      error
	saves    []time.Time
}

func (f *fakeStore) Load(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc, nil
}

func (f *fakeStore) Save(_ context.Context, doc []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, time.Now())
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		return f.err
	}
	f.doc = doc
	return nil
}

type fakeCache struct {
	loads       int
	invalidated int
}

func (c *fakeCache) GetOrLoad(ctx context.Context, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	c.loads++
	return loader(ctx)
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.invalidated++
	return nil
}

type fakePublisher struct {
	events []*messaging.DatasetReplaced
}

func (p *fakePublisher) PublishDatasetReplaced(_ context.Context, evt *messaging.DatasetReplaced) (string, error) {
	p.events = append(p.events, evt)
	return "1-0", nil
}

func TestGetReturnsEmptyCollectionsWhenNoData(t *testing.T) {
	svc := NewService(&fakeStore{}, "file")

	doc, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects":[],"tasks":[],"taskTypes":[],"pmos":[],"productManagers":[],"historyRecords":[]}`, string(doc))
}

func TestReplaceRejectsMalformedBody(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, "file", WithRetry(fastRetry))

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{"projects":`},
		{name: "array", body: `[]`},
		{name: "string", body: `"hello"`},
		{name: "empty", body: ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Replace(context.Background(), []byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrBadRequest)
		})
	}
	assert.Empty(t, store.saves, "malformed bodies never reach storage")
}

func TestReplaceRetriesExactlyThreeTimes(t *testing.T) {
	store := &fakeStore{failures: -1, err: errors.New("disk busy")}
	svc := NewService(store, "file", WithRetry(fastRetry))

	err := svc.Replace(context.Background(), []byte(`{"projects":[]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrWriteFailed)
	assert.Contains(t, apperrors.AsAppError(err).Detail, "disk busy")

	require.Len(t, store.saves, 3)
	for i := 1; i < len(store.saves); i++ {
		assert.GreaterOrEqual(t, store.saves[i].Sub(store.saves[i-1]), fastRetry.Delay)
	}
}

func TestReplaceSucceedsAfterTransientFailure(t *testing.T) {
	store := &fakeStore{failures: 1, err: apperrors.ErrLockHeld}
	cache := &fakeCache{}
	pub := &fakePublisher{}
	svc := NewService(store, "file", WithRetry(fastRetry), WithCache(cache), WithPublisher(pub))

	body := []byte(`{"projects":[{"id":"project-1"}],"tasks":[],"taskTypes":"oops"}`)
	require.NoError(t, svc.Replace(context.Background(), body))

	assert.Len(t, store.saves, 2)
	assert.Equal(t, body, store.doc)
	assert.Equal(t, 1, cache.invalidated)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "file", pub.events[0].Driver)
	assert.Equal(t, 1, pub.events[0].Counts["projects"])
	assert.Equal(t, 0, pub.events[0].Counts["taskTypes"])
}

func TestReplaceDoesNotRetryValidationErrors(t *testing.T) {
	store := &fakeStore{failures: -1, err: apperrors.ErrValidationFailed.WithDetail("project project-1: name: required")}
	svc := NewService(store, "postgres", WithRetry(fastRetry))

	err := svc.Replace(context.Background(), []byte(`{"projects":[{"id":"project-1"}]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrWriteFailed)
	assert.Equal(t, "VALIDATION_FAILED: project project-1: name: required", apperrors.AsAppError(err).Detail)
	assert.Len(t, store.saves, 1)
}

func TestGetUsesCache(t *testing.T) {
	cache := &fakeCache{}
	svc := NewService(&fakeStore{doc: []byte(`{"projects":[]}`)}, "file", WithCache(cache))

	doc, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects":[]}`, string(doc))
	assert.Equal(t, 1, cache.loads)
}

func TestFileRoundTripIsVerbatim(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := filestore.NewDocumentStore(filestore.New("data/db.json", filestore.WithFs(fs)))
	svc := NewService(store, "file", WithRetry(fastRetry))

	body := []byte(`{"projects":[{"id":"p1","name":"A","progress":50,"extra":{"kept":true}}],"tasks":[],"taskTypes":[],"pmos":[],"productManagers":[],"historyRecords":[]}`)
	require.NoError(t, svc.Replace(context.Background(), body))

	first, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, body, first)

	require.NoError(t, svc.Replace(context.Background(), first))
	second, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	exists, err := afero.Exists(fs, "data/db.json.lock")
	require.NoError(t, err)
	assert.False(t, exists, "lock is released after each write")
}

func TestReplaceFailsWhileLockHeld(t *testing.T) {
	fs := afero.NewMemMapFs()
	other := filestore.New("data/db.json", filestore.WithFs(fs))
	require.True(t, other.AcquireLock())

	svc := NewService(filestore.NewDocumentStore(filestore.New("data/db.json", filestore.WithFs(fs))), "file", WithRetry(fastRetry))
	err := svc.Replace(context.Background(), []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrWriteFailed)

	other.ReleaseLock()
	require.NoError(t, svc.Replace(context.Background(), []byte(`{}`)))
}

func TestCollectionCounts(t *testing.T) {
	counts := CollectionCounts([]byte(`{"projects":[1,2],"tasks":{},"historyRecords":[3]}`))
	assert.Equal(t, map[string]int{
		"projects":        2,
		"tasks":           0,
		"taskTypes":       0,
		"pmos":            0,
		"productManagers": 0,
		"historyRecords":  1,
	}, counts)
}
