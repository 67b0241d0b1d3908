package filestore

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "project-schedule-api/pkg/errors"
)

type renameFailFs struct {
	afero.Fs
}

func (renameFailFs) Rename(string, string) error {
	return errors.New("rename refused")
}

func newMemStore(t *testing.T, opts ...Option) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return New("data/db.json", append([]Option{WithFs(fs)}, opts...)...), fs
}

func TestReadMissingOrInvalidReturnsNil(t *testing.T) {
	s, fs := newMemStore(t)
	assert.Nil(t, s.Read())

	require.NoError(t, afero.WriteFile(fs, "data/db.json", []byte(`{"projects": [`), 0o644))
	assert.Nil(t, s.Read())
}

func TestWriteThenRead(t *testing.T) {
	s, fs := newMemStore(t)
	doc := []byte(`{"projects":[{"id":"project-1"}],"tasks":[]}`)

	require.True(t, s.Write(doc))
	assert.JSONEq(t, string(doc), string(s.Read()))

	entries, err := afero.ReadDir(fs, "data")
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "db.json", entries[0].Name())
}

func TestWriteFailureReturnsFalse(t *testing.T) {
	ro := New("data/db.json", WithFs(afero.NewReadOnlyFs(afero.NewMemMapFs())))
	assert.False(t, ro.Write([]byte(`{}`)))

	base := afero.NewMemMapFs()
	s := New("data/db.json", WithFs(renameFailFs{Fs: base}))
	assert.False(t, s.Write([]byte(`{}`)))

	entries, err := afero.ReadDir(base, "data")
	require.NoError(t, err)
	assert.Empty(t, entries, "failed write must clean up its temp file")
}

func TestConcurrentReadersSeeWholeDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := New(path)

	docA := []byte(`{"projects":[],"remark":"` + strings.Repeat("a", 256<<10) + `"}`)
	docB := []byte(`{"projects":[],"remark":"` + strings.Repeat("b", 256<<10) + `"}`)
	require.True(t, s.Write(docA))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if i%2 == 0 {
				s.Write(docB)
			} else {
				s.Write(docA)
			}
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		got := s.Read()
		require.NotNil(t, got)
		require.True(t, bytes.Equal(got, docA) || bytes.Equal(got, docB), "observed a partially written document")
	}
}

func TestLockBlocksSecondAcquire(t *testing.T) {
	s, fs := newMemStore(t)

	require.True(t, s.AcquireLock())
	assert.False(t, s.AcquireLock())

	s.ReleaseLock()
	exists, err := afero.Exists(fs, s.LockPath())
	require.NoError(t, err)
	assert.False(t, exists)
	assert.True(t, s.AcquireLock())
}

func TestLockStaleness(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"older than 30s is free", strconv.FormatInt(now.Add(-31*time.Second).UnixMilli(), 10), true},
		{"younger than 30s blocks", strconv.FormatInt(now.Add(-10*time.Second).UnixMilli(), 10), false},
		{"just written blocks", strconv.FormatInt(now.UnixMilli(), 10), false},
		{"unparsable is free", "not-a-timestamp", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, fs := newMemStore(t, WithClock(func() time.Time { return now }))
			require.NoError(t, fs.MkdirAll("data", 0o755))
			require.NoError(t, afero.WriteFile(fs, s.LockPath(), []byte(tt.content), 0o644))

			assert.Equal(t, tt.want, s.AcquireLock())
		})
	}
}

func TestReleaseKeepsLockTakenOverByAnotherWriter(t *testing.T) {
	fs := afero.NewMemMapFs()
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	first := New("data/db.json", WithFs(fs), WithClock(func() time.Time { return t0 }))
	second := New("data/db.json", WithFs(fs), WithClock(func() time.Time { return t0.Add(45 * time.Second) }))

	require.True(t, first.AcquireLock())
	require.True(t, second.AcquireLock(), "stale lock must be overridden")

	first.ReleaseLock()
	data, err := afero.ReadFile(fs, first.LockPath())
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(t0.Add(45*time.Second).UnixMilli(), 10), string(data))

	second.ReleaseLock()
	exists, _ := afero.Exists(fs, first.LockPath())
	assert.False(t, exists)
}

func TestReleaseWithoutHoldingKeepsOtherLock(t *testing.T) {
	fs := afero.NewMemMapFs()
	owner := New("data/db.json", WithFs(fs))
	bystander := New("data/db.json", WithFs(fs))

	require.True(t, owner.AcquireLock())
	bystander.ReleaseLock()
	exists, err := afero.Exists(fs, owner.LockPath())
	require.NoError(t, err)
	assert.True(t, exists, "a writer that never acquired must not remove the lock")

	owner.ReleaseLock()
	owner.ReleaseLock()
	exists, err = afero.Exists(fs, owner.LockPath())
	require.NoError(t, err)
	assert.False(t, exists)

	require.True(t, bystander.AcquireLock())
	owner.ReleaseLock()
	exists, err = afero.Exists(fs, owner.LockPath())
	require.NoError(t, err)
	assert.True(t, exists, "a double release must not remove a lock taken by another writer")
}

func TestDocumentStoreSaveAndLoad(t *testing.T) {
	s, fs := newMemStore(t)
	ds := NewDocumentStore(s)
	ctx := context.Background()

	doc, err := ds.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, doc)

	body := []byte(`{"projects":[{"id":"project-1","name":"A"}],"pmos":[]}`)
	require.NoError(t, ds.Save(ctx, body))

	doc, err = ds.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, body, doc)

	exists, _ := afero.Exists(fs, s.LockPath())
	assert.False(t, exists, "lock must be released after save")
}

func TestDocumentStoreSaveErrors(t *testing.T) {
	ctx := context.Background()

	s, _ := newMemStore(t)
	require.True(t, s.AcquireLock())
	err := NewDocumentStore(New("data/db.json", WithFs(s.fs))).Save(ctx, []byte(`{}`))
	assert.ErrorIs(t, err, apperrors.ErrLockHeld)

	failing := New("data/db.json", WithFs(renameFailFs{Fs: afero.NewMemMapFs()}))
	err = NewDocumentStore(failing).Save(ctx, []byte(`{}`))
	assert.ErrorIs(t, err, apperrors.ErrWriteFailed)
	exists, _ := afero.Exists(failing.fs, failing.LockPath())
	assert.False(t, exists)
}
