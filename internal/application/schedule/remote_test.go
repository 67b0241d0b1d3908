package schedule

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRemote(t *testing.T) {
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/data", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"projects":[]}`))
		case http.MethodPost:
			received, _ = io.ReadAll(r.Body)
			if string(received) == `{"fail":true}` {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"WRITE_FAILED","message":"failed to write data","details":"lock held"}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"message":"saved"}`))
		}
	}))
	defer srv.Close()

	remote := NewHTTPRemote(srv.URL+"/", time.Second)
	assert.Equal(t, srv.URL+"/api/data", remote.Endpoint())

	doc, err := remote.Fetch(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"projects":[]}`, string(doc))

	require.NoError(t, remote.Push(context.Background(), []byte(`{"projects":[]}`)))
	assert.JSONEq(t, `{"projects":[]}`, string(received))

	err = remote.Push(context.Background(), []byte(`{"fail":true}`))
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusInternalServerError, remoteErr.StatusCode)
	assert.Equal(t, "WRITE_FAILED", remoteErr.Code)
	assert.Equal(t, "lock held", remoteErr.Details)
}

func TestHTTPRemoteRejectsInvalidDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	_, err := NewHTTPRemote(srv.URL, time.Second).Fetch(context.Background())
	assert.Error(t, err)
}

func TestHTTPRemoteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPRemote(url, 200*time.Millisecond).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFileMarker(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewFileMarker(fs, ".schedctl")
	assert.False(t, m.Seen())
	require.NoError(t, m.MarkSeen())
	assert.True(t, m.Seen())
	assert.True(t, NewFileMarker(fs, ".schedctl").Seen())
}
