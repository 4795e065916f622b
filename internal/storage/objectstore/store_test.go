package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhaven/studyhaven-backend/config"
)

func newStore(t *testing.T, endpoint string) *Store {
	t.Helper()
	s, err := New(context.Background(), config.StorageConfig{
		Endpoint:   endpoint,
		Region:     "us-east-1",
		Bucket:     "workspace-files",
		AccessKey:  "minio",
		SecretKey:  "minio-secret",
		PresignTTL: 10 * time.Minute,
	})
	require.NoError(t, err)
	return s
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Region: "us-east-1"})
	assert.EqualError(t, err, "S3_BUCKET is required")
}

func TestPresignPut(t *testing.T) {
	s := newStore(t, "http://localhost:9000")

	raw, err := s.PresignPut(context.Background(), "workspaces/w1/f1", "application/pdf", 1024)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/workspace-files/workspaces/w1/f1", u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestPresignGet_SetsDisposition(t *testing.T) {
	s := newStore(t, "http://localhost:9000")

	raw, err := s.PresignGet(context.Background(), "workspaces/w1/f1", "notes week 1.pdf")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, `attachment; filename="notes week 1.pdf"`, u.Query().Get("response-content-disposition"))
}

func TestDelete(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path = r.Method, r.URL.Path
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := newStore(t, srv.URL)
	require.NoError(t, s.Delete(context.Background(), "workspaces/w1/f1"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/workspace-files/workspaces/w1/f1", path)
}
