package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func doHealth(t *testing.T, h *HealthHandler, path string) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr, body
}

func TestHealthCheck(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("all dependencies up", func(t *testing.T) {
		rr, body := doHealth(t, NewHealthHandler("studyhaven-api", "1.2.3", pingFunc(up), up), "/health")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "healthy", body.Status)
		assert.Equal(t, "studyhaven-api", body.Service)
		assert.Equal(t, "1.2.3", body.Version)
		assert.Equal(t, "up", body.DB)
		assert.Equal(t, "up", body.Redis)
		assert.False(t, body.Timestamp.IsZero())
	})

	t.Run("redis down degrades", func(t *testing.T) {
		rr, body := doHealth(t, NewHealthHandler("studyhaven-api", "dev", pingFunc(up), down), "/healthz")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "down", body.Redis)
	})

	t.Run("no dependencies configured", func(t *testing.T) {
		rr, body := doHealth(t, NewHealthHandler("studyhaven-api", "dev", nil, nil), "/health")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "disabled", body.DB)
		assert.Equal(t, "disabled", body.Redis)
	})
}
