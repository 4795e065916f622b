package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/auth/domain"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, token string) (*fbauth.Token, error) {
	if token != "good-token" {
		return nil, errors.New("bad token")
	}
	return &fbauth.Token{UID: "uid-1", Claims: map[string]interface{}{"email": "ada@example.com", "name": "Ada"}}, nil
}

type recordingSyncer struct {
	seen []domain.SyncUser
	err  error
}

func (s *recordingSyncer) EnsureUser(_ context.Context, u domain.SyncUser) error {
	s.seen = append(s.seen, u)
	return s.err
}

func newRouter(syncer auth.UserSyncer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(FirebaseAuthMiddleware(fakeVerifier{}, syncer))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": auth.UserFirebaseUID(c), "email": auth.UserEmail(c)})
	})
	return r
}

func TestFirebaseAuthMiddleware(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newRouter(&recordingSyncer{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"missing authorization token"}`, rr.Body.String())
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()
		newRouter(&recordingSyncer{}).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token syncs user", func(t *testing.T) {
		syncer := &recordingSyncer{}
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rr := httptest.NewRecorder()
		newRouter(syncer).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"uid":"uid-1","email":"ada@example.com"}`, rr.Body.String())
		assert.Equal(t, []domain.SyncUser{{FirebaseUID: "uid-1", Email: "ada@example.com", DisplayName: "Ada"}}, syncer.seen)
	})

	t.Run("sync failure is a server error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rr := httptest.NewRecorder()
		newRouter(&recordingSyncer{err: errors.New("db down")}).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("websocket upgrade may pass token in query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me?access_token=good-token", nil)
		req.Header.Set("Upgrade", "websocket")
		rr := httptest.NewRecorder()
		newRouter(&recordingSyncer{}).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("query token ignored on plain requests", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newRouter(&recordingSyncer{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/me?access_token=good-token", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
