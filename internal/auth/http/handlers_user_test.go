package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/auth/domain"
)

type fakeProfiles struct {
	user *domain.User
	got  *domain.UpdateUserRequest
	err  error
}

func (f *fakeProfiles) GetProfile(_ context.Context, uid string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeProfiles) UpdateProfile(_ context.Context, uid string, req *domain.UpdateUserRequest) (*domain.User, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func newRouter(profiles ProfileService, uid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("", func(c *gin.Context) {
		if uid != "" {
			c.Set(auth.CtxFirebaseUID, uid)
		}
		c.Next()
	})
	New(profiles).Register(g)
	return r
}

func do(r http.Handler, method, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/me", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rr, req)
	return rr
}

func TestGetProfile(t *testing.T) {
	profiles := &fakeProfiles{user: &domain.User{FirebaseUID: "uid-1", Email: "a@b.c", Timezone: "UTC"}}

	rr := do(newRouter(profiles, "uid-1"), http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"firebase_uid":"uid-1"`)

	rr = do(newRouter(profiles, ""), http.MethodGet, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	profiles.err = domain.ErrUserNotFound
	rr = do(newRouter(profiles, "uid-1"), http.MethodGet, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateProfile(t *testing.T) {
	profiles := &fakeProfiles{user: &domain.User{FirebaseUID: "uid-1", Timezone: "Europe/Berlin"}}
	r := newRouter(profiles, "uid-1")

	rr := do(r, http.MethodPut, `{"timezone":"Europe/Berlin","preferences":{"theme":"dark"}}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, profiles.got)
	require.NotNil(t, profiles.got.Timezone)
	assert.Equal(t, "Europe/Berlin", *profiles.got.Timezone)
	assert.Nil(t, profiles.got.DisplayName)
	assert.Equal(t, map[string]any{"theme": "dark"}, profiles.got.Preferences)

	rr = do(r, http.MethodPut, `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	profiles.err = domain.ErrInvalidTimezone
	rr = do(r, http.MethodPut, `{"timezone":"Mars/Olympus"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"invalid timezone"}`, rr.Body.String())
}
