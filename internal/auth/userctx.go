package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/auth/domain"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
)

type UserSyncer interface {
	EnsureUser(ctx context.Context, u domain.SyncUser) error
}

// DevUser trusts the X-User-Id header instead of verifying a token.
// Use this ONLY for development/testing.
func DevUser(users UserSyncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if uid == "" {
			uid = strings.TrimSpace(c.Query("user_id"))
		}
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-Id header"})
			return
		}

		SetUser(c, domain.SyncUser{
			FirebaseUID: uid,
			Email:       c.GetHeader("X-User-Email"),
			DisplayName: c.GetHeader("X-User-Name"),
		}, users)
	}
}

// SetUser syncs the user row and stores the identity for downstream handlers.
func SetUser(c *gin.Context, u domain.SyncUser, users UserSyncer) {
	if users != nil {
		if err := users.EnsureUser(c.Request.Context(), u); err != nil {
			logging.FromContext(c.Request.Context()).WithError(err).Error("ensure user failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}
	}

	c.Set(CtxFirebaseUID, u.FirebaseUID)
	c.Set(CtxEmail, u.Email)
	c.Request = c.Request.WithContext(logging.WithUserID(c.Request.Context(), u.FirebaseUID))
	c.Next()
}
