package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/auth/domain"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
)

// TokenVerifier is satisfied by *firebase auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseAuthMiddleware validates Firebase ID tokens, syncs the user row and
// stores the identity in the gin and request contexts.
func FirebaseAuthMiddleware(verifier TokenVerifier, users auth.UserSyncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			return
		}

		decoded, err := verifier.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			logging.FromContext(c.Request.Context()).WithError(err).Debug("id token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		email, _ := decoded.Claims["email"].(string)
		name, _ := decoded.Claims["name"].(string)

		auth.SetUser(c, domain.SyncUser{FirebaseUID: decoded.UID, Email: email, DisplayName: name}, users)
	}
}

// extractToken extracts the Bearer token from the Authorization header.
// Browsers cannot set headers on websocket upgrades, so the access_token
// query parameter is accepted there.
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.EqualFold(bearerToken[:7], "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return strings.TrimSpace(c.Query("access_token"))
	}
	return ""
}
