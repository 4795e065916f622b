package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/auth/domain"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
)

// GetProfile returns the current user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	uid := auth.UserFirebaseUID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	user, err := h.profiles.GetProfile(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logging.NewLogger(c.Request.Context()).LogError("get_profile", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile updates the user's profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	uid := auth.UserFirebaseUID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.profiles.UpdateProfile(c.Request.Context(), uid, req.toDomain())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, domain.ErrInvalidTimezone):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timezone"})
		default:
			logging.NewLogger(c.Request.Context()).LogError("update_profile", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
