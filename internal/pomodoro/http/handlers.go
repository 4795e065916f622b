package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/pomodoro/domain"
)

type action func(ctx context.Context, userID string) (*domain.View, error)

func (h *Handler) run(c *gin.Context, op string, fn action) {
	v, err := fn(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": v})
}

func (h *Handler) get(c *gin.Context)    { h.run(c, "pomodoro_get", h.svc.Get) }
func (h *Handler) start(c *gin.Context)  { h.run(c, "pomodoro_start", h.svc.Start) }
func (h *Handler) pause(c *gin.Context)  { h.run(c, "pomodoro_pause", h.svc.Pause) }
func (h *Handler) resume(c *gin.Context) { h.run(c, "pomodoro_resume", h.svc.Resume) }
func (h *Handler) skip(c *gin.Context)   { h.run(c, "pomodoro_skip", h.svc.Skip) }
func (h *Handler) reset(c *gin.Context)  { h.run(c, "pomodoro_reset", h.svc.Reset) }

func (h *Handler) updateSettings(c *gin.Context) {
	var req domain.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	h.run(c, "pomodoro_settings", func(ctx context.Context, userID string) (*domain.View, error) {
		return h.svc.UpdateSettings(ctx, userID, req)
	})
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidSettings):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
