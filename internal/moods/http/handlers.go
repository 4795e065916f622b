package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/api/http/query"
	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/moods/domain"
)

type createReq struct {
	Mood     int        `json:"mood"`
	Energy   int        `json:"energy"`
	Emotions []string   `json:"emotions"`
	Note     string     `json:"note"`
	LoggedAt *time.Time `json:"logged_at"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	m, err := h.svc.Create(c.Request.Context(), auth.UserFirebaseUID(c), domain.CreateMoodRequest{
		Mood:     req.Mood,
		Energy:   req.Energy,
		Emotions: req.Emotions,
		Note:     req.Note,
		LoggedAt: req.LoggedAt,
	})
	if err != nil {
		writeError(c, "create_mood", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"mood": m})
}

func (h *Handler) list(c *gin.Context) {
	from, err := query.Time(c, "from")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := query.Time(c, "to")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.svc.List(c.Request.Context(), auth.UserFirebaseUID(c), from, to)
	if err != nil {
		writeError(c, "list_moods", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moods": items})
}

func (h *Handler) stats(c *gin.Context) {
	days, err := query.Int(c, "days", domain.DefaultListDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), auth.UserFirebaseUID(c), days)
	if err != nil {
		writeError(c, "mood_stats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id")); err != nil {
		writeError(c, "delete_mood", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidMood),
		errors.Is(err, domain.ErrInvalidEnergy),
		errors.Is(err, domain.ErrTooManyEmotions),
		errors.Is(err, domain.ErrNoteTooLong),
		errors.Is(err, domain.ErrFutureLoggedAt),
		errors.Is(err, domain.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
