package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/api/http/query"
	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/studysessions/domain"
)

type logReq struct {
	Subject         string     `json:"subject"`
	DurationMinutes int        `json:"duration_minutes"`
	StartedAt       *time.Time `json:"started_at"`
	Notes           string     `json:"notes"`
}

func (h *Handler) log(c *gin.Context) {
	var req logReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	s, err := h.svc.Log(c.Request.Context(), auth.UserFirebaseUID(c), domain.LogSessionRequest{
		Subject:         req.Subject,
		DurationMinutes: req.DurationMinutes,
		StartedAt:       req.StartedAt,
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(c, "log_session", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": s})
}

type startReq struct {
	Subject string `json:"subject"`
	Notes   string `json:"notes"`
}

func (h *Handler) start(c *gin.Context) {
	var req startReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
	}

	s, err := h.svc.Start(c.Request.Context(), auth.UserFirebaseUID(c), req.Subject, req.Notes)
	if err != nil {
		writeError(c, "start_session", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": s})
}

func (h *Handler) stop(c *gin.Context) {
	s, err := h.svc.Stop(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		writeError(c, "stop_session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

func (h *Handler) current(c *gin.Context) {
	s, err := h.svc.Current(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		writeError(c, "current_session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
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
		writeError(c, "list_sessions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": items})
}

func (h *Handler) summary(c *gin.Context) {
	days, err := query.Int(c, "days", domain.DefaultSummaryDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sum, err := h.svc.Summary(c.Request.Context(), auth.UserFirebaseUID(c), days)
	if err != nil {
		writeError(c, "session_summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": sum})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id")); err != nil {
		writeError(c, "delete_session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionOpen), errors.Is(err, domain.ErrAlreadyStopped):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrInvalidSubject),
		errors.Is(err, domain.ErrNotesTooLong),
		errors.Is(err, domain.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
