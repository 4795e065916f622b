package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/integrations/domain"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/upstream"
)

type actionReq struct {
	Code   string `json:"code"`
	Action string `json:"action"`
}

func bindAction(c *gin.Context) (actionReq, bool) {
	var req actionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return req, false
	}
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	return req, true
}

func (h *Handler) googleCalendar(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	uid := auth.UserFirebaseUID(c)

	switch req.Action {
	case domain.ActionExchange:
		conn, err := h.svc.ConnectGoogleCalendar(ctx, uid, req.Code)
		if err != nil {
			writeError(c, "google_calendar_exchange", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"connected": true, "integration": conn})
	case domain.ActionEvents:
		events, err := h.svc.CalendarEvents(ctx, uid)
		if err != nil {
			writeError(c, "google_calendar_events", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	case domain.ActionDisconnect:
		h.disconnect(c, uid, domain.ProviderGoogleCalendar)
	default:
		writeError(c, "google_calendar", domain.ErrUnknownAction)
	}
}

func (h *Handler) notion(c *gin.Context) {
	req, ok := bindAction(c)
	if !ok {
		return
	}
	uid := auth.UserFirebaseUID(c)

	switch req.Action {
	case domain.ActionExchange:
		conn, err := h.svc.ConnectNotion(c.Request.Context(), uid, req.Code)
		if err != nil {
			writeError(c, "notion_exchange", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"connected": true, "integration": conn})
	case domain.ActionDisconnect:
		h.disconnect(c, uid, domain.ProviderNotion)
	default:
		writeError(c, "notion", domain.ErrUnknownAction)
	}
}

func (h *Handler) disconnect(c *gin.Context, uid, provider string) {
	if err := h.svc.Disconnect(c.Request.Context(), uid, provider); err != nil {
		writeError(c, "disconnect_"+provider, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": false})
}

func (h *Handler) list(c *gin.Context) {
	conns, err := h.svc.Connections(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		writeError(c, "list_integrations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"integrations": conns})
}

func writeError(c *gin.Context, op string, err error) {
	var upErr *upstream.Error
	switch {
	case errors.As(err, &upErr):
		logging.NewLogger(c.Request.Context()).LogWarnf(op, "%v", upErr)
		status, msg := upstream.HTTPStatus(upErr)
		c.JSON(status, gin.H{"error": msg})
	case errors.Is(err, domain.ErrUnknownAction), errors.Is(err, domain.ErrMissingCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotConnected):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotConfigured):
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
