package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/ai/domain"
	"github.com/studyhaven/studyhaven-backend/internal/ai/service"
	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/upstream"
)

// maxBodyBytes leaves room for base64 overhead on an 8 MiB image.
const maxBodyBytes = 12 << 20

type Handler struct {
	svc *service.AIService
}

func New(svc *service.AIService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/vision", h.vision)
	rg.POST("/voice/signed-url", h.voiceSignedURL)
}

type visionReq struct {
	ImageBase64 string `json:"imageBase64"`
	Prompt      string `json:"prompt"`
}

func (h *Handler) vision(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var req visionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrImageTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.ImageBase64 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imageBase64 is required"})
		return
	}

	out, err := h.svc.Vision(c.Request.Context(), auth.UserFirebaseUID(c), req.ImageBase64, req.Prompt)
	if err != nil {
		writeError(c, "vision", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type signedURLReq struct {
	AgentID string `json:"agent_id"`
}

func (h *Handler) voiceSignedURL(c *gin.Context) {
	var req signedURLReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
	}

	u, err := h.svc.VoiceSignedURL(c.Request.Context(), auth.UserFirebaseUID(c), req.AgentID)
	if err != nil {
		writeError(c, "voice_signed_url", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signed_url": u})
}

func writeError(c *gin.Context, op string, err error) {
	var upErr *upstream.Error
	switch {
	case errors.As(err, &upErr):
		logging.NewLogger(c.Request.Context()).LogWarnf(op, "%v", upErr)
		status, msg := upstream.HTTPStatus(upErr)
		c.JSON(status, gin.H{"error": msg})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrImageTooLarge),
		errors.Is(err, domain.ErrInvalidImage),
		errors.Is(err, domain.ErrInvalidPrompt),
		errors.Is(err, domain.ErrMissingAgent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotConfigured):
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

