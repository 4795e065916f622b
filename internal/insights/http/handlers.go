package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/api/http/query"
	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/insights/domain"
	"github.com/studyhaven/studyhaven-backend/internal/insights/service"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
)

func (h *Handler) dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		writeError(c, "dashboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dashboard": d})
}

func (h *Handler) export(c *gin.Context) {
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
	format, err := service.NormalizeFormat(c.Query("format"))
	if err != nil {
		writeError(c, "export", err)
		return
	}

	ds, err := h.svc.Export(c.Request.Context(), auth.UserFirebaseUID(c), domain.ExportRequest{
		Kind:   c.Query("kind"),
		Format: format,
		From:   from,
		To:     to,
	})
	if err != nil {
		writeError(c, "export", err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == domain.FormatJSON {
		contentType = "application/json; charset=utf-8"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="studyhaven-%s.%s"`, ds.Kind, format))
	c.Status(http.StatusOK)
	if err := service.WriteDataset(c.Writer, ds, format); err != nil {
		logging.NewLogger(c.Request.Context()).LogError("export", err)
	}
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
