package http

import "github.com/gin-gonic/gin"

// Register mounts the dashboard and export endpoints directly on rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.dashboard)
	rg.GET("/export", h.export)
}
