package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.get)
	rg.GET("/stream", h.stream)
	rg.PUT("/settings", h.updateSettings)
	rg.POST("/start", h.start)
	rg.POST("/pause", h.pause)
	rg.POST("/resume", h.resume)
	rg.POST("/skip", h.skip)
	rg.POST("/reset", h.reset)
}
