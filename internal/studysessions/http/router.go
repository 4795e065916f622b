package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.log)
	rg.GET("", h.list)
	rg.GET("/current", h.current)
	rg.GET("/summary", h.summary)
	rg.POST("/start", h.start)
	rg.POST("/:id/stop", h.stop)
	rg.DELETE("/:id", h.delete)
}
