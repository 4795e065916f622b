package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("/google-calendar", h.googleCalendar)
	rg.POST("/notion", h.notion)
}
