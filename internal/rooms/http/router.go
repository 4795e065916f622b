package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.DELETE("/:id", h.delete)
	rg.POST("/:id/join", h.join)
	rg.POST("/:id/leave", h.leave)
	rg.GET("/:id/members", h.members)
	rg.GET("/:id/messages", h.messages)
	rg.POST("/:id/messages", h.postMessage)
	rg.GET("/:id/whiteboard", h.whiteboard)
	rg.DELETE("/:id/whiteboard", h.clearWhiteboard)
	rg.GET("/:id/ws", h.ws)
}
