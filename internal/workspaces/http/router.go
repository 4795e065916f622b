package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.POST("/invite", h.inviteByBody)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)

	rg.GET("/:id/members", h.members)
	rg.POST("/:id/members", h.invite)
	rg.PATCH("/:id/members/:uid", h.changeRole)
	rg.DELETE("/:id/members/:uid", h.removeMember)

	rg.GET("/:id/files", h.listFiles)
	rg.POST("/:id/files", h.requestUpload)
	rg.GET("/:id/files/:fileId/download", h.download)
	rg.DELETE("/:id/files/:fileId", h.deleteFile)

	rg.GET("/:id/notes", h.listNotes)
	rg.POST("/:id/notes", h.createNote)
	rg.GET("/:id/notes/:noteId", h.getNote)
	rg.DELETE("/:id/notes/:noteId", h.deleteNote)
	rg.POST("/:id/notes/:noteId/ops", h.applyOps)
	rg.GET("/:id/notes/:noteId/ops", h.opsSince)
}
