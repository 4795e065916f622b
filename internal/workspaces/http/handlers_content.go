package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/api/http/query"
	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/workspaces/domain"
)

func (h *Handler) listFiles(c *gin.Context) {
	items, err := h.files.List(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		writeError(c, "list_files", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": items})
}

type uploadReq struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

func (h *Handler) requestUpload(c *gin.Context) {
	var req uploadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	up, err := h.files.RequestUpload(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), domain.UploadRequest(req))
	if err != nil {
		writeError(c, "request_upload", err)
		return
	}
	c.JSON(http.StatusCreated, up)
}

func (h *Handler) download(c *gin.Context) {
	dl, err := h.files.Download(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("fileId"))
	if err != nil {
		writeError(c, "download_file", err)
		return
	}
	c.JSON(http.StatusOK, dl)
}

func (h *Handler) deleteFile(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("fileId")); err != nil {
		writeError(c, "delete_file", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listNotes(c *gin.Context) {
	items, err := h.notes.List(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		writeError(c, "list_notes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": items})
}

type noteReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handler) createNote(c *gin.Context) {
	var req noteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	n, err := h.notes.Create(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.Title, req.Content)
	if err != nil {
		writeError(c, "create_note", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"note": n})
}

func (h *Handler) getNote(c *gin.Context) {
	n, err := h.notes.Get(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("noteId"))
	if err != nil {
		writeError(c, "get_note", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": n})
}

func (h *Handler) deleteNote(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("noteId")); err != nil {
		writeError(c, "delete_note", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type opsReq struct {
	BaseVersion *int64      `json:"base_version"`
	Ops         []domain.Op `json:"ops"`
}

func (h *Handler) applyOps(c *gin.Context) {
	var req opsReq
	if err := c.ShouldBindJSON(&req); err != nil || req.BaseVersion == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_version and ops are required"})
		return
	}

	n, err := h.notes.ApplyOps(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("noteId"), *req.BaseVersion, req.Ops)
	if err != nil {
		writeError(c, "apply_note_ops", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": n})
}

func (h *Handler) opsSince(c *gin.Context) {
	since, err := query.Int(c, "since", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batches, err := h.notes.OpsSince(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("noteId"), int64(since))
	if err != nil {
		writeError(c, "note_ops", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}
