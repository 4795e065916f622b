package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/workspaces/domain"
)

type workspaceReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) create(c *gin.Context) {
	var req workspaceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	ws, err := h.workspaces.Create(c.Request.Context(), auth.UserFirebaseUID(c), domain.WorkspaceInput(req))
	if err != nil {
		writeError(c, "create_workspace", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"workspace": ws})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.workspaces.List(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		writeError(c, "list_workspaces", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": items})
}

func (h *Handler) get(c *gin.Context) {
	ws, err := h.workspaces.Get(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		writeError(c, "get_workspace", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspace": ws})
}

func (h *Handler) update(c *gin.Context) {
	var req workspaceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	ws, err := h.workspaces.Update(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), domain.WorkspaceInput(req))
	if err != nil {
		writeError(c, "update_workspace", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspace": ws})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.workspaces.Delete(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id")); err != nil {
		writeError(c, "delete_workspace", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) members(c *gin.Context) {
	items, err := h.workspaces.Members(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		writeError(c, "list_members", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": items})
}

type inviteReq struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	WorkspaceID string `json:"workspaceId"`
}

func (h *Handler) invite(c *gin.Context) {
	var req inviteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	h.doInvite(c, c.Param("id"), req)
}

// inviteByBody accepts the workspace id in the body, matching the invite
// function the web client already calls.
func (h *Handler) inviteByBody(c *gin.Context) {
	var req inviteReq
	if err := c.ShouldBindJSON(&req); err != nil || req.WorkspaceID == "" || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and workspaceId are required"})
		return
	}
	h.doInvite(c, req.WorkspaceID, req)
}

func (h *Handler) doInvite(c *gin.Context, workspaceID string, req inviteReq) {
	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleViewer
	}
	m, err := h.workspaces.Invite(c.Request.Context(), auth.UserFirebaseUID(c), workspaceID, domain.InviteRequest{
		Email: req.Email,
		Role:  role,
	})
	if err != nil {
		writeError(c, "invite_member", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"member": m})
}

type roleReq struct {
	Role string `json:"role"`
}

func (h *Handler) changeRole(c *gin.Context) {
	var req roleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	err := h.workspaces.ChangeRole(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("uid"), domain.Role(req.Role))
	if err != nil {
		writeError(c, "change_role", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeMember(c *gin.Context) {
	if err := h.workspaces.RemoveMember(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("uid")); err != nil {
		writeError(c, "remove_member", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrFileNotFound),
		errors.Is(err, domain.ErrNoteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrOwnerImmutable):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidWorkspace),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidFile),
		errors.Is(err, domain.ErrInvalidNote),
		errors.Is(err, domain.ErrInvalidOp):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStorageDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
