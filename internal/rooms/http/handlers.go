package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/api/http/query"
	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/rooms/domain"
)

type createReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Topic       string `json:"topic"`
	IsPrivate   bool   `json:"is_private"`
	MaxMembers  int    `json:"max_members"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	room, err := h.svc.Create(c.Request.Context(), auth.UserFirebaseUID(c), domain.CreateRoomRequest{
		Name:        req.Name,
		Description: req.Description,
		Topic:       req.Topic,
		IsPrivate:   req.IsPrivate,
		MaxMembers:  req.MaxMembers,
	})
	if err != nil {
		writeError(c, "create_room", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": room})
}

func (h *Handler) list(c *gin.Context) {
	rooms, err := h.svc.List(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		writeError(c, "list_rooms", err)
		return
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (h *Handler) get(c *gin.Context) {
	room, err := h.svc.Get(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		writeError(c, "get_room", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (h *Handler) delete(c *gin.Context) {
	roomID := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), auth.UserFirebaseUID(c), roomID); err != nil {
		writeError(c, "delete_room", err)
		return
	}
	if h.hub != nil {
		if err := h.hub.CloseRoom(c.Request.Context(), roomID); err != nil {
			logging.NewLogger(c.Request.Context()).LogWarnf("delete_room", "close sockets: %v", err)
		}
	}
	c.Status(http.StatusNoContent)
}

type joinReq struct {
	InviteCode string `json:"invite_code"`
}

func (h *Handler) join(c *gin.Context) {
	var req joinReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
	}

	room, err := h.svc.Join(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.InviteCode)
	if err != nil {
		writeError(c, "join_room", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (h *Handler) leave(c *gin.Context) {
	uid, roomID := auth.UserFirebaseUID(c), c.Param("id")
	if err := h.svc.Leave(c.Request.Context(), uid, roomID); err != nil {
		writeError(c, "leave_room", err)
		return
	}
	if h.hub != nil {
		if err := h.hub.Evict(c.Request.Context(), roomID, uid); err != nil {
			logging.NewLogger(c.Request.Context()).LogWarnf("leave_room", "close sockets: %v", err)
		}
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) members(c *gin.Context) {
	members, err := h.svc.Members(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		writeError(c, "room_members", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *Handler) messages(c *gin.Context) {
	limit, err := query.Int(c, "limit", domain.DefaultPageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.svc.Messages(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Query("before"), limit)
	if err != nil {
		writeError(c, "room_messages", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type postMessageReq struct {
	Body string `json:"body"`
}

func (h *Handler) postMessage(c *gin.Context) {
	var req postMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	uid, roomID := auth.UserFirebaseUID(c), c.Param("id")
	msg, err := h.svc.PostMessage(c.Request.Context(), uid, roomID, req.Body)
	if err != nil {
		writeError(c, "post_room_message", err)
		return
	}
	h.publish(c.Request.Context(), domain.TypeChat, roomID, uid, msg)
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (h *Handler) whiteboard(c *gin.Context) {
	state, err := h.svc.Whiteboard(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		writeError(c, "room_whiteboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"whiteboard": state})
}

func (h *Handler) clearWhiteboard(c *gin.Context) {
	uid, roomID := auth.UserFirebaseUID(c), c.Param("id")
	version, err := h.svc.ClearWhiteboard(c.Request.Context(), uid, roomID)
	if err != nil {
		writeError(c, "clear_whiteboard", err)
		return
	}
	h.publish(c.Request.Context(), domain.TypeClear, roomID, uid, map[string]int64{"version": version})
	c.JSON(http.StatusOK, gin.H{"version": version})
}

// publish is best effort: the change is already stored.
func (h *Handler) publish(ctx context.Context, typ, roomID, uid string, payload any) {
	if h.hub == nil {
		return
	}
	env, err := domain.NewEnvelope(typ, roomID, uid, payload)
	if err == nil {
		err = h.hub.Publish(ctx, env, "")
	}
	if err != nil {
		logging.NewLogger(ctx).LogWarnf("room_publish", "publish %s to room %s: %v", typ, roomID, err)
	}
}

func writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotMember),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrInvalidInviteCode):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRoomFull),
		errors.Is(err, domain.ErrOwnerCannotLeave):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRoom),
		errors.Is(err, domain.ErrInvalidMessage),
		errors.Is(err, domain.ErrInvalidStroke):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError(op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
