package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
)

// ws upgrades a member's request to the room socket.
func (h *Handler) ws(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime unavailable"})
		return
	}

	uid, roomID := auth.UserFirebaseUID(c), c.Param("id")
	if _, err := h.svc.EnsureMember(c.Request.Context(), uid, roomID); err != nil {
		writeError(c, "room_ws", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logging.NewLogger(c.Request.Context()).LogWarnf("room_ws", "upgrade failed: %v", err)
		return
	}
	h.hub.Serve(c.Request.Context(), conn, roomID, uid)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.TrimSpace(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] {
			return true
		}
		return set[strings.TrimRight(origin, "/")]
	}
}
