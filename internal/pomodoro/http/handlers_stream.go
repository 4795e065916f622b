package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/pomodoro/domain"
)

// stream pushes timer changes made from any device using Server-Sent Events.
func (h *Handler) stream(c *gin.Context) {
	userID := auth.UserFirebaseUID(c)
	ctx := c.Request.Context()

	initial, err := h.svc.Get(ctx, userID)
	if err != nil {
		writeError(c, "pomodoro_stream", err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	sub := h.events.Subscribe(ctx, userID)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		writeError(c, "pomodoro_stream", err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	initialData, _ := json.Marshal(gin.H{"timer": initial})
	fmt.Fprintf(c.Writer, "event: initial\ndata: %s\n\n", initialData)
	flusher.Flush()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	// Fires when the running phase ends so the rollover is pushed even if no
	// other request touches the timer. The resulting write is published and
	// arrives below like any other update.
	rollover := time.NewTimer(time.Hour)
	defer rollover.Stop()
	armRollover(rollover, initial.EndsAt)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case <-rollover.C:
			v, err := h.svc.Get(ctx, userID)
			if err != nil {
				logging.NewLogger(ctx).LogWarnf("pomodoro_stream", "rollover: %v", err)
				continue
			}
			armRollover(rollover, v.EndsAt)

		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var t domain.Timer
			if err := json.Unmarshal([]byte(msg.Payload), &t); err != nil {
				continue
			}
			view := t.View(time.Now().UTC())
			armRollover(rollover, view.EndsAt)
			eventData, _ := json.Marshal(gin.H{"timer": view})
			fmt.Fprintf(c.Writer, "event: update\ndata: %s\n\n", eventData)
			flusher.Flush()
		}
	}
}

// rolloverSlack keeps the wake-up from landing just before EndsAt.
const rolloverSlack = 50 * time.Millisecond

func armRollover(t *time.Timer, endsAt *time.Time) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	if endsAt == nil {
		return
	}
	t.Reset(time.Until(*endsAt) + rolloverSlack)
}
