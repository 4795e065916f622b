package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	rooms "github.com/studyhaven/studyhaven-backend/internal/rooms/domain"
)

type Compactor interface {
	Compact(ctx context.Context, roomID string, upTo int64) (int, error)
}

// SnapshotHandler folds a room's strokes into its whiteboard snapshot.
type SnapshotHandler struct {
	compactor Compactor
}

func NewSnapshotHandler(compactor Compactor) *SnapshotHandler {
	return &SnapshotHandler{compactor: compactor}
}

// ProcessTask implements asynq.Handler.
func (h *SnapshotHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	retry, _ := asynq.GetRetryCount(ctx)
	log := logrus.WithFields(logrus.Fields{
		"task_type": t.Type(),
		"retry":     retry,
	})

	var p SnapshotPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil || p.RoomID == "" {
		log.WithError(err).Error("invalid snapshot payload")
		return fmt.Errorf("invalid snapshot payload: %w", asynq.SkipRetry)
	}
	log = log.WithFields(logrus.Fields{"room_id": p.RoomID, "up_to": p.UpTo})

	folded, err := h.compactor.Compact(ctx, p.RoomID, p.UpTo)
	if errors.Is(err, rooms.ErrRoomNotFound) {
		log.Info("room is gone, nothing to compact")
		return nil
	}
	if err != nil {
		return fmt.Errorf("compact room %s: %w", p.RoomID, err)
	}
	log.WithField("folded", folded).Info("whiteboard snapshot updated")
	return nil
}
