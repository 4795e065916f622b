package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	"github.com/studyhaven/studyhaven-backend/internal/logging"
)

const (
	snapshotMaxRetry = 5
	snapshotTimeout  = time.Minute
)

// Enqueuer puts whiteboard compactions on the default queue.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueSnapshot(ctx context.Context, roomID string, upTo int64) error {
	task, err := NewSnapshotTask(roomID, upTo)
	if err != nil {
		return err
	}
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue("default"),
		asynq.MaxRetry(snapshotMaxRetry),
		asynq.Timeout(snapshotTimeout),
		asynq.TaskID(snapshotTaskID(roomID, upTo)),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	logging.NewLogger(ctx).LogInfof("enqueue_snapshot", "queued %s for room %s up to %d", info.ID, roomID, upTo)
	return nil
}
