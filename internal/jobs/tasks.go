// Package jobs holds the background tasks shared by the API, which enqueues
// them, and the worker, which runs them.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TypeWhiteboardSnapshot = "whiteboard:snapshot"

type SnapshotPayload struct {
	RoomID string `json:"room_id"`
	UpTo   int64  `json:"up_to"`
}

func NewSnapshotTask(roomID string, upTo int64) (*asynq.Task, error) {
	payload, err := json.Marshal(SnapshotPayload{RoomID: roomID, UpTo: upTo})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWhiteboardSnapshot, payload), nil
}

// snapshotTaskID dedupes enqueues of the same compaction.
func snapshotTaskID(roomID string, upTo int64) string {
	return fmt.Sprintf("snapshot:%s:%d", roomID, upTo)
}

func RedisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}
