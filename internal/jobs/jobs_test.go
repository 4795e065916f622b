package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rooms "github.com/studyhaven/studyhaven-backend/internal/rooms/domain"
)

type fakeCompactor struct {
	roomID string
	upTo   int64
	err    error
}

func (f *fakeCompactor) Compact(_ context.Context, roomID string, upTo int64) (int, error) {
	f.roomID, f.upTo = roomID, upTo
	return 200, f.err
}

func TestNewSnapshotTask(t *testing.T) {
	task, err := NewSnapshotTask("r1", 400)
	require.NoError(t, err)
	assert.Equal(t, TypeWhiteboardSnapshot, task.Type())

	var p SnapshotPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, SnapshotPayload{RoomID: "r1", UpTo: 400}, p)
}

func TestSnapshotHandler(t *testing.T) {
	c := &fakeCompactor{}
	h := NewSnapshotHandler(c)

	task, _ := NewSnapshotTask("r1", 200)
	require.NoError(t, h.ProcessTask(context.Background(), task))
	assert.Equal(t, "r1", c.roomID)
	assert.Equal(t, int64(200), c.upTo)
}

func TestSnapshotHandler_BadPayloadSkipsRetry(t *testing.T) {
	h := NewSnapshotHandler(&fakeCompactor{})
	err := h.ProcessTask(context.Background(), asynq.NewTask(TypeWhiteboardSnapshot, []byte(`{`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSnapshotHandler_Errors(t *testing.T) {
	task, _ := NewSnapshotTask("r1", 200)

	gone := NewSnapshotHandler(&fakeCompactor{err: rooms.ErrRoomNotFound})
	assert.NoError(t, gone.ProcessTask(context.Background(), task))

	boom := errors.New("db down")
	failing := NewSnapshotHandler(&fakeCompactor{err: boom})
	assert.ErrorIs(t, failing.ProcessTask(context.Background(), task), boom)
}

func TestEnqueuer_DedupesSameVersion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	e := NewEnqueuer(client)
	require.NoError(t, e.EnqueueSnapshot(context.Background(), "r1", 200))
	require.NoError(t, e.EnqueueSnapshot(context.Background(), "r1", 200))
	require.NoError(t, e.EnqueueSnapshot(context.Background(), "r1", 400))

	pending, err := mr.List("asynq:{default}:pending")
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}
