package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhaven/studyhaven-backend/internal/rooms/domain"
)

type memRooms struct {
	rooms   map[string]*domain.Room
	members map[string]map[string]bool
	cutoff  time.Time
}

func newMemRooms() *memRooms {
	return &memRooms{rooms: map[string]*domain.Room{}, members: map[string]map[string]bool{}}
}

func (m *memRooms) Create(_ context.Context, r *domain.Room) error {
	cp := *r
	m.rooms[r.ID] = &cp
	m.members[r.ID] = map[string]bool{r.OwnerID: true}
	return nil
}

func (m *memRooms) Get(_ context.Context, viewer, id string) (*domain.Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *r
	cp.MemberCount = len(m.members[id])
	cp.IsMember = m.members[id][viewer]
	return &cp, nil
}

func (m *memRooms) ListVisible(ctx context.Context, viewer string) ([]domain.Room, error) {
	var out []domain.Room
	for id, r := range m.rooms {
		if !r.IsPrivate || m.members[id][viewer] {
			cp, _ := m.Get(ctx, viewer, id)
			out = append(out, *cp)
		}
	}
	return out, nil
}

func (m *memRooms) IsMember(_ context.Context, roomID, userID string) (bool, error) {
	return m.members[roomID][userID], nil
}

func (m *memRooms) AddMember(_ context.Context, roomID, userID string) error {
	r, ok := m.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if m.members[roomID][userID] {
		return nil
	}
	if len(m.members[roomID]) >= r.MaxMembers {
		return domain.ErrRoomFull
	}
	m.members[roomID][userID] = true
	return nil
}

func (m *memRooms) RemoveMember(_ context.Context, roomID, userID string) error {
	if !m.members[roomID][userID] {
		return domain.ErrNotMember
	}
	delete(m.members[roomID], userID)
	return nil
}

func (m *memRooms) ListMembers(_ context.Context, roomID string) ([]domain.Member, error) {
	var out []domain.Member
	for uid := range m.members[roomID] {
		out = append(out, domain.Member{UserID: uid})
	}
	return out, nil
}

func (m *memRooms) Delete(_ context.Context, id string) error {
	delete(m.rooms, id)
	return nil
}

func (m *memRooms) ArchiveIdle(_ context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	return 2, nil
}

type memMessages struct {
	msgs []domain.Message
}

func (m *memMessages) Create(_ context.Context, msg *domain.Message) error {
	msg.CreatedAt = time.Now()
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memMessages) ListBefore(_ context.Context, roomID, before string, limit int) ([]domain.Message, error) {
	end := len(m.msgs)
	if before != "" {
		for i, msg := range m.msgs {
			if msg.ID == before {
				end = i
			}
		}
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	return append([]domain.Message{}, m.msgs[start:end]...), nil
}

func (m *memMessages) Exists(_ context.Context, roomID, id string) (bool, error) {
	for _, msg := range m.msgs {
		if msg.ID == id {
			return true, nil
		}
	}
	return false, nil
}

type memBoard struct {
	version int64
	strokes []domain.Stroke
}

func (b *memBoard) AppendStroke(_ context.Context, roomID, userID string, data json.RawMessage) (*domain.Stroke, error) {
	b.version++
	s := domain.Stroke{Version: b.version, UserID: userID, Data: data}
	b.strokes = append(b.strokes, s)
	return &s, nil
}

func (b *memBoard) State(_ context.Context, roomID string) (*domain.WhiteboardState, error) {
	return &domain.WhiteboardState{Version: b.version, Strokes: b.strokes}, nil
}

func (b *memBoard) Clear(_ context.Context, roomID string) (int64, error) {
	b.version++
	b.strokes = nil
	return b.version, nil
}

type recordingEnqueuer struct {
	versions []int64
}

func (r *recordingEnqueuer) EnqueueSnapshot(_ context.Context, roomID string, upTo int64) error {
	r.versions = append(r.versions, upTo)
	return nil
}

func newService() (*RoomService, *memRooms, *memMessages, *memBoard, *recordingEnqueuer) {
	rooms, msgs, board, enq := newMemRooms(), &memMessages{}, &memBoard{}, &recordingEnqueuer{}
	return NewRoomService(rooms, msgs, board, enq), rooms, msgs, board, enq
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _, _, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner", domain.CreateRoomRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidRoom)

	_, err = svc.Create(ctx, "owner", domain.CreateRoomRequest{Name: "Calc", MaxMembers: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidRoom)

	_, err = svc.Create(ctx, "owner", domain.CreateRoomRequest{Name: "Calc", MaxMembers: 51})
	assert.ErrorIs(t, err, domain.ErrInvalidRoom)

	room, err := svc.Create(ctx, "owner", domain.CreateRoomRequest{Name: " Calc "})
	require.NoError(t, err)
	assert.Equal(t, "Calc", room.Name)
	assert.Equal(t, domain.DefaultMaxMembers, room.MaxMembers)
	assert.Empty(t, room.InviteCode)
}

func TestPrivateRoom_InviteCodeFlow(t *testing.T) {
	svc, _, _, _, _ := newService()
	ctx := context.Background()

	room, err := svc.Create(ctx, "owner", domain.CreateRoomRequest{Name: "Secret", IsPrivate: true})
	require.NoError(t, err)
	require.Len(t, room.InviteCode, 8)

	_, err = svc.Get(ctx, "stranger", room.ID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	list, err := svc.List(ctx, "stranger")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Join(ctx, "stranger", room.ID, "WRONG")
	assert.ErrorIs(t, err, domain.ErrInvalidInviteCode)

	joined, err := svc.Join(ctx, "stranger", room.ID, room.InviteCode)
	require.NoError(t, err)
	assert.True(t, joined.IsMember)
	assert.Equal(t, 2, joined.MemberCount)

	got, err := svc.Get(ctx, "stranger", room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.InviteCode, got.InviteCode)
}

func TestPublicRoom_HidesNothingButCode(t *testing.T) {
	svc, _, _, _, _ := newService()
	ctx := context.Background()

	room, err := svc.Create(ctx, "owner", domain.CreateRoomRequest{Name: "Open"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "visitor", room.ID)
	require.NoError(t, err)
	assert.False(t, got.IsMember)

	_, err = svc.Messages(ctx, "visitor", room.ID, "", 0)
	assert.ErrorIs(t, err, domain.ErrNotMember)
}

func TestJoin_FullRoom(t *testing.T) {
	svc, _, _, _, _ := newService()
	ctx := context.Background()

	room, err := svc.Create(ctx, "owner", domain.CreateRoomRequest{Name: "Duo", MaxMembers: 2})
	require.NoError(t, err)

	_, err = svc.Join(ctx, "u2", room.ID, "")
	require.NoError(t, err)
	_, err = svc.Join(ctx, "u3", room.ID, "")
	assert.ErrorIs(t, err, domain.ErrRoomFull)

	// already a member is not an error
	_, err = svc.Join(ctx, "u2", room.ID, "")
	assert.NoError(t, err)
}

func TestLeaveAndDelete_OwnerRules(t *testing.T) {
	svc, rooms, _, _, _ := newService()
	ctx := context.Background()

	room, err := svc.Create(ctx, "owner", domain.CreateRoomRequest{Name: "Group"})
	require.NoError(t, err)
	_, err = svc.Join(ctx, "member", room.ID, "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Leave(ctx, "owner", room.ID), domain.ErrOwnerCannotLeave)
	assert.ErrorIs(t, svc.Delete(ctx, "member", room.ID), domain.ErrForbidden)

	require.NoError(t, svc.Leave(ctx, "member", room.ID))
	assert.ErrorIs(t, svc.Leave(ctx, "member", room.ID), domain.ErrNotMember)

	require.NoError(t, svc.Delete(ctx, "owner", room.ID))
	assert.NotContains(t, rooms.rooms, room.ID)

	assert.ErrorIs(t, svc.Delete(ctx, "owner", "not-a-uuid"), domain.ErrRoomNotFound)
}

func TestMessages_Pagination(t *testing.T) {
	svc, _, _, _, _ := newService()
	ctx := context.Background()

	room, err := svc.Create(ctx, "owner", domain.CreateRoomRequest{Name: "Chat"})
	require.NoError(t, err)

	var ids []string
	for _, body := range []string{"one", "two", "three"} {
		m, err := svc.PostMessage(ctx, "owner", room.ID, body)
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	page, err := svc.Messages(ctx, "owner", room.ID, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "two", page.Messages[0].Body)
	assert.Equal(t, "three", page.Messages[1].Body)
	assert.Equal(t, ids[1], page.NextBefore)

	page, err = svc.Messages(ctx, "owner", room.ID, page.NextBefore, 2)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "one", page.Messages[0].Body)
	assert.Empty(t, page.NextBefore)

	page, err = svc.Messages(ctx, "owner", room.ID, uuid.NewString(), 2)
	require.NoError(t, err)
	assert.Empty(t, page.Messages)

	_, err = svc.Messages(ctx, "owner", room.ID, "", 101)
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)
}

func TestPostMessage_Validation(t *testing.T) {
	svc, _, _, _, _ := newService()
	ctx := context.Background()
	room, err := svc.Create(ctx, "owner", domain.CreateRoomRequest{Name: "Chat"})
	require.NoError(t, err)

	_, err = svc.PostMessage(ctx, "owner", room.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	long := make([]rune, domain.MaxMessageLen+1)
	for i := range long {
		long[i] = 'é'
	}
	_, err = svc.PostMessage(ctx, "owner", room.ID, string(long))
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	_, err = svc.PostMessage(ctx, "outsider", room.ID, "hi")
	assert.ErrorIs(t, err, domain.ErrNotMember)
}

func TestAppendStroke_EnqueuesSnapshotOnInterval(t *testing.T) {
	svc, _, _, board, enq := newService()
	ctx := context.Background()
	roomID := uuid.NewString()

	_, err := svc.AppendStroke(ctx, "u1", roomID, json.RawMessage(`not json`))
	assert.ErrorIs(t, err, domain.ErrInvalidStroke)

	for i := 0; i < domain.SnapshotEvery*2; i++ {
		_, err := svc.AppendStroke(ctx, "u1", roomID, json.RawMessage(`{"x":1}`))
		require.NoError(t, err)
	}
	assert.Equal(t, int64(domain.SnapshotEvery*2), board.version)
	assert.Equal(t, []int64{domain.SnapshotEvery, domain.SnapshotEvery * 2}, enq.versions)
}

func TestClearWhiteboard_OwnerOnly(t *testing.T) {
	svc, _, _, _, _ := newService()
	ctx := context.Background()
	room, err := svc.Create(ctx, "owner", domain.CreateRoomRequest{Name: "Board"})
	require.NoError(t, err)
	_, err = svc.Join(ctx, "member", room.ID, "")
	require.NoError(t, err)

	_, err = svc.AppendStroke(ctx, "member", room.ID, json.RawMessage(`{"x":1}`))
	require.NoError(t, err)

	_, err = svc.ClearWhiteboard(ctx, "member", room.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	v, err := svc.ClearWhiteboard(ctx, "owner", room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	state, err := svc.Whiteboard(ctx, "member", room.ID)
	require.NoError(t, err)
	assert.Empty(t, state.Strokes)
}

func TestArchiveIdle_UsesCutoff(t *testing.T) {
	svc, rooms, _, _, _ := newService()
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	n, err := svc.ArchiveIdle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, now.Add(-domain.IdleArchiveAfter), rooms.cutoff)
}
