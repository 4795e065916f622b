package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/rooms/domain"
)

type RoomStore interface {
	Create(ctx context.Context, room *domain.Room) error
	Get(ctx context.Context, viewer, id string) (*domain.Room, error)
	ListVisible(ctx context.Context, viewer string) ([]domain.Room, error)
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
	AddMember(ctx context.Context, roomID, userID string) error
	RemoveMember(ctx context.Context, roomID, userID string) error
	ListMembers(ctx context.Context, roomID string) ([]domain.Member, error)
	Delete(ctx context.Context, id string) error
	ArchiveIdle(ctx context.Context, cutoff time.Time) (int64, error)
}

type MessageStore interface {
	Create(ctx context.Context, m *domain.Message) error
	ListBefore(ctx context.Context, roomID, before string, limit int) ([]domain.Message, error)
	Exists(ctx context.Context, roomID, id string) (bool, error)
}

type WhiteboardStore interface {
	AppendStroke(ctx context.Context, roomID, userID string, data json.RawMessage) (*domain.Stroke, error)
	State(ctx context.Context, roomID string) (*domain.WhiteboardState, error)
	Clear(ctx context.Context, roomID string) (int64, error)
}

// SnapshotEnqueuer schedules whiteboard compaction.
type SnapshotEnqueuer interface {
	EnqueueSnapshot(ctx context.Context, roomID string, upTo int64) error
}

type RoomService struct {
	rooms      RoomStore
	messages   MessageStore
	whiteboard WhiteboardStore
	snapshots  SnapshotEnqueuer
	now        func() time.Time
}

func NewRoomService(rooms RoomStore, messages MessageStore, whiteboard WhiteboardStore, snapshots SnapshotEnqueuer) *RoomService {
	return &RoomService{
		rooms:      rooms,
		messages:   messages,
		whiteboard: whiteboard,
		snapshots:  snapshots,
		now:        time.Now,
	}
}

func (s *RoomService) Create(ctx context.Context, ownerID string, req domain.CreateRoomRequest) (*domain.Room, error) {
	name := strings.TrimSpace(req.Name)
	desc := strings.TrimSpace(req.Description)
	topic := strings.TrimSpace(req.Topic)
	if name == "" || utf8.RuneCountInString(name) > domain.MaxNameLen ||
		utf8.RuneCountInString(desc) > domain.MaxDescriptionLen ||
		utf8.RuneCountInString(topic) > domain.MaxTopicLen {
		return nil, domain.ErrInvalidRoom
	}

	maxMembers := req.MaxMembers
	if maxMembers == 0 {
		maxMembers = domain.DefaultMaxMembers
	}
	if maxMembers < domain.MinMembers || maxMembers > domain.MaxMembers {
		return nil, domain.ErrInvalidRoom
	}

	room := &domain.Room{
		ID:          uuid.NewString(),
		Name:        name,
		Description: desc,
		Topic:       topic,
		IsPrivate:   req.IsPrivate,
		OwnerID:     ownerID,
		MaxMembers:  maxMembers,
	}
	if req.IsPrivate {
		code, err := newInviteCode()
		if err != nil {
			return nil, err
		}
		room.InviteCode = code
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *RoomService) List(ctx context.Context, userID string) ([]domain.Room, error) {
	rooms, err := s.rooms.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range rooms {
		redact(&rooms[i])
	}
	return rooms, nil
}

// Get returns a room visible to userID. Private rooms are hidden from
// non-members.
func (s *RoomService) Get(ctx context.Context, userID, roomID string) (*domain.Room, error) {
	if !validID(roomID) {
		return nil, domain.ErrRoomNotFound
	}
	room, err := s.rooms.Get(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if room.IsPrivate && !room.IsMember {
		return nil, domain.ErrRoomNotFound
	}
	redact(room)
	return room, nil
}

// Join adds userID to the room. Private rooms require the invite code.
func (s *RoomService) Join(ctx context.Context, userID, roomID, inviteCode string) (*domain.Room, error) {
	if !validID(roomID) {
		return nil, domain.ErrRoomNotFound
	}
	room, err := s.rooms.Get(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if room.IsPrivate && !room.IsMember &&
		!strings.EqualFold(strings.TrimSpace(inviteCode), room.InviteCode) {
		return nil, domain.ErrInvalidInviteCode
	}
	if err := s.rooms.AddMember(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.rooms.Get(ctx, userID, roomID)
}

func (s *RoomService) Leave(ctx context.Context, userID, roomID string) error {
	room, err := s.memberRoom(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if room.OwnerID == userID {
		return domain.ErrOwnerCannotLeave
	}
	return s.rooms.RemoveMember(ctx, roomID, userID)
}

func (s *RoomService) Delete(ctx context.Context, userID, roomID string) error {
	room, err := s.memberRoom(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if room.OwnerID != userID {
		return domain.ErrForbidden
	}
	return s.rooms.Delete(ctx, roomID)
}

func (s *RoomService) Members(ctx context.Context, userID, roomID string) ([]domain.Member, error) {
	if _, err := s.memberRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}
	return s.rooms.ListMembers(ctx, roomID)
}

// EnsureMember fails unless userID belongs to the room.
func (s *RoomService) EnsureMember(ctx context.Context, userID, roomID string) (*domain.Room, error) {
	return s.memberRoom(ctx, userID, roomID)
}

func (s *RoomService) Messages(ctx context.Context, userID, roomID, before string, limit int) (*domain.MessagePage, error) {
	if _, err := s.memberRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = domain.DefaultPageSize
	}
	if limit < 1 || limit > domain.MaxPageSize {
		return nil, domain.ErrInvalidMessage
	}
	if before != "" {
		ok, err := s.messages.Exists(ctx, roomID, before)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &domain.MessagePage{Messages: []domain.Message{}}, nil
		}
	}

	msgs, err := s.messages.ListBefore(ctx, roomID, before, limit)
	if err != nil {
		return nil, err
	}
	page := &domain.MessagePage{Messages: msgs}
	if len(msgs) == limit {
		page.NextBefore = msgs[0].ID
	}
	return page, nil
}

// PostMessage stores a chat message from a member.
func (s *RoomService) PostMessage(ctx context.Context, userID, roomID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n == 0 || n > domain.MaxMessageLen {
		return nil, domain.ErrInvalidMessage
	}
	if _, err := s.memberRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}

	m := &domain.Message{ID: uuid.NewString(), RoomID: roomID, UserID: userID, Body: body}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// AppendStroke persists a stroke. Membership is checked when the socket
// connects. Every SnapshotEvery strokes a compaction task is queued.
func (s *RoomService) AppendStroke(ctx context.Context, userID, roomID string, data json.RawMessage) (*domain.Stroke, error) {
	if len(data) == 0 || !json.Valid(data) {
		return nil, domain.ErrInvalidStroke
	}
	stroke, err := s.whiteboard.AppendStroke(ctx, roomID, userID, data)
	if err != nil {
		return nil, err
	}
	if s.snapshots != nil && stroke.Version%domain.SnapshotEvery == 0 {
		if err := s.snapshots.EnqueueSnapshot(ctx, roomID, stroke.Version); err != nil {
			logging.NewLogger(ctx).LogWarnf("append_stroke", "enqueue snapshot for room %s: %v", roomID, err)
		}
	}
	return stroke, nil
}

func (s *RoomService) Whiteboard(ctx context.Context, userID, roomID string) (*domain.WhiteboardState, error) {
	if _, err := s.memberRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}
	return s.whiteboard.State(ctx, roomID)
}

// ClearWhiteboard empties the board. Only the owner may clear it.
func (s *RoomService) ClearWhiteboard(ctx context.Context, userID, roomID string) (int64, error) {
	room, err := s.memberRoom(ctx, userID, roomID)
	if err != nil {
		return 0, err
	}
	if room.OwnerID != userID {
		return 0, domain.ErrForbidden
	}
	return s.whiteboard.Clear(ctx, roomID)
}

// ArchiveIdle archives rooms inactive for IdleArchiveAfter.
func (s *RoomService) ArchiveIdle(ctx context.Context) (int64, error) {
	n, err := s.rooms.ArchiveIdle(ctx, s.now().UTC().Add(-domain.IdleArchiveAfter))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.NewLogger(ctx).LogInfof("archive_idle_rooms", "archived %d idle rooms", n)
	}
	return n, nil
}

func (s *RoomService) memberRoom(ctx context.Context, userID, roomID string) (*domain.Room, error) {
	if !validID(roomID) {
		return nil, domain.ErrRoomNotFound
	}
	room, err := s.rooms.Get(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember {
		if room.IsPrivate {
			return nil, domain.ErrRoomNotFound
		}
		return nil, domain.ErrNotMember
	}
	return room, nil
}

// redact hides the invite code from non-members.
func redact(r *domain.Room) {
	if !r.IsMember {
		r.InviteCode = ""
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var inviteEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

func newInviteCode() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return inviteEncoding.EncodeToString(b), nil
}
