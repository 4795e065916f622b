package domain

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	DefaultMaxMembers = 8
	MinMembers        = 2
	MaxMembers        = 50
	MaxNameLen        = 80
	MaxDescriptionLen = 500
	MaxTopicLen       = 50
	MaxMessageLen     = 4000

	DefaultPageSize = 50
	MaxPageSize     = 100

	// SnapshotEvery is the stroke interval at which a compaction task is queued.
	SnapshotEvery = 200

	// IdleArchiveAfter is how long a room may stay inactive before archival.
	IdleArchiveAfter = 30 * 24 * time.Hour
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotMember         = errors.New("not a member of this room")
	ErrForbidden         = errors.New("only the room owner can do that")
	ErrRoomFull          = errors.New("room is full")
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrOwnerCannotLeave  = errors.New("the owner cannot leave; delete the room instead")
	ErrInvalidRoom       = errors.New("invalid room")
	ErrInvalidMessage    = errors.New("message must be between 1 and 4000 characters")
	ErrInvalidStroke     = errors.New("invalid stroke")
)

type Room struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Topic        string     `json:"topic"`
	IsPrivate    bool       `json:"is_private"`
	InviteCode   string     `json:"invite_code,omitempty"`
	OwnerID      string     `json:"owner_id"`
	MaxMembers   int        `json:"max_members"`
	MemberCount  int        `json:"member_count"`
	IsMember     bool       `json:"is_member"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
}

type CreateRoomRequest struct {
	Name        string
	Description string
	Topic       string
	IsPrivate   bool
	MaxMembers  int
}

type Member struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type MessagePage struct {
	Messages   []Message `json:"messages"`
	NextBefore string    `json:"next_before,omitempty"`
}

type Stroke struct {
	Version   int64           `json:"version"`
	UserID    string          `json:"user_id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// WhiteboardState is the compacted snapshot plus the strokes drawn after it.
type WhiteboardState struct {
	Version         int64             `json:"version"`
	SnapshotVersion int64             `json:"snapshot_version"`
	Snapshot        []json.RawMessage `json:"snapshot"`
	Strokes         []Stroke          `json:"strokes"`
}
