package domain

import (
	"errors"
	"time"
)

const (
	MaxNameLen        = 100
	MaxDescriptionLen = 1000
	MaxFileNameLen    = 255
	MaxFileSize       = 50 << 20
	MaxTitleLen       = 200
	MaxNoteLen        = 200_000
	MaxOpsPerBatch    = 500
)

var (
	ErrNotFound         = errors.New("workspace not found")
	ErrForbidden        = errors.New("insufficient workspace role")
	ErrInvalidWorkspace = errors.New("invalid workspace")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrUserNotFound     = errors.New("no account with that email")
	ErrAlreadyMember    = errors.New("user is already a member")
	ErrMemberNotFound   = errors.New("member not found")
	ErrOwnerImmutable   = errors.New("the owner's membership cannot be changed")
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file exceeds 50 MiB")
	ErrFileNotFound     = errors.New("file not found")
	ErrNoteNotFound     = errors.New("note not found")
	ErrInvalidNote      = errors.New("invalid note")
	ErrVersionConflict  = errors.New("note has changed since base_version")
	ErrInvalidOp        = errors.New("invalid operation")
	ErrStorageDisabled  = errors.New("file storage is not configured")
)

type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type WorkspaceInput struct {
	Name        string
	Description string
}

type Member struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	InvitedBy   string    `json:"invited_by,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

type InviteRequest struct {
	Email string
	Role  Role
}

type File struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	UploadedBy  string    `json:"uploaded_by"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

type UploadRequest struct {
	FileName    string
	ContentType string
	SizeBytes   int64
}

// Upload is a stored file row plus where to PUT its bytes.
type Upload struct {
	File      *File     `json:"file"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Download struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Note struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content,omitempty"`
	Version     int64     `json:"version"`
	CreatedBy   string    `json:"created_by"`
	UpdatedBy   string    `json:"updated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OpBatch is one accepted edit; Version is the note version it produced.
type OpBatch struct {
	Version   int64     `json:"version"`
	UserID    string    `json:"user_id"`
	Ops       []Op      `json:"ops"`
	CreatedAt time.Time `json:"created_at"`
}
