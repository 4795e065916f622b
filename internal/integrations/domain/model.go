package domain

import (
	"errors"
	"time"
)

const (
	ProviderGoogleCalendar = "google_calendar"
	ProviderNotion         = "notion"

	ActionExchange   = "exchange"
	ActionEvents     = "events"
	ActionDisconnect = "disconnect"

	EventsWindow = 7 * 24 * time.Hour
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingCode   = errors.New("code is required")
	ErrNotConnected  = errors.New("integration is not connected")
	ErrNotConfigured = errors.New("integration is not configured")
)

// Token is a stored OAuth credential. Metadata carries provider extras such as
// the Notion workspace.
type Token struct {
	UserID       string
	Provider     string
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       *time.Time
	Metadata     map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Connection struct {
	Provider      string    `json:"provider"`
	WorkspaceName string    `json:"workspace_name,omitempty"`
	ConnectedAt   time.Time `json:"connected_at"`
}

type CalendarEvent struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"all_day"`
	Location string    `json:"location,omitempty"`
	Link     string    `json:"html_link,omitempty"`
}

type NotionGrant struct {
	AccessToken   string
	TokenType     string
	BotID         string
	WorkspaceID   string
	WorkspaceName string
	WorkspaceIcon string
}
