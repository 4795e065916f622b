package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// User represents a user in the application
// Firebase UID is the primary identifier
type User struct {
	FirebaseUID string                 `json:"firebase_uid"`
	Email       string                 `json:"email"`
	DisplayName *string                `json:"display_name,omitempty"`
	AvatarURL   *string                `json:"avatar_url,omitempty"`
	Timezone    string                 `json:"timezone"`
	Preferences map[string]interface{} `json:"preferences"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	LastSeenAt  *time.Time             `json:"last_seen_at,omitempty"`
}

// SyncUser carries the identity claims seen on an authenticated request.
type SyncUser struct {
	FirebaseUID string
	Email       string
	DisplayName string
}

// UpdateUserRequest represents data for updating a user
type UpdateUserRequest struct {
	DisplayName *string
	AvatarURL   *string
	Timezone    *string
	Preferences map[string]interface{}
}

// DirectoryUser is an account found in the identity provider.
type DirectoryUser struct {
	UID         string
	Email       string
	DisplayName string
}
