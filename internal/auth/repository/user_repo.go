package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/studyhaven/studyhaven-backend/internal/auth/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// EnsureUser creates the user row on first sight and refreshes identity fields
// and last_seen_at afterwards.
func (r *UserRepository) EnsureUser(ctx context.Context, u domain.SyncUser) error {
	if u.FirebaseUID == "" {
		return fmt.Errorf("firebase_uid required")
	}

	const q = `
INSERT INTO users (firebase_uid, email, display_name, last_seen_at)
VALUES ($1, $2, NULLIF($3, ''), now())
ON CONFLICT (firebase_uid) DO UPDATE
SET email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
    display_name = COALESCE(users.display_name, EXCLUDED.display_name),
    last_seen_at = now();
`
	_, err := r.db.ExecContext(ctx, q, u.FirebaseUID, u.Email, u.DisplayName)
	return err
}

// GetByFirebaseUID retrieves a user by their Firebase UID
func (r *UserRepository) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	const q = `
SELECT firebase_uid, email, display_name, avatar_url, timezone, preferences,
       created_at, updated_at, last_seen_at
FROM users
WHERE firebase_uid = $1;
`
	var user domain.User
	var preferencesJSON []byte
	var displayName, avatarURL sql.NullString
	var lastSeenAt sql.NullTime

	err := r.db.QueryRowContext(ctx, q, uid).Scan(
		&user.FirebaseUID,
		&user.Email,
		&displayName,
		&avatarURL,
		&user.Timezone,
		&preferencesJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastSeenAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if displayName.Valid {
		user.DisplayName = &displayName.String
	}
	if avatarURL.Valid {
		user.AvatarURL = &avatarURL.String
	}
	if lastSeenAt.Valid {
		user.LastSeenAt = &lastSeenAt.Time
	}

	user.Preferences = make(map[string]interface{})
	if len(preferencesJSON) > 0 {
		if err := json.Unmarshal(preferencesJSON, &user.Preferences); err != nil {
			user.Preferences = make(map[string]interface{})
		}
	}

	return &user, nil
}

// Update persists the editable profile fields.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	const q = `
UPDATE users
SET display_name = $2, avatar_url = $3, timezone = $4, preferences = $5, updated_at = now()
WHERE firebase_uid = $1
RETURNING updated_at;
`
	preferencesJSON, err := json.Marshal(user.Preferences)
	if err != nil {
		preferencesJSON = []byte("{}")
	}

	err = r.db.QueryRowContext(ctx, q,
		user.FirebaseUID,
		user.DisplayName,
		user.AvatarURL,
		user.Timezone,
		preferencesJSON,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	return err
}

// LookupByEmail resolves a known user by email. It backs invites when the
// service runs without Firebase (development mode).
func (r *UserRepository) LookupByEmail(ctx context.Context, email string) (*domain.DirectoryUser, error) {
	const q = `
SELECT firebase_uid, email, COALESCE(display_name, '')
FROM users
WHERE lower(email) = lower($1)
LIMIT 1;
`
	var u domain.DirectoryUser
	err := r.db.QueryRowContext(ctx, q, email).Scan(&u.UID, &u.Email, &u.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
