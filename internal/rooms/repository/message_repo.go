package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studyhaven/studyhaven-backend/internal/rooms/domain"
)

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create stores a chat message and marks the room active.
func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	const q = `
WITH touched AS (
    UPDATE rooms SET last_active_at = now() WHERE id = $2
)
INSERT INTO room_messages (id, room_id, user_id, body)
VALUES ($1, $2, $3, $4)
RETURNING created_at;
`
	return r.db.QueryRowContext(ctx, q, m.ID, m.RoomID, m.UserID, m.Body).Scan(&m.CreatedAt)
}

// ListBefore pages backwards through a room's history. before is a message
// id; empty starts from the newest message. Results are oldest first.
func (r *MessageRepository) ListBefore(ctx context.Context, roomID, before string, limit int) ([]domain.Message, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if before == "" {
		rows, err = r.db.QueryContext(ctx, `
SELECT id, room_id, user_id, body, created_at
FROM room_messages
WHERE room_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`, roomID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
SELECT id, room_id, user_id, body, created_at
FROM room_messages
WHERE room_id = $1
  AND (created_at, id) < (SELECT created_at, id FROM room_messages WHERE id = $2 AND room_id = $1)
ORDER BY created_at DESC, id DESC
LIMIT $3`, roomID, before, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Message, 0, limit)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Exists reports whether a message id belongs to the room.
func (r *MessageRepository) Exists(ctx context.Context, roomID, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM room_messages WHERE id = $1 AND room_id = $2`, id, roomID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
