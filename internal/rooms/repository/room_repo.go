package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/studyhaven/studyhaven-backend/internal/rooms/domain"
)

type RoomRepository struct {
	db *sql.DB
}

func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomSelect = `
SELECT r.id, r.name, r.description, r.topic, r.is_private, COALESCE(r.invite_code, ''),
       r.owner_id, r.max_members,
       (SELECT count(*) FROM room_members m WHERE m.room_id = r.id) AS member_count,
       EXISTS (SELECT 1 FROM room_members m WHERE m.room_id = r.id AND m.user_id = $1) AS is_member,
       r.created_at, r.last_active_at, r.archived_at
FROM rooms r
`

// Create inserts the room and its owner's membership.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
INSERT INTO rooms (id, name, description, topic, is_private, invite_code, owner_id, max_members)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
RETURNING created_at, last_active_at;
`
	if err := tx.QueryRowContext(ctx, q,
		room.ID, room.Name, room.Description, room.Topic, room.IsPrivate, room.InviteCode, room.OwnerID, room.MaxMembers,
	).Scan(&room.CreatedAt, &room.LastActiveAt); err != nil {
		return fmt.Errorf("insert room: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO room_members (room_id, user_id) VALUES ($1, $2)`, room.ID, room.OwnerID,
	); err != nil {
		return fmt.Errorf("insert owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	room.MemberCount = 1
	room.IsMember = true
	return nil
}

// Get returns an unarchived room, flagging whether viewer belongs to it.
func (r *RoomRepository) Get(ctx context.Context, viewer, id string) (*domain.Room, error) {
	q := roomSelect + `WHERE r.id = $2 AND r.archived_at IS NULL`
	room, err := scanRoom(r.db.QueryRowContext(ctx, q, viewer, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	return room, err
}

// ListVisible returns public rooms and the private rooms viewer belongs to.
func (r *RoomRepository) ListVisible(ctx context.Context, viewer string) ([]domain.Room, error) {
	q := roomSelect + `
WHERE r.archived_at IS NULL
  AND (NOT r.is_private OR EXISTS (SELECT 1 FROM room_members m WHERE m.room_id = r.id AND m.user_id = $1))
ORDER BY r.last_active_at DESC
LIMIT 200`
	rows, err := r.db.QueryContext(ctx, q, viewer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *room)
	}
	return out, rows.Err()
}

func (r *RoomRepository) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2)`, roomID, userID,
	).Scan(&ok)
	return ok, err
}

// AddMember joins userID to the room unless it is full. Joining twice is a
// no-op.
func (r *RoomRepository) AddMember(ctx context.Context, roomID, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var maxMembers int
	err = tx.QueryRowContext(ctx,
		`SELECT max_members FROM rooms WHERE id = $1 AND archived_at IS NULL FOR UPDATE`, roomID,
	).Scan(&maxMembers)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRoomNotFound
	}
	if err != nil {
		return err
	}

	var exists bool
	var count int
	if err := tx.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2),
       (SELECT count(*) FROM room_members WHERE room_id = $1)`, roomID, userID,
	).Scan(&exists, &count); err != nil {
		return err
	}
	if exists {
		return tx.Commit()
	}
	if count >= maxMembers {
		return domain.ErrRoomFull
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO room_members (room_id, user_id) VALUES ($1, $2)`, roomID, userID,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE rooms SET last_active_at = now() WHERE id = $1`, roomID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *RoomRepository) RemoveMember(ctx context.Context, roomID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM room_members WHERE room_id = $1 AND user_id = $2`, roomID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotMember
	}
	return nil
}

func (r *RoomRepository) ListMembers(ctx context.Context, roomID string) ([]domain.Member, error) {
	const q = `
SELECT m.user_id, COALESCE(u.display_name, ''), m.joined_at
FROM room_members m
LEFT JOIN users u ON u.firebase_uid = m.user_id
WHERE m.room_id = $1
ORDER BY m.joined_at ASC;
`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Member, 0)
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.UserID, &m.DisplayName, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

// ArchiveIdle archives rooms without activity since cutoff.
func (r *RoomRepository) ArchiveIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET archived_at = now() WHERE archived_at IS NULL AND last_active_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(s scanner) (*domain.Room, error) {
	var room domain.Room
	var archivedAt sql.NullTime
	if err := s.Scan(&room.ID, &room.Name, &room.Description, &room.Topic, &room.IsPrivate, &room.InviteCode,
		&room.OwnerID, &room.MaxMembers, &room.MemberCount, &room.IsMember,
		&room.CreatedAt, &room.LastActiveAt, &archivedAt); err != nil {
		return nil, err
	}
	if archivedAt.Valid {
		room.ArchivedAt = &archivedAt.Time
	}
	return &room, nil
}
