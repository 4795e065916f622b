package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/studyhaven/studyhaven-backend/internal/rooms/domain"
)

type WhiteboardRepository struct {
	db *sql.DB
}

func NewWhiteboardRepository(db *sql.DB) *WhiteboardRepository {
	return &WhiteboardRepository{db: db}
}

// AppendStroke assigns the next room version to the stroke and stores it.
func (r *WhiteboardRepository) AppendStroke(ctx context.Context, roomID, userID string, data json.RawMessage) (*domain.Stroke, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	s := &domain.Stroke{UserID: userID, Data: data}
	err = tx.QueryRowContext(ctx, `
UPDATE rooms SET stroke_version = stroke_version + 1, last_active_at = now()
WHERE id = $1
RETURNING stroke_version`, roomID).Scan(&s.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := tx.QueryRowContext(ctx, `
INSERT INTO whiteboard_strokes (room_id, version, user_id, data)
VALUES ($1, $2, $3, $4)
RETURNING created_at`, roomID, s.Version, userID, []byte(data)).Scan(&s.CreatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s, nil
}

// State returns the snapshot and every stroke newer than it.
func (r *WhiteboardRepository) State(ctx context.Context, roomID string) (*domain.WhiteboardState, error) {
	state := &domain.WhiteboardState{Snapshot: []json.RawMessage{}, Strokes: []domain.Stroke{}}

	var snapshot []byte
	err := r.db.QueryRowContext(ctx, `
SELECT r.stroke_version, COALESCE(s.version, 0), COALESCE(s.strokes, '[]'::jsonb)
FROM rooms r
LEFT JOIN whiteboard_snapshots s ON s.room_id = r.id
WHERE r.id = $1`, roomID).Scan(&state.Version, &state.SnapshotVersion, &snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &state.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT version, user_id, data, created_at
FROM whiteboard_strokes
WHERE room_id = $1 AND version > $2
ORDER BY version ASC`, roomID, state.SnapshotVersion)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.Stroke
		var data []byte
		if err := rows.Scan(&s.Version, &s.UserID, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Data = data
		state.Strokes = append(state.Strokes, s)
	}
	return state, rows.Err()
}

// Clear empties the board at a new version.
func (r *WhiteboardRepository) Clear(ctx context.Context, roomID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var version int64
	err = tx.QueryRowContext(ctx, `
UPDATE rooms SET stroke_version = stroke_version + 1, last_active_at = now()
WHERE id = $1
RETURNING stroke_version`, roomID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrRoomNotFound
	}
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM whiteboard_strokes WHERE room_id = $1`, roomID); err != nil {
		return 0, err
	}
	if err := upsertSnapshot(ctx, tx, roomID, version, []byte("[]")); err != nil {
		return 0, err
	}
	return version, tx.Commit()
}

// Compact folds strokes up to and including upTo into the snapshot. It
// returns the number of strokes folded.
func (r *WhiteboardRepository) Compact(ctx context.Context, roomID string, upTo int64) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Lock the room row so Clear and Compact serialize.
	var current int64
	err = tx.QueryRowContext(ctx, `SELECT stroke_version FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrRoomNotFound
	}
	if err != nil {
		return 0, err
	}

	var snapVersion int64
	var snapData []byte
	err = tx.QueryRowContext(ctx,
		`SELECT version, strokes FROM whiteboard_snapshots WHERE room_id = $1`, roomID,
	).Scan(&snapVersion, &snapData)
	if errors.Is(err, sql.ErrNoRows) {
		snapData = []byte("[]")
	} else if err != nil {
		return 0, err
	}
	if snapVersion >= upTo {
		return 0, tx.Commit()
	}

	var folded []json.RawMessage
	if err := json.Unmarshal(snapData, &folded); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
SELECT data FROM whiteboard_strokes
WHERE room_id = $1 AND version > $2 AND version <= $3
ORDER BY version ASC`, roomID, snapVersion, upTo)
	if err != nil {
		return 0, err
	}
	n := 0
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			rows.Close()
			return 0, err
		}
		folded = append(folded, data)
		n++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	encoded, err := json.Marshal(folded)
	if err != nil {
		return 0, err
	}
	if err := upsertSnapshot(ctx, tx, roomID, upTo, encoded); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM whiteboard_strokes WHERE room_id = $1 AND version <= $2`, roomID, upTo); err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func upsertSnapshot(ctx context.Context, tx *sql.Tx, roomID string, version int64, strokes []byte) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO whiteboard_snapshots (room_id, version, strokes, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (room_id) DO UPDATE
SET version = EXCLUDED.version, strokes = EXCLUDED.strokes, updated_at = now()`, roomID, version, strokes)
	return err
}
