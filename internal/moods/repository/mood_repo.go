package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/studyhaven/studyhaven-backend/internal/moods/domain"
)

type MoodRepository struct {
	db *sql.DB
}

func NewMoodRepository(db *sql.DB) *MoodRepository {
	return &MoodRepository{db: db}
}

func (r *MoodRepository) Create(ctx context.Context, m *domain.MoodLog) error {
	emotions, err := json.Marshal(m.Emotions)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO mood_logs (id, user_id, mood, energy, emotions, note, logged_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at;
`
	return r.db.QueryRowContext(ctx, q,
		m.ID, m.UserID, m.Mood, m.Energy, emotions, m.Note, m.LoggedAt,
	).Scan(&m.CreatedAt)
}

// ListByRange returns the user's logs with from <= logged_at < to, newest first.
func (r *MoodRepository) ListByRange(ctx context.Context, userID string, from, to time.Time) ([]domain.MoodLog, error) {
	const q = `
SELECT id, user_id, mood, energy, emotions, note, logged_at, created_at
FROM mood_logs
WHERE user_id = $1 AND logged_at >= $2 AND logged_at < $3
ORDER BY logged_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.MoodLog, 0)
	for rows.Next() {
		m, err := scanMood(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// Latest returns the most recent log, or nil when the user has none.
func (r *MoodRepository) Latest(ctx context.Context, userID string) (*domain.MoodLog, error) {
	const q = `
SELECT id, user_id, mood, energy, emotions, note, logged_at, created_at
FROM mood_logs
WHERE user_id = $1
ORDER BY logged_at DESC
LIMIT 1;
`
	m, err := scanMood(r.db.QueryRowContext(ctx, q, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *MoodRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mood_logs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMood(s scanner) (*domain.MoodLog, error) {
	var m domain.MoodLog
	var emotions []byte
	if err := s.Scan(&m.ID, &m.UserID, &m.Mood, &m.Energy, &emotions, &m.Note, &m.LoggedAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Emotions = []string{}
	if len(emotions) > 0 {
		if err := json.Unmarshal(emotions, &m.Emotions); err != nil {
			return nil, err
		}
	}
	return &m, nil
}
