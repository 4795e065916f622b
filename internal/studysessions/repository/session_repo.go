package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/studyhaven/studyhaven-backend/internal/db"
	"github.com/studyhaven/studyhaven-backend/internal/studysessions/domain"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionCols = `id, user_id, subject, source, started_at, ended_at, duration_minutes, notes, created_at`

// Create inserts a session. Inserting an open session while another is open
// fails with ErrSessionOpen.
func (r *SessionRepository) Create(ctx context.Context, s *domain.StudySession) error {
	const q = `
INSERT INTO study_sessions (id, user_id, subject, source, started_at, ended_at, duration_minutes, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at;
`
	err := r.db.QueryRowContext(ctx, q,
		s.ID, s.UserID, s.Subject, s.Source, s.StartedAt, s.EndedAt, s.DurationMinutes, s.Notes,
	).Scan(&s.CreatedAt)
	if db.IsUniqueViolation(err) {
		return domain.ErrSessionOpen
	}
	return err
}

func (r *SessionRepository) Get(ctx context.Context, userID, id string) (*domain.StudySession, error) {
	q := `SELECT ` + sessionCols + ` FROM study_sessions WHERE id = $1 AND user_id = $2`
	s, err := scanSession(r.db.QueryRowContext(ctx, q, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

// GetOpen returns the user's running session or nil.
func (r *SessionRepository) GetOpen(ctx context.Context, userID string) (*domain.StudySession, error) {
	q := `SELECT ` + sessionCols + ` FROM study_sessions WHERE user_id = $1 AND ended_at IS NULL`
	s, err := scanSession(r.db.QueryRowContext(ctx, q, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// Stop closes an open session. It returns ErrAlreadyStopped when the row
// exists but has already ended.
func (r *SessionRepository) Stop(ctx context.Context, userID, id string, endedAt time.Time, minutes int) (*domain.StudySession, error) {
	q := `
UPDATE study_sessions
SET ended_at = $3, duration_minutes = $4
WHERE id = $1 AND user_id = $2 AND ended_at IS NULL
RETURNING ` + sessionCols
	s, err := scanSession(r.db.QueryRowContext(ctx, q, id, userID, endedAt, minutes))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.Get(ctx, userID, id); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrAlreadyStopped
	}
	return s, err
}

// ListByRange returns sessions with from <= started_at < to, newest first.
func (r *SessionRepository) ListByRange(ctx context.Context, userID string, from, to time.Time) ([]domain.StudySession, error) {
	q := `SELECT ` + sessionCols + `
FROM study_sessions
WHERE user_id = $1 AND started_at >= $2 AND started_at < $3
ORDER BY started_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.StudySession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SessionRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM study_sessions WHERE id = $1 AND user_id = $2`, id, userID)
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

// CloseStale ends every session started before cutoff that is still open,
// crediting it with capMinutes.
func (r *SessionRepository) CloseStale(ctx context.Context, cutoff time.Time, capMinutes int) (int64, error) {
	const q = `
UPDATE study_sessions
SET ended_at = started_at + ($2 * interval '1 minute'), duration_minutes = $2
WHERE ended_at IS NULL AND started_at < $1;
`
	res, err := r.db.ExecContext(ctx, q, cutoff, capMinutes)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(s scanner) (*domain.StudySession, error) {
	var out domain.StudySession
	var endedAt sql.NullTime
	if err := s.Scan(&out.ID, &out.UserID, &out.Subject, &out.Source, &out.StartedAt,
		&endedAt, &out.DurationMinutes, &out.Notes, &out.CreatedAt); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		out.EndedAt = &endedAt.Time
	}
	return &out, nil
}
