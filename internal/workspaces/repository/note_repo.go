package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/studyhaven/studyhaven-backend/internal/workspaces/domain"
)

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, n *domain.Note) error {
	const q = `
INSERT INTO workspace_notes (id, workspace_id, title, content, created_by, updated_by)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING version, created_at, updated_at;
`
	n.UpdatedBy = n.CreatedBy
	return r.db.QueryRowContext(ctx, q, n.ID, n.WorkspaceID, n.Title, n.Content, n.CreatedBy).
		Scan(&n.Version, &n.CreatedAt, &n.UpdatedAt)
}

func (r *NoteRepository) Get(ctx context.Context, workspaceID, id string) (*domain.Note, error) {
	const q = `
SELECT id, workspace_id, title, content, version, created_by, updated_by, created_at, updated_at
FROM workspace_notes
WHERE workspace_id = $1 AND id = $2;
`
	var n domain.Note
	err := r.db.QueryRowContext(ctx, q, workspaceID, id).Scan(
		&n.ID, &n.WorkspaceID, &n.Title, &n.Content, &n.Version, &n.CreatedBy, &n.UpdatedBy, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns note metadata without content.
func (r *NoteRepository) List(ctx context.Context, workspaceID string) ([]domain.Note, error) {
	const q = `
SELECT id, workspace_id, title, version, created_by, updated_by, created_at, updated_at
FROM workspace_notes
WHERE workspace_id = $1
ORDER BY updated_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Note{}
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.WorkspaceID, &n.Title, &n.Version, &n.CreatedBy, &n.UpdatedBy, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NoteRepository) Delete(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workspace_notes WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

// ApplyFunc computes the new content from the current note.
type ApplyFunc func(current *domain.Note) (string, error)

// Apply locks the note, checks baseVersion, stores the new content and the
// batch, and returns the updated note.
func (r *NoteRepository) Apply(ctx context.Context, workspaceID, id, userID string, baseVersion int64, ops []domain.Op, apply ApplyFunc) (*domain.Note, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const sel = `
SELECT id, workspace_id, title, content, version, created_by, updated_by, created_at, updated_at
FROM workspace_notes
WHERE workspace_id = $1 AND id = $2
FOR UPDATE;
`
	var n domain.Note
	err = tx.QueryRowContext(ctx, sel, workspaceID, id).Scan(
		&n.ID, &n.WorkspaceID, &n.Title, &n.Content, &n.Version, &n.CreatedBy, &n.UpdatedBy, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	if n.Version != baseVersion {
		return nil, domain.ErrVersionConflict
	}

	content, err := apply(&n)
	if err != nil {
		return nil, err
	}

	const upd = `
UPDATE workspace_notes
SET content = $3, version = version + 1, updated_by = $4, updated_at = now()
WHERE workspace_id = $1 AND id = $2
RETURNING version, updated_at;
`
	if err := tx.QueryRowContext(ctx, upd, workspaceID, id, content, userID).Scan(&n.Version, &n.UpdatedAt); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(ops)
	if err != nil {
		return nil, err
	}
	const ins = `INSERT INTO note_op_batches (note_id, version, user_id, ops) VALUES ($1, $2, $3, $4);`
	if _, err := tx.ExecContext(ctx, ins, id, n.Version, userID, raw); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	n.Content = content
	n.UpdatedBy = userID
	return &n, nil
}

// OpsSince returns the batches that produced versions after since, oldest first.
func (r *NoteRepository) OpsSince(ctx context.Context, noteID string, since int64) ([]domain.OpBatch, error) {
	const q = `
SELECT version, user_id, ops, created_at
FROM note_op_batches
WHERE note_id = $1 AND version > $2
ORDER BY version;
`
	rows, err := r.db.QueryContext(ctx, q, noteID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.OpBatch{}
	for rows.Next() {
		var b domain.OpBatch
		var raw []byte
		if err := rows.Scan(&b.Version, &b.UserID, &raw, &b.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &b.Ops); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
