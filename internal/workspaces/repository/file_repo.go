package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studyhaven/studyhaven-backend/internal/workspaces/domain"
)

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, f *domain.File) error {
	const q = `
INSERT INTO workspace_files (id, workspace_id, uploaded_by, file_name, content_type, size_bytes, storage_key)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at;
`
	return r.db.QueryRowContext(ctx, q,
		f.ID, f.WorkspaceID, f.UploadedBy, f.FileName, f.ContentType, f.SizeBytes, f.StorageKey,
	).Scan(&f.CreatedAt)
}

const fileSelect = `
SELECT id, workspace_id, uploaded_by, file_name, content_type, size_bytes, storage_key, created_at
FROM workspace_files
`

func (r *FileRepository) Get(ctx context.Context, workspaceID, id string) (*domain.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, fileSelect+`WHERE workspace_id = $1 AND id = $2`, workspaceID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFileNotFound
	}
	return f, err
}

func (r *FileRepository) List(ctx context.Context, workspaceID string) ([]domain.File, error) {
	rows, err := r.db.QueryContext(ctx, fileSelect+`WHERE workspace_id = $1 ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (r *FileRepository) Delete(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workspace_files WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrFileNotFound
	}
	return nil
}

func scanFile(s scanner) (*domain.File, error) {
	var f domain.File
	if err := s.Scan(&f.ID, &f.WorkspaceID, &f.UploadedBy, &f.FileName, &f.ContentType, &f.SizeBytes, &f.StorageKey, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}
