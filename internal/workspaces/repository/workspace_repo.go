package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studyhaven/studyhaven-backend/internal/db"
	"github.com/studyhaven/studyhaven-backend/internal/workspaces/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

type WorkspaceRepository struct {
	db *sql.DB
}

func NewWorkspaceRepository(db *sql.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// Create inserts the workspace and makes its creator the owner.
func (r *WorkspaceRepository) Create(ctx context.Context, ws *domain.Workspace) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
INSERT INTO workspaces (id, name, description, owner_id)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at;
`
	if err := tx.QueryRowContext(ctx, q, ws.ID, ws.Name, ws.Description, ws.OwnerID).
		Scan(&ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return err
	}

	const m = `INSERT INTO workspace_members (workspace_id, user_id, role) VALUES ($1, $2, $3);`
	if _, err := tx.ExecContext(ctx, m, ws.ID, ws.OwnerID, domain.RoleOwner); err != nil {
		return err
	}
	ws.Role = domain.RoleOwner
	return tx.Commit()
}

const workspaceSelect = `
SELECT w.id, w.name, w.description, w.owner_id, m.role, w.created_at, w.updated_at
FROM workspaces w
JOIN workspace_members m ON m.workspace_id = w.id AND m.user_id = $1
`

// Get returns the workspace as seen by userID. Non-members get ErrNotFound.
func (r *WorkspaceRepository) Get(ctx context.Context, userID, id string) (*domain.Workspace, error) {
	ws, err := scanWorkspace(r.db.QueryRowContext(ctx, workspaceSelect+`WHERE w.id = $2`, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return ws, err
}

func (r *WorkspaceRepository) ListForUser(ctx context.Context, userID string) ([]domain.Workspace, error) {
	rows, err := r.db.QueryContext(ctx, workspaceSelect+`ORDER BY w.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Workspace{}
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ws)
	}
	return out, rows.Err()
}

func (r *WorkspaceRepository) Update(ctx context.Context, ws *domain.Workspace) error {
	const q = `
UPDATE workspaces SET name = $2, description = $3, updated_at = now()
WHERE id = $1
RETURNING updated_at;
`
	err := r.db.QueryRowContext(ctx, q, ws.ID, ws.Name, ws.Description).Scan(&ws.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *WorkspaceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *WorkspaceRepository) ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error) {
	const q = `
SELECT m.user_id, u.email, COALESCE(u.display_name, ''), m.role, COALESCE(m.invited_by, ''), m.joined_at
FROM workspace_members m
JOIN users u ON u.firebase_uid = m.user_id
WHERE m.workspace_id = $1
ORDER BY m.joined_at;
`
	rows, err := r.db.QueryContext(ctx, q, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Member{}
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.DisplayName, &m.Role, &m.InvitedBy, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MemberRole returns userID's role, or ErrMemberNotFound.
func (r *WorkspaceRepository) MemberRole(ctx context.Context, workspaceID, userID string) (domain.Role, error) {
	var role domain.Role
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrMemberNotFound
	}
	return role, err
}

func (r *WorkspaceRepository) AddMember(ctx context.Context, workspaceID, userID string, role domain.Role, invitedBy string) error {
	const q = `
INSERT INTO workspace_members (workspace_id, user_id, role, invited_by)
VALUES ($1, $2, $3, NULLIF($4, ''));
`
	_, err := r.db.ExecContext(ctx, q, workspaceID, userID, role, invitedBy)
	if db.IsUniqueViolation(err) {
		return domain.ErrAlreadyMember
	}
	return err
}

func (r *WorkspaceRepository) UpdateRole(ctx context.Context, workspaceID, userID string, role domain.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE workspace_members SET role = $3 WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID, role)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *WorkspaceRepository) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func scanWorkspace(s scanner) (*domain.Workspace, error) {
	var ws domain.Workspace
	if err := s.Scan(&ws.ID, &ws.Name, &ws.Description, &ws.OwnerID, &ws.Role, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return nil, err
	}
	return &ws, nil
}
