package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/studyhaven/studyhaven-backend/internal/workspaces/domain"
	"github.com/studyhaven/studyhaven-backend/internal/workspaces/repository"
)

type NoteStore interface {
	Create(ctx context.Context, n *domain.Note) error
	Get(ctx context.Context, workspaceID, id string) (*domain.Note, error)
	List(ctx context.Context, workspaceID string) ([]domain.Note, error)
	Delete(ctx context.Context, workspaceID, id string) error
	Apply(ctx context.Context, workspaceID, id, userID string, baseVersion int64, ops []domain.Op, apply repository.ApplyFunc) (*domain.Note, error)
	OpsSince(ctx context.Context, noteID string, since int64) ([]domain.OpBatch, error)
}

type NoteService struct {
	workspaces WorkspaceGetter
	notes      NoteStore
}

func NewNoteService(workspaces WorkspaceGetter, notes NoteStore) *NoteService {
	return &NoteService{workspaces: workspaces, notes: notes}
}

func (s *NoteService) Create(ctx context.Context, userID, workspaceID, title, content string) (*domain.Note, error) {
	if _, err := Authorize(ctx, s.workspaces, userID, workspaceID, domain.RoleEditor); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > domain.MaxTitleLen ||
		utf8.RuneCountInString(content) > domain.MaxNoteLen {
		return nil, domain.ErrInvalidNote
	}

	n := &domain.Note{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Title:       title,
		Content:     content,
		CreatedBy:   userID,
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NoteService) List(ctx context.Context, userID, workspaceID string) ([]domain.Note, error) {
	if _, err := Authorize(ctx, s.workspaces, userID, workspaceID, domain.RoleViewer); err != nil {
		return nil, err
	}
	return s.notes.List(ctx, workspaceID)
}

func (s *NoteService) Get(ctx context.Context, userID, workspaceID, noteID string) (*domain.Note, error) {
	if err := s.authorize(ctx, userID, workspaceID, noteID, domain.RoleViewer); err != nil {
		return nil, err
	}
	return s.notes.Get(ctx, workspaceID, noteID)
}

func (s *NoteService) Delete(ctx context.Context, userID, workspaceID, noteID string) error {
	if err := s.authorize(ctx, userID, workspaceID, noteID, domain.RoleEditor); err != nil {
		return err
	}
	return s.notes.Delete(ctx, workspaceID, noteID)
}

// ApplyOps applies one batch on top of baseVersion. A stale base is a
// conflict; there is no transform.
func (s *NoteService) ApplyOps(ctx context.Context, userID, workspaceID, noteID string, baseVersion int64, ops []domain.Op) (*domain.Note, error) {
	if err := s.authorize(ctx, userID, workspaceID, noteID, domain.RoleEditor); err != nil {
		return nil, err
	}
	if len(ops) == 0 || len(ops) > domain.MaxOpsPerBatch {
		return nil, domain.ErrInvalidOp
	}
	return s.notes.Apply(ctx, workspaceID, noteID, userID, baseVersion, ops, func(cur *domain.Note) (string, error) {
		return domain.ApplyOps(cur.Content, ops)
	})
}

// OpsSince returns the batches applied after version since.
func (s *NoteService) OpsSince(ctx context.Context, userID, workspaceID, noteID string, since int64) ([]domain.OpBatch, error) {
	if since < 0 {
		return nil, domain.ErrInvalidNote
	}
	if err := s.authorize(ctx, userID, workspaceID, noteID, domain.RoleViewer); err != nil {
		return nil, err
	}
	if _, err := s.notes.Get(ctx, workspaceID, noteID); err != nil {
		return nil, err
	}
	return s.notes.OpsSince(ctx, noteID, since)
}

func (s *NoteService) authorize(ctx context.Context, userID, workspaceID, noteID string, min domain.Role) error {
	if _, err := Authorize(ctx, s.workspaces, userID, workspaceID, min); err != nil {
		return err
	}
	if _, err := uuid.Parse(noteID); err != nil {
		return domain.ErrNoteNotFound
	}
	return nil
}
