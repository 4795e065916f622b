package service

import (
	"context"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/workspaces/domain"
)

type FileStore interface {
	Create(ctx context.Context, f *domain.File) error
	Get(ctx context.Context, workspaceID, id string) (*domain.File, error)
	List(ctx context.Context, workspaceID string) ([]domain.File, error)
	Delete(ctx context.Context, workspaceID, id string) error
}

// ObjectStore presigns direct uploads and downloads.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, size int64) (string, error)
	PresignGet(ctx context.Context, key, fileName string) (string, error)
	Delete(ctx context.Context, key string) error
	TTL() time.Duration
}

type FileService struct {
	workspaces WorkspaceGetter
	files      FileStore
	objects    ObjectStore
	now        func() time.Time
}

// NewFileService builds the file service. objects may be nil when no bucket
// is configured; file operations then fail with ErrStorageDisabled.
func NewFileService(workspaces WorkspaceGetter, files FileStore, objects ObjectStore) *FileService {
	return &FileService{workspaces: workspaces, files: files, objects: objects, now: time.Now}
}

func (s *FileService) RequestUpload(ctx context.Context, userID, workspaceID string, req domain.UploadRequest) (*domain.Upload, error) {
	if _, err := Authorize(ctx, s.workspaces, userID, workspaceID, domain.RoleEditor); err != nil {
		return nil, err
	}
	if s.objects == nil {
		return nil, domain.ErrStorageDisabled
	}

	name := path.Base(strings.ReplaceAll(strings.TrimSpace(req.FileName), `\`, "/"))
	if name == "" || name == "." || name == "/" || utf8.RuneCountInString(name) > domain.MaxFileNameLen {
		return nil, domain.ErrInvalidFile
	}
	if req.SizeBytes <= 0 {
		return nil, domain.ErrInvalidFile
	}
	if req.SizeBytes > domain.MaxFileSize {
		return nil, domain.ErrFileTooLarge
	}
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	f := &domain.File{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		UploadedBy:  userID,
		FileName:    name,
		ContentType: contentType,
		SizeBytes:   req.SizeBytes,
	}
	f.StorageKey = "workspaces/" + workspaceID + "/" + f.ID

	url, err := s.objects.PresignPut(ctx, f.StorageKey, contentType, f.SizeBytes)
	if err != nil {
		return nil, err
	}
	if err := s.files.Create(ctx, f); err != nil {
		return nil, err
	}
	return &domain.Upload{File: f, UploadURL: url, ExpiresAt: s.now().UTC().Add(s.objects.TTL())}, nil
}

func (s *FileService) List(ctx context.Context, userID, workspaceID string) ([]domain.File, error) {
	if _, err := Authorize(ctx, s.workspaces, userID, workspaceID, domain.RoleViewer); err != nil {
		return nil, err
	}
	return s.files.List(ctx, workspaceID)
}

func (s *FileService) Download(ctx context.Context, userID, workspaceID, fileID string) (*domain.Download, error) {
	f, err := s.file(ctx, userID, workspaceID, fileID, domain.RoleViewer)
	if err != nil {
		return nil, err
	}
	if s.objects == nil {
		return nil, domain.ErrStorageDisabled
	}
	url, err := s.objects.PresignGet(ctx, f.StorageKey, f.FileName)
	if err != nil {
		return nil, err
	}
	return &domain.Download{URL: url, ExpiresAt: s.now().UTC().Add(s.objects.TTL())}, nil
}

// Delete removes the object first so a failed delete leaves the row to retry.
func (s *FileService) Delete(ctx context.Context, userID, workspaceID, fileID string) error {
	f, err := s.file(ctx, userID, workspaceID, fileID, domain.RoleEditor)
	if err != nil {
		return err
	}
	if s.objects == nil {
		return domain.ErrStorageDisabled
	}
	if err := s.objects.Delete(ctx, f.StorageKey); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, workspaceID, fileID); err != nil {
		return err
	}
	logging.NewLogger(ctx).LogInfof("delete_file", "deleted %s from workspace %s", f.ID, workspaceID)
	return nil
}

func (s *FileService) file(ctx context.Context, userID, workspaceID, fileID string, min domain.Role) (*domain.File, error) {
	if _, err := Authorize(ctx, s.workspaces, userID, workspaceID, min); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(fileID); err != nil {
		return nil, domain.ErrFileNotFound
	}
	return s.files.Get(ctx, workspaceID, fileID)
}
