package http

import "github.com/studyhaven/studyhaven-backend/internal/workspaces/service"

type Handler struct {
	workspaces *service.WorkspaceService
	files      *service.FileService
	notes      *service.NoteService
}

func New(workspaces *service.WorkspaceService, files *service.FileService, notes *service.NoteService) *Handler {
	return &Handler{workspaces: workspaces, files: files, notes: notes}
}
