package http

import "github.com/studyhaven/studyhaven-backend/internal/moods/service"

type Handler struct {
	svc *service.MoodService
}

func New(svc *service.MoodService) *Handler {
	return &Handler{svc: svc}
}
