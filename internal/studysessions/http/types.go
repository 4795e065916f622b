package http

import "github.com/studyhaven/studyhaven-backend/internal/studysessions/service"

type Handler struct {
	svc *service.SessionService
}

func New(svc *service.SessionService) *Handler {
	return &Handler{svc: svc}
}
