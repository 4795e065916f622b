package http

import "github.com/studyhaven/studyhaven-backend/internal/insights/service"

type Handler struct {
	svc *service.InsightsService
}

func New(svc *service.InsightsService) *Handler {
	return &Handler{svc: svc}
}
