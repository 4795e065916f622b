package http

import "github.com/studyhaven/studyhaven-backend/internal/integrations/service"

type Handler struct {
	svc *service.IntegrationService
}

func New(svc *service.IntegrationService) *Handler {
	return &Handler{svc: svc}
}
