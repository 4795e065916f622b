package http

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/studyhaven/studyhaven-backend/internal/pomodoro/service"
)

// Subscriber opens the per-user timer event channel.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) *redis.PubSub
}

type Handler struct {
	svc    *service.PomodoroService
	events Subscriber
}

func New(svc *service.PomodoroService, events Subscriber) *Handler {
	return &Handler{svc: svc, events: events}
}
