package http

import (
	"github.com/gorilla/websocket"

	"github.com/studyhaven/studyhaven-backend/internal/rooms/realtime"
	"github.com/studyhaven/studyhaven-backend/internal/rooms/service"
)

type Handler struct {
	svc      *service.RoomService
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

func New(svc *service.RoomService, hub *realtime.Hub, allowedOrigins []string) *Handler {
	return &Handler{
		svc: svc,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}
