package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/studyhaven/studyhaven-backend/config"
	"github.com/studyhaven/studyhaven-backend/internal/db"
	"github.com/studyhaven/studyhaven-backend/internal/jobs"
	cronjob "github.com/studyhaven/studyhaven-backend/internal/jobs/cron"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
	roomsrepo "github.com/studyhaven/studyhaven-backend/internal/rooms/repository"
	roomsservice "github.com/studyhaven/studyhaven-backend/internal/rooms/service"
	sessionsrepo "github.com/studyhaven/studyhaven-backend/internal/studysessions/repository"
	sessionsservice "github.com/studyhaven/studyhaven-backend/internal/studysessions/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.App.LogLevel, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The API owns migrations.
	database, err := db.Open(ctx, cfg.Database)
	if err != nil {
		logrus.Fatalf("database: %v", err)
	}
	defer database.Close()

	whiteboard := roomsrepo.NewWhiteboardRepository(database.SQL)
	rooms := roomsservice.NewRoomService(
		roomsrepo.NewRoomRepository(database.SQL),
		roomsrepo.NewMessageRepository(database.SQL),
		whiteboard,
		nil,
	)
	sessions := sessionsservice.NewSessionService(sessionsrepo.NewSessionRepository(database.SQL))

	worker := jobs.NewWorkerServer(jobs.RedisOpt(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), 0, whiteboard)
	if err := worker.Start(); err != nil {
		logrus.Fatalf("worker: %v", err)
	}

	scheduler := cronjob.NewScheduler(sessions, rooms)
	if err := scheduler.Start(); err != nil {
		logrus.Fatalf("cron: %v", err)
	}

	<-ctx.Done()
	logrus.Info("shutdown signal received")
	scheduler.Stop()
	worker.Shutdown()
}
