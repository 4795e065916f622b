package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/studyhaven/studyhaven-backend/config"
	"github.com/studyhaven/studyhaven-backend/internal/auth"
	"github.com/studyhaven/studyhaven-backend/internal/bootstrap"
	"github.com/studyhaven/studyhaven-backend/internal/jobs"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/storage/objectstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.App.LogLevel, cfg.App.Environment)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := bootstrap.OpenDB(ctx, cfg.Database)
	if err != nil {
		logrus.Fatalf("database: %v", err)
	}
	defer database.Close()
	logrus.Info("database connected and migrated")

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		logrus.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	var firebase *fbauth.Client
	if cfg.Firebase.DevAuth {
		logrus.Warn("AUTH_DEV_MODE is on: X-User-Id headers are trusted")
	} else {
		if firebase, err = auth.InitializeFirebase(ctx, cfg.Firebase); err != nil {
			logrus.Fatalf("firebase: %v", err)
		}
	}

	var objects *objectstore.Store
	if cfg.Storage.Bucket != "" {
		if objects, err = objectstore.New(ctx, cfg.Storage); err != nil {
			logrus.Fatalf("object storage: %v", err)
		}
	} else {
		logrus.Warn("S3_BUCKET not set: workspace files are disabled")
	}

	queue := asynq.NewClient(jobs.RedisOpt(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))
	defer queue.Close()

	router, hub := bootstrap.BuildRouter(bootstrap.RouterDeps{
		Config:    cfg,
		DB:        database,
		Redis:     rdb,
		Firebase:  firebase,
		Objects:   objects,
		Snapshots: jobs.NewEnqueuer(queue),
	})
	if err := hub.Start(ctx); err != nil {
		logrus.Fatalf("room hub: %v", err)
	}
	defer hub.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("http shutdown: %v", err)
	}
	logrus.Info("server stopped")
}
