package bootstrap

import (
	"context"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/studyhaven/studyhaven-backend/config"
	httpapi "github.com/studyhaven/studyhaven-backend/internal/api/http"
	"github.com/studyhaven/studyhaven-backend/internal/api/http/middleware"
	"github.com/studyhaven/studyhaven-backend/internal/api/http/routes"
	"github.com/studyhaven/studyhaven-backend/internal/db"
	"github.com/studyhaven/studyhaven-backend/internal/rooms/realtime"
	roomsservice "github.com/studyhaven/studyhaven-backend/internal/rooms/service"
	"github.com/studyhaven/studyhaven-backend/internal/storage/objectstore"
)

const ServiceName = "studyhaven-backend"

type RouterDeps struct {
	Config    *config.Config
	DB        *db.DB
	Redis     *redis.Client
	Firebase  *fbauth.Client
	Objects   *objectstore.Store
	Snapshots roomsservice.SnapshotEnqueuer
}

// BuildRouter wires middleware, health checks and the v1 API. The room hub is
// returned unstarted.
func BuildRouter(dep RouterDeps) (*gin.Engine, *realtime.Hub) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(corsConfig(dep.Config.Server.AllowedOrigins)))

	var dbPinger httpapi.Pinger
	if dep.DB != nil && dep.DB.Pool != nil {
		dbPinger = dep.DB.Pool
	}
	var redisPinger httpapi.RedisPinger
	if dep.Redis != nil {
		redisPinger = func(ctx context.Context) error { return dep.Redis.Ping(ctx).Err() }
	}
	httpapi.NewHealthHandler(ServiceName, dep.Config.App.Version, dbPinger, redisPinger).RegisterRoutes(r)

	hub := routes.RegisterV1(r, routes.V1Deps{
		Config:    dep.Config,
		DB:        dep.DB.SQL,
		Redis:     dep.Redis,
		Firebase:  dep.Firebase,
		Objects:   dep.Objects,
		Snapshots: dep.Snapshots,
		Middleware: []gin.HandlerFunc{
			middleware.RateLimit(dep.Redis, dep.Config.Server.RateLimitPerMinute, time.Minute),
		},
	})
	return r, hub
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Authorization", "X-Request-Id",
			"X-User-Id", "X-User-Email", "X-User-Name",
		},
		ExposeHeaders: []string{"X-Request-Id", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}

	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
		if o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowed
	cfg.AllowCredentials = true
	return cfg
}
