package routes

import (
	"database/sql"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/studyhaven/studyhaven-backend/config"
	aiclient "github.com/studyhaven/studyhaven-backend/internal/ai/client"
	aihttp "github.com/studyhaven/studyhaven-backend/internal/ai/http"
	aiservice "github.com/studyhaven/studyhaven-backend/internal/ai/service"
	"github.com/studyhaven/studyhaven-backend/internal/auth"
	authhttp "github.com/studyhaven/studyhaven-backend/internal/auth/http"
	authmiddleware "github.com/studyhaven/studyhaven-backend/internal/auth/middleware"
	authrepo "github.com/studyhaven/studyhaven-backend/internal/auth/repository"
	authservice "github.com/studyhaven/studyhaven-backend/internal/auth/service"
	insightshttp "github.com/studyhaven/studyhaven-backend/internal/insights/http"
	insightsrepo "github.com/studyhaven/studyhaven-backend/internal/insights/repository"
	insightsservice "github.com/studyhaven/studyhaven-backend/internal/insights/service"
	integrationshttp "github.com/studyhaven/studyhaven-backend/internal/integrations/http"
	"github.com/studyhaven/studyhaven-backend/internal/integrations/provider"
	integrationsrepo "github.com/studyhaven/studyhaven-backend/internal/integrations/repository"
	integrationsservice "github.com/studyhaven/studyhaven-backend/internal/integrations/service"
	moodshttp "github.com/studyhaven/studyhaven-backend/internal/moods/http"
	moodsrepo "github.com/studyhaven/studyhaven-backend/internal/moods/repository"
	moodsservice "github.com/studyhaven/studyhaven-backend/internal/moods/service"
	pomodorohttp "github.com/studyhaven/studyhaven-backend/internal/pomodoro/http"
	pomodororepo "github.com/studyhaven/studyhaven-backend/internal/pomodoro/repository"
	pomodoroservice "github.com/studyhaven/studyhaven-backend/internal/pomodoro/service"
	roomshttp "github.com/studyhaven/studyhaven-backend/internal/rooms/http"
	"github.com/studyhaven/studyhaven-backend/internal/rooms/realtime"
	roomsrepo "github.com/studyhaven/studyhaven-backend/internal/rooms/repository"
	roomsservice "github.com/studyhaven/studyhaven-backend/internal/rooms/service"
	"github.com/studyhaven/studyhaven-backend/internal/storage/objectstore"
	sessionshttp "github.com/studyhaven/studyhaven-backend/internal/studysessions/http"
	sessionsrepo "github.com/studyhaven/studyhaven-backend/internal/studysessions/repository"
	sessionsservice "github.com/studyhaven/studyhaven-backend/internal/studysessions/service"
	workspaceshttp "github.com/studyhaven/studyhaven-backend/internal/workspaces/http"
	workspacesrepo "github.com/studyhaven/studyhaven-backend/internal/workspaces/repository"
	workspacesservice "github.com/studyhaven/studyhaven-backend/internal/workspaces/service"
)

type V1Deps struct {
	Config *config.Config
	DB     *sql.DB
	Redis  *redis.Client
	// Firebase verifies ID tokens. When nil, development auth is used.
	Firebase *fbauth.Client
	// Objects backs workspace files. When nil, file endpoints answer 503.
	Objects   *objectstore.Store
	Snapshots roomsservice.SnapshotEnqueuer
	// Middleware runs before authentication on every /api/v1 route.
	Middleware []gin.HandlerFunc
}

// RegisterV1 mounts every feature under /api/v1. The returned hub must be
// started by the caller before websocket traffic arrives.
func RegisterV1(r *gin.Engine, dep V1Deps) *realtime.Hub {
	api := r.Group("/api/v1")
	api.Use(dep.Middleware...)

	userRepo := authrepo.NewUserRepository(dep.DB)
	var directory workspacesservice.Directory = userRepo
	if dep.Firebase != nil {
		api.Use(authmiddleware.FirebaseAuthMiddleware(dep.Firebase, userRepo))
		directory = auth.NewDirectory(dep.Firebase)
	} else {
		api.Use(auth.DevUser(userRepo))
	}

	authhttp.New(authservice.NewAuthService(userRepo)).Register(api)

	moodRepo := moodsrepo.NewMoodRepository(dep.DB)
	moodshttp.New(moodsservice.NewMoodService(moodRepo)).Register(api.Group("/moods"))

	sessionRepo := sessionsrepo.NewSessionRepository(dep.DB)
	sessionService := sessionsservice.NewSessionService(sessionRepo)
	sessionshttp.New(sessionService).Register(api.Group("/sessions"))

	timerRepo := pomodororepo.NewTimerRepository(dep.Redis)
	pomodorohttp.New(pomodoroservice.NewPomodoroService(timerRepo, sessionService), timerRepo).
		Register(api.Group("/pomodoro"))

	roomService := roomsservice.NewRoomService(
		roomsrepo.NewRoomRepository(dep.DB),
		roomsrepo.NewMessageRepository(dep.DB),
		roomsrepo.NewWhiteboardRepository(dep.DB),
		dep.Snapshots,
	)
	hub := realtime.NewHub(dep.Redis, roomService)
	roomshttp.New(roomService, hub, dep.Config.Server.AllowedOrigins).Register(api.Group("/rooms"))

	workspaceRepo := workspacesrepo.NewWorkspaceRepository(dep.DB)
	var objects workspacesservice.ObjectStore
	if dep.Objects != nil {
		objects = dep.Objects
	}
	workspaceshttp.New(
		workspacesservice.NewWorkspaceService(workspaceRepo, directory, userRepo),
		workspacesservice.NewFileService(workspaceRepo, workspacesrepo.NewFileRepository(dep.DB), objects),
		workspacesservice.NewNoteService(workspaceRepo, workspacesrepo.NewNoteRepository(dep.DB)),
	).Register(api.Group("/workspaces"))

	ai := dep.Config.AI
	aihttp.New(aiservice.NewAIService(
		aiclient.NewVisionClient(ai.BaseURL, ai.APIKey, ai.VisionModel),
		aiclient.NewElevenLabsClient(ai.ElevenLabsURL, ai.ElevenLabsKey),
		ai.ElevenLabsAgentID,
		aiservice.NewUserLimiter(ai.RatePerMinute),
	)).Register(api.Group("/ai"))

	integrationshttp.New(integrationsservice.NewIntegrationService(
		integrationsrepo.NewTokenRepository(dep.DB),
		provider.NewGoogleCalendar(dep.Config.Google),
		provider.NewNotion(dep.Config.Notion),
	)).Register(api.Group("/integrations"))

	insightshttp.New(insightsservice.NewInsightsService(
		insightsrepo.NewStatsRepository(dep.DB),
		moodRepo,
		sessionRepo,
	)).Register(api)

	return hub
}
