package api

import (
	"context"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/sportsclubhq/clubsync/docs"
	v1 "github.com/sportsclubhq/clubsync/internal/api/handler/v1"
	"github.com/sportsclubhq/clubsync/internal/api/middleware"
	"github.com/sportsclubhq/clubsync/internal/config"
	"github.com/sportsclubhq/clubsync/internal/repository"
	"github.com/sportsclubhq/clubsync/internal/repository/dao"
	"github.com/sportsclubhq/clubsync/internal/service"
	"github.com/sportsclubhq/clubsync/internal/transport"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	users         *service.UserService
	subscriptions *service.SubscriptionService
	policy        *service.PolicyEngine
	idempotency   *service.IdempotencyService
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	sender := transport.NewLogSender()

	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	connectionRepo := repository.NewConnectionRepository(dao.NewConnectionDAO(db))
	notificationRepo := repository.NewNotificationRepository(dao.NewNotificationDAO(db))

	s.users = service.NewUserService(userRepo)
	s.subscriptions = service.NewSubscriptionService(connectionRepo, sender)
	s.policy = service.NewPolicyEngine(connectionRepo)
	s.idempotency = service.NewIdempotencyService(
		repository.NewIdempotencyRepository(dao.NewIdempotencyDAO(db)))

	flags := service.NewFlagService(repository.NewFlagRepository(dao.NewFlagDAO(db)))
	dispatcher := service.NewEventDispatcher(flags, s.subscriptions, notificationRepo, userRepo, sender,
		time.Duration(conf.Notifier.SendTimeoutSeconds)*time.Second)

	s.MountMiddlewares()
	s.MountHandlers(
		s.initAuthHandler(db),
		s.initConnectionHandler(),
		s.initTrainingHandler(db, dispatcher),
		s.initClubHandler(db, dispatcher),
		s.initNotificationHandler(db),
		v1.NewFlagHandler(flags),
	)

	return s
}

// StartSweeper launches the periodic cleanup of expired idempotency keys.
func (s *Server) StartSweeper(ctx context.Context) {
	interval := time.Duration(s.Config.Notifier.SweepIntervalMinutes) * time.Minute
	s.idempotency.StartSweeper(ctx, interval)
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	repo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewAuthService(repo, s.subscriptions)

	return v1.NewAuthHandler(s.Config.API, svc)
}

func (s *Server) initConnectionHandler() *v1.ConnectionHandler {
	return v1.NewConnectionHandler(s.subscriptions, s.users, s.policy)
}

func (s *Server) initTrainingHandler(db *gorm.DB, dispatcher *service.EventDispatcher) *v1.TrainingHandler {
	repo := repository.NewTrainingRepository(dao.NewTrainingDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewTrainingService(repo, userRepo, s.policy, dispatcher)

	return v1.NewTrainingHandler(svc)
}

func (s *Server) initClubHandler(db *gorm.DB, dispatcher *service.EventDispatcher) *v1.ClubHandler {
	repo := repository.NewClubRepository(dao.NewClubDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewClubService(repo, userRepo, s.policy, dispatcher)

	return v1.NewClubHandler(svc)
}

func (s *Server) initNotificationHandler(db *gorm.DB) *v1.NotificationHandler {
	notificationRepo := repository.NewNotificationRepository(dao.NewNotificationDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	svc := service.NewNotificationService(notificationRepo, eventRepo, s.subscriptions, s.policy)

	return v1.NewNotificationHandler(svc)
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	connectionHandler *v1.ConnectionHandler,
	trainingHandler *v1.TrainingHandler,
	clubHandler *v1.ClubHandler,
	notificationHandler *v1.NotificationHandler,
	flagHandler *v1.FlagHandler,
) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/signup", authHandler.HandleSignup)
		public.POST("/auth/login", authHandler.HandleLogin)
		// Verification authenticates with the emailed token itself.
		public.POST("/connections/:connectionID/verify", connectionHandler.HandleVerify)
	}

	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey, s.users)
	authed := s.Router.Group(basePath,
		authenticator.VerifyJWT(),
		middleware.Idempotency(s.idempotency))
	{
		authed.POST("/connections", connectionHandler.HandleConnect)
		authed.PUT("/connections/:connectionID/preferences", connectionHandler.HandleUpdatePreferences)
		authed.DELETE("/connections/:connectionID", connectionHandler.HandleDeactivate)
		authed.GET("/athletes/:athleteID/connections", connectionHandler.HandleListForAthlete)

		authed.POST("/attendance", trainingHandler.HandleRecordAttendance)
		authed.POST("/performance", trainingHandler.HandleRecordTestResult)
		authed.POST("/goals", trainingHandler.HandleCreateGoal)
		authed.POST("/goals/:goalID/complete", trainingHandler.HandleCompleteGoal)

		authed.POST("/leave", clubHandler.HandleFileLeave)
		authed.PUT("/leave/:leaveID/decision", clubHandler.HandleDecideLeave)
		authed.POST("/announcements", clubHandler.HandlePostAnnouncement)

		authed.GET("/notifications", notificationHandler.HandleList)
		authed.GET("/notifications/failed", notificationHandler.HandleListFailed)
		authed.GET("/events", notificationHandler.HandleEventsSince)

		authed.PUT("/flags/:flagName", flagHandler.HandleUpsert)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "ClubSync API"
	docs.SwaggerInfo.Description = "Club-scoped authorization and notification fan-out for sports club admins."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
