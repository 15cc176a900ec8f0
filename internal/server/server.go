package server

import (
	"context"
	"net/http"
	"time"

	"anoa.com/socialgraph/internal/config"
	"anoa.com/socialgraph/internal/event"
	"anoa.com/socialgraph/internal/middleware"
	"anoa.com/socialgraph/internal/realtime"

	adminHttp "anoa.com/socialgraph/internal/modules/admin/delivery/http"

	contentRepo "anoa.com/socialgraph/internal/modules/content/repository"

	followHttp "anoa.com/socialgraph/internal/modules/follow/delivery/http"
	followRepo "anoa.com/socialgraph/internal/modules/follow/repository"
	followService "anoa.com/socialgraph/internal/modules/follow/service"

	notiHttp "anoa.com/socialgraph/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/socialgraph/internal/modules/notification/repository"
	notifService "anoa.com/socialgraph/internal/modules/notification/service"

	prefHttp "anoa.com/socialgraph/internal/modules/preference/delivery/http"
	prefRepo "anoa.com/socialgraph/internal/modules/preference/repository"
	prefService "anoa.com/socialgraph/internal/modules/preference/service"

	userRepo "anoa.com/socialgraph/internal/modules/user/repository"

	"anoa.com/socialgraph/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	registry    *realtime.Registry
	dispatcher  *realtime.Dispatcher
	relay       *realtime.RedisRelay
	bus         *event.Bus
}

// NewServer wires every module. redisClient may be nil: the follow cooldown,
// the cross-instance relay and the content event source are then disabled.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, emails notifService.EmailQueue) *Server {
	userRepo := userRepo.NewUserRepository(db)
	preferenceRepo := prefRepo.NewRepository(db)

	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry)
	var relay *realtime.RedisRelay
	if redisClient != nil {
		relay = realtime.NewRedisRelay(redisClient)
		dispatcher.SetRelay(relay)
	}

	bus := event.NewBus()

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(
		notificationRepository,
		userRepo,
		preferenceRepo,
		contentRepo.NewRepository(db),
		dispatcher,
		emails,
		notifService.Options{AlwaysOn: cfg.NotifyAlwaysOn},
	)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, dispatcher, cfg.AllowedOrigins, cfg.WSSendBuffer)
	bus.Subscribe(notificationSvc)

	// Follow Module
	followSvc := followService.NewService(followRepo.NewRepository(db), userRepo, bus, redisClient, followService.Options{
		Cooldown: cfg.RateLimitFollow,
	})
	followHandler := followHttp.NewFollowHandler(followSvc)

	preferenceSvc := prefService.NewService(preferenceRepo, cfg.NotifyAlwaysOn)
	preferenceHandler := prefHttp.NewPreferenceHandler(preferenceSvc)

	adminHandler := adminHttp.NewAdminHandler(dispatcher)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/notifications/ws", "/healthz"},
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "online": registry.Count()})
	})

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api := router.Group("/api")

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/broadcast", adminHandler.Broadcast)
			adminGroup.GET("/presence", adminHandler.Presence)
		}

		followHandler.RegisterRoutes(protected)
		notificationHandler.RegisterRoutes(protected)
		preferenceHandler.RegisterRoutes(protected)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		registry:    registry,
		dispatcher:  dispatcher,
		relay:       relay,
		bus:         bus,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Registry() *realtime.Registry {
	return s.registry
}

// Publisher is the bus that feeds the notification engine.
func (s *Server) Publisher() event.Publisher {
	return s.bus
}

// Start launches the redis subscribers. They stop when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.redisClient == nil {
		logger.Warn("redis disabled: running single-instance, content events not consumed")
		return nil
	}

	if err := s.relay.Start(ctx, s.dispatcher); err != nil {
		return err
	}

	source := event.NewRedisSource(s.redisClient, event.ContentChannel, s.bus)
	if err := source.Start(ctx); err != nil {
		return err
	}

	logger.Info("realtime relay and event source started", zap.String("channel", event.ContentChannel))
	return nil
}

// Shutdown closes every live socket and empties the presence registry.
// http.Server.Shutdown does not track hijacked connections.
func (s *Server) Shutdown() {
	closed := s.registry.CloseAll()
	logger.Info("closed live sockets", zap.Int("count", closed))
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
