// Package server contains the HTTP handlers for the SnapCircle API.
package server

import (
	"context"
	"errors"
	"time"

	_ "snapcircle/docs" // swagger docs
	"snapcircle/internal/cache"
	"snapcircle/internal/config"
	"snapcircle/internal/database"
	"snapcircle/internal/middleware"
	"snapcircle/internal/models"
	"snapcircle/internal/repository"
	"snapcircle/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	friendService  *service.FriendService
	chatService    *service.ChatService
	photoService   *service.PhotoService
	userService    *service.UserService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires a config and a database")
	}
	middleware.InitMiddleware(cfg)

	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	chatRepo := repository.NewChatRepository(db)

	friendService := service.NewFriendService(friendRepo, userRepo)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("snapcircle-api"),
		friendService:  friendService,
		chatService:    service.NewChatService(chatRepo, userRepo),
		photoService:   service.NewPhotoService(photoRepo, commentRepo, friendService),
		userService:    service.NewUserService(userRepo, photoRepo, friendService),
	}, nil
}

// NewApp builds the Fiber app with the full middleware chain and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "SnapCircle API",
		ErrorHandler: s.errorHandler,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", s.Signup)
	auth.Post("/login", s.Login)

	protected := api.Group("", middleware.AuthRequired)

	// User routes; /me before /:id
	users := protected.Group("/users")
	users.Get("/", s.GetAllUsers)
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/:id/friends", s.GetUserFriends)
	users.Get("/:id/friendship-status", s.GetFriendshipStatus)
	users.Post("/:id/friend-requests", s.SendFriendRequest)
	users.Post("/:id/friend-requests/accept", s.AcceptFriendRequest)
	users.Post("/:id/friend-requests/decline", s.DeclineFriendRequest)
	users.Delete("/:id/friend-requests", s.CancelFriendRequest)
	users.Get("/:id", s.GetUserProfile)

	friends := protected.Group("/friends")
	friends.Get("/", s.GetFriends)
	friends.Get("/requests", s.GetPendingRequests)
	friends.Get("/requests/sent", s.GetSentRequests)
	friends.Delete("/:id", s.RemoveFriend)

	// Photo routes; static segments before /:id
	photos := protected.Group("/photos")
	photos.Get("/", s.GetPhotos)
	photos.Post("/", s.CreatePhoto)
	photos.Get("/feed", s.GetFeed)
	photos.Get("/mine", s.GetMyPhotos)
	photos.Post("/:id/like", s.ToggleLike)
	photos.Get("/:id/counts", s.GetPhotoCounts)
	photos.Get("/:id/comments", s.GetComments)
	photos.Post("/:id/comments", s.CreateComment)
	photos.Delete("/:id/comments/:commentId", s.DeleteComment)
	photos.Get("/:id", s.GetPhoto)
	photos.Put("/:id", s.UpdatePhoto)
	photos.Delete("/:id", s.DeletePhoto)

	conversations := protected.Group("/conversations")
	conversations.Get("/", s.GetConversations)
	conversations.Post("/", s.CreateConversation)
	conversations.Post("/direct", s.StartConversation)
	conversations.Get("/:id/messages", s.GetMessages)
	conversations.Post("/:id/messages", s.SendMessage)
	conversations.Post("/:id/read", s.MarkConversationRead)
	conversations.Post("/:id/participants", s.AddParticipant)
	conversations.Get("/:id", s.GetConversation)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: a
// missing client is reported but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// errorHandler renders errors that escape handlers: fiber's own (unknown
// route, bad method) keep their status, everything else goes through the
// service error mapping.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		appErr := &models.AppError{Code: codeForStatus(fiberErr.Code), Message: fiberErr.Message}
		return models.RespondWithError(c, fiberErr.Code, appErr)
	}
	return respondServiceError(c, err)
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
		cache.SetClient(nil)
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
