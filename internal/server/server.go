// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"bugtrail/internal/cache"
	"bugtrail/internal/config"
	"bugtrail/internal/database"
	"bugtrail/internal/featureflags"
	"bugtrail/internal/middleware"
	"bugtrail/internal/models"
	"bugtrail/internal/realtime"
	"bugtrail/internal/repository"
	"bugtrail/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	bugRepo     repository.BugRepository
	counterRepo repository.CounterRepository
	pointsRepo  repository.PointsRepository

	featureFlags *featureflags.Manager
	notifier     *realtime.Notifier
	hub          *realtime.Hub

	authService    *service.AuthService
	userService    *service.UserService
	projectService *service.ProjectService
	bugService     *service.BugService
	pointsService  *service.PointsService
	githubService  *service.GitHubService
}

// NewServer creates a new server instance with all dependencies.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	verifier := service.NewGoogleVerifier(cfg.GoogleClientID)
	var githubClient service.RepoMetadataClient
	if cfg.GitHubToken != "" {
		githubClient = service.NewGitHubClient(cfg.GitHubAPIBase, cfg.GitHubToken)
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), verifier, githubClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with an in-memory database and stubbed outbound clients.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client,
	verifier service.GoogleVerifier, githubClient service.RepoMetadataClient) (*Server, error) {
	middleware.InitMiddleware(cfg)
	models.SetDevMode(cfg.IsDevelopment())

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("bugtrail-api"),
		userRepo:       repository.NewUserRepository(db),
		projectRepo:    repository.NewProjectRepository(db),
		bugRepo:        repository.NewBugRepository(db),
		counterRepo:    repository.NewCounterRepository(db),
		pointsRepo:     repository.NewPointsRepository(db),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	s.notifier = realtime.NewNotifier(redisClient)
	s.hub = realtime.NewHub(redisClient)

	s.pointsService = service.NewPointsService(db)
	s.authService = service.NewAuthService(s.userRepo, verifier, cfg.JWTSecret)
	s.userService = service.NewUserService(s.userRepo)
	s.projectService = service.NewProjectService(db, s.projectRepo)
	s.bugService = service.NewBugService(db, s.bugRepo, s.projectRepo, s.counterRepo, s.pointsService, s.notifier)
	s.githubService = service.NewGitHubService(db, s.bugRepo, s.pointsService, githubClient, s.featureFlags, s.notifier)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global fixed-window limit per IP; preflights are exempt.
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/google", middleware.RateLimit(
		s.redis, "google_login", 10, 5*time.Minute, middleware.FailOpen), s.GoogleLogin)
	auth.Get("/me", middleware.AuthRequired, s.Me)
	auth.Post("/refresh", middleware.AuthRequired, s.Refresh)

	// Everything below requires a session.
	protected := api.Group("", middleware.AuthRequired)

	// User routes
	users := protected.Group("/users")
	users.Post("/check-username", s.CheckUsername)
	users.Post("/complete-onboarding", s.CompleteOnboarding)
	users.Put("/update-profile", s.UpdateProfile)
	users.Get("/leaderboard", s.Leaderboard)
	users.Post("/award-points", middleware.RateLimit(
		s.redis, "award_points", 20, time.Minute, middleware.FailOpen), s.AwardPoints)
	users.Get("/points-history", s.PointsHistory)

	// Project routes
	projects := protected.Group("/projects")
	projects.Get("/", s.GetProjects)
	projects.Post("/", s.CreateProject)
	projects.Post("/:id/members", s.AddProjectMember)
	projects.Get("/:id", s.GetProject)
	projects.Put("/:id", s.UpdateProject)
	projects.Delete("/:id", s.DeleteProject)

	// Bug routes
	bugs := protected.Group("/bugs")
	bugs.Get("/", s.GetBugs)
	bugs.Post("/", middleware.RateLimit(
		s.redis, "create_bug", 30, time.Minute, middleware.FailOpen), s.CreateBug)
	// Specific /:identifier/:resource routes before the generic /:identifier.
	bugs.Get("/:identifier/comments", s.GetComments)
	bugs.Post("/:identifier/comments", middleware.RateLimit(
		s.redis, "create_comment", 30, time.Minute, middleware.FailOpen), s.CreateComment)
	bugs.Get("/:identifier/activity", s.GetBugActivity)
	bugs.Get("/:identifier", s.GetBug)
	bugs.Put("/:identifier", s.UpdateBug)
	bugs.Delete("/:identifier", s.DeleteBug)

	// Dashboard routes
	dashboard := protected.Group("/dashboard")
	dashboard.Get("/", s.Dashboard)
	dashboard.Get("/leaderboard", s.Leaderboard)

	// GitHub routes
	github := protected.Group("/github")
	github.Post("/link-repo/:bugId", s.LinkRepo)
	github.Post("/fork/:bugId", s.RecordFork)
	github.Post("/pull-request/:bugId", s.RecordPullRequest)
	github.Put("/pull-request/:bugId/:prNumber", s.UpdatePullRequest)
	github.Get("/activity/:bugId", s.GitHubActivity)

	// Realtime activity feed; token arrives as a query parameter on upgrade.
	app.Get("/ws/activity", middleware.WebSocketAuthRequired, s.ActivityFeedHandler())
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The API degrades gracefully without Redis; report but stay ready.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Bugtrail API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	go s.hub.Run(s.shutdownCtx)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down activity hub: %v", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
