package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/nexushq/nexus-server/internal/auth"
	"github.com/nexushq/nexus-server/internal/handler"
	"github.com/nexushq/nexus-server/internal/middleware"
	"github.com/nexushq/nexus-server/internal/storage"
	"github.com/nexushq/nexus-server/internal/store"
	"github.com/nexushq/nexus-server/pkg/config"
	"github.com/nexushq/nexus-server/pkg/database"
	"github.com/nexushq/nexus-server/pkg/jwtutil"
	"github.com/nexushq/nexus-server/pkg/logger"
	"github.com/nexushq/nexus-server/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting nexus server...", zap.String("environment", cfg.Server.Env))

	// Connect database and build the store
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	st := store.New(db)
	log.Info("Database connection established")

	// Blob storage backend
	backend := storage.NewLocal(cfg.Storage.BaseDir)
	log.Info("Blob storage initialized", zap.String("base_dir", cfg.Storage.BaseDir))

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// Identity resolution and handlers
	resolver := auth.NewResolver(st, log)
	authenticator := middleware.NewAuthenticator(resolver, cfg.Session.CookieName)
	authHandler := handler.NewAuthHandler(st, backend, cfg.Session.CookieName, cfg.Session.TTL)
	employeeHandler := handler.NewEmployeeHandler(st)
	roleHandler := handler.NewRoleHandler(st)
	fileHandler := handler.NewFileHandler(st, backend)
	taskHandler := handler.NewTaskHandler(st)
	categoryHandler := handler.NewCategoryHandler(st)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	authGroup := e.Group("/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/signin", authHandler.Signin)
	authGroup.POST("/signout", authHandler.Signout)
	authGroup.GET("/me", authHandler.Me, authenticator.Middleware)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(authenticator.Middleware)

	// Employee management
	api.GET("/employees", employeeHandler.List, middleware.RequirePermission("users.read"))
	api.POST("/employees", employeeHandler.Create, middleware.RequirePermission("users.create"))
	api.GET("/employees/:id", employeeHandler.Get)
	api.PATCH("/employees/:id", employeeHandler.Update, middleware.RequirePermission("users.update"))
	api.DELETE("/employees/:id", employeeHandler.Delete, middleware.RequirePermission("users.delete"))

	// Roles - listing needs authentication only
	api.GET("/roles", roleHandler.List)

	// Files
	api.GET("/files", fileHandler.List, middleware.RequirePermission("files.read"))
	api.POST("/files/upload", fileHandler.Upload, middleware.RequirePermission("files.create"))
	api.GET("/files/:id/download", fileHandler.Download, middleware.RequirePermission("files.read"))
	api.DELETE("/files", fileHandler.Delete, middleware.RequirePermission("files.delete"))

	// Tasks and categories
	api.GET("/tasks", taskHandler.List, middleware.RequirePermission("tasks.read"))
	api.POST("/tasks", taskHandler.Create, middleware.RequirePermission("tasks.create"))
	api.GET("/tasks/:id", taskHandler.Get, middleware.RequirePermission("tasks.read"))
	api.PATCH("/tasks/:id", taskHandler.Update, middleware.RequirePermission("tasks.update"))
	api.DELETE("/tasks/:id", taskHandler.Delete, middleware.RequirePermission("tasks.delete"))
	api.GET("/categories", categoryHandler.List, middleware.RequirePermission("categories.read"))
	api.POST("/categories", categoryHandler.Create, middleware.RequirePermission("categories.create"))

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
