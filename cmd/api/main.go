package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/solvia/solicitudes-api/docs" // Swagger docs
	"github.com/solvia/solicitudes-api/internal/config"
	"github.com/solvia/solicitudes-api/internal/database"
	"github.com/solvia/solicitudes-api/internal/handlers"
	"github.com/solvia/solicitudes-api/internal/middleware"
	"github.com/solvia/solicitudes-api/internal/models"
	"github.com/solvia/solicitudes-api/internal/repository"
	"github.com/solvia/solicitudes-api/internal/services"
	"github.com/solvia/solicitudes-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Solicitudes API
// @version 1.0
// @description REST API for the Solvia request tracking system

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize services
	svcs := services.NewServices(repos, cfg, db)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			protected.POST("/auth/logout", h.Auth.Logout)

			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/users", h.User.Index)
				admin.POST("/users", h.User.Create)
				admin.GET("/users/:user_id", h.User.Show)
				admin.PUT("/users/:user_id", h.User.Update)
				admin.PUT("/users/:user_id/toggle_status", h.User.ToggleStatus)
				admin.PUT("/users/:user_id/reset_password", h.User.ResetPassword)
			}

			// Audit listing for supervisors
			protected.GET("/audits",
				middleware.RequireRole(models.RoleJefe, models.RoleAdmin), h.Audit.Index)

			// Solicitudes: every role sees its own scoped slice; the
			// services enforce per-row permissions.
			solicitudes := protected.Group("/solicitudes")
			{
				solicitudes.GET("", h.Solicitud.Index)
				solicitudes.POST("",
					middleware.RequireRole(models.RoleVendedor, models.RoleJefe, models.RoleAdmin), h.Solicitud.Create)

				// Static export routes before the :solicitud_id param
				exporters := middleware.RequireRole(models.RoleJefe, models.RoleAdmin)
				solicitudes.GET("/export.csv", exporters, h.Solicitud.ExportCSV)
				solicitudes.GET("/export.xlsx", exporters, h.Solicitud.ExportXLSX)
				solicitudes.GET("/export.pdf", exporters, h.Solicitud.ExportPDF)

				solicitudes.GET("/:solicitud_id", h.Solicitud.Show)
				solicitudes.PUT("/:solicitud_id", h.Solicitud.Update)
				solicitudes.POST("/:solicitud_id/comentarios", h.Solicitud.CreateComentario)

				solicitudes.POST("/:solicitud_id/assign",
					middleware.RequireRole(models.RoleJefe, models.RoleAdmin), h.Solicitud.Assign)
				solicitudes.POST("/:solicitud_id/estado",
					middleware.RequireRole(models.RoleAnalista, models.RoleJefe, models.RoleAdmin), h.Solicitud.ChangeEstado)
			}
		}
	}

	return router
}
