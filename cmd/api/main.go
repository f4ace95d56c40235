package main

// @title TerritoryDB API
// @version 1.0
// @description Sales territory management: rule-based territory matching, entity assignment and auto-assignment for CRM data.

// @contact.name API Support
// @contact.email support@territorydb.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jordanlanch/territorydb/config"
	"github.com/jordanlanch/territorydb/pkg/api/handlers"
	"github.com/jordanlanch/territorydb/pkg/assignment"
	"github.com/jordanlanch/territorydb/pkg/cache"
	"github.com/jordanlanch/territorydb/pkg/database"
	"github.com/jordanlanch/territorydb/pkg/entities"
	"github.com/jordanlanch/territorydb/pkg/export"
	"github.com/jordanlanch/territorydb/pkg/jobs"
	"github.com/jordanlanch/territorydb/pkg/logger"
	"github.com/jordanlanch/territorydb/pkg/metrics"
	custommiddleware "github.com/jordanlanch/territorydb/pkg/middleware"
	"github.com/jordanlanch/territorydb/pkg/territory"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize database
	db, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis cache
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Global rate limiter
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Sentry error tracking middleware (if configured)
	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	// Prometheus metrics middleware
	e.Use(prometheusMetrics.Middleware())

	// CORS with restricted origins
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))

	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())

	// Global rate limiting
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Health check endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "TerritoryDB API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		// Check database connection
		if err := db.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}

		// Check Redis connection
		if err := redisClient.Redis.Ping(c.Request().Context()).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"cache":  "down",
			})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
			"cache":    "up",
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Initialize services
	entitiesService := entities.NewService(db.Ent)
	assignmentService := assignment.NewService(db.Ent, entitiesService, redisClient)
	assignmentService.ChunkSize = cfg.AutoAssignChunkSize
	territoryService := territory.NewService(db.Ent, redisClient)
	exportService := export.NewService(db.Ent)

	// Initialize cron manager for reconciliation jobs
	appLogger := logger.New(cfg.LogLevel)
	cronManager := jobs.NewCronManager(assignmentService, territoryService, appLogger)
	if err := cronManager.SetupJobs(); err != nil {
		log.Fatalf("❌ Failed to setup cron jobs: %v", err)
	}
	cronManager.Start()
	log.Printf("✅ Cron jobs started successfully")

	// Initialize handlers
	territoryHandler := handlers.NewTerritoryHandler(territoryService, assignmentService, exportService, prometheusMetrics)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Ping endpoint (public)
	v1.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"message": "pong",
		})
	})

	// Territory routes
	territoriesGroup := v1.Group("/territories")
	{
		// Territory CRUD
		territoriesGroup.POST("", territoryHandler.CreateTerritory)
		territoriesGroup.GET("", territoryHandler.ListTerritories)
		territoriesGroup.GET("/stats/by-region", territoryHandler.StatsByRegion)
		territoriesGroup.POST("/auto-assign", territoryHandler.AutoAssign)
		territoriesGroup.GET("/:id", territoryHandler.GetTerritory)
		territoriesGroup.PATCH("/:id", territoryHandler.UpdateTerritory)
		territoriesGroup.DELETE("/:id", territoryHandler.DeleteTerritory)

		// Assignment operations
		territoriesGroup.POST("/:id/assign", territoryHandler.AssignEntity)
		territoriesGroup.POST("/:id/recompute", territoryHandler.Recompute)
		territoriesGroup.GET("/:id/export", territoryHandler.Export)
	}

	// Entity-keyed assignment routes
	assignmentsGroup := v1.Group("/assignments")
	{
		assignmentsGroup.GET("/:entity_type/:entity_id", assignmentHandler.GetByEntity)
		assignmentsGroup.GET("/:entity_type/:entity_id/match", assignmentHandler.Match)
		assignmentsGroup.DELETE("/:entity_type/:entity_id", assignmentHandler.Unassign)
	}

	// API Documentation (Swagger UI)
	e.GET("/docs", func(c echo.Context) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>TerritoryDB API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: '/docs/swagger.yaml',
                dom_id: '#swagger-ui',
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIStandalonePreset
                ],
                layout: "StandaloneLayout",
                deepLinking: true,
                defaultModelsExpandDepth: -1
            });
        };
    </script>
</body>
</html>`
		return c.HTML(http.StatusOK, html)
	})

	// Serve swagger.yaml file
	e.GET("/docs/swagger.yaml", func(c echo.Context) error {
		return c.File("./docs/swagger.yaml")
	})

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 TerritoryDB API starting on %s", address)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("⏰ Cron jobs: Daily 3AM (counter reconciliation), Hourly (stats cache warmup)")

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	// Stop cron jobs
	cronManager.Stop()
	log.Println("✅ Cron jobs stopped")

	// Gracefully shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
