package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/afftrack/backend/internal/application/dispatch"
	"github.com/afftrack/backend/internal/infrastructure/cache"
	"github.com/afftrack/backend/internal/infrastructure/config"
	"github.com/afftrack/backend/internal/infrastructure/logger"
	"github.com/afftrack/backend/internal/infrastructure/persistence"
	"github.com/afftrack/backend/internal/infrastructure/worker"
	"github.com/afftrack/backend/internal/interfaces/http/handler"
	"github.com/afftrack/backend/internal/interfaces/http/middleware"
	"github.com/afftrack/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting AffTrack Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	leadRepo := persistence.NewGormLeadRepository(db.DB)
	feedRepo := persistence.NewGormFeedRepository(db.DB)
	transferRepo := persistence.NewGormTransferRepository(db.DB)

	// Lead claim store: Redis when enabled, in-memory otherwise.
	// The in-memory fallback only coordinates within a single process.
	claimFactory := cache.NewClaimStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	claimStore, err := claimFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create lead claim store", zap.Error(err))
	}
	defer func() {
		if err := claimStore.Close(); err != nil {
			log.Error("Error closing claim store", zap.Error(err))
		}
	}()

	// Dispatch pipeline
	httpClient := dispatch.NewHTTPClient(cfg.Dispatch.ClientTimeout)
	engineConfig := dispatch.Config{
		MaxDispatchAttempts:    cfg.Dispatch.MaxAttempts,
		RetryBackoffBase:       cfg.Dispatch.RetryBackoffBase,
		RetryBackoffMax:        cfg.Dispatch.RetryBackoffMax,
		ResetRetryCountPerFeed: cfg.Dispatch.ResetRetryCountPerFeed,
	}
	dispatchEngine := dispatch.NewEngine(httpClient, engineConfig, log)
	recorder := dispatch.NewRecorder(transferRepo, leadRepo, log)
	dispatchService := dispatch.NewService(dispatchEngine, feedRepo, leadRepo, recorder, log)

	// Recurring dispatch worker
	workerConfig := worker.Config{
		Enabled:      cfg.Worker.Enabled,
		PollInterval: cfg.Worker.PollInterval,
		BatchSize:    cfg.Worker.BatchSize,
		Concurrency:  cfg.Worker.Concurrency,
		LeadTimeout:  cfg.Worker.LeadTimeout,
		ClaimTTL:     cfg.Worker.ClaimTTL,
	}
	dispatchWorker, err := worker.New(workerConfig, leadRepo, claimStore, dispatchService, log)
	if err != nil {
		log.Fatal("Failed to create dispatch worker", zap.Error(err))
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if cfg.Worker.Enabled {
		if err := dispatchWorker.Start(workerCtx); err != nil {
			log.Fatal("Failed to start dispatch worker", zap.Error(err))
		}
		log.Info("Dispatch worker started",
			zap.Duration("poll_interval", cfg.Worker.PollInterval),
			zap.Int("batch_size", cfg.Worker.BatchSize),
			zap.Int("concurrency", cfg.Worker.Concurrency),
		)
	} else {
		log.Warn("Dispatch worker disabled; pending leads will only move via manual dispatch")
	}

	// Initialize handlers
	systemHandler := handler.NewSystemHandler(db, claimStore)
	leadHandler := handler.NewLeadHandler(leadRepo, dispatchService)
	feedHandler := handler.NewFeedHandler(feedRepo, dispatchService)
	transferHandler := handler.NewTransferHandler(transferRepo)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, "/health", "/api/v1/ping"))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/health", systemHandler.Health)
	r.Register(systemRoutes)

	leadRoutes := router.NewDomainGroup("leads", "/leads")
	leadRoutes.GET("", leadHandler.ListLeads)
	leadRoutes.POST("", leadHandler.CreateLead)
	leadRoutes.GET("/:id", leadHandler.GetLead)
	leadRoutes.POST("/:id/dispatch", leadHandler.DispatchLead)
	leadRoutes.GET("/:id/transfers", transferHandler.ListLeadTransfers)
	r.Register(leadRoutes)

	feedRoutes := router.NewDomainGroup("feeds", "/feeds")
	feedRoutes.GET("", feedHandler.ListFeeds)
	feedRoutes.GET("/:id", feedHandler.GetFeed)
	feedRoutes.POST("/:id/test", feedHandler.TestFeed)
	r.Register(feedRoutes)

	transferRoutes := router.NewDomainGroup("transfers", "/transfers")
	transferRoutes.GET("", transferHandler.ListTransfers)
	transferRoutes.GET("/:id", transferHandler.GetTransfer)
	r.Register(transferRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if cfg.Worker.Enabled {
		if err := dispatchWorker.Stop(ctx); err != nil {
			log.Error("Dispatch worker did not stop cleanly", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
