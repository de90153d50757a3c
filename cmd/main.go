package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitesmith/internal/ai"
	"sitesmith/internal/config"
	"sitesmith/internal/handlers"
	"sitesmith/internal/keys"
	"sitesmith/internal/logging"
	"sitesmith/internal/metrics"
	"sitesmith/internal/middleware"
	"sitesmith/internal/pipeline"
	"sitesmith/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	log.Println("Starting Sitesmith - AI Website Generation Service")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Try parent directory for .env
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("WARNING: No .env file found, using environment variables")
		}
	}

	logging.Init()
	defer logging.Sync()
	logger := logging.L()

	appConfig := config.Load()
	logger.Info("configuration loaded",
		zap.String("environment", appConfig.Environment),
		zap.String("port", appConfig.Port))

	// Credential pool and selector. An empty pool is not fatal: the service
	// starts and serves fully templated fallback content until keys arrive.
	pool := keys.LoadFromEnv()
	config.ReportCredentials(pool, logger)
	selector := keys.NewSelector(pool, logger)

	// Provider wiring: one Gemini client serves the whole rotating pool.
	client := ai.NewGeminiClient(appConfig.GeminiBaseURL, appConfig.GeminiModel, logger)
	invoker := ai.NewInvoker(client, selector, logger)
	pipe := pipeline.New(invoker, logger)

	// Progress hub for websocket subscribers.
	hub := ws.NewHub(logger)
	go hub.Run()

	handler := handlers.NewHandler(pipe, selector, hub, logger)

	middleware.InitRateLimiter(appConfig.RateLimitPerMinute, appConfig.RateLimitBurst)

	router := setupRoutes(handler, hub, appConfig)

	httpServer := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	logger.Info("server ready",
		zap.String("port", appConfig.Port),
		zap.Bool("metrics", appConfig.EnableMetrics),
		zap.Int("credentials", pool.Count()))

	// Graceful shutdown: listen for SIGTERM/SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("server failed to start", zap.Error(err))
	case sig := <-quit:
		logger.Info("starting graceful shutdown", zap.String("signal", sig.String()))
	}

	// Give in-flight generation runs up to 15 seconds to finish their step.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown error", zap.Error(err))
	}
	hub.Shutdown()

	logger.Info("graceful shutdown complete")
}

// setupRoutes configures all API routes
func setupRoutes(handler *handlers.Handler, hub *ws.Hub, cfg *config.AppConfig) *gin.Engine {
	if config.IsProductionEnvironment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Security())
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimit())

	if cfg.EnableMetrics {
		router.Use(metrics.PrometheusMiddleware())
		router.GET("/metrics", metrics.PrometheusHandler())
	}

	router.GET("/health", handler.Health)
	router.GET("/docs", handler.Docs)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/generate", handler.Generate)
		v1.GET("/credentials", handler.Credentials)
		v1.GET("/ws/progress/:run_id", hub.HandleProgress)
	}

	return router
}
