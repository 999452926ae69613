package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-demo/watchparty/internal/config"
	"github.com/go-demo/watchparty/internal/handler"
	"github.com/go-demo/watchparty/internal/middleware"
	"github.com/go-demo/watchparty/internal/pkg/cache"
	"github.com/go-demo/watchparty/internal/pkg/database"
	"github.com/go-demo/watchparty/internal/repository"
	"github.com/go-demo/watchparty/internal/session"
	"github.com/go-demo/watchparty/internal/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.Log.Level)
	defer logger.Sync()

	logger.Info("Starting watch party server",
		zap.String("mode", cfg.Server.Mode),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Backend),
	)

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize the room snapshot store
	repo, redisClient, cleanup, err := initStorage(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer cleanup()

	// Initialize the session manager
	syncCfg := session.Config{
		PollInterval:   cfg.Sync.PollInterval,
		ClockInterval:  cfg.Sync.ClockInterval,
		DebounceWindow: cfg.Sync.DebounceWindow,
		SeekThreshold:  cfg.Sync.SeekThreshold,
	}
	manager := session.NewManager(repo, nil, logger, syncCfg)
	defer manager.Close()

	// Initialize WebSocket hub
	hub := ws.NewHub(logger)
	go hub.Run()

	// Initialize handlers
	roomHandler := handler.NewRoomHandler(manager, repo)
	wsHandler := ws.NewHandler(hub, manager, logger)

	// Setup router
	router := setupRouter(cfg, logger, redisClient, roomHandler, wsHandler)

	// Create server
	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server is running",
			zap.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initStorage builds the configured RoomRepository. The redis client is
// returned separately so the rate limiter can share it; it is nil for the
// other backends.
func initStorage(cfg *config.Config, logger *zap.Logger) (repository.RoomRepository, *redis.Client, func(), error) {
	switch cfg.Storage.Backend {
	case "redis":
		client, err := cache.NewRedis(&cfg.Redis, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		repo := repository.NewRedisRepository(client, logger)
		return repo, client, func() { cache.Close(client, logger) }, nil

	case "postgres":
		db, err := database.NewPostgres(&cfg.Database, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		repo := repository.NewPostgresRepository(db)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			database.Close(db, logger)
			return nil, nil, nil, err
		}
		return repo, nil, func() { database.Close(db, logger) }, nil

	case "memory":
		return repository.NewMemoryRepository(), nil, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	return logger
}

func setupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	redisClient *redis.Client,
	roomHandler *handler.RoomHandler,
	wsHandler *ws.Handler,
) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	// Rate limiting shares the redis backend when available.
	var apiLimit gin.HandlerFunc
	if redisClient != nil {
		apiLimit = middleware.APIRateLimit(redisClient)
	} else {
		apiLimit = middleware.RateLimit(middleware.NewInMemoryRateLimiter(rate.Limit(100.0/60.0), 100))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// WebSocket endpoint
	router.GET("/ws", wsHandler.ServeWS)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(apiLimit)
	{
		// Room lifecycle (public; these hand out the user id)
		rooms := v1.Group("/rooms")
		{
			rooms.POST("", roomHandler.Create)
			rooms.GET("/:id", roomHandler.Preview)
			rooms.POST("/:id/join", roomHandler.Join)
		}

		// In-room operations, bound to a session by X-User-ID
		sess := v1.Group("/session")
		sess.Use(middleware.Identity())
		{
			sess.GET("", roomHandler.GetState)
			sess.DELETE("", roomHandler.Teardown)
			sess.GET("/messages", roomHandler.ListMessages)
			sess.POST("/messages", roomHandler.SendMessage)
			sess.PUT("/video", roomHandler.ChangeVideo)
			sess.PUT("/player", roomHandler.SyncPlayer)
		}

		// WebSocket stats
		wsStats := v1.Group("/ws")
		{
			wsStats.GET("/stats", wsHandler.GetStats)
		}
	}

	return router
}
