// Package main runs the live session service: join authorization, join-token
// issuance, session status reads and live transcript ingest/fan-out.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/envo-lms/backend/config"
	"github.com/envo-lms/backend/internal/access"
	"github.com/envo-lms/backend/internal/auth"
	"github.com/envo-lms/backend/internal/meet"
	"github.com/envo-lms/backend/internal/middleware"
	"github.com/envo-lms/backend/internal/realtime"
	"github.com/envo-lms/backend/internal/sessions"
	"github.com/envo-lms/backend/internal/transcripts"
	"github.com/envo-lms/backend/pkg/database"
	"github.com/envo-lms/backend/pkg/redis"
	"github.com/envo-lms/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Redis is optional: without it, transcript fan-out stays local to this
	// instance.
	var redisPub realtime.RedisPublisher
	var redisSub realtime.RedisSubscriber
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		pubsub := realtime.NewRedisPubSub(rdb.Client, logger)
		redisPub, redisSub = pubsub, pubsub
	}

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.ExpireHours)
	hub := realtime.NewHub(logger, redisPub, redisSub)

	sessionStore := sessions.NewRepository(pool)
	sessionHandler := sessions.NewHandler(sessionStore)

	authorizer := access.NewAuthorizer(sessionStore)
	issuer := meet.NewIssuer(cfg.Meet)
	meetHandler := meet.NewHandler(sessionStore, authorizer, issuer, logger)

	transcriptStore := transcripts.NewRepository(pool)
	transcriptSvc := transcripts.NewService(transcriptStore, hub, logger)
	transcriptHandler := transcripts.NewHandler(transcriptSvc, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	api := router.Group("")
	api.Use(middleware.Auth(jwtService))
	{
		api.GET("/sessions", sessionHandler.List)
		api.GET("/sessions/:id", sessionHandler.GetByID)
		api.POST("/sessions/:id/join-token", meetHandler.JoinToken)
		api.POST("/transcripts", transcriptHandler.Ingest)
		api.GET("/sessions/:id/transcripts", transcriptHandler.Backlog)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, transcriptSvc, jwtService, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := cfg.Build()
	return logger
}
