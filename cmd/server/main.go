package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/api"
	"github.com/PedroBarbosa73/chat-app/internal/auth"
	"github.com/PedroBarbosa73/chat-app/internal/authz"
	"github.com/PedroBarbosa73/chat-app/internal/blob"
	"github.com/PedroBarbosa73/chat-app/internal/chat"
	"github.com/PedroBarbosa73/chat-app/internal/config"
	"github.com/PedroBarbosa73/chat-app/internal/db"
	"github.com/PedroBarbosa73/chat-app/internal/middleware"
	"github.com/PedroBarbosa73/chat-app/internal/observ"
	"github.com/PedroBarbosa73/chat-app/internal/presence"
	"github.com/PedroBarbosa73/chat-app/internal/repository/postgres"
	"github.com/PedroBarbosa73/chat-app/internal/retry"
	"github.com/PedroBarbosa73/chat-app/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// External collaborators get a bounded-backoff connect; running out of
	// attempts at startup is fatal and goes to the operator, not a retry
	// loop.
	var database *db.DB
	err = retry.Do(ctx, 5, time.Second, func(ctx context.Context) error {
		d, err := db.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return retry.Transient(err)
		}
		database = d
		return nil
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	var grants authz.Store
	var redisStore *authz.RedisStore
	err = retry.Do(ctx, 5, time.Second, func(ctx context.Context) error {
		r, err := authz.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return retry.Transient(err)
		}
		redisStore = r
		return nil
	})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisStore.Close()
	grants = redisStore

	media, err := blob.NewS3Store(ctx, blob.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	}, logger)
	if err != nil {
		return fmt.Errorf("create blob store: %w", err)
	}

	pool := database.Pool()
	userRepo := postgres.NewUserStore(pool)
	roomRepo := postgres.NewRoomStore(pool)
	messageRepo := postgres.NewMessageStore(pool)
	favoriteRepo := postgres.NewFavoriteStore(pool)

	verifier := chat.BcryptVerifier{}
	gate := auth.NewGate(userRepo, cfg.JWTSecret, logger)
	registry := presence.NewRegistry()

	roomSvc := chat.NewRoomService(roomRepo, grants, verifier, cfg.AdminUsername, logger)
	messageSvc := chat.NewMessageService(messageRepo, roomRepo, userRepo, media, cfg.StorageTimeout, logger)
	favoriteSvc := chat.NewFavoriteService(favoriteRepo, roomRepo, logger)
	delivery := chat.NewDelivery(messageSvc, roomRepo, registry, logger)

	authHandler := api.NewAuthHandler(userRepo, grants, verifier, cfg, logger)
	roomHandler := api.NewRoomHandler(roomSvc, logger)
	messageHandler := api.NewMessageHandler(roomSvc, messageSvc, delivery, logger)
	favoriteHandler := api.NewFavoriteHandler(favoriteSvc, logger)
	mediaHandler := api.NewMediaHandler(media, logger)
	adminHandler := api.NewAdminHandler(messageSvc, cfg.AdminUsername, logger)
	userHandler := api.NewUserHandler(userRepo, logger)
	wsHandler := ws.NewHandler(gate, registry, roomSvc, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv.POST("/v1/auth/signup", authHandler.Signup)
	srv.POST("/v1/auth/login", authHandler.Login)

	// The WebSocket endpoint authenticates itself (token may arrive as a
	// query parameter), so it sits outside the middleware group.
	srv.GET("/v1/ws", wsHandler.Serve)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(gate))

	v1.POST("/auth/logout", authHandler.Logout)

	v1.GET("/rooms", roomHandler.List)
	v1.POST("/rooms", roomHandler.Create)
	v1.GET("/rooms/:id", roomHandler.GetByID)
	v1.DELETE("/rooms/:id", roomHandler.Delete)
	v1.POST("/rooms/:id/join", roomHandler.Join)
	v1.PUT("/rooms/:id/password", roomHandler.SetPassword)
	v1.GET("/rooms/:id/messages", messageHandler.ListRoom)
	v1.POST("/rooms/:id/messages", messageHandler.PostToRoom)

	v1.GET("/messages/:username", messageHandler.ListDirect)
	v1.POST("/messages/:username", messageHandler.PostDirect)

	v1.GET("/favorites", favoriteHandler.List)
	v1.POST("/favorites/:roomID", favoriteHandler.Toggle)

	v1.POST("/media", mediaHandler.Upload)
	v1.POST("/admin/media/sweep", adminHandler.SweepMedia)
	v1.POST("/admin/media/:messageID/revoke", adminHandler.RevokeMedia)

	v1.GET("/users", userHandler.List)
	v1.GET("/users/me", userHandler.GetMe)

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting chat-app",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
