package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	_ "skillsync/docs" // swagger docs

	"skillsync/internal/auth"
	"skillsync/internal/cache"
	"skillsync/internal/config"
	"skillsync/internal/db"
	"skillsync/internal/handler"
	"skillsync/internal/logger"
	"skillsync/internal/metrics"
	"skillsync/internal/notify"
	"skillsync/internal/router"
	"skillsync/internal/service"
	"skillsync/internal/upload"
)

const shutdownTimeout = 15 * time.Second

// @title SkillSync API
// @version 1.0
// @description Job platform API with registration, JWT authentication, profile uploads and user administration.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.MustLoad()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting skillsync api",
		zap.String("env", cfg.AppEnv),
		zap.String("store", cfg.StoreDriver),
		zap.String("uploads", cfg.UploadBackend),
	)

	ctx := context.Background()

	users, closeStore, err := db.OpenUsers(ctx, cfg, log)
	if err != nil {
		log.Fatal("database init", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn("redis unavailable, running without cache and token revocation", zap.Error(err))
	}

	files, err := newUploadStore(ctx, cfg)
	if err != nil {
		log.Fatal("upload store init", zap.Error(err))
	}

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.SMTPHost != "" {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			From:      cfg.SMTPFrom,
			ClientURL: cfg.ClientURL,
		})
	}

	m := metrics.New("skillsync")

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	profileService := service.NewProfileService(users, cacheClient, log)
	authService := service.NewAuthService(users, jwtService, tokenStore, notifier, m, log, cfg.BcryptCost)
	adminService := service.NewAdminService(users, profileService, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(profileService, upload.NewHandler(files, cfg.UploadMaxBytes, m, log))
	adminHandler := handler.NewAdminHandler(adminService)
	fileHandler := handler.NewFileHandler(files)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.ReadTimeout = 60 * time.Second
	e.Server.WriteTimeout = 60 * time.Second
	e.Server.IdleTimeout = 90 * time.Second

	router.Register(
		e,
		cfg,
		log,
		m,
		jwtService,
		tokenStore,
		profileService.Role,
		authHandler,
		profileHandler,
		adminHandler,
		fileHandler,
	)

	addr := ":" + cfg.ServerPort
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
	if err := closeStore(shutdownCtx); err != nil {
		log.Warn("close store", zap.Error(err))
	}
	if err := cacheClient.Close(); err != nil {
		log.Warn("close redis", zap.Error(err))
	}
	log.Info("server stopped")
}

func newUploadStore(ctx context.Context, cfg *config.Config) (upload.Store, error) {
	if cfg.UploadBackend == "minio" {
		return upload.NewMinIOStore(ctx, upload.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
	}
	return upload.NewLocalStore(cfg.UploadDir)
}
