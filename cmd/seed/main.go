// Command seed creates an administrator account, or promotes an existing
// account, from ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"skillsync/internal/auth"
	"skillsync/internal/config"
	"skillsync/internal/db"
	"skillsync/internal/logger"
	"skillsync/internal/model"
	"skillsync/internal/notify"
	"skillsync/internal/repository"
	"skillsync/internal/service"
)

func main() {
	cfg := config.MustLoad()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	email := service.NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}
	if email == "" {
		log.Fatal("ADMIN_EMAIL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	users, closeStore, err := db.OpenUsers(ctx, cfg, log)
	if err != nil {
		log.Fatal("database init", zap.Error(err))
	}
	defer func() { _ = closeStore(context.Background()) }()

	profiles := service.NewProfileService(users, nil, log)
	admin := service.NewAdminService(users, profiles, log)

	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == model.RoleAdmin {
			log.Info("account is already an admin", zap.String("user_id", existing.ID))
			return
		}
		if _, err := admin.SetRole(ctx, existing.ID, model.RoleAdmin); err != nil {
			log.Fatal("promote account", zap.Error(err))
		}
		log.Info("promoted existing account to admin", zap.String("user_id", existing.ID))
		return
	case !errors.Is(err, repository.ErrNotFound):
		log.Fatal("look up account", zap.Error(err))
	}

	if password == "" {
		log.Fatal("ADMIN_PASSWORD is required to create a new admin account")
	}

	authService := service.NewAuthService(
		users,
		auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL),
		auth.NewTokenStore(nil),
		notify.NewLogNotifier(log),
		nil,
		log,
		cfg.BcryptCost,
	)
	res, err := authService.Register(ctx, service.RegisterInput{Name: name, Email: email, Password: password})
	if err != nil {
		log.Fatal("create account", zap.Error(err))
	}
	if _, err := admin.SetRole(ctx, res.User.ID, model.RoleAdmin); err != nil {
		log.Fatal("promote account", zap.Error(err))
	}
	log.Info("created admin account", zap.String("user_id", res.User.ID), zap.String("email", email))
}
