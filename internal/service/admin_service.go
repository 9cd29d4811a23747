package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "skillsync/internal/errors"
	"skillsync/internal/model"
	"skillsync/internal/repository"
)

// AdminService exposes user management for administrators.
type AdminService interface {
	ListUsers(ctx context.Context) ([]model.Profile, error)
	GetUser(ctx context.Context, id string) (*model.Profile, error)
	// DeleteUser permanently removes id on behalf of actorID.
	DeleteUser(ctx context.Context, actorID, id string) error
	SetRole(ctx context.Context, id string, role model.Role) (*model.Profile, error)
}

type adminService struct {
	repo     repository.UserRepository
	profiles ProfileService
	log      *zap.Logger
	now      func() time.Time
}

// NewAdminService creates the admin service. Profile cache entries are
// invalidated through profiles whenever a user changes.
func NewAdminService(repo repository.UserRepository, profiles ProfileService, log *zap.Logger) AdminService {
	return &adminService{repo: repo, profiles: profiles, log: log, now: time.Now}
}

func (s *adminService) ListUsers(ctx context.Context) ([]model.Profile, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Upstream(err, "list users")
	}
	return model.Profiles(users), nil
}

func (s *adminService) GetUser(ctx context.Context, id string) (*model.Profile, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrUpstream(err, "load user")
	}
	profile := user.Public()
	return &profile, nil
}

func (s *adminService) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return apperrors.ErrSelfDelete
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOrUpstream(err, "delete user")
	}
	s.profiles.Invalidate(ctx, id)
	s.log.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", actorID))
	return nil
}

func (s *adminService) SetRole(ctx context.Context, id string, role model.Role) (*model.Profile, error) {
	role = model.Role(strings.ToLower(strings.TrimSpace(string(role))))
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrUpstream(err, "load user")
	}

	user.Role = role
	user.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, notFoundOrUpstream(err, "update role")
	}
	s.profiles.Invalidate(ctx, id)
	s.log.Info("user role changed", zap.String("user_id", id), zap.String("role", string(role)))

	profile := user.Public()
	return &profile, nil
}

func notFoundOrUpstream(err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrUserNotFound
	}
	return apperrors.Upstream(err, op)
}
