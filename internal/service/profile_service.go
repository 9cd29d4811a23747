package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"skillsync/internal/cache"
	apperrors "skillsync/internal/errors"
	"skillsync/internal/model"
	"skillsync/internal/repository"
)

const profileCacheTTL = 5 * time.Minute

// ProfileUpdate lists the fields a user may change on their own profile.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Name   *string
	Bio    *string
	Skills *[]string
	Avatar *string
	Resume *string
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Bio == nil && u.Skills == nil && u.Avatar == nil && u.Resume == nil
}

// ProfileService reads and updates public profiles.
type ProfileService interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*model.Profile, error)
	// Role returns the current role of a user, read from the store and never
	// from the profile cache. Used by the admin route guard.
	Role(ctx context.Context, id string) (model.Role, error)
	Invalidate(ctx context.Context, id string)
}

type profileService struct {
	repo  repository.UserRepository
	cache *cache.Client
	log   *zap.Logger
	now   func() time.Time
}

// NewProfileService builds a ProfileService with repository and cache.
func NewProfileService(repo repository.UserRepository, cache *cache.Client, log *zap.Logger) ProfileService {
	return &profileService{repo: repo, cache: cache, log: log, now: time.Now}
}

func profileCacheKey(id string) string {
	return "user:" + id
}

func (s *profileService) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	if data, _ := s.cache.Get(ctx, profileCacheKey(id)); data != nil {
		var cached model.Profile
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := user.Public()
	s.store(ctx, &profile)
	return &profile, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*model.Profile, error) {
	if update.Empty() {
		return s.GetProfile(ctx, id)
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.Validation("VALIDATION_ERROR", "name cannot be empty")
		}
		user.Name = name
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.Skills != nil {
		user.Skills = NormalizeSkills(*update.Skills)
	}
	if update.Avatar != nil {
		user.Avatar = *update.Avatar
	}
	if update.Resume != nil {
		user.Resume = *update.Resume
	}
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, notFoundOrUpstream(err, "update user")
	}
	s.Invalidate(ctx, id)

	profile := user.Public()
	return &profile, nil
}

func (s *profileService) Role(ctx context.Context, id string) (model.Role, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// Invalidate drops the cached profile of id.
func (s *profileService) Invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, profileCacheKey(id)); err != nil {
		s.log.Warn("profile cache invalidation failed", zap.String("user_id", id), zap.Error(err))
	}
}

func (s *profileService) load(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrUpstream(err, "load user")
	}
	return user, nil
}

func (s *profileService) store(ctx context.Context, profile *model.Profile) {
	payload, err := json.Marshal(profile)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, profileCacheKey(profile.ID), payload, profileCacheTTL)
}
