package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"skillsync/internal/auth"
	apperrors "skillsync/internal/errors"
	"skillsync/internal/metrics"
	"skillsync/internal/model"
	"skillsync/internal/notify"
	"skillsync/internal/repository"
	"skillsync/internal/validation"
)

const welcomeTimeout = 10 * time.Second

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Name     string   `json:"name" validate:"required,max=255"`
	Email    string   `json:"email" validate:"required,email,max=255"`
	Password string   `json:"password" validate:"required,min=6,max=72"`
	Role     string   `json:"role"`
	Skills   []string `json:"skills"`
}

// AuthResult is a signed token together with the authenticated user.
type AuthResult struct {
	Token string
	User  *model.User
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, identity auth.Identity) error
}

type authService struct {
	repo       repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	notifier   notify.Notifier
	metrics    *metrics.Metrics
	validator  *validation.Validator
	log        *zap.Logger
	bcryptCost int
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	repo repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	notifier notify.Notifier,
	m *metrics.Metrics,
	log *zap.Logger,
	bcryptCost int,
) AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		repo:       repo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		notifier:   notifier,
		metrics:    m,
		validator:  validation.New(),
		log:        log,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with a hashed password and signs a token for it.
func (s *authService) Register(ctx context.Context, in RegisterInput) (res *AuthResult, err error) {
	defer func() { s.metrics.ObserveRegistration(err) }()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	role, err := registrationRole(in.Role)
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Upstream(err, "hash password")
	}

	user := &model.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashed),
		Role:     role,
		Skills:   NormalizeSkills(in.Skills),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.ErrUserAlreadyExists
		}
		return nil, apperrors.Upstream(err, "create user")
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.Upstream(err, "generate token")
	}

	s.welcome(ctx, user)
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	return &AuthResult{Token: token, User: user}, nil
}

func registrationRole(requested string) (model.Role, error) {
	role := model.Role(strings.ToLower(strings.TrimSpace(requested)))
	switch {
	case role == "":
		return model.RoleUser, nil
	case role == model.RoleAdmin:
		return "", apperrors.ErrRoleNotAllowed
	case !role.Valid():
		return "", apperrors.ErrInvalidRole
	}
	return role, nil
}

// welcome sends the greeting without letting its failure affect registration.
func (s *authService) welcome(ctx context.Context, user *model.User) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), welcomeTimeout)
	defer cancel()

	err := s.notifier.Welcome(ctx, user)
	s.metrics.ObserveNotification("welcome", err)
	if err != nil {
		s.log.Warn("welcome notification failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// Login authenticates a user by email and password. Unknown emails and wrong
// passwords produce the same error.
func (s *authService) Login(ctx context.Context, email, password string) (res *AuthResult, err error) {
	defer func() { s.metrics.ObserveLogin(err) }()

	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Upstream(err, "find user")
		}
		// Spend the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.Upstream(err, "generate token")
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *authService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("skillsync-dummy-password"), s.bcryptCost)
	})
	return s.dummyHash
}

// Logout revokes the presented token until it would have expired.
func (s *authService) Logout(ctx context.Context, identity auth.Identity) error {
	ttl := identity.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.tokenStore.Revoke(ctx, identity.TokenID, ttl); err != nil {
		return apperrors.Upstream(err, "revoke token")
	}
	return nil
}
