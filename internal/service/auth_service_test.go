package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"skillsync/internal/auth"
	apperrors "skillsync/internal/errors"
	"skillsync/internal/model"
	"skillsync/internal/repository"
)

const testSecret = "test-secret-0123456789"

func newTestAuthService(repo *MockUserRepository, tokens *MockTokenStore, notifier *MockNotifier) (*authService, *auth.JWTService) {
	jwtService := auth.NewJWTService(testSecret, time.Hour)
	svc := NewAuthService(repo, jwtService, tokens, notifier, nil, zap.NewNop(), bcrypt.MinCost).(*authService)
	return svc, jwtService
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		input         RegisterInput
		setupMock     func(*MockUserRepository, *MockNotifier)
		expectedError error
		expectedRole  model.Role
	}{
		{
			name:  "successful registration",
			input: RegisterInput{Name: " Test User ", Email: "Test@Example.com ", Password: "password123", Skills: []string{" go", "", "sql "}},
			setupMock: func(m *MockUserRepository, n *MockNotifier) {
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				n.On("Welcome", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedRole: model.RoleUser,
		},
		{
			name:  "recruiter registration",
			input: RegisterInput{Name: "Rita", Email: "rita@example.com", Password: "password123", Role: "recruiter"},
			setupMock: func(m *MockUserRepository, n *MockNotifier) {
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				n.On("Welcome", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedRole: model.RoleRecruiter,
		},
		{
			name:  "user already exists",
			input: RegisterInput{Name: "Existing", Email: "existing@example.com", Password: "password123"},
			setupMock: func(m *MockUserRepository, n *MockNotifier) {
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(repository.ErrDuplicate)
			},
			expectedError: apperrors.ErrUserAlreadyExists,
		},
		{
			name:          "admin role refused",
			input:         RegisterInput{Name: "Eve", Email: "eve@example.com", Password: "password123", Role: "admin"},
			setupMock:     func(m *MockUserRepository, n *MockNotifier) {},
			expectedError: apperrors.ErrRoleNotAllowed,
		},
		{
			name:          "unknown role",
			input:         RegisterInput{Name: "Eve", Email: "eve@example.com", Password: "password123", Role: "owner"},
			setupMock:     func(m *MockUserRepository, n *MockNotifier) {},
			expectedError: apperrors.ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockNotifier := new(MockNotifier)
			tt.setupMock(mockRepo, mockNotifier)

			svc, jwtService := newTestAuthService(mockRepo, new(MockTokenStore), mockNotifier)
			res, err := svc.Register(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				require.NotNil(t, res)
				assert.Equal(t, NormalizeEmail(tt.input.Email), res.User.Email)
				assert.Equal(t, tt.expectedRole, res.User.Role)
				assert.NotEqual(t, tt.input.Password, res.User.Password)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(res.User.Password), []byte(tt.input.Password)))

				claims, err := jwtService.ValidateToken(res.Token)
				require.NoError(t, err)
				assert.Equal(t, res.User.ID, claims.UserID())
			}

			mockRepo.AssertExpectations(t)
			mockNotifier.AssertExpectations(t)
		})
	}
}

func TestAuthService_RegisterNormalizesInput(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockNotifier := new(MockNotifier)
	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Name == "Test User" && u.Email == "test@example.com" &&
			assert.ObjectsAreEqual([]string{"go", "sql"}, u.Skills)
	})).Return(nil)
	mockNotifier.On("Welcome", mock.Anything, mock.Anything).Return(nil)

	svc, _ := newTestAuthService(mockRepo, new(MockTokenStore), mockNotifier)
	_, err := svc.Register(context.Background(), RegisterInput{
		Name: " Test User ", Email: " TEST@example.com", Password: "password123", Skills: []string{" go", "", "sql "},
	})
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@example.com", Password: "password123"}},
		{"blank name", RegisterInput{Name: "   ", Email: "a@example.com", Password: "password123"}},
		{"invalid email", RegisterInput{Name: "A", Email: "not-an-email", Password: "password123"}},
		{"short password", RegisterInput{Name: "A", Email: "a@example.com", Password: "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			svc, _ := newTestAuthService(mockRepo, new(MockTokenStore), new(MockNotifier))

			res, err := svc.Register(context.Background(), tt.input)
			assert.Nil(t, res)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_RegisterWelcomeFailureIgnored(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockNotifier := new(MockNotifier)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	mockNotifier.On("Welcome", mock.Anything, mock.Anything).Return(errors.New("smtp: connection refused"))

	svc, _ := newTestAuthService(mockRepo, new(MockTokenStore), mockNotifier)
	res, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@example.com", Password: "password123"})

	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	mockNotifier.AssertExpectations(t)
}

func TestAuthService_RegisterStoreFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc, _ := newTestAuthService(mockRepo, new(MockTokenStore), new(MockNotifier))
	_, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@example.com", Password: "password123"})

	assert.True(t, apperrors.IsKind(err, apperrors.KindUpstream))
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	existing := &model.User{
		ID:       "5b1c9a0e-0000-4000-8000-000000000001",
		Name:     "Test User",
		Email:    "test@example.com",
		Password: string(hashedPassword),
		Role:     model.RoleUser,
		Skills:   []string{"go"},
	}

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "Test@Example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(existing, nil)
			},
		},
		{
			name:     "invalid credentials - user not found",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, repository.ErrNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "invalid credentials - wrong password",
			email:    "test@example.com",
			password: "wrong-password",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(existing, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc, jwtService := newTestAuthService(mockRepo, new(MockTokenStore), new(MockNotifier))
			res, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, existing.ID, res.User.ID)
				claims, err := jwtService.ValidateToken(res.Token)
				require.NoError(t, err)
				assert.Equal(t, existing.ID, claims.UserID())
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginErrorsIndistinguishable(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "known@example.com").Return(&model.User{ID: "1", Password: string(hashedPassword)}, nil)
	mockRepo.On("FindByEmail", mock.Anything, "unknown@example.com").Return(nil, repository.ErrNotFound)

	svc, _ := newTestAuthService(mockRepo, new(MockTokenStore), new(MockNotifier))
	_, wrongPassword := svc.Login(context.Background(), "known@example.com", "nope")
	_, unknownEmail := svc.Login(context.Background(), "unknown@example.com", "password123")

	assert.Equal(t, apperrors.MapErrorToHTTP(wrongPassword), apperrors.MapErrorToHTTP(unknownEmail))
}

func TestAuthService_LoginStoreFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "a@example.com").Return(nil, errors.New("connection reset"))

	svc, _ := newTestAuthService(mockRepo, new(MockTokenStore), new(MockNotifier))
	_, err := svc.Login(context.Background(), "a@example.com", "password123")

	assert.True(t, apperrors.IsKind(err, apperrors.KindUpstream))
}

func TestAuthService_Logout(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("revokes until expiry", func(t *testing.T) {
		mockTokens := new(MockTokenStore)
		mockTokens.On("Revoke", mock.Anything, "jti-1", 30*time.Minute).Return(nil)

		svc, _ := newTestAuthService(new(MockUserRepository), mockTokens, new(MockNotifier))
		svc.now = func() time.Time { return now }

		err := svc.Logout(context.Background(), auth.Identity{UserID: "u1", TokenID: "jti-1", ExpiresAt: now.Add(30 * time.Minute)})
		require.NoError(t, err)
		mockTokens.AssertExpectations(t)
	})

	t.Run("expired token needs no revocation", func(t *testing.T) {
		mockTokens := new(MockTokenStore)

		svc, _ := newTestAuthService(new(MockUserRepository), mockTokens, new(MockNotifier))
		svc.now = func() time.Time { return now }

		err := svc.Logout(context.Background(), auth.Identity{UserID: "u1", TokenID: "jti-1", ExpiresAt: now.Add(-time.Minute)})
		require.NoError(t, err)
		mockTokens.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
	})
}
