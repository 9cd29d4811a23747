package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret-0123456789", time.Hour)

	token, err := svc.GenerateToken("user-1", "ann@example.com", "user")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_UniqueTokenIDs(t *testing.T) {
	svc := NewJWTService("test-secret-0123456789", time.Hour)

	a, err := svc.GenerateToken("user-1", "", "")
	require.NoError(t, err)
	b, err := svc.GenerateToken("user-1", "", "")
	require.NoError(t, err)

	ca, _ := svc.ValidateToken(a)
	cb, _ := svc.ValidateToken(b)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestJWTService_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTokenTTL, NewJWTService("s", 0).TTL())
}

func TestJWTService_RejectsInvalidTokens(t *testing.T) {
	svc := NewJWTService("test-secret-0123456789", time.Hour)

	expired := NewJWTService("test-secret-0123456789", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.GenerateToken("user-1", "", "")
	require.NoError(t, err)

	otherKey, err := NewJWTService("another-secret-0123456789", time.Hour).GenerateToken("user-1", "", "")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	noSubjectToken, err := noSubject.SignedString([]byte("test-secret-0123456789"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expiredToken,
		"wrong secret": otherKey,
		"alg none":     noneToken,
		"no subject":   noSubjectToken,
		"garbage":      "not.a.token",
		"empty":        "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.ValidateToken(token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}
