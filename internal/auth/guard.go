package auth

import (
	"context"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "skillsync/internal/errors"
	"skillsync/internal/model"
)

const (
	claimsContextKey   = "user"
	identityContextKey = "identity"
)

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// IdentityFrom returns the identity stored by Guard.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityContextKey).(Identity)
	return id, ok
}

// Guard returns middleware that accepts only requests carrying a valid
// "Authorization: Bearer <token>" header. Requests are rejected before the
// wrapped handler runs.
func Guard(jwtService *JWTService, tokens TokenStoreInterface) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return apperrors.ErrMissingToken
			}
			return apperrors.Wrap(err, apperrors.KindAuthentication, apperrors.ErrInvalidToken.Code, apperrors.ErrInvalidToken.Message)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			claims, ok := c.Get(claimsContextKey).(*Claims)
			if !ok {
				return apperrors.ErrInvalidToken
			}
			revoked, err := tokens.IsRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				return apperrors.Upstream(err, "check token revocation")
			}
			if revoked {
				return apperrors.ErrTokenRevoked
			}

			identity := Identity{UserID: claims.UserID(), TokenID: claims.ID}
			if claims.ExpiresAt != nil {
				identity.ExpiresAt = claims.ExpiresAt.Time
			}
			c.Set(identityContextKey, identity)
			return next(c)
		})
	}
}

// RoleLookup resolves the current role of a user.
type RoleLookup func(ctx context.Context, userID string) (model.Role, error)

// RequireRole allows the request only when the caller currently holds one of roles.
// The role is looked up on every request so demotions apply before the token expires.
// It must run after Guard.
func RequireRole(lookup RoleLookup, roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return apperrors.ErrMissingToken
			}
			role, err := lookup(c.Request().Context(), identity.UserID)
			if err != nil {
				if apperrors.IsKind(err, apperrors.KindNotFound) {
					return apperrors.ErrInvalidToken
				}
				return err
			}
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return apperrors.ErrForbidden
		}
	}
}
