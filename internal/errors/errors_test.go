package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", ErrUserAlreadyExists, http.StatusBadRequest, "USER_ALREADY_EXISTS"},
		{"credentials", ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS"},
		{"authentication", ErrMissingToken, http.StatusUnauthorized, "MISSING_TOKEN"},
		{"authorization", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"not found", ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{"wrapped sentinel", fmt.Errorf("delete: %w", ErrUserNotFound), http.StatusNotFound, "USER_NOT_FOUND"},
		{"upstream", Upstream(errors.New("dial tcp: refused"), "load user"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestMapErrorToHTTP_HidesUpstreamDetails(t *testing.T) {
	got := MapErrorToHTTP(Upstream(errors.New("password=hunter2 host=db"), "load user"))
	assert.Equal(t, "internal server error", got.Message)
	assert.NotContains(t, got.ToErrorResponse().Error, "hunter2")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(cause, KindValidation, "USER_ALREADY_EXISTS", "user already exists")

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(cause, KindValidation))
	assert.Equal(t, "user already exists: duplicate key", err.Error())
}
