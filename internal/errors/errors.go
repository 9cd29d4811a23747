package errors

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindUpstream       Kind = "upstream"
)

// AppError is a classified application error carrying a stable machine-readable code.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *AppError) Unwrap() error { return e.Err }

// New creates an AppError.
func New(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// Wrap classifies err under kind, keeping it in the chain.
func Wrap(err error, kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Err: err}
}

// Validation creates a 400-class error.
func Validation(code, message string) *AppError {
	return New(KindValidation, code, message)
}

// Upstream wraps a store or notification failure.
func Upstream(err error, message string) *AppError {
	return Wrap(err, KindUpstream, "INTERNAL_ERROR", message)
}

var (
	// ErrUserAlreadyExists is returned when the email is already registered.
	ErrUserAlreadyExists = Validation("USER_ALREADY_EXISTS", "user already exists")
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = Validation("INVALID_CREDENTIALS", "invalid credentials")
	// ErrRoleNotAllowed is returned when self-registration asks for a privileged role.
	ErrRoleNotAllowed = Validation("ROLE_NOT_ALLOWED", "role not allowed")
	// ErrInvalidRole is returned for unknown role values.
	ErrInvalidRole = Validation("INVALID_ROLE", "invalid role")
	// ErrSelfDelete is returned when an admin tries to delete their own account.
	ErrSelfDelete = Validation("SELF_DELETE", "cannot delete your own account")

	// ErrMissingToken is returned when a protected route is called without a bearer token.
	ErrMissingToken = New(KindAuthentication, "MISSING_TOKEN", "missing or malformed token")
	// ErrInvalidToken is returned for bad signatures, malformed or expired tokens.
	ErrInvalidToken = New(KindAuthentication, "INVALID_TOKEN", "invalid or expired token")
	// ErrTokenRevoked is returned for tokens invalidated by logout.
	ErrTokenRevoked = New(KindAuthentication, "TOKEN_REVOKED", "token has been revoked")

	// ErrForbidden is returned when the caller's role is insufficient.
	ErrForbidden = New(KindAuthorization, "FORBIDDEN", "insufficient permissions")

	// ErrUserNotFound is returned when no user matches the identifier.
	ErrUserNotFound = New(KindNotFound, "USER_NOT_FOUND", "user not found")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// StatusFor returns the HTTP status of an error kind.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Upstream and unclassified
// errors collapse to a generic 500 so internals never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	var ae *AppError
	if errors.As(err, &ae) && ae.Kind != KindUpstream {
		return NewHTTPError(StatusFor(ae.Kind), ae.Message, ae.Code)
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}
