package router

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "skillsync/internal/errors"
)

const genericServerError = "internal server error"

// NewErrorHandler renders every error as an ErrorResponse body and logs server errors.
func NewErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

func resolveError(err error) (int, apperrors.ErrorResponse) {
	if he, ok := err.(*echo.HTTPError); ok {
		return fromEchoError(he)
	}
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		httpErr := apperrors.MapErrorToHTTP(ae)
		return httpErr.StatusCode, httpErr.ToErrorResponse()
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fromEchoError(he)
	}
	httpErr := apperrors.MapErrorToHTTP(err)
	return httpErr.StatusCode, httpErr.ToErrorResponse()
}

func fromEchoError(he *echo.HTTPError) (int, apperrors.ErrorResponse) {
	if he.Code >= http.StatusInternalServerError {
		return he.Code, apperrors.ErrorResponse{Error: genericServerError, Code: "INTERNAL_ERROR"}
	}
	switch msg := he.Message.(type) {
	case apperrors.ErrorResponse:
		return he.Code, msg
	case string:
		return he.Code, apperrors.ErrorResponse{Error: msg, Code: codeForStatus(he.Code)}
	default:
		return he.Code, apperrors.ErrorResponse{Error: http.StatusText(he.Code), Code: codeForStatus(he.Code)}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	case http.StatusTooManyRequests:
		return "RATE_LIMIT_EXCEEDED"
	default:
		return "INTERNAL_ERROR"
	}
}
