package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"skillsync/docs"
	"skillsync/internal/auth"
	"skillsync/internal/config"
	"skillsync/internal/handler"
	"skillsync/internal/metrics"
	"skillsync/internal/model"
	"skillsync/internal/upload"
	"skillsync/internal/validation"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *zap.Logger,
	m *metrics.Metrics,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	roleLookup auth.RoleLookup,
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	adminHandler *handler.AdminHandler,
	fileHandler *handler.FileHandler,
) {
	e.HTTPErrorHandler = NewErrorHandler(log)
	e.Validator = &CustomValidator{validator: validation.New()}

	e.Use(middleware.RequestID())
	if m != nil {
		e.Use(m.Middleware())
	}
	e.Use(RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	// Room for both upload fields plus the text fields of the form.
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", (2*cfg.UploadMaxBytes+1<<20)/1024)))

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/"+upload.PathPrefix+":name", fileHandler.Serve)

	api := e.Group("/api/v1")

	// Public routes
	limiter := authRateLimiter(cfg.AuthRateLimit)
	api.POST("/register", authHandler.Register, limiter)
	api.POST("/login", authHandler.Login, limiter)

	// Secured routes (require a bearer token)
	secured := api.Group("", auth.Guard(jwtService, tokenStore))
	secured.POST("/logout", authHandler.Logout)
	secured.GET("/me", profileHandler.Me)
	secured.PUT("/profile", profileHandler.UpdateProfile)

	// Admin routes
	admin := secured.Group("/admin", auth.RequireRole(roleLookup, model.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/:id", adminHandler.GetUser)
	admin.PUT("/users/:id/role", adminHandler.SetRole)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
}

// authRateLimiter limits register and login attempts per client IP.
func authRateLimiter(perSecond float64) echo.MiddlewareFunc {
	burst := int(perSecond * 2)
	if burst < 1 {
		burst = 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: 10 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
	})
}

// RequestLogger logs one line per request with its request ID.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogRequestID: true,
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("duration", v.Latency),
				zap.String("remote", v.RemoteIP),
			)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validation.Validator
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Validate(i)
}
