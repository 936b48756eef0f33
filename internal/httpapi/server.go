package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/MrEthical07/credvault"
	"github.com/MrEthical07/credvault/internal/platform/logger"
	"github.com/MrEthical07/credvault/internal/validatorx"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Options configures NewServer.
type Options struct {
	Engine     *credvault.Engine
	Logger     *slog.Logger
	RateLimits RateLimits
	// MetricsHandler is mounted at MetricsPath when both are set.
	MetricsHandler http.Handler
	MetricsPath    string
}

// NewServer returns an echo instance with the auth routes and the shared middleware
// chain mounted.
func NewServer(opts Options) *echo.Echo {
	baseLogger := opts.Logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validatorx.NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return uuid.NewString()
		},
	}))
	e.Use(middleware.BodyLimit("64K"))
	e.Use(ContextualLoggerMiddleware(baseLogger))
	e.Use(RequestLoggerMiddleware())

	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	if opts.MetricsHandler != nil && opts.MetricsPath != "" {
		e.GET(opts.MetricsPath, echo.WrapHandler(opts.MetricsHandler))
	}

	NewAuthHandler(opts.Engine).RegisterRoutes(e.Group(""), opts.RateLimits)
	return e
}

// ContextualLoggerMiddleware stores a request-scoped logger carrying request_id in the
// request context, together with the request id and client IP the engine copies into
// audit events.
func ContextualLoggerMiddleware(baseLogger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			requestLogger := baseLogger.With(slog.String("request_id", requestID))

			ctx := logger.SetLogger(c.Request().Context(), requestLogger)
			ctx = credvault.WithRequestID(ctx, requestID)
			ctx = credvault.WithClientIP(ctx, c.RealIP())
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// RequestLoggerMiddleware logs one HTTP_REQUEST or HTTP_REQUEST_ERROR line per request
// through the contextual logger.
func RequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogError:    true,
		HandleError: true,
		LogLatency:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log := logger.GetLogger(c.Request().Context())

			if v.Error == nil {
				log.LogAttrs(c.Request().Context(), slog.LevelInfo, "HTTP_REQUEST",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("latency", v.Latency.String()),
				)
			} else {
				log.LogAttrs(c.Request().Context(), slog.LevelError, "HTTP_REQUEST_ERROR",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("latency", v.Latency.String()),
					slog.String("error", v.Error.Error()),
				)
			}
			return nil
		},
	})
}
