package httpapi

import (
	"errors"
	"time"

	sharedrate "github.com/MrEthical07/credvault/internal/rate"
	"github.com/MrEthical07/credvault/internal/platform/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

var errRateLimited = errors.New("too many requests")

// RouteLimit allows Requests per Window for each client IP. A zero Requests
// disables the limit.
type RouteLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimits holds the per-route limits. When Shared is set the counters live in
// Redis and are enforced across replicas; otherwise each process keeps its own
// token buckets.
type RateLimits struct {
	Register RouteLimit
	Login    RouteLimit
	Refresh  RouteLimit
	Shared   *sharedrate.Limiter
}

// DefaultRateLimits returns register 5/min, login 10/min and refresh 20/min.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Register: RouteLimit{Requests: 5, Window: time.Minute},
		Login:    RouteLimit{Requests: 10, Window: time.Minute},
		Refresh:  RouteLimit{Requests: 20, Window: time.Minute},
	}
}

func (rl RateLimits) middleware(route string, l RouteLimit) echo.MiddlewareFunc {
	if l.Requests <= 0 || l.Window <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if rl.Shared != nil {
		return sharedLimit(rl.Shared, route, l)
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(l.Window / time.Duration(l.Requests)),
		Burst:     l.Requests,
		ExpiresIn: 2 * l.Window,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return errRateLimited
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return errRateLimited
		},
	})
}

// sharedLimit fails open when Redis is unreachable: the request proceeds and the
// outage is logged.
func sharedLimit(limiter *sharedrate.Limiter, route string, l RouteLimit) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			err := limiter.Allow(ctx, route+":"+c.RealIP(), l.Requests, l.Window)
			switch {
			case err == nil:
			case errors.Is(err, sharedrate.ErrRateLimited):
				return errRateLimited
			default:
				logger.GetLogger(ctx).Warn("shared rate limiter unavailable", "route", route, "error", err)
			}
			return next(c)
		}
	}
}
