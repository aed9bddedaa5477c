package ratelimit

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"usermgmt/internal/cache"
	"usermgmt/internal/errors"
)

const counterKeyPrefix = "ratelimit:"

// Limiter counts requests per client IP in Redis over a fixed window.
// A limit of zero disables limiting; when Redis is unreachable requests
// are allowed through.
type Limiter struct {
	cache  *cache.Client
	limit  int
	window time.Duration
}

// New creates a limiter allowing limit requests per window.
func New(cache *cache.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{cache: cache, limit: limit, window: window}
}

// Middleware returns the echo middleware enforcing the limit.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l == nil || l.limit <= 0 {
				return next(c)
			}

			key := counterKeyPrefix + c.RealIP()
			ctx := c.Request().Context()

			n, _ := l.cache.Incr(ctx, key)
			if n == 1 {
				_ = l.cache.Expire(ctx, key, l.window)
			}
			if n > int64(l.limit) {
				return echo.NewHTTPError(http.StatusTooManyRequests, errors.ErrorResponse{
					Error: "too many requests",
					Code:  "RATE_LIMITED",
				})
			}
			return next(c)
		}
	}
}
