package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Limiter is the subset of the Redis rate limiter the middleware needs.
type Limiter interface {
	Allow(ctx context.Context, caller string) (bool, error)
}

// RateLimit rejects callers that exceed their per-window budget with 429.
// Authenticated requests are keyed by user id, anonymous ones by client IP,
// so one noisy tenant cannot starve the rest.
func RateLimit(limiter Limiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := c.RealIP()
			if userID, ok := c.Get("user_id").(uuid.UUID); ok {
				caller = userID.String()
			}

			ok, err := limiter.Allow(c.Request().Context(), caller)
			if err != nil {
				// A broken limiter must not take the API down.
				log.Warn().Err(err).Msg("rate limiter unavailable, letting request through")
				return next(c)
			}
			if !ok {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
