package middleware

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/krush/market-core/internal/core/domain"
	"github.com/krush/market-core/internal/pkg/metrics"
)

// Limiter decides whether subject may perform action once more.
type Limiter interface {
	Allow(ctx context.Context, action, subject string) (bool, error)
}

// RateLimit caps how often the authenticated actor may call the wrapped
// route. It must run after Auth. Limiter failures fail open with a warning.
func RateLimit(limiter Limiter, action string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, _ := c.Get(ActorKey).(domain.Actor)
			if limiter == nil || actor.Anonymous() {
				return next(c)
			}

			ok, err := limiter.Allow(c.Request().Context(), action, actor.ID)
			if err != nil {
				log.Warn().Err(err).
					Str("action", action).
					Str("user_id", actor.ID).
					Msg("rate limit check failed, allowing request")
				return next(c)
			}
			if !ok {
				metrics.RateLimitedTotal.WithLabelValues(action).Inc()
				return fmt.Errorf("%s: %w", action, domain.ErrRateLimited)
			}
			return next(c)
		}
	}
}
