package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lcmcoursier/courier-quote/internal/api/metrics"
	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/ratelimit"
)

// RateLimit rejects callers that exceed limiter with domain.ErrRateLimited.
// It runs before anything else looks at the request body.
func RateLimit(limiter ratelimit.Limiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := ClientKey(c)
			c.Set(ContextKeyClient, key)

			if !limiter.Allow(key) {
				metrics.RateLimitDecisionsTotal.WithLabelValues("rejected").Inc()
				metrics.RequestsRejectedTotal.WithLabelValues(c.Path(), metrics.ReasonRateLimited).Inc()
				log.Warn().Str("client", key).Msg("rate limit exceeded")
				return domain.ErrRateLimited
			}
			metrics.RateLimitDecisionsTotal.WithLabelValues("allowed").Inc()
			return next(c)
		}
	}
}
