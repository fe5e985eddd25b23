package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/autoaudit/autoaudit-backend/api/responses"
	pkgerrors "github.com/autoaudit/autoaudit-backend/pkg/errors"
	"github.com/autoaudit/autoaudit-backend/pkg/logger"
	"github.com/autoaudit/autoaudit-backend/pkg/redis"
	"github.com/google/uuid"
)

// RateLimiterStore is the counter backend the limiter increments.
type RateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AIRateLimitPolicy defines the per-user throttling parameters for the
// model-backed endpoints.
type AIRateLimitPolicy struct {
	window time.Duration
	limit  int
}

// NewAIRateLimitPolicy builds a policy with the supplied window and limit.
func NewAIRateLimitPolicy(window time.Duration, limit int) AIRateLimitPolicy {
	return AIRateLimitPolicy{window: window, limit: limit}
}

func (p AIRateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

// AIRateLimit enforces a fixed-window per-user counter on expensive
// model-backed endpoints. A nil store disables the limiter entirely.
func AIRateLimit(policy AIRateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := UserIDFromContext(ctx)
			if userID == uuid.Nil {
				// limiter sits behind Auth; no user means nothing to count
				next.ServeHTTP(w, r)
				return
			}

			key := redis.RateLimitKey("ai", userID.String())
			count, err := store.IncrWithTTL(ctx, key, policy.window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate limiting"))
				return
			}
			if count > int64(policy.limit) {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "ai.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, try again shortly"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
