package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"subscout/pkg/auth"
	pkgerrors "subscout/pkg/errors"
)

// RateLimit rejects callers whose IP has used up its budget
func RateLimit(limiter *auth.IPRateLimiter, limit int, window string, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			allowed, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.Error("Rate limiter error", zap.Error(err))
				errs.Handle(w, r, pkgerrors.NewInternalError("rate limiter unavailable"))
				return
			}
			if !allowed {
				errs.Handle(w, r, pkgerrors.NewRateLimitError(limit, window))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
