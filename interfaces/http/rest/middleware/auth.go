package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"subscout/application/ports"
	"subscout/domain/core/entities"
	"subscout/pkg/auth"
	pkgerrors "subscout/pkg/errors"
)

// Authenticate verifies the bearer token and stores the caller in the
// request context
func Authenticate(verifier auth.TokenVerifier, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Authorization header required"))
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Debug("Token rejected",
					zap.String("path", r.URL.Path),
					zap.String("ip", ClientIP(r)),
					zap.Error(err),
				)
				message := "Invalid token"
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					message = "Token has expired"
				case errors.Is(err, auth.ErrInvalidSignature):
					message = "Invalid token signature"
				}
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(message))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// SyncUser mirrors the authenticated profile into the user store. A failed
// write is logged and the request continues.
func SyncUser(users ports.UserRepository, now func() time.Time, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if caller, err := auth.GetUserFromContext(r.Context()); err == nil {
				ts := now()
				_, err := users.Upsert(r.Context(), &entities.User{
					ID:              caller.UserID,
					Email:           caller.Email,
					FirstName:       caller.FirstName,
					LastName:        caller.LastName,
					ProfileImageURL: caller.ProfileImageURL,
					CreatedAt:       ts,
					UpdatedAt:       ts,
				})
				if err != nil {
					logger.Warn("User sync failed", zap.String("user_id", caller.UserID), zap.Error(err))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the caller address. When proxy headers are trusted RealIP
// has already folded them into RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
