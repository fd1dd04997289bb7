package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"subscout/pkg/auth"
	pkgerrors "subscout/pkg/errors"
)

func statusHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := chi.NewRouter()
	router.Use(Logger(zap.New(core)))
	router.Get("/health", statusHandler(http.StatusOK).ServeHTTP)
	router.Get("/api/apps/{id}", statusHandler(http.StatusNotFound).ServeHTTP)
	router.Post("/api/subreddits/{id}/scan", statusHandler(http.StatusInternalServerError).ServeHTTP)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodGet, "/api/apps/abc", nil),
		httptest.NewRequest(http.MethodPost, "/api/subreddits/xyz/scan", nil),
	} {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.All()
	require.Len(t, entries, 2, "successful probes are not logged")

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "/api/apps/{id}", entries[0].ContextMap()["route"])
	assert.Equal(t, int64(http.StatusNotFound), entries[0].ContextMap()["status"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "/api/subreddits/{id}/scan", entries[1].ContextMap()["route"])
}

func TestRateLimit(t *testing.T) {
	limiter := auth.NewIPRateLimiter(auth.NewKeyedLimiter(1, time.Minute))
	errs := pkgerrors.NewErrorHandler(zap.NewNop(), false)
	handler := RateLimit(limiter, 1, "minute", errs, zap.NewNop())(statusHandler(http.StatusCreated))

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/apps", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5678"), "same IP, different port")
	assert.Equal(t, http.StatusCreated, send("10.0.0.2:1234"))
}

type stubVerifier struct {
	user *auth.UserContext
	err  error
}

func (s stubVerifier) Verify(context.Context, string) (*auth.UserContext, error) {
	return s.user, s.err
}

func TestAuthenticate(t *testing.T) {
	errs := pkgerrors.NewErrorHandler(zap.NewNop(), false)
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.GetUserFromContext(r.Context())
		require.NoError(t, err)
		seen = user.UserID
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		header   string
		verifier stubVerifier
		want     int
	}{
		{name: "missing header", verifier: stubVerifier{}, want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", verifier: stubVerifier{}, want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer tok", verifier: stubVerifier{err: auth.ErrExpiredToken}, want: http.StatusUnauthorized},
		{name: "valid", header: "bearer tok", verifier: stubVerifier{user: &auth.UserContext{UserID: "user-1"}}, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Authenticate(tt.verifier, errs, zap.NewNop())(next).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, "user-1", seen)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4411"
	assert.Equal(t, "192.0.2.7", ClientIP(req))

	req.RemoteAddr = "192.0.2.7"
	assert.Equal(t, "192.0.2.7", ClientIP(req))
}
