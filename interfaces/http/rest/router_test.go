package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"subscout/application/commands/bus"
	cmdhandlers "subscout/application/commands/handlers"
	"subscout/application/ports"
	"subscout/application/ports/mocks"
	querybus "subscout/application/queries/bus"
	qryhandlers "subscout/application/queries/handlers"
	"subscout/application/services"
	"subscout/domain/core/entities"
	"subscout/infrastructure/persistence/memory"
	"subscout/pkg/auth"
	pkgerrors "subscout/pkg/errors"
	"subscout/pkg/observability"
)

const testSecret = "router-test-secret-with-at-least-32-characters"

var fixedNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type failingHealth struct{}

func (failingHealth) Ping(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	store     ports.Store
	source    *mocks.MockPostSource
	analyzer  *mocks.MockContentAnalyzer
	publisher *mocks.MockActivityPublisher
	metrics   *observability.Collector
	handler   http.Handler
}

type serverOption func(*RouterConfig, *RouterDeps)

func withHealth(h ports.HealthChecker) serverOption {
	return func(_ *RouterConfig, d *RouterDeps) { d.Health = h }
}

func withAppLimit(n int) serverOption {
	return func(c *RouterConfig, d *RouterDeps) {
		c.AppRateLimit = n
		d.Limiter = auth.NewIPRateLimiter(auth.NewKeyedLimiter(n, time.Minute))
	}
}

func withTrustedProxy() serverOption {
	return func(c *RouterConfig, _ *RouterDeps) { c.TrustProxyHeaders = true }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	s := &testServer{
		store:     memory.NewStore(),
		source:    new(mocks.MockPostSource),
		analyzer:  new(mocks.MockContentAnalyzer),
		publisher: new(mocks.MockActivityPublisher),
		metrics:   observability.NewCollector("subscout"),
	}
	s.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	commandBus := bus.NewCommandBus()
	require.NoError(t, cmdhandlers.Register(commandBus, cmdhandlers.Dependencies{
		Store:       s.store,
		Analyzer:    s.analyzer,
		Recommender: new(mocks.MockCommunityRecommender),
		Source:      s.source,
		Publisher:   s.publisher,
		Metrics:     s.metrics,
		Logger:      zap.NewNop(),
		Now:         func() time.Time { return fixedNow },
	}))
	queryBus := querybus.NewQueryBus()
	require.NoError(t, qryhandlers.NewQueryHandlers(s.store, s.source, nil, zap.NewNop()).Register(queryBus))

	verifier, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: testSecret, Audience: auth.SupabaseAudience})
	require.NoError(t, err)

	config := RouterConfig{EnableMetrics: true}
	deps := RouterDeps{
		CommandBus: commandBus,
		QueryBus:   queryBus,
		Verifier:   verifier,
		Users:      s.store.Users,
		Health:     s.store.Health,
		Metrics:    s.metrics,
		Errors:     pkgerrors.NewErrorHandler(zap.NewNop(), false),
		Logger:     zap.NewNop(),
		Now:        func() time.Time { return fixedNow },
	}
	for _, opt := range opts {
		opt(&config, &deps)
	}
	s.handler = NewRouter(config, deps).Setup()
	return s
}

func token(t *testing.T, userID, email string) string {
	t.Helper()
	claims := auth.Claims{
		Email:        email,
		Role:         "authenticated",
		UserMetadata: map[string]interface{}{"first_name": "Ada", "avatar_url": "https://example.com/a.png"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{auth.SupabaseAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) pkgerrors.ErrorResponse {
	t.Helper()
	var body pkgerrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	t.Run("store reachable", func(t *testing.T) {
		s := newTestServer(t)
		rec := s.do(t, http.MethodGet, "/ready", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("store down", func(t *testing.T) {
		s := newTestServer(t, withHealth(failingHealth{}))
		rec := s.do(t, http.MethodGet, "/ready", "", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "Storage unavailable", decodeError(t, rec).Message)
	})
}

func TestUnknownRoute_ReturnsJSONError(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/nope", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.True(t, body.Error)
	assert.Equal(t, "Route not found", body.Message)
}

func TestAPI_RequiresBearerToken(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		bearer  string
		message string
	}{
		{name: "missing", bearer: "", message: "Authorization header required"},
		{name: "garbage", bearer: "not-a-jwt", message: "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/apps", tt.bearer, "")

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, string(pkgerrors.ErrorTypeUnauthorized), body.Type)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestCurrentUser_SyncsProfile(t *testing.T) {
	// Arrange
	s := newTestServer(t)
	bearer := token(t, "user-1", "ada@example.com")

	// Act
	rec := s.do(t, http.MethodGet, "/api/auth/user", bearer, "")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user entities.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "https://example.com/a.png", user.ProfileImageURL)

	stored, err := s.store.Users.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", stored.Email)
}

func TestCreateApp(t *testing.T) {
	// Arrange
	s := newTestServer(t)
	bearer := token(t, "user-1", "ada@example.com")
	s.analyzer.On("AnalyzeApp", mock.Anything, "https://acme.dev").Return(&entities.AppProfile{
		Name:           "Acme",
		Description:    "Invoicing for freelancers",
		TargetAudience: "freelancers",
		PainPoints:     []string{"late payments"},
	}, nil)

	// Act
	rec := s.do(t, http.MethodPost, "/api/apps", bearer, `{"url":"https://acme.dev"}`)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var app entities.App
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &app))
	assert.Equal(t, "Acme", app.Name)
	assert.Equal(t, "user-1", app.UserID)
	assert.NotEmpty(t, app.ID)

	list := s.do(t, http.MethodGet, "/api/apps", bearer, "")
	require.Equal(t, http.StatusOK, list.Code)
	var apps []entities.App
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &apps))
	assert.Len(t, apps, 1)
}

func TestCreateApp_Validation(t *testing.T) {
	s := newTestServer(t)
	bearer := token(t, "user-1", "ada@example.com")

	tests := []struct {
		name string
		body string
	}{
		{name: "not a url", body: `{"url":"acme"}`},
		{name: "missing url", body: `{}`},
		{name: "malformed json", body: `{"url":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/apps", bearer, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(pkgerrors.ErrorTypeValidation), decodeError(t, rec).Type)
		})
	}
	s.analyzer.AssertNotCalled(t, "AnalyzeApp", mock.Anything, mock.Anything)
}

func TestCreateApp_RateLimited(t *testing.T) {
	s := newTestServer(t, withAppLimit(2))
	bearer := token(t, "user-1", "ada@example.com")

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/api/apps", bearer, `{"url":"nope"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/api/apps", bearer, `{"url":"nope"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, string(pkgerrors.ErrorTypeRateLimit), decodeError(t, rec).Type)

	// Reads are not limited.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/apps", bearer, "").Code)
}

func TestCreateApp_RateLimitKeyIgnoresForwardedFor(t *testing.T) {
	tests := []struct {
		name       string
		opts       []serverOption
		wantSecond int
	}{
		{name: "untrusted headers", opts: []serverOption{withAppLimit(1)}, wantSecond: http.StatusTooManyRequests},
		{name: "trusted proxy", opts: []serverOption{withAppLimit(1), withTrustedProxy()}, wantSecond: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.opts...)
			bearer := token(t, "user-1", "ada@example.com")

			send := func(forwardedFor string) int {
				req := httptest.NewRequest(http.MethodPost, "/api/apps", strings.NewReader(`{"url":"nope"}`))
				req.RemoteAddr = "198.51.100.4:5000"
				req.Header.Set("Authorization", "Bearer "+bearer)
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("X-Forwarded-For", forwardedFor)
				rec := httptest.NewRecorder()
				s.handler.ServeHTTP(rec, req)
				return rec.Code
			}

			assert.Equal(t, http.StatusBadRequest, send("203.0.113.1"))
			assert.Equal(t, tt.wantSecond, send("203.0.113.2"))
		})
	}
}

func TestGetApp(t *testing.T) {
	s := newTestServer(t)
	other := entities.NewApp("someone-else", "https://other.dev", entities.AppProfile{Name: "Other"}, fixedNow)
	require.NoError(t, s.store.Apps.Create(context.Background(), other))
	bearer := token(t, "user-1", "ada@example.com")

	t.Run("invalid id", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/apps/not-a-uuid", bearer, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid app ID format", decodeError(t, rec).Message)
	})

	t.Run("unknown", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/apps/8f14e45f-ceea-4e67-a9a4-1b1a6e0c1a11", bearer, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("owned by someone else", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/apps/"+other.ID, bearer, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestScanSubreddit_ThenStats(t *testing.T) {
	// Arrange
	s := newTestServer(t)
	ctx := context.Background()
	sub := entities.NewSubreddit("user-1", "app-1", entities.SubredditRecommendation{Name: "startups", Activity: "high", MatchScore: 80}, nil, fixedNow)
	require.NoError(t, s.store.Subreddits.Create(ctx, sub))
	s.source.On("HotPosts", mock.Anything, "startups", services.HotPostLimit).Return([]ports.RawPost{
		{Title: "Checkout is broken on mobile"},
		{Title: "Wish it had an API"},
		{Title: "Show HN style launch"},
	}, nil)
	bearer := token(t, "user-1", "ada@example.com")

	// Act
	rec := s.do(t, http.MethodPost, "/api/subreddits/"+sub.ID+"/scan", bearer, "")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"insights":2,"painPoints":1,"featureRequests":1,"posts":3}`, rec.Body.String())

	stats := s.do(t, http.MethodGet, "/api/stats", bearer, "")
	require.Equal(t, http.StatusOK, stats.Code)
	assert.JSONEq(t, `{"activeSubreddits":1,"painPoints":1,"postsDrafted":0}`, stats.Body.String())

	activities := s.do(t, http.MethodGet, "/api/activities?limit=5", bearer, "")
	require.Equal(t, http.StatusOK, activities.Code)
	assert.Contains(t, activities.Body.String(), "Scanned r/startups for insights")
}

func TestSubredditRoutes_OtherUsersSubredditIsNotFound(t *testing.T) {
	s := newTestServer(t)
	sub := entities.NewSubreddit("someone-else", "app-1", entities.SubredditRecommendation{Name: "startups", Activity: "high", MatchScore: 80}, nil, fixedNow)
	require.NoError(t, s.store.Subreddits.Create(context.Background(), sub))

	bearer := token(t, "user-1", "ada@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "scan", method: http.MethodPost, path: "/scan"},
		{name: "hot posts", method: http.MethodGet, path: "/posts"},
		{name: "search", method: http.MethodPost, path: "/search", body: `{"query":"pricing"}`},
		{name: "update", method: http.MethodPatch, path: "", body: `{"is_monitored":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, "/api/subreddits/"+sub.ID+tt.path, bearer, tt.body)

			assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
			assert.Equal(t, string(pkgerrors.ErrorTypeNotFound), decodeError(t, rec).Type)
		})
	}
	s.source.AssertNotCalled(t, "HotPosts", mock.Anything, mock.Anything, mock.Anything)
	s.source.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	stored, err := s.store.Subreddits.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsMonitored)
}

func TestLimitParam_RejectsNonNumeric(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/insights/pain-points?limit=ten", token(t, "user-1", "a@b.c"), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "limit must be a number", decodeError(t, rec).Message)
}

func TestMetricsEndpoint_RecordsRoutePattern(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/health", "", "")

	rec := s.do(t, http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "subscout_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/health"`)
}

func TestTracing_NamesServerSpanAfterRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	s := newTestServer(t, func(_ *RouterConfig, d *RouterDeps) { d.Tracer = provider.Tracer("test") })
	sub := entities.NewSubreddit("user-1", "app-1", entities.SubredditRecommendation{Name: "golang", Activity: "high", MatchScore: 70}, nil, fixedNow)
	require.NoError(t, s.store.Subreddits.Create(context.Background(), sub))

	s.do(t, http.MethodGet, "/api/apps", token(t, "user-1", "a@b.c"), "")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/apps/", spans[0].Name())
}
