package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"subscout/application/commands/bus"
	"subscout/application/ports"
	querybus "subscout/application/queries/bus"
	"subscout/interfaces/http/rest/handlers"
	"subscout/interfaces/http/rest/middleware"
	"subscout/pkg/auth"
	pkgerrors "subscout/pkg/errors"
	"subscout/pkg/observability"
)

// RouterConfig holds the HTTP surface settings
type RouterConfig struct {
	EnableCORS     bool
	AllowedOrigins []string
	EnableMetrics  bool
	// AppRateLimit is the number of app analyses one IP may start per minute
	AppRateLimit int
	// TrustProxyHeaders takes the client address from X-Real-IP or
	// X-Forwarded-For. Only safe behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// Router creates and configures the HTTP router
type Router struct {
	config     RouterConfig
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	verifier   auth.TokenVerifier
	users      ports.UserRepository
	health     ports.HealthChecker
	limiter    *auth.IPRateLimiter
	metrics    *observability.Collector
	tracer     trace.Tracer
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
	now        func() time.Time
}

// RouterDeps are the collaborators of the router
type RouterDeps struct {
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Verifier   auth.TokenVerifier
	Users      ports.UserRepository
	Health     ports.HealthChecker
	Limiter    *auth.IPRateLimiter
	Metrics    *observability.Collector
	Tracer     trace.Tracer
	Errors     *pkgerrors.ErrorHandler
	Logger     *zap.Logger
	Now        func() time.Time
}

func NewRouter(config RouterConfig, deps RouterDeps) *Router {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Router{
		config:     config,
		commandBus: deps.CommandBus,
		queryBus:   deps.QueryBus,
		verifier:   deps.Verifier,
		users:      deps.Users,
		health:     deps.Health,
		limiter:    deps.Limiter,
		metrics:    deps.Metrics,
		tracer:     deps.Tracer,
		errors:     deps.Errors,
		logger:     deps.Logger,
		now:        now,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	if rt.config.TrustProxyHeaders {
		router.Use(chimiddleware.RealIP)
	}
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.tracer != nil {
		router.Use(middleware.Tracing(rt.tracer))
	}
	if rt.config.EnableMetrics && rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.config.EnableMetrics && rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	deps := handlers.Deps{Commands: rt.commandBus, Queries: rt.queryBus, Errors: rt.errors, Logger: rt.logger}
	apps := handlers.NewAppHandler(deps)
	subreddits := handlers.NewSubredditHandler(deps)
	posts := handlers.NewPostHandler(deps)
	insights := handlers.NewInsightHandler(deps)
	users := handlers.NewUserHandler(deps)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.verifier, rt.errors, rt.logger))
		r.Use(middleware.SyncUser(rt.users, rt.now, rt.logger))

		r.Get("/auth/user", users.CurrentUser)

		r.Route("/apps", func(r chi.Router) {
			r.With(rt.appRateLimit()).Post("/", apps.CreateApp)
			r.Get("/", apps.ListApps)
			r.Get("/{id}", apps.GetApp)

			r.Post("/{appId}/subreddits/discover", subreddits.Discover)
			r.Get("/{appId}/subreddits", subreddits.ListByApp)
			r.Get("/{appId}/insights", insights.ListByApp)
			r.Post("/{appId}/insights/trends", insights.AnalyzeTrends)
		})

		r.Route("/subreddits/{id}", func(r chi.Router) {
			r.Patch("/", subreddits.Update)
			r.Post("/scan", subreddits.Scan)
			r.Get("/posts", subreddits.HotPosts)
			r.Post("/search", subreddits.Search)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Post("/generate", posts.Generate)
			r.Get("/", posts.List)
			r.Patch("/{id}", posts.Update)
		})

		r.Get("/insights/pain-points", insights.PainPoints)
		r.Get("/insights/trending", insights.Trending)
		r.Get("/activities", insights.Activities)
		r.Get("/stats", insights.Stats)
	})

	return router
}

func (rt *Router) appRateLimit() func(http.Handler) http.Handler {
	if rt.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(rt.limiter, rt.config.AppRateLimit, "minute", rt.errors, rt.logger)
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck pings the store
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.health.Ping(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			rt.errors.HandleStatus(w, r, http.StatusServiceUnavailable, "Storage unavailable")
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
