package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"subscout/application/commands/bus"
	commandhandlers "subscout/application/commands/handlers"
	"subscout/application/ports"
	querybus "subscout/application/queries/bus"
	queryhandlers "subscout/application/queries/handlers"
	"subscout/domain/insights"
	"subscout/infrastructure/clients/gemini"
	"subscout/infrastructure/clients/perplexity"
	"subscout/infrastructure/clients/reddit"
	"subscout/infrastructure/config"
	"subscout/infrastructure/messaging/eventbridge"
	"subscout/infrastructure/persistence/dynamodb"
	"subscout/infrastructure/persistence/memory"
	"subscout/infrastructure/persistence/postgres"
	"subscout/interfaces/http/rest"
	"subscout/pkg/auth"
	pkgerrors "subscout/pkg/errors"
	"subscout/pkg/observability"
	"subscout/pkg/resilience"
)

const serviceName = "subscout"

// sweepInterval is how often idle rate limiter buckets are dropped
const sweepInterval = 5 * time.Minute

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideMetrics returns nil when metrics are disabled; the collector is
// nil-safe.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector(serviceName)
}

// ProvideTracing installs the tracer provider. Without ENABLE_TRACING the
// tracer is a no-op.
func ProvideTracing(ctx context.Context, cfg *config.Config) (*observability.TracerProvider, func(), error) {
	endpoint := ""
	if cfg.EnableTracing {
		endpoint = cfg.OTLPEndpoint
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    endpoint,
		Insecure:    !cfg.IsProduction(),
		SampleRatio: 1,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}
	return tp, cleanup, nil
}

// ProvideTracer returns the service tracer
func ProvideTracer(tp *observability.TracerProvider) trace.Tracer {
	return tp.Tracer()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideStore opens the configured storage backend
func ProvideStore(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (ports.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return ports.Store{}, nil, err
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				logger.Warn("Failed to close database", zap.Error(err))
			}
		}
		return postgres.NewStore(db), cleanup, nil

	case config.StorageDynamoDB:
		client := awsdynamodb.NewFromConfig(awsCfg)
		return dynamodb.NewStore(client, cfg.DynamoDBTable, logger), func() {}, nil

	case config.StorageMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}
	return ports.Store{}, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// ProvideActivityPublisher sends activities to EventBridge when a bus is
// configured
func ProvideActivityPublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.ActivityPublisher {
	if cfg.EventBusName == "" {
		return ports.NoopPublisher{}
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvidePostSource creates the Reddit client
func ProvidePostSource(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) ports.PostSource {
	breaker := resilience.NewBreaker(resilience.DefaultBreakerConfig("reddit"), logger, metrics)
	return reddit.NewClient(reddit.Config{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		UserAgent:    cfg.RedditUserAgent,
	}, breaker, logger)
}

// ProvideContentAnalyzer creates the Gemini client
func ProvideContentAnalyzer(ctx context.Context, cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) (ports.ContentAnalyzer, error) {
	generator, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}
	breaker := resilience.NewBreaker(resilience.DefaultBreakerConfig("gemini"), logger, metrics)
	return gemini.NewClient(generator, breaker, logger), nil
}

// ProvideCommunityRecommender creates the Perplexity client
func ProvideCommunityRecommender(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) ports.CommunityRecommender {
	breaker := resilience.NewBreaker(resilience.DefaultBreakerConfig("perplexity"), logger, metrics)
	return perplexity.NewClient(perplexity.Config{
		APIKey: cfg.PerplexityAPIKey,
		Model:  cfg.PerplexityModel,
	}, breaker, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	store ports.Store,
	analyzer ports.ContentAnalyzer,
	recommender ports.CommunityRecommender,
	source ports.PostSource,
	publisher ports.ActivityPublisher,
	metrics *observability.Collector,
	tracer trace.Tracer,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.TracingMiddleware(tracer),
		bus.LoggingMiddleware(logger),
	)
	err := commandhandlers.Register(commandBus, commandhandlers.Dependencies{
		Store:       store,
		Analyzer:    analyzer,
		Recommender: recommender,
		Source:      source,
		Publisher:   publisher,
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideTitleNormalizer selects how pain point titles are grouped
func ProvideTitleNormalizer(cfg *config.Config) insights.TitleNormalizer {
	return insights.NormalizerFor(cfg.TitleGrouping)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(store ports.Store, source ports.PostSource, normalizer insights.TitleNormalizer, tracer trace.Tracer, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.TracingMiddleware(tracer))
	if err := queryhandlers.NewQueryHandlers(store, source, normalizer, logger).Register(queryBus); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return queryBus, nil
}

// ProvideTokenVerifier verifies tokens locally when the project JWT secret
// is known and asks the Supabase auth server otherwise
func ProvideTokenVerifier(cfg *config.Config) (auth.TokenVerifier, error) {
	if cfg.SupabaseJWTSecret != "" {
		validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: cfg.SupabaseJWTSecret})
		if err != nil {
			return nil, err
		}
		return validator, nil
	}
	verifier, err := auth.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	if err != nil {
		return nil, err
	}
	return verifier, nil
}

// ProvideRateLimiter creates the app analysis limiter and starts its sweeper.
// The sweeper stops on cleanup.
func ProvideRateLimiter(cfg *config.Config) (*auth.IPRateLimiter, func()) {
	keyed := auth.NewKeyedLimiter(cfg.AppRateLimit, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	go keyed.RunSweeper(ctx, sweepInterval)
	return auth.NewIPRateLimiter(keyed), cancel
}

// ProvideErrorHandler exposes error details outside production only
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	verifier auth.TokenVerifier,
	store ports.Store,
	limiter *auth.IPRateLimiter,
	metrics *observability.Collector,
	tracer trace.Tracer,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(rest.RouterConfig{
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.CORSOrigins,
		EnableMetrics:  cfg.EnableMetrics,
		AppRateLimit:   cfg.AppRateLimit,

		TrustProxyHeaders: cfg.TrustProxyHeaders,
	}, rest.RouterDeps{
		CommandBus: commandBus,
		QueryBus:   queryBus,
		Verifier:   verifier,
		Users:      store.Users,
		Health:     store.Health,
		Limiter:    limiter,
		Metrics:    metrics,
		Tracer:     tracer,
		Errors:     errs,
		Logger:     logger,
	})
}

// ProvideHandler builds the route tree once
func ProvideHandler(router *rest.Router) http.Handler {
	return router.Setup()
}
