//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"subscout/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideTracing,
	ProvideTracer,
	ProvideAWSConfig,
	ProvideStore,
	ProvideActivityPublisher,
	ProvidePostSource,
	ProvideContentAnalyzer,
	ProvideCommunityRecommender,
	ProvideCommandBus,
	ProvideTitleNormalizer,
	ProvideQueryBus,
	ProvideTokenVerifier,
	ProvideRateLimiter,
	ProvideErrorHandler,
	ProvideRouter,
	ProvideHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned cleanup
// releases the store, the tracer and the rate limiter sweeper.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
