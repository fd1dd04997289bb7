package di

import (
	"net/http"

	"go.uber.org/zap"

	"subscout/application/commands/bus"
	"subscout/application/ports"
	querybus "subscout/application/queries/bus"
	"subscout/infrastructure/config"
	"subscout/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      ports.Store
	Source     ports.PostSource
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Metrics    *observability.Collector
	Handler    http.Handler
}
