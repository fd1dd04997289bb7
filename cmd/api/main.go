package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"subscout/infrastructure/config"
	"subscout/infrastructure/di"
	"subscout/interfaces/http/rest"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	container.Logger.Info("Configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageBackend),
	)

	if err := rest.Serve(ctx, cfg.ServerAddress, container.Handler, container.Logger); err != nil {
		container.Logger.Error("Server stopped with error", zap.Error(err))
	}

	_ = container.Logger.Sync()
}
