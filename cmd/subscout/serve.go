package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"subscout/infrastructure/config"
	"subscout/infrastructure/di"
	"subscout/interfaces/http/rest"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.ServerAddress = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		container, cleanup, err := di.InitializeContainer(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		defer func() { _ = container.Logger.Sync() }()

		container.Logger.Info("Configuration loaded",
			zap.String("environment", cfg.Environment),
			zap.String("storage", cfg.StorageBackend),
		)
		return rest.Serve(ctx, cfg.ServerAddress, container.Handler, container.Logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides SERVER_ADDRESS)")
	rootCmd.AddCommand(serveCmd)
}
