package main

import (
	"context"
	"time"

	"github.com/kapu/gamegen-go/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the generator over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			logger.Info("gamegen server starting...",
				zap.String("addr", cfg.Server.Addr),
				zap.String("log_level", cfg.Logging.Level),
			)

			buildCtx, buildCancel := context.WithTimeout(c.Context(), 30*time.Second)
			container, err := app.Build(buildCtx, cfg, logger)
			buildCancel()
			if err != nil {
				logger.Error("Failed to assemble application services", zap.Error(err))
				return err
			}
			defer container.Close()

			ctx, cancel := signalContext(c.Context())
			defer cancel()

			if err := container.NewServer().Run(ctx); err != nil {
				logger.Error("HTTP server error", zap.Error(err))
				return err
			}

			logger.Info("Shutdown complete")
			return nil
		},
	}
}
