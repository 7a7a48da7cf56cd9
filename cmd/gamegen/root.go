package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kapu/gamegen-go/internal/config"
	"github.com/kapu/gamegen-go/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gamegen",
		Short: "Generate game metadata and iframe pages from game URLs",
		Long: "gamegen asks Gemini for SEO metadata about browser games, one request per URL,\n" +
			"and wraps game URLs in standalone iframe pages.",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newGenerateCmd(),
		newIframeCmd(),
		newServeCmd(),
	)

	return cmd
}

// loadRuntime reads configuration and builds the logger shared by the
// commands that talk to the model.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
