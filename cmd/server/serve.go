package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/caf-approval/internal/container"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg.ToContainerConfig(), logger)
		},
	}
}

func serve(ctx context.Context, cfg *container.Config, logger *zap.Logger) error {
	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Shutdown finished with errors", zap.Error(err))
		}
	}()

	logger.Info("Starting CAF approval service",
		zap.String("address", c.HTTPServer().Address()),
		zap.String("store", cfg.Database.Driver),
		zap.Int("observers", c.Dispatcher().ObserversCount()))

	return c.HTTPServer().Start(ctx)
}
