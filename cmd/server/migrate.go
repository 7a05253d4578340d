package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/caf-approval/internal/config"
	"github.com/garyjia/caf-approval/internal/container"
	"github.com/garyjia/caf-approval/pkg/database"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.Database.Driver == config.DriverMemory {
				return fmt.Errorf("nothing to migrate for the memory driver")
			}

			db, err := database.New(database.Config{
				Driver:          cfg.Database.Driver,
				Path:            cfg.Database.Path,
				DSN:             cfg.Database.DSN,
				MaxOpenConns:    cfg.Database.MaxOpenConns,
				MaxIdleConns:    cfg.Database.MaxIdleConns,
				ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			}, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := container.Migrate(cmd.Context(), db, cfg.Database.Driver, logger)
			if err != nil {
				return err
			}

			logger.Info("Migrations complete", zap.Int("applied", applied))
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}
}
