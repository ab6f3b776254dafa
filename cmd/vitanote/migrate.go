package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wosledon/vitanote/internal/config"
	"github.com/wosledon/vitanote/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		db, err := store.Open(ctx, store.Config{
			Path:         cfg.Database.Path,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			BusyTimeout:  cfg.Database.BusyTimeout,
		}, zap.NewNop())
		if err != nil {
			return err
		}
		defer db.Close()

		v, err := db.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d (latest %d)\n", db.Path(), v, store.LatestVersion())
		return nil
	},
}
