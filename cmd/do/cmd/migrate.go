package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templui/lanchat/internal/config"
	"github.com/templui/lanchat/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the account and profile database schema",
	}

	cmd.AddCommand(
		migrateAction("up", "Apply all pending migrations", db.Migrate),
		migrateAction("down", "Roll back the most recent migration", db.MigrateDown),
		migrateAction("status", "Print the current schema version", nil),
	)
	return cmd
}

func migrateAction(use, short string, apply func(context.Context, *sql.DB, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()

			conn, err := db.Open(ctx, cfg.DBDriver, cfg.DBConnection)
			if err != nil {
				return err
			}
			defer db.Close(conn)

			if apply != nil {
				err = apply(ctx, conn.DB, cfg.DBDriver)
				if err != nil {
					return err
				}
			}

			version, err := db.Version(ctx, conn.DB, cfg.DBDriver)
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d\n", cfg.DBDriver, version)
			return nil
		},
	}
}
