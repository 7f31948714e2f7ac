package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Strob0t/planforge/internal/adapter/postgres"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var (
		down   int
		status bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the run history schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireDSN(c.cfg); err != nil {
				return err
			}
			ctx := cmd.Context()
			dsn := c.cfg.Postgres.DSN

			switch {
			case status:
			case down > 0:
				if err := postgres.RollbackMigrations(ctx, dsn, down); err != nil {
					return err
				}
				slog.Info("migrations rolled back", "steps", down)
			case down < 0:
				return fmt.Errorf("--down must be positive, got %d", down)
			default:
				if err := postgres.RunMigrations(ctx, dsn); err != nil {
					return err
				}
				slog.Info("migrations applied")
			}

			v, err := postgres.MigrationVersion(ctx, dsn)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return err
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations instead of applying")
	cmd.Flags().BoolVar(&status, "status", false, "only print the current schema version")
	cmd.MarkFlagsMutuallyExclusive("down", "status")
	return cmd
}
