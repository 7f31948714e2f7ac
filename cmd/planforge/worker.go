package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Strob0t/planforge/internal/service"
)

func newWorkerCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Execute run requests received over NATS",
		Long: `worker subscribes to run requests on NATS JetStream, executes each one and
publishes its run events back to NATS. Reports are persisted when a
database is configured.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{logToStdout: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.NATS.URL == "" {
				return errors.New("no NATS server configured: set nats.url or NATS_URL")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, c.cfg, features{nats: true, postgres: true, migrate: true, cache: true, pool: true})
			if err != nil {
				return err
			}
			defer a.Close()

			stop, err := service.NewWorkerService(a.orch, a.queue).Start(ctx)
			if err != nil {
				return err
			}
			<-ctx.Done()
			slog.Info("worker stopping")
			stop()
			return nil
		},
	}
}
