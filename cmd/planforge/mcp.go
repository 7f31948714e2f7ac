package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Strob0t/planforge/internal/adapter/mcp"
)

func newMCPCmd(c *cli) *cobra.Command {
	var overHTTP bool
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve planning tools over the Model Context Protocol",
		Long: `mcp serves list_solvers, plan, get_run and list_runs to an MCP client.
It speaks over stdin/stdout by default; --http serves streamable HTTP on
mcp.addr instead, guarded by mcp.api_key when set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := c.cfg
			a, err := newApp(ctx, cfg, features{postgres: true, cache: true, pool: true})
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcp.NewServer(mcp.ServerConfig{
				Addr:    cfg.MCP.Addr,
				Name:    cfg.MCP.Name,
				Version: version,
				APIKey:  cfg.MCP.APIKey,
			}, mcp.ServerDeps{Planner: a.orch})

			if !overHTTP {
				return srv.ServeStdio(ctx)
			}
			if err := srv.Start(); err != nil {
				return err
			}
			<-ctx.Done()
			slog.Info("mcp server stopping")
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(stopCtx)
		},
	}
	cmd.Flags().BoolVar(&overHTTP, "http", false, "serve streamable HTTP on mcp.addr instead of stdio")
	return cmd
}
