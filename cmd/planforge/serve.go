package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	cfhttp "github.com/Strob0t/planforge/internal/adapter/http"
	"github.com/Strob0t/planforge/internal/adapter/mcp"
	"github.com/Strob0t/planforge/internal/adapter/ws"
	"github.com/Strob0t/planforge/internal/middleware"
)

func newServeCmd(c *cli) *cobra.Command {
	var withMCP bool
	cmd := &cobra.Command{
		Use:         "serve",
		Short:       "Serve the planning API, run events over WebSocket and optionally MCP",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{logToStdout: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), c, withMCP)
		},
	}
	cmd.Flags().BoolVar(&withMCP, "mcp", false, "also serve MCP over streamable HTTP on mcp.addr")
	return cmd
}

func runServe(ctx context.Context, c *cli, withMCP bool) error {
	cfg := c.cfg
	var origins []string
	if cfg.Server.CORSOrigin != "" {
		origins = append(origins, cfg.Server.CORSOrigin)
	}
	hub := ws.NewHub(origins...)

	a, err := newApp(ctx, cfg, features{nats: true, postgres: true, migrate: true, cache: true, pool: true}, hub)
	if err != nil {
		return err
	}
	defer a.Close()

	handlers := &cfhttp.Handlers{
		Orchestrator: a.orch,
		Breakers:     a.breakers,
		Checks:       a.checks,
		BodyLimit:    cfg.Limits.MaxRequestBytes,
		APIVersion:   version,
	}
	serviceName := ""
	if cfg.OTEL.Endpoint != "" {
		serviceName = cfg.OTEL.ServiceName
	}
	router := cfhttp.NewRouter(handlers, cfhttp.RouterOptions{
		CORSOrigin:  cfg.Server.CORSOrigin,
		ServiceName: serviceName,
		Submit:      middleware.NewSubmitLimiter(cfg.Limits.SubmitRate, cfg.Limits.SubmitBurst),
		WebSocket:   hub.HandleWS,
	})

	// No WriteTimeout: synchronous runs and WebSocket streams outlive any
	// fixed bound. Solver deadlines cap the former.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var mcpSrv *mcp.Server
	if withMCP {
		mcpSrv = mcp.NewServer(mcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    cfg.MCP.Name,
			Version: version,
			APIKey:  cfg.MCP.APIKey,
		}, mcp.ServerDeps{Planner: a.orch})
		if err := mcpSrv.Start(); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("planforge listening", "addr", srv.Addr, "solvers", a.registry.Names())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if mcpSrv != nil {
		if err := mcpSrv.Stop(shutdownCtx); err != nil {
			slog.Warn("mcp shutdown failed", "error", err)
		}
	}
	hub.Close()
	return srv.Shutdown(shutdownCtx)
}
