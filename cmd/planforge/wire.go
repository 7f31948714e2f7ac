package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Strob0t/planforge/internal/adapter/arvandherd"
	"github.com/Strob0t/planforge/internal/adapter/command"
	"github.com/Strob0t/planforge/internal/adapter/fastdownward"
	cfhttp "github.com/Strob0t/planforge/internal/adapter/http"
	cfnats "github.com/Strob0t/planforge/internal/adapter/nats"
	"github.com/Strob0t/planforge/internal/adapter/natskv"
	cfotel "github.com/Strob0t/planforge/internal/adapter/otel"
	"github.com/Strob0t/planforge/internal/adapter/postgres"
	"github.com/Strob0t/planforge/internal/adapter/randward"
	"github.com/Strob0t/planforge/internal/adapter/ristretto"
	"github.com/Strob0t/planforge/internal/adapter/solverexec"
	"github.com/Strob0t/planforge/internal/adapter/tiered"
	"github.com/Strob0t/planforge/internal/config"
	"github.com/Strob0t/planforge/internal/port/broadcast"
	"github.com/Strob0t/planforge/internal/port/cache"
	"github.com/Strob0t/planforge/internal/port/solver"
	"github.com/Strob0t/planforge/internal/resilience"
	"github.com/Strob0t/planforge/internal/service"
)

// builtinSolvers are the names solvers.paths may override.
var builtinSolvers = []string{fastdownward.NameFD, fastdownward.NameLAMA, arvandherd.Name, randward.Name}

// buildRegistry registers the built-in adapters and every configured
// command solver.
func buildRegistry(cfg *config.Config) (*solver.Registry, error) {
	opts := solverexec.Options{
		StagingRoot:    cfg.Staging.Root,
		RemoveStageDir: cfg.Staging.RemoveDirs,
		Grace:          cfg.Execution.Grace,
	}
	paths := cfg.Solvers.Paths
	for name := range paths {
		if !slices.Contains(builtinSolvers, name) {
			slog.Warn("solvers.paths names an unknown built-in solver; ignored",
				"name", name, "builtin", builtinSolvers)
		}
	}

	reg := solver.NewRegistry()
	if err := fastdownward.Register(reg, opts, paths); err != nil {
		return nil, err
	}
	ah := opts
	ah.Binary = paths[arvandherd.Name]
	if err := arvandherd.Register(reg, ah); err != nil {
		return nil, err
	}
	rw := opts
	rw.Binary = paths[randward.Name]
	if err := randward.Register(reg, rw); err != nil {
		return nil, err
	}
	if err := command.Register(reg, cfg.Solvers.Custom, opts); err != nil {
		return nil, err
	}
	return reg, nil
}

// features selects the optional infrastructure a command wires in. Each
// is still skipped when its configuration is empty.
type features struct {
	nats     bool
	postgres bool
	migrate  bool
	cache    bool
	pool     bool
}

// app is the wired orchestrator plus whatever infrastructure backs it.
type app struct {
	cfg      *config.Config
	registry *solver.Registry
	orch     *service.OrchestratorService
	queue    *cfnats.Queue
	breakers []*resilience.Breaker
	checks   map[string]cfhttp.HealthCheck

	closers []func()
}

// newApp wires the orchestrator. sinks receive run events in addition to
// the NATS publisher, when one is connected.
func newApp(ctx context.Context, cfg *config.Config, f features, sinks ...broadcast.Broadcaster) (_ *app, err error) {
	a := &app{cfg: cfg, checks: make(map[string]cfhttp.HealthCheck)}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	shutdownOTEL, err := cfotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return nil, err
	}
	a.onClose(func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown failed", "error", err)
		}
	})

	a.registry, err = buildRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("register solvers: %w", err)
	}
	a.orch = service.NewOrchestratorService(a.registry, &cfg.Execution)

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("otel metrics: %w", err)
	}
	a.orch.SetMetrics(metrics)

	if f.pool {
		a.orch.SetPool(resilience.NewPool(cfg.Limits.MaxConcurrentRuns))
	}

	if f.nats && cfg.NATS.URL != "" {
		if err := a.wireNATS(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, cfnats.NewEventPublisher(a.queue, a.breaker("nats")))
	}
	if f.postgres && cfg.Postgres.DSN != "" {
		if err := a.wirePostgres(ctx, f.migrate); err != nil {
			return nil, err
		}
	}
	if f.cache && cfg.Cache.Enabled {
		if err := a.wireCache(ctx); err != nil {
			return nil, err
		}
	}

	if len(sinks) > 0 {
		a.orch.SetBroadcaster(broadcast.Multi(sinks))
	}
	return a, nil
}

func (a *app) wireNATS(ctx context.Context) error {
	q, err := cfnats.Connect(ctx, a.cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	a.queue = q
	a.onClose(func() {
		if err := q.Drain(); err != nil {
			slog.Warn("nats drain failed", "error", err)
		}
	})
	a.checks["nats"] = func(context.Context) error {
		if !q.IsConnected() {
			return errors.New("not connected")
		}
		return nil
	}
	return nil
}

func (a *app) wirePostgres(ctx context.Context, migrate bool) error {
	if migrate {
		if err := postgres.RunMigrations(ctx, a.cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		slog.Info("migrations applied")
	}
	pool, err := postgres.NewPool(ctx, a.cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	a.onClose(pool.Close)
	a.orch.SetStore(postgres.NewStore(pool), a.breaker("postgres"))
	a.checks["postgres"] = pool.Ping
	slog.Info("postgres connected")
	return nil
}

// wireCache builds the result cache: ristretto in process, backed by the
// NATS KV bucket when NATS is connected.
func (a *app) wireCache(ctx context.Context) error {
	l1, err := ristretto.New(a.cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	a.onClose(l1.Close)

	var l2 cache.Cache
	if a.queue != nil {
		kv, err := natskv.Open(ctx, a.queue.JetStream(), a.cfg.Cache.L2Bucket, a.cfg.Cache.TTL)
		if err != nil {
			slog.Warn("l2 cache unavailable, using l1 only", "bucket", a.cfg.Cache.L2Bucket, "error", err)
		} else {
			l2 = kv
		}
	}

	a.orch.SetCache(tiered.New(l1, l2, a.cfg.Cache.TTL), a.cfg.Cache.TTL)
	slog.Info("result cache enabled", "l1_mb", a.cfg.Cache.L1MaxSizeMB, "l2", l2 != nil, "ttl", a.cfg.Cache.TTL)
	return nil
}

func (a *app) breaker(name string) *resilience.Breaker {
	b := resilience.NewBreaker(name, a.cfg.Breaker.MaxFailures, a.cfg.Breaker.Timeout)
	a.breakers = append(a.breakers, b)
	return b
}

func (a *app) onClose(fn func()) { a.closers = append(a.closers, fn) }

// Close waits for background runs, then releases resources in reverse
// order of acquisition.
func (a *app) Close() {
	if a.orch != nil {
		a.orch.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
