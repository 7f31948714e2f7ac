package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	cfotel "github.com/Strob0t/planforge/internal/adapter/otel"
	"github.com/Strob0t/planforge/internal/config"
	"github.com/Strob0t/planforge/internal/domain"
	"github.com/Strob0t/planforge/internal/domain/plan"
	"github.com/Strob0t/planforge/internal/domain/run"
	"github.com/Strob0t/planforge/internal/logger"
	"github.com/Strob0t/planforge/internal/port/broadcast"
	"github.com/Strob0t/planforge/internal/port/cache"
	"github.com/Strob0t/planforge/internal/port/database"
	"github.com/Strob0t/planforge/internal/port/solver"
	"github.com/Strob0t/planforge/internal/resilience"
)

const (
	defaultGrace  = 2 * time.Second
	recentReports = 128
)

// SolverInfo describes a registered solver.
type SolverInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// OrchestratorService dispatches planning requests to registered solvers and
// collects one outcome per requested solver into a report.
type OrchestratorService struct {
	registry *solver.Registry
	execCfg  *config.Execution

	hub          broadcast.Broadcaster
	store        database.Store
	storeBreaker *resilience.Breaker
	cache        cache.Cache
	cacheTTL     time.Duration
	metrics      *cfotel.Metrics
	pool         *resilience.Pool

	mu     sync.Mutex
	recent []*run.Report // newest last
	bg     sync.WaitGroup
}

// NewOrchestratorService creates an OrchestratorService. The registry is
// sealed: no solver can be added once runs may be in flight.
func NewOrchestratorService(registry *solver.Registry, execCfg *config.Execution) *OrchestratorService {
	registry.Seal()
	return &OrchestratorService{
		registry: registry,
		execCfg:  execCfg,
	}
}

// SetBroadcaster sets the sink for run events.
func (s *OrchestratorService) SetBroadcaster(b broadcast.Broadcaster) { s.hub = b }

// SetStore enables report persistence. Writes go through breaker when non-nil.
func (s *OrchestratorService) SetStore(store database.Store, breaker *resilience.Breaker) {
	s.store = store
	s.storeBreaker = breaker
}

// SetCache enables the result cache. Only successful outcomes are cached.
func (s *OrchestratorService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

// SetMetrics sets the metric instruments.
func (s *OrchestratorService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// SetPool bounds the number of concurrently executing runs.
func (s *OrchestratorService) SetPool(p *resilience.Pool) { s.pool = p }

// Solvers lists the registered solvers and whether their programs are installed.
func (s *OrchestratorService) Solvers() []SolverInfo {
	names := s.registry.Names()
	avail := make(map[string]bool, len(names))
	for _, n := range s.registry.Available() {
		avail[n] = true
	}
	out := make([]SolverInfo, len(names))
	for i, n := range names {
		out[i] = SolverInfo{Name: n, Available: avail[n]}
	}
	return out
}

// pending is a validated run whose solvers are all resolved.
type pending struct {
	report  *run.Report
	solvers []solver.Solver
	problem solver.Problem
}

// Run executes req and returns its report. Request errors (validation,
// unknown solver names) are returned before any solver is invoked; solver
// failures never are, they are recorded in the report instead.
func (s *OrchestratorService) Run(ctx context.Context, req run.Request) (*run.Report, error) {
	p, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	err = s.pool.Run(ctx, func() error {
		s.execute(ctx, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("wait for run slot: %w", err)
	}
	return p.report, nil
}

// Start validates req, then executes it in the background. It returns the
// run ID; the report is available from GetReport once the run completes.
// Start never queues: with every pool slot taken it returns
// resilience.ErrPoolBusy.
func (s *OrchestratorService) Start(ctx context.Context, req run.Request) (string, error) {
	p, err := s.prepare(req)
	if err != nil {
		return "", err
	}
	release, err := s.pool.TryAcquire()
	if err != nil {
		return "", err
	}
	bgCtx := context.WithoutCancel(ctx)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer release()
		s.execute(bgCtx, p)
	}()
	return p.report.ID, nil
}

// Wait blocks until every run launched with Start has finished.
func (s *OrchestratorService) Wait() { s.bg.Wait() }

func (s *OrchestratorService) prepare(req run.Request) (*pending, error) {
	req = s.withDefaults(req)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	solvers := make([]solver.Solver, len(req.Solvers))
	for i, name := range req.Solvers {
		sv, err := s.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		solvers[i] = sv
	}

	return &pending{
		report: &run.Report{
			ID:      uuid.NewString(),
			Mode:    req.Mode,
			Timeout: req.Timeout,
			Entries: make([]run.Entry, len(solvers)),
		},
		solvers: solvers,
		problem: solver.Problem{
			Domain:           req.Domain,
			Problem:          req.Problem,
			ActionExtensions: req.ActionExtensions,
			Timeout:          req.Timeout,
		},
	}, nil
}

func (s *OrchestratorService) withDefaults(req run.Request) run.Request {
	if len(req.Solvers) == 0 {
		req.Solvers = []string{s.execCfg.DefaultSolver}
	} else {
		req.Solvers = append([]string(nil), req.Solvers...)
	}
	if req.Timeout == 0 {
		req.Timeout = s.execCfg.DefaultTimeout
	}
	if req.Mode == "" {
		req.Mode = run.Mode(s.execCfg.DefaultMode)
	}
	if m, err := run.ParseMode(string(req.Mode)); err == nil {
		req.Mode = m
	}
	return req
}

func (s *OrchestratorService) execute(ctx context.Context, p *pending) {
	rep := p.report
	rep.StartedAt = time.Now().UTC()
	ctx = logger.WithRunID(ctx, rep.ID)

	names := make([]string, len(p.solvers))
	for i, sv := range p.solvers {
		names[i] = sv.Name()
	}

	ctx, span := cfotel.StartRunSpan(ctx, rep.ID, string(rep.Mode), names, rep.Timeout)
	defer span.End()

	slog.Info("run started", "run_id", rep.ID, "mode", rep.Mode, "solvers", names, "timeout", rep.Timeout)
	if s.metrics != nil {
		s.metrics.RunsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", string(rep.Mode))))
	}
	s.broadcast(ctx, run.EventStarted, run.StartedEvent{
		RunID:   rep.ID,
		Solvers: names,
		Mode:    rep.Mode,
		Timeout: rep.Timeout,
	})

	switch rep.Mode {
	case run.ModeSequential:
		for i, sv := range p.solvers {
			rep.Entries[i] = s.runSolver(ctx, rep.ID, i, sv, p.problem)
		}
	default:
		var wg sync.WaitGroup
		for i, sv := range p.solvers {
			wg.Add(1)
			go func(idx int, sv solver.Solver) {
				defer wg.Done()
				rep.Entries[idx] = s.runSolver(ctx, rep.ID, idx, sv, p.problem)
			}(i, sv)
		}
		wg.Wait()
	}

	rep.FinishedAt = time.Now().UTC()
	elapsed := rep.FinishedAt.Sub(rep.StartedAt)

	slog.Info("run completed", "run_id", rep.ID, "succeeded", rep.Succeeded(), "failed", rep.Failed(), "elapsed", elapsed)
	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("mode", string(rep.Mode)))
		s.metrics.RunsCompleted.Add(ctx, 1, attrs)
		s.metrics.RunDuration.Record(ctx, elapsed.Seconds(), attrs)
	}

	s.remember(rep)
	s.persist(ctx, rep)
	s.broadcast(ctx, run.EventCompleted, run.CompletedEvent{Report: rep})
}

// runSolver produces the entry for one solver. It never fails: every
// problem becomes a failure outcome.
func (s *OrchestratorService) runSolver(ctx context.Context, runID string, idx int, sv solver.Solver, p solver.Problem) run.Entry {
	name := sv.Name()
	ctx, span := cfotel.StartSolverSpan(ctx, runID, name, idx)
	defer span.End()

	start := time.Now()
	entry := run.Entry{Solver: name}
	key := CacheKey(name, p)

	if out, ok := s.lookupCache(ctx, key); ok {
		entry.Outcome = out
		entry.Cached = true
	} else {
		entry.Outcome = s.invoke(ctx, sv, p)
		if entry.Outcome.OK() {
			s.storeCache(ctx, key, entry.Outcome)
		}
	}
	entry.Duration = time.Since(start)

	if entry.Outcome.OK() {
		slog.Info("solver succeeded", "run_id", runID, "solver", name, "candidates", entry.Outcome.Len(), "cached", entry.Cached, "duration", entry.Duration)
	} else {
		span.SetStatus(codes.Error, entry.Outcome.Message())
		slog.Warn("solver failed", "run_id", runID, "solver", name, "kind", entry.Outcome.Kind(), "error", entry.Outcome.Message(), "duration", entry.Duration)
	}
	s.recordOutcome(ctx, entry)

	s.broadcast(ctx, run.EventOutcome, run.OutcomeEvent{
		RunID:    runID,
		Index:    idx,
		Solver:   name,
		Outcome:  entry.Outcome,
		Duration: entry.Duration,
		Cached:   entry.Cached,
	})
	return entry
}

// invoke calls the adapter, converting panics and overruns into failures.
// The adapter enforces the timeout itself; the extra bound of timeout plus
// grace only matters for adapters that ignore their context. Cancelling ctx
// does not stop the solver: a started invocation always runs to its own
// completion or timeout.
func (s *OrchestratorService) invoke(ctx context.Context, sv solver.Solver, p solver.Problem) plan.Outcome {
	bound := p.Timeout + s.grace()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bound)
	defer cancel()

	done := make(chan plan.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("solver panicked", "solver", sv.Name(), "panic", r)
				done <- plan.Failed(plan.KindInternal, fmt.Sprintf("%s: solver panicked: %v", sv.Name(), r))
			}
		}()
		set, err := sv.Plan(ctx, p)
		if err != nil {
			done <- plan.FailedWith(err)
			return
		}
		done <- plan.Succeeded(set)
	}()

	overrun := plan.Failed(plan.KindTimedOut, fmt.Sprintf("%s: no result within %s", sv.Name(), bound))
	select {
	case out := <-done:
		if !out.OK() && out.Kind() == plan.KindInternal && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return overrun
		}
		return out
	case <-ctx.Done():
		slog.Error("solver ignored its deadline", "solver", sv.Name(), "bound", bound)
		return overrun
	}
}

func (s *OrchestratorService) grace() time.Duration {
	if s.execCfg.Grace > 0 {
		return s.execCfg.Grace
	}
	return defaultGrace
}

func (s *OrchestratorService) lookupCache(ctx context.Context, key string) (plan.Outcome, bool) {
	if s.cache == nil {
		return plan.Outcome{}, false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("result cache get failed", "key", key, "error", err)
		return plan.Outcome{}, false
	}
	if !ok {
		return plan.Outcome{}, false
	}
	var out plan.Outcome
	if err := json.Unmarshal(data, &out); err != nil || !out.OK() {
		slog.Warn("discarding unreadable cache entry", "key", key, "error", err)
		return plan.Outcome{}, false
	}
	if s.metrics != nil {
		s.metrics.CacheHits.Add(ctx, 1)
	}
	return out, true
}

func (s *OrchestratorService) storeCache(ctx context.Context, key string, out plan.Outcome) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		slog.Warn("encode outcome for cache", "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		slog.Warn("result cache set failed", "key", key, "error", err)
	}
}

func (s *OrchestratorService) recordOutcome(ctx context.Context, e run.Entry) {
	if s.metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("solver", e.Solver),
		attribute.String("status", string(e.Outcome.Status())),
	}
	if !e.Outcome.OK() {
		attrs = append(attrs, attribute.String("error_kind", string(e.Outcome.Kind())))
	}
	set := metric.WithAttributes(attrs...)
	s.metrics.SolverOutcomes.Add(ctx, 1, set)
	s.metrics.SolverDuration.Record(ctx, e.Duration.Seconds(), set)
	if e.Outcome.OK() {
		s.metrics.CandidatePlans.Record(ctx, int64(e.Outcome.Len()), set)
	}
}

func (s *OrchestratorService) broadcast(ctx context.Context, eventType string, payload any) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, eventType, payload)
	}
}

func (s *OrchestratorService) persist(ctx context.Context, rep *run.Report) {
	if s.store == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	err := s.storeBreaker.Execute(func() error {
		return s.store.SaveReport(ctx, rep)
	})
	if err != nil {
		slog.Error("persist report failed", "run_id", rep.ID, "error", err)
	}
}

func (s *OrchestratorService) remember(rep *run.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, rep)
	if len(s.recent) > recentReports {
		s.recent = s.recent[len(s.recent)-recentReports:]
	}
}

// GetReport returns a finished report, from the store when one is
// configured, otherwise from the reports this process produced recently.
func (s *OrchestratorService) GetReport(ctx context.Context, id string) (*run.Report, error) {
	s.mu.Lock()
	for i := len(s.recent) - 1; i >= 0; i-- {
		if s.recent[i].ID == id {
			rep := s.recent[i]
			s.mu.Unlock()
			return rep, nil
		}
	}
	s.mu.Unlock()

	if s.store == nil {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	return s.store.GetReport(ctx, id)
}

// ListReports returns summaries of recent reports, newest first.
func (s *OrchestratorService) ListReports(ctx context.Context, limit int) ([]run.Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	if s.store != nil {
		return s.store.ListReports(ctx, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]run.Summary, 0, min(limit, len(s.recent)))
	for i := len(s.recent) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.recent[i].Summarize())
	}
	return out, nil
}
