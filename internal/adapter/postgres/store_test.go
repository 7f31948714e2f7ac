package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/planforge/internal/adapter/postgres"
	"github.com/Strob0t/planforge/internal/config"
	"github.com/Strob0t/planforge/internal/domain"
	"github.com/Strob0t/planforge/internal/domain/plan"
	"github.com/Strob0t/planforge/internal/domain/run"
)

// setupStore creates a pgxpool connection, runs all migrations, and returns a
// ready-to-use Store. The pool is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	cfg := config.Defaults().Postgres
	cfg.DSN = dsn
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return postgres.NewStore(pool)
}

func sampleReport() *run.Report {
	cost := 3.0
	started := time.Now().UTC().Truncate(time.Millisecond)
	return &run.Report{
		ID:      uuid.NewString(),
		Mode:    run.ModeParallel,
		Timeout: 7 * time.Second,
		Entries: []run.Entry{
			{
				Solver: "LAMA",
				Outcome: plan.Succeeded(plan.CandidateSet{
					plan.New([]plan.GroundedAction{plan.NewAction("unstack", "a", "b"), plan.NewAction("put-down", "a")}, &cost),
					plan.New([]plan.GroundedAction{plan.NewAction("noop")}, nil),
				}),
				Duration: 1500 * time.Millisecond,
			},
			{
				Solver:   "FD",
				Outcome:  plan.Failed(plan.KindTimedOut, "FD: timed out after 7s"),
				Duration: 7 * time.Second,
			},
			{
				Solver:   "RANDWARD",
				Outcome:  plan.Succeeded(plan.CandidateSet{}),
				Duration: 20 * time.Millisecond,
				Cached:   true,
			},
		},
		StartedAt:  started,
		FinishedAt: started.Add(7 * time.Second),
	}
}

func TestStore_SaveAndGetReport(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	want := sampleReport()

	if err := store.SaveReport(ctx, want); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	got, err := store.GetReport(ctx, want.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}

	if got.String() != want.String() {
		t.Errorf("report rendering differs:\n%s\nvs\n%s", got, want)
	}
	if got.Mode != want.Mode || got.Timeout != want.Timeout {
		t.Errorf("header mismatch: %+v", got)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, want.StartedAt)
	}
	if len(got.Entries) != 3 || !got.Entries[2].Cached || got.Entries[1].Outcome.Kind() != plan.KindTimedOut {
		t.Errorf("entries mismatch: %+v", got.Entries)
	}
	if c := got.Entries[0].Outcome.Plans()[0].Cost; c == nil || *c != 3 {
		t.Errorf("plan cost lost: %v", c)
	}
}

func TestStore_SaveReplacesEntries(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	rep := sampleReport()

	if err := store.SaveReport(ctx, rep); err != nil {
		t.Fatal(err)
	}
	rep.Entries = rep.Entries[:1]
	if err := store.SaveReport(ctx, rep); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetReport(ctx, rep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Entries) != 1 {
		t.Errorf("expected 1 entry after replace, got %d", len(got.Entries))
	}
}

func TestStore_GetReportNotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.GetReport(context.Background(), uuid.NewString())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListReports(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	older := sampleReport()
	older.StartedAt = older.StartedAt.Add(-time.Hour)
	newer := sampleReport()
	for _, r := range []*run.Report{older, newer} {
		if err := store.SaveReport(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.ListReports(ctx, 1000)
	if err != nil {
		t.Fatal(err)
	}
	pos := map[string]int{}
	for i, s := range list {
		pos[s.ID] = i
	}
	if pos[newer.ID] > pos[older.ID] {
		t.Error("expected newest first")
	}
	s := list[pos[newer.ID]]
	if s.Succeeded != 2 || s.Failed != 1 || len(s.Solvers) != 3 {
		t.Errorf("unexpected summary %+v", s)
	}
}
