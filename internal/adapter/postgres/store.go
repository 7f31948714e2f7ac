package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/planforge/internal/domain/plan"
	"github.com/Strob0t/planforge/internal/domain/run"
	"github.com/Strob0t/planforge/internal/port/database"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ database.Store = (*Store)(nil)

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SaveReport writes a report and its entries in one transaction, replacing
// any report stored under the same ID.
func (s *Store) SaveReport(ctx context.Context, r *run.Report) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save report %s: begin: %w", r.ID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, mode, timeout_ms, solvers, succeeded, failed, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   mode = EXCLUDED.mode, timeout_ms = EXCLUDED.timeout_ms, solvers = EXCLUDED.solvers,
		   succeeded = EXCLUDED.succeeded, failed = EXCLUDED.failed,
		   started_at = EXCLUDED.started_at, finished_at = EXCLUDED.finished_at`,
		r.ID, string(r.Mode), r.Timeout.Milliseconds(), pgTextArray(r.Names()),
		r.Succeeded(), r.Failed(), r.StartedAt, r.FinishedAt)
	if err != nil {
		return fmt.Errorf("save report %s: %w", r.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM run_entries WHERE run_id = $1`, r.ID); err != nil {
		return fmt.Errorf("save report %s: clear entries: %w", r.ID, err)
	}

	batch := &pgx.Batch{}
	for i := range r.Entries {
		e := &r.Entries[i]
		plans, err := json.Marshal(orEmptySet(e.Outcome.Plans()))
		if err != nil {
			return fmt.Errorf("save report %s: encode plans: %w", r.ID, err)
		}
		var kind *string
		if !e.Outcome.OK() {
			kind = nullIfEmpty(string(e.Outcome.Kind()))
		}
		batch.Queue(
			`INSERT INTO run_entries (run_id, position, solver, status, error_kind, error, plans, duration_ms, cached)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			r.ID, i, e.Solver, string(e.Outcome.Status()), kind, e.Outcome.Message(),
			plans, e.Duration.Milliseconds(), e.Cached)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save report %s: entries: %w", r.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("save report %s: commit: %w", r.ID, err)
	}
	return nil
}

// GetReport loads a report with its entries in request order.
func (s *Store) GetReport(ctx context.Context, id string) (*run.Report, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, mode, timeout_ms, started_at, finished_at FROM runs WHERE id = $1`, id)

	var (
		r         run.Report
		mode      string
		timeoutMS int64
	)
	if err := row.Scan(&r.ID, &mode, &timeoutMS, &r.StartedAt, &r.FinishedAt); err != nil {
		return nil, notFoundWrap(err, "get report %s", id)
	}
	r.Mode = run.Mode(mode)
	r.Timeout = time.Duration(timeoutMS) * time.Millisecond

	rows, err := s.pool.Query(ctx,
		`SELECT solver, status, COALESCE(error_kind, ''), error, plans, duration_ms, cached
		 FROM run_entries WHERE run_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get report %s entries: %w", id, err)
	}
	defer rows.Close()

	r.Entries = []run.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("get report %s entries: %w", id, err)
		}
		r.Entries = append(r.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get report %s entries: %w", id, err)
	}
	return &r, nil
}

// ListReports returns summaries of the newest reports.
func (s *Store) ListReports(ctx context.Context, limit int) ([]run.Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, mode, solvers, succeeded, failed, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := []run.Summary{}
	for rows.Next() {
		var (
			sum  run.Summary
			mode string
		)
		if err := rows.Scan(&sum.ID, &mode, &sum.Solvers, &sum.Succeeded, &sum.Failed, &sum.StartedAt, &sum.FinishedAt); err != nil {
			return nil, fmt.Errorf("list reports: %w", err)
		}
		sum.Mode = run.Mode(mode)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func scanEntry(row scannable) (run.Entry, error) {
	var (
		e          run.Entry
		status     string
		kind       string
		msg        string
		plansJSON  []byte
		durationMS int64
	)
	if err := row.Scan(&e.Solver, &status, &kind, &msg, &plansJSON, &durationMS, &e.Cached); err != nil {
		return run.Entry{}, err
	}
	e.Duration = time.Duration(durationMS) * time.Millisecond

	switch plan.Status(status) {
	case plan.StatusSuccess:
		var set plan.CandidateSet
		if err := json.Unmarshal(plansJSON, &set); err != nil {
			return run.Entry{}, fmt.Errorf("decode plans for %s: %w", e.Solver, err)
		}
		e.Outcome = plan.Succeeded(set)
	default:
		e.Outcome = plan.Failed(plan.ErrorKind(kind), msg)
	}
	return e, nil
}

func orEmptySet(s plan.CandidateSet) plan.CandidateSet {
	if s == nil {
		return plan.CandidateSet{}
	}
	return s
}
