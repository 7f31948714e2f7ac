// Package database defines the run history store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/planforge/internal/domain/run"
)

// Store persists finished run reports.
type Store interface {
	// SaveReport stores a finished report. Saving the same ID twice replaces it.
	SaveReport(ctx context.Context, r *run.Report) error

	// GetReport returns the report with the given ID or domain.ErrNotFound.
	GetReport(ctx context.Context, id string) (*run.Report, error)

	// ListReports returns summaries of the most recent reports, newest first.
	ListReports(ctx context.Context, limit int) ([]run.Summary, error)
}
