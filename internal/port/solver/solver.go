// Package solver defines the solver port (interface) implemented by every
// external planner adapter, and the registry that maps names to adapters.
package solver

import (
	"context"
	"time"

	"github.com/Strob0t/planforge/internal/domain/plan"
)

// Problem is the input to a single solver invocation.
type Problem struct {
	Domain           string
	Problem          string
	ActionExtensions string
	Timeout          time.Duration
}

// Solver is the port interface for an external planning program.
type Solver interface {
	// Name returns the unique identifier for this solver (e.g. "FD", "LAMA").
	Name() string

	// Plan runs the solver on p and returns the candidate plans it produced.
	// Any returned error is a *plan.SolverError. The solver must return
	// within p.Timeout plus a short teardown period.
	Plan(ctx context.Context, p Problem) (plan.CandidateSet, error)
}

// Prober is optionally implemented by solvers that can report whether their
// external program is installed without running it.
type Prober interface {
	Available() bool
}
