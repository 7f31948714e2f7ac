// Package arvandherd implements the solver port for the ArvandHerd portfolio planner.
package arvandherd

import (
	"github.com/Strob0t/planforge/internal/adapter/solverexec"
	"github.com/Strob0t/planforge/internal/port/solver"
)

const (
	Name = "ARVANDHERD"

	binaryName = "arvand-herd-planner"
	resultFile = "plan"
)

// New returns the ArvandHerd solver. The planner writes plan, plan.1, ...
// with no priority among the candidates.
func New(opts solverexec.Options) *solverexec.Runner {
	return opts.Apply(&solverexec.Runner{
		SolverName: Name,
		Binary:     binaryName,
		Args:       []string{solverexec.ArgDomain, solverexec.ArgProblem, solverexec.ArgOutput},
		OutputName: resultFile,
		Discover:   solverexec.Pattern(resultFile + "*"),
	})
}

// Register adds ARVANDHERD to reg.
func Register(reg *solver.Registry, opts solverexec.Options) error {
	return reg.Register(New(opts))
}
