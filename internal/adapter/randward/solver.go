// Package randward implements the solver port for the Randward planner.
package randward

import (
	"github.com/Strob0t/planforge/internal/adapter/solverexec"
	"github.com/Strob0t/planforge/internal/port/solver"
)

const (
	Name = "RANDWARD"

	binaryName = "randward-planner"
	resultFile = "randward.plan"
)

// New returns the Randward solver, whose candidate files all contain "randward".
func New(opts solverexec.Options) *solverexec.Runner {
	return opts.Apply(&solverexec.Runner{
		SolverName: Name,
		Binary:     binaryName,
		Args:       []string{solverexec.ArgDomain, solverexec.ArgProblem, solverexec.ArgOutput},
		OutputName: resultFile,
		Discover:   solverexec.Pattern("randward*"),
	})
}

// Register adds RANDWARD to reg.
func Register(reg *solver.Registry, opts solverexec.Options) error {
	return reg.Register(New(opts))
}
