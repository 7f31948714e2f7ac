// Package fastdownward implements the solver port for the Fast Downward
// planning system, exposed as the FD and LAMA solvers.
package fastdownward

import (
	"github.com/Strob0t/planforge/internal/adapter/solverexec"
	"github.com/Strob0t/planforge/internal/port/solver"
)

const (
	NameFD   = "FD"
	NameLAMA = "LAMA"

	binaryName = "fast-downward"
	resultFile = "sas_plan"

	// aliasFD stops at the first plan and writes a single sas_plan.
	aliasFD = "lama-first"
	// aliasLAMA keeps improving and writes sas_plan.1, sas_plan.2, ...
	aliasLAMA = "seq-sat-lama-2011"
)

// NewFD returns the single-plan Fast Downward configuration.
func NewFD(opts solverexec.Options) *solverexec.Runner {
	return newRunner(NameFD, aliasFD, opts)
}

// NewLAMA returns the anytime LAMA configuration, which can leave several
// candidate plan files behind.
func NewLAMA(opts solverexec.Options) *solverexec.Runner {
	return newRunner(NameLAMA, aliasLAMA, opts)
}

func newRunner(name, alias string, opts solverexec.Options) *solverexec.Runner {
	return opts.Apply(&solverexec.Runner{
		SolverName: name,
		Binary:     binaryName,
		Args: []string{
			"--alias", alias,
			"--overall-time-limit", solverexec.ArgTimeout + "s",
			"--plan-file", solverexec.ArgOutput,
			solverexec.ArgDomain,
			solverexec.ArgProblem,
		},
		OutputName: resultFile,
		// Matches both sas_plan and the numbered anytime files.
		Discover: solverexec.Pattern(resultFile + "*"),
	})
}

// Register adds FD and LAMA to reg. binaries maps a solver name to an
// optional binary override.
func Register(reg *solver.Registry, opts solverexec.Options, binaries map[string]string) error {
	fd := opts
	fd.Binary = binaries[NameFD]
	if err := reg.Register(NewFD(fd)); err != nil {
		return err
	}
	lama := opts
	lama.Binary = binaries[NameLAMA]
	return reg.Register(NewLAMA(lama))
}
