// Package command implements the solver port for planners declared in the
// configuration file by their command line.
package command

import (
	"fmt"

	"github.com/Strob0t/planforge/internal/adapter/solverexec"
	"github.com/Strob0t/planforge/internal/config"
	"github.com/Strob0t/planforge/internal/port/solver"
)

const defaultOutput = "plan"

// New builds a solver from a config declaration. Without a pattern the
// solver is expected to write exactly the {output} file.
func New(spec config.CustomSolver, opts solverexec.Options) (*solverexec.Runner, error) {
	if spec.Name == "" || spec.Binary == "" {
		return nil, fmt.Errorf("command solver %q: name and binary are required", spec.Name)
	}
	output := spec.Output
	if output == "" {
		output = defaultOutput
	}
	args := spec.Args
	if len(args) == 0 {
		args = []string{solverexec.ArgDomain, solverexec.ArgProblem, solverexec.ArgOutput}
	}

	discover := solverexec.SingleFile(output)
	if spec.Pattern != "" {
		discover = solverexec.Pattern(spec.Pattern)
	}

	opts.Binary = spec.Binary
	return opts.Apply(&solverexec.Runner{
		SolverName: spec.Name,
		Args:       append([]string(nil), args...),
		OutputName: output,
		Discover:   discover,
	}), nil
}

// Register adds every declared solver to reg.
func Register(reg *solver.Registry, specs []config.CustomSolver, opts solverexec.Options) error {
	for _, spec := range specs {
		s, err := New(spec, opts)
		if err != nil {
			return err
		}
		if err := reg.Register(s); err != nil {
			return fmt.Errorf("command solver %q: %w", spec.Name, err)
		}
	}
	return nil
}
