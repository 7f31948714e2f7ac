package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Strob0t/planforge/internal/domain/run"
)

type planOptions struct {
	planner    string
	list       []string
	timeout    float64
	sequential bool
	output     string
}

func newPlanCmd(c *cli) *cobra.Command {
	o := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan [flags] DOMAIN PROBLEM",
		Short: "Solve a PDDL problem with one or more planners",
		Long: `plan reads a PDDL domain and problem file, runs the selected planners and
prints every plan each of them found, one section per planner in the order
given on the command line.`,
		Example: `  planforge plan domain.pddl problem.pddl
  planforge plan -p FD -t 30 domain.pddl problem.pddl
  planforge plan -l FD,LAMA -s -o json domain.pddl problem.pddl`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, c, o, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.planner, "planner", "p", "", "planner to use (default from execution.default_solver)")
	f.StringSliceVarP(&o.list, "list", "l", nil, "comma-separated planners to run")
	f.Float64VarP(&o.timeout, "timeout", "t", 0, "time budget per planner in seconds (default from execution.default_timeout)")
	f.BoolVarP(&o.sequential, "sequential", "s", false, "run planners one after another instead of in parallel")
	f.StringVarP(&o.output, "output", "o", formatAuto, "output format: auto, text or json")
	cmd.MarkFlagsMutuallyExclusive("planner", "list")

	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		defaultHelp(cmd, args)
		printAvailableSolvers(cmd, c)
	})
	return cmd
}

func runPlan(cmd *cobra.Command, c *cli, o *planOptions, domainPath, problemPath string) error {
	format, err := resolveFormat(o.output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	req, err := o.request(domainPath, problemPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, c.cfg, features{})
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.orch.Run(ctx, req)
	if err != nil {
		return err
	}
	return renderReport(cmd.OutOrStdout(), rep, format)
}

// request builds the run request from the flags and input files.
func (o *planOptions) request(domainPath, problemPath string) (run.Request, error) {
	timeout, err := run.TimeoutFromSeconds(o.timeout)
	if err != nil {
		return run.Request{}, err
	}
	dom, err := os.ReadFile(domainPath) //nolint:gosec // G304: path is a CLI argument
	if err != nil {
		return run.Request{}, fmt.Errorf("read domain: %w", err)
	}
	prob, err := os.ReadFile(problemPath) //nolint:gosec // G304: path is a CLI argument
	if err != nil {
		return run.Request{}, fmt.Errorf("read problem: %w", err)
	}

	req := run.Request{
		Domain:  string(dom),
		Problem: string(prob),
		Timeout: timeout,
		Solvers: o.solvers(),
	}
	if o.sequential {
		req.Mode = run.ModeSequential
	}
	return req, nil
}

// solvers returns the selected planner names. Repeated names in --list run
// once, at their first position.
func (o *planOptions) solvers() []string {
	if o.planner != "" {
		return []string{o.planner}
	}
	var out []string
	seen := make(map[string]struct{}, len(o.list))
	for _, name := range o.list {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func printAvailableSolvers(cmd *cobra.Command, c *cli) {
	reg, err := buildRegistry(c.configOrDefaults())
	if err != nil {
		return
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "\nAvailable planners:")
	for _, name := range reg.Available() {
		_, _ = fmt.Fprintf(out, "  %s\n", name)
	}
}
