// Package solverexec implements the invocation protocol shared by every
// external solver adapter: stage inputs in a private directory, run the
// program under a deadline, discover and parse its plan files, and clean up.
package solverexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Strob0t/planforge/internal/domain/plan"
	"github.com/Strob0t/planforge/internal/port/solver"
)

// Placeholders substituted in Runner.Args.
const (
	ArgDomain  = "{domain}"
	ArgProblem = "{problem}"
	ArgOutput  = "{output}"
	ArgDir     = "{dir}"
	ArgTimeout = "{timeout}"
)

// DefaultGrace is how long Wait may block after the process group was killed.
const DefaultGrace = 2 * time.Second

const stderrTail = 2048

// Runner is a configurable solver.Solver backed by an external program.
// Concrete adapters build a Runner with their own binary, arguments,
// discovery rule and parser.
type Runner struct {
	// SolverName is the registry name, e.g. "FD".
	SolverName string
	// Binary is looked up on PATH unless it contains a path separator.
	Binary string
	// Args may use the {domain}, {problem}, {output}, {dir} and {timeout}
	// placeholders. {timeout} is whole seconds, rounded up.
	Args []string
	// OutputName is the base name substituted for {output}.
	OutputName string
	// Discover finds the plan files after a clean exit.
	Discover Discovery
	// Parse parses one plan file. Defaults to ParseIPC.
	Parse Parser
	// StagingRoot is the parent of every per-invocation directory.
	StagingRoot string
	// RemoveStageDir also removes the emptied staging directory.
	RemoveStageDir bool
	// Grace bounds teardown after the deadline. Defaults to DefaultGrace.
	Grace time.Duration

	// lookPath and now are swappable for testing.
	lookPath func(file string) (string, error)
	now      func() time.Time
}

var _ solver.Solver = (*Runner)(nil)

// Name returns the registry name.
func (r *Runner) Name() string { return r.SolverName }

// Available reports whether the binary can be found.
func (r *Runner) Available() bool {
	_, err := r.look(r.Binary)
	return err == nil
}

// Plan runs the solver once. Every error is a *plan.SolverError and the
// staging directory is emptied before returning on every path.
func (r *Runner) Plan(ctx context.Context, p solver.Problem) (plan.CandidateSet, error) {
	if p.Timeout <= 0 {
		return nil, r.fail(plan.KindInternal, "timeout must be > 0", nil)
	}

	bin, err := r.look(r.Binary)
	if err != nil {
		return nil, r.fail(plan.KindNotFound, fmt.Sprintf("could not find %q", r.Binary), err)
	}

	stage, err := NewStage(r.stagingRoot(), r.SolverName, r.clock())
	if err != nil {
		return nil, r.fail(plan.KindFilesystem, "create staging area", err)
	}
	defer func() {
		if err := stage.Cleanup(r.RemoveStageDir); err != nil {
			slog.Warn("staging cleanup failed", "solver", r.SolverName, "dir", stage.Dir, "error", err)
		}
	}()

	domainPath, problemPath, err := stage.WriteInputs(p.Domain, p.ActionExtensions, p.Problem)
	if err != nil {
		return nil, r.fail(plan.KindFilesystem, "stage inputs", err)
	}

	args := r.expandArgs(domainPath, problemPath, stage, p.Timeout)
	if err := r.invoke(ctx, bin, args, stage, p.Timeout); err != nil {
		return nil, err
	}

	files, err := r.discover(stage.Dir)
	if err != nil {
		return nil, r.fail(plan.KindFilesystem, "discover plan files", err)
	}

	parse := r.Parse
	if parse == nil {
		parse = ParseIPC
	}
	set := make(plan.CandidateSet, 0, len(files))
	for _, f := range files {
		pl, err := parseFile(f, parse)
		if err != nil {
			return nil, r.fail(plan.KindParseFailure, "parse "+filepath.Base(f), err)
		}
		set = append(set, pl)
	}

	slog.Debug("solver finished", "solver", r.SolverName, "candidates", len(set))
	return set, nil
}

func (r *Runner) invoke(ctx context.Context, bin string, args []string, stage *Stage, timeout time.Duration) error {
	stdout, err := os.Create(stage.Path(StdoutFile))
	if err != nil {
		return r.fail(plan.KindFilesystem, "create stdout log", err)
	}
	defer func() { _ = stdout.Close() }()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stderr := &tailBuffer{max: stderrTail}
	cmd := exec.CommandContext(runCtx, bin, args...) //nolint:gosec // G204: binary and args come from adapter configuration
	cmd.Dir = stage.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = r.grace()
	configureProcess(cmd)

	slog.Debug("solver starting", "solver", r.SolverName, "binary", bin, "dir", stage.Dir, "timeout", timeout)

	err = cmd.Run()
	if err == nil {
		return nil
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return r.fail(plan.KindTimedOut, fmt.Sprintf("exceeded timeout of %s", timeout), nil)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return r.fail(plan.KindInternal, "invocation cancelled", ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := fmt.Sprintf("exited with status %d", exitErr.ExitCode())
		if tail := strings.TrimSpace(stderr.String()); tail != "" {
			msg += ": " + tail
		}
		return r.fail(plan.KindAbnormalExit, msg, nil)
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return r.fail(plan.KindNotFound, "start solver", err)
	}
	return r.fail(plan.KindAbnormalExit, "run solver", err)
}

func (r *Runner) expandArgs(domainPath, problemPath string, stage *Stage, timeout time.Duration) []string {
	output := r.OutputName
	if output == "" {
		output = "plan"
	}
	repl := strings.NewReplacer(
		ArgDomain, domainPath,
		ArgProblem, problemPath,
		ArgOutput, stage.Path(output),
		ArgDir, stage.Dir,
		ArgTimeout, strconv.Itoa(int(math.Ceil(timeout.Seconds()))),
	)
	args := make([]string, len(r.Args))
	for i, a := range r.Args {
		args[i] = repl.Replace(a)
	}
	return args
}

func (r *Runner) discover(dir string) ([]string, error) {
	if r.Discover == nil {
		output := r.OutputName
		if output == "" {
			output = "plan"
		}
		return SingleFile(output)(dir)
	}
	return r.Discover(dir)
}

func (r *Runner) fail(kind plan.ErrorKind, msg string, err error) error {
	return plan.NewSolverError(kind, r.SolverName, msg, err)
}

func (r *Runner) look(file string) (string, error) {
	if r.lookPath != nil {
		return r.lookPath(file)
	}
	return exec.LookPath(file)
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) grace() time.Duration {
	if r.Grace > 0 {
		return r.Grace
	}
	return DefaultGrace
}

func (r *Runner) stagingRoot() string {
	if r.StagingRoot != "" {
		return r.StagingRoot
	}
	return os.TempDir()
}

func parseFile(path string, parse Parser) (plan.Plan, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is inside our own staging dir
	if err != nil {
		return plan.Plan{}, err
	}
	defer func() { _ = f.Close() }()
	return parse(f)
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
