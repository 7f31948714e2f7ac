package solverexec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/planforge/internal/domain/plan"
	"github.com/Strob0t/planforge/internal/port/solver"
)

// writeScript writes an executable shell script and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "solver.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testProblem(timeout time.Duration) solver.Problem {
	return solver.Problem{
		Domain:  "(define (domain blocks))",
		Problem: "(define (problem p1) (:domain blocks))",
		Timeout: timeout,
	}
}

// assertStagingEmpty checks that nothing but empty staging directories remain.
func assertStagingEmpty(t *testing.T, root string) {
	t.Helper()
	dirs, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		t.Fatal(err)
	}
	for _, d := range dirs {
		if !d.IsDir() {
			t.Errorf("unexpected file in staging root: %s", d.Name())
			continue
		}
		entries, err := os.ReadDir(filepath.Join(root, d.Name()))
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			t.Errorf("leftover artifact %s/%s", d.Name(), e.Name())
		}
	}
}

func TestRunnerSingleFile(t *testing.T) {
	script := writeScript(t, `
test -f "$1" || exit 9
test -f "$2" || exit 9
printf '(pick-up a)\n(stack a b)\n; cost = 2 (unit cost)\n' > "$3"
echo "work" > output.sas
`)
	root := t.TempDir()
	r := &Runner{
		SolverName:  "TEST",
		Binary:      script,
		Args:        []string{ArgDomain, ArgProblem, ArgOutput},
		OutputName:  "sas_plan",
		StagingRoot: root,
	}

	set, err := r.Plan(context.Background(), testProblem(5*time.Second))
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(set) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(set))
	}
	if got := set[0].Actions[0].String(); got != "(pick-up a)" {
		t.Fatalf("unexpected first action %s", got)
	}
	assertStagingEmpty(t, root)
}

func TestRunnerMultiFile(t *testing.T) {
	script := writeScript(t, `
for i in 1 2 10; do
  printf '(step-%s x)\n' "$i" > "$1/plan.$i"
done
`)
	root := t.TempDir()
	r := &Runner{
		SolverName:  "MULTI",
		Binary:      script,
		Args:        []string{ArgDir},
		Discover:    Pattern("plan*"),
		StagingRoot: root,
	}

	set, err := r.Plan(context.Background(), testProblem(5*time.Second))
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(set))
	}
	names := make([]string, len(set))
	for i := range set {
		names[i] = set[i].Actions[0].Name
	}
	if got := strings.Join(names, ","); got != "step-1,step-2,step-10" {
		t.Fatalf("unexpected candidates %s", got)
	}
	assertStagingEmpty(t, root)
}

func TestRunnerNoPlanIsEmptySuccess(t *testing.T) {
	script := writeScript(t, "exit 0\n")
	root := t.TempDir()
	r := &Runner{SolverName: "EMPTY", Binary: script, StagingRoot: root}

	set, err := r.Plan(context.Background(), testProblem(5*time.Second))
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %d", len(set))
	}
	assertStagingEmpty(t, root)
}

func TestRunnerNotFound(t *testing.T) {
	root := filepath.Join(t.TempDir(), "staging")
	r := &Runner{SolverName: "GHOST", Binary: "planforge-no-such-solver", StagingRoot: root}

	_, err := r.Plan(context.Background(), testProblem(time.Second))
	if !errors.Is(err, plan.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, statErr := os.Stat(root); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("staging root must not be created when the binary is missing")
	}
	if r.Available() {
		t.Fatal("expected Available() to be false")
	}
}

func TestRunnerTimeoutKillsProcessGroup(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "survived")
	script := writeScript(t, `
(sleep 3; touch "`+marker+`") &
sleep 30
`)
	root := t.TempDir()
	r := &Runner{
		SolverName:  "SLOW",
		Binary:      script,
		StagingRoot: root,
		Grace:       500 * time.Millisecond,
	}

	start := time.Now()
	_, err := r.Plan(context.Background(), testProblem(200*time.Millisecond))
	elapsed := time.Since(start)

	if !errors.Is(err, plan.ErrTimedOut) {
		t.Fatalf("expected ErrTimedOut, got %v", err)
	}
	if elapsed > 3*time.Second {
		t.Fatalf("run took %s, expected prompt termination", elapsed)
	}
	assertStagingEmpty(t, root)

	time.Sleep(3500 * time.Millisecond)
	if _, err := os.Stat(marker); err == nil {
		t.Fatal("background child outlived the timeout")
	}
}

func TestRunnerAbnormalExit(t *testing.T) {
	script := writeScript(t, `
echo "search failed: out of memory" >&2
echo "(partial plan)" > "$1"
exit 3
`)
	root := t.TempDir()
	r := &Runner{
		SolverName:  "CRASH",
		Binary:      script,
		Args:        []string{ArgOutput},
		StagingRoot: root,
	}

	_, err := r.Plan(context.Background(), testProblem(5*time.Second))
	if !errors.Is(err, plan.ErrAbnormalExit) {
		t.Fatalf("expected ErrAbnormalExit, got %v", err)
	}
	if !strings.Contains(err.Error(), "status 3") || !strings.Contains(err.Error(), "out of memory") {
		t.Fatalf("expected exit status and stderr in message, got %q", err.Error())
	}
	assertStagingEmpty(t, root)
}

func TestRunnerParseFailure(t *testing.T) {
	script := writeScript(t, `echo "this is not a plan" > "$1"`+"\n")
	root := t.TempDir()
	r := &Runner{
		SolverName:  "GARBAGE",
		Binary:      script,
		Args:        []string{ArgOutput},
		StagingRoot: root,
	}

	_, err := r.Plan(context.Background(), testProblem(5*time.Second))
	if !errors.Is(err, plan.ErrParseFailure) {
		t.Fatalf("expected ErrParseFailure, got %v", err)
	}
	assertStagingEmpty(t, root)
}

func TestRunnerFilesystemError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	script := writeScript(t, "exit 0\n")
	r := &Runner{SolverName: "FS", Binary: script, StagingRoot: filepath.Join(blocker, "staging")}

	_, err := r.Plan(context.Background(), testProblem(time.Second))
	if !errors.Is(err, plan.ErrFilesystem) {
		t.Fatalf("expected ErrFilesystem, got %v", err)
	}
}

func TestRunnerRemoveStageDir(t *testing.T) {
	script := writeScript(t, "exit 0\n")
	root := t.TempDir()
	r := &Runner{SolverName: "TIDY", Binary: script, StagingRoot: root, RemoveStageDir: true}

	if _, err := r.Plan(context.Background(), testProblem(time.Second)); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected staging root to be empty, found %d entries", len(entries))
	}
}

func TestRunnerTimeoutArg(t *testing.T) {
	script := writeScript(t, `echo "(wait $1)" > "$2"`+"\n")
	r := &Runner{
		SolverName:  "ARGS",
		Binary:      script,
		Args:        []string{ArgTimeout, ArgOutput},
		StagingRoot: t.TempDir(),
	}

	set, err := r.Plan(context.Background(), testProblem(1500*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if got := set[0].Actions[0].String(); got != "(wait 2)" {
		t.Fatalf("expected timeout rounded up to 2, got %s", got)
	}
}

func TestNewStageUnique(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	a, err := NewStage(root, "FD", now)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewStage(root, "FD", now)
	if err != nil {
		t.Fatal(err)
	}
	if a.Dir == b.Dir {
		t.Fatalf("two stages share %s", a.Dir)
	}
	if !strings.Contains(filepath.Base(a.Dir), "20240102T030405") {
		t.Fatalf("expected timestamped dir name, got %s", a.Dir)
	}
}

func TestStageWriteInputs(t *testing.T) {
	s, err := NewStage(t.TempDir(), "a/b", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(filepath.Base(s.Dir), "/") {
		t.Fatalf("solver name not sanitised: %s", s.Dir)
	}

	domainPath, problemPath, err := s.WriteInputs("(define (domain d)\n", "(:action extra)", "(define (problem p))")
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(domainPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "(define (domain d)\n(:action extra)" {
		t.Fatalf("unexpected domain file %q", data)
	}
	if _, err := os.Stat(problemPath); err != nil {
		t.Fatal(err)
	}

	if err := s.Cleanup(false); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(s.Dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty stage, got %d entries", len(entries))
	}
}
