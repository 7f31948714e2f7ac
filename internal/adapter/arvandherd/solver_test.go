package arvandherd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Strob0t/planforge/internal/adapter/solverexec"
	"github.com/Strob0t/planforge/internal/port/solver"
)

func TestPlanCollectsEveryPlanFile(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "arvand-herd-planner")
	script := `#!/bin/sh
test -f "$1" && test -f "$2" || exit 3
printf '(walk a b)\n' > "$3.1"
printf '(walk a c)\n(walk c b)\n' > "$3.2"
printf '(walk a d)\n(walk d b)\n' > "$3.3"
`
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	s := New(solverexec.Options{Binary: bin, StagingRoot: t.TempDir()})
	set, err := s.Plan(context.Background(), solver.Problem{
		Domain:  "(define (domain d))",
		Problem: "(define (problem p))",
		Timeout: time.Second,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(set))
	}
}

func TestRegister(t *testing.T) {
	reg := solver.NewRegistry()
	if err := Register(reg, solverexec.Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Lookup(Name); err != nil {
		t.Fatalf("lookup %s: %v", Name, err)
	}
}
