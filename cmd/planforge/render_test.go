package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/planforge/internal/domain/plan"
	"github.com/Strob0t/planforge/internal/domain/run"
)

func sampleReport() *run.Report {
	return &run.Report{
		ID:   "r1",
		Mode: run.ModeParallel,
		Entries: []run.Entry{
			{
				Solver:   "FD",
				Outcome:  plan.Succeeded(plan.CandidateSet{plan.New([]plan.GroundedAction{plan.NewAction("move", "a", "b")}, nil)}),
				Duration: 1234 * time.Microsecond,
				Cached:   true,
			},
			{
				Solver:   "LAMA",
				Outcome:  plan.Failed(plan.KindTimedOut, "exceeded timeout of 1s"),
				Duration: time.Second,
			},
		},
	}
}

func TestResolveFormat(t *testing.T) {
	var buf bytes.Buffer
	tests := map[string]string{
		"":     formatText,
		"auto": formatText,
		"TEXT": formatText,
		"json": formatJSON,
	}
	for flag, want := range tests {
		got, err := resolveFormat(flag, &buf)
		if err != nil {
			t.Fatalf("%q: %v", flag, err)
		}
		if got != want {
			t.Errorf("%q resolved to %s, want %s", flag, got, want)
		}
	}
	if _, err := resolveFormat("xml", &buf); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := renderReport(&buf, sampleReport(), formatText); err != nil {
		t.Fatal(err)
	}
	want := "Planner FD:\ncandidate 1:\n(move a b)\n\nPlanner LAMA:\nfailed (timed_out): exceeded timeout of 1s\n\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestRenderStyled(t *testing.T) {
	var buf bytes.Buffer
	if err := renderReport(&buf, sampleReport(), formatStyled); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{"Planner FD:", "(move a b)", "1ms, cached", "Planner LAMA:", "exceeded timeout of 1s"} {
		if !strings.Contains(out, s) {
			t.Errorf("styled output missing %q:\n%s", s, out)
		}
	}
	if strings.Index(out, "Planner FD:") > strings.Index(out, "Planner LAMA:") {
		t.Error("entries out of order")
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderReport(&buf, sampleReport(), formatJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"error_kind": "timed_out"`) {
		t.Fatalf("unexpected json:\n%s", buf.String())
	}
}
