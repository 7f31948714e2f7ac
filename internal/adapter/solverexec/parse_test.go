package solverexec

import (
	"strings"
	"testing"
)

func TestParseIPC(t *testing.T) {
	input := `
; Fast Downward plan
(pick-up a)
(stack a b)
; cost = 2 (unit cost)
`
	p, err := ParseIPC(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 actions, got %d", p.Len())
	}
	if p.Actions[1].Name != "stack" || strings.Join(p.Actions[1].Args, " ") != "a b" {
		t.Fatalf("unexpected second action %v", p.Actions[1])
	}
	if p.Cost == nil || *p.Cost != 2 {
		t.Fatalf("expected cost 2, got %v", p.Cost)
	}
}

func TestParseIPCTimestamped(t *testing.T) {
	input := "0.000: (move r1 l1 l2) [1.000]\n1.001: (load r1 c1 l2) [2.500]\n"
	p, err := ParseIPC(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"(move r1 l1 l2)", "(load r1 c1 l2)"}
	for i, a := range p.Actions {
		if a.String() != want[i] {
			t.Errorf("action %d = %s, want %s", i, a, want[i])
		}
	}
	if p.Cost != nil {
		t.Fatalf("expected no cost, got %v", *p.Cost)
	}
}

func TestParseIPCEmptyPlan(t *testing.T) {
	p, err := ParseIPC(strings.NewReader("; cost = 0 (unit cost)\n"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 0 {
		t.Fatalf("expected empty plan, got %d actions", p.Len())
	}
}

func TestParseIPCErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bare words", "pick-up a\n"},
		{"empty parens", "()\n"},
		{"nested", "(and (a) (b))\n"},
		{"unterminated", "(pick-up a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseIPC(strings.NewReader(tt.input)); err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
		})
	}
}
