// Package run defines the execution request handed to the orchestrator and
// the report it returns.
package run

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/planforge/internal/domain/plan"
)

// Mode selects how the requested solvers are dispatched.
type Mode string

const (
	ModeParallel   Mode = "parallel"
	ModeSequential Mode = "sequential"
)

// ParseMode converts a string to a Mode. The empty string maps to ModeParallel.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeParallel:
		return ModeParallel, nil
	case ModeSequential:
		return ModeSequential, nil
	}
	return "", fmt.Errorf("invalid mode %q: must be parallel or sequential", s)
}

// Request describes one orchestrator run. Domain and Problem are opaque PDDL
// text owned by the caller.
type Request struct {
	Domain           string        `json:"domain"`
	Problem          string        `json:"problem"`
	ActionExtensions string        `json:"action_extensions,omitempty"`
	Solvers          []string      `json:"solvers,omitempty"`
	Timeout          time.Duration `json:"timeout"`
	Mode             Mode          `json:"mode,omitempty"`
}

// Entry is one solver's outcome within a report.
type Entry struct {
	Solver   string        `json:"solver"`
	Outcome  plan.Outcome  `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Cached   bool          `json:"cached,omitempty"`
}

// Report lists exactly one entry per requested solver, in request order.
type Report struct {
	ID         string        `json:"id"`
	Mode       Mode          `json:"mode"`
	Timeout    time.Duration `json:"timeout"`
	Entries    []Entry       `json:"entries"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Names returns the solver names in report order.
func (r *Report) Names() []string {
	names := make([]string, len(r.Entries))
	for i := range r.Entries {
		names[i] = r.Entries[i].Solver
	}
	return names
}

// Succeeded returns the number of successful entries.
func (r *Report) Succeeded() int {
	n := 0
	for i := range r.Entries {
		if r.Entries[i].Outcome.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed entries.
func (r *Report) Failed() int { return len(r.Entries) - r.Succeeded() }

// Outcome returns the outcome for the named solver.
func (r *Report) Outcome(solver string) (plan.Outcome, bool) {
	for i := range r.Entries {
		if r.Entries[i].Solver == solver {
			return r.Entries[i].Outcome, true
		}
	}
	return plan.Outcome{}, false
}

// String renders every entry as "Planner NAME:" followed by its outcome.
func (r *Report) String() string {
	var b strings.Builder
	for i := range r.Entries {
		e := &r.Entries[i]
		fmt.Fprintf(&b, "Planner %s:\n%s\n", e.Solver, e.Outcome.String())
	}
	return b.String()
}
