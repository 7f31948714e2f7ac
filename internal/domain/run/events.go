package run

import (
	"time"

	"github.com/Strob0t/planforge/internal/domain/plan"
)

// Event types broadcast while a run executes.
const (
	EventStarted   = "run.started"
	EventOutcome   = "run.outcome"
	EventCompleted = "run.completed"
)

// StartedEvent announces a run after every solver name was resolved.
type StartedEvent struct {
	RunID   string        `json:"run_id"`
	Solvers []string      `json:"solvers"`
	Mode    Mode          `json:"mode"`
	Timeout time.Duration `json:"timeout"`
}

// OutcomeEvent carries one solver's outcome as soon as it is known. Index
// is the solver's position in the request.
type OutcomeEvent struct {
	RunID    string        `json:"run_id"`
	Index    int           `json:"index"`
	Solver   string        `json:"solver"`
	Outcome  plan.Outcome  `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Cached   bool          `json:"cached,omitempty"`
}

// CompletedEvent carries the final report.
type CompletedEvent struct {
	Report *Report `json:"report"`
}

// Summary is the listing form of a stored report.
type Summary struct {
	ID         string    `json:"id"`
	Mode       Mode      `json:"mode"`
	Solvers    []string  `json:"solvers"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Summarize returns the listing form of r.
func (r *Report) Summarize() Summary {
	return Summary{
		ID:         r.ID,
		Mode:       r.Mode,
		Solvers:    r.Names(),
		Succeeded:  r.Succeeded(),
		Failed:     r.Failed(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}
