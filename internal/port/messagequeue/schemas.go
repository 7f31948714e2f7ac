package messagequeue

import (
	"github.com/Strob0t/planforge/internal/domain/run"
)

// RunRequestPayload is a planning request submitted over the bus.
// TimeoutSeconds may be fractional; zero selects the configured default.
type RunRequestPayload struct {
	RequestID        string   `json:"request_id"`
	Domain           string   `json:"domain"`
	Problem          string   `json:"problem"`
	ActionExtensions string   `json:"action_extensions,omitempty"`
	Solvers          []string `json:"solvers,omitempty"`
	TimeoutSeconds   float64  `json:"timeout_seconds,omitempty"`
	Mode             string   `json:"mode,omitempty"`
}

// ToRequest converts the payload into an orchestrator request. It fails
// only when TimeoutSeconds cannot be represented as a duration.
func (p *RunRequestPayload) ToRequest() (run.Request, error) {
	timeout, err := run.TimeoutFromSeconds(p.TimeoutSeconds)
	if err != nil {
		return run.Request{}, err
	}
	return run.Request{
		Domain:           p.Domain,
		Problem:          p.Problem,
		ActionExtensions: p.ActionExtensions,
		Solvers:          p.Solvers,
		Timeout:          timeout,
		Mode:             run.Mode(p.Mode),
	}, nil
}

// RunRejectedPayload reports a request that failed validation or named an
// unknown solver. No solver was started for it.
type RunRejectedPayload struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}
