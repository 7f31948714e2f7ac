package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Strob0t/planforge/internal/resilience"
	"github.com/Strob0t/planforge/internal/service"
)

const (
	defaultBodyLimit = 4 << 20
	defaultListLimit = 50
	maxListLimit     = 500
	healthTimeout    = 2 * time.Second
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Handlers holds the services behind the HTTP API.
type Handlers struct {
	Orchestrator *service.OrchestratorService
	Breakers     []*resilience.Breaker
	Checks       map[string]HealthCheck
	BodyLimit    int64
	APIVersion   string
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
	Breakers   map[string]string `json:"breakers,omitempty"`
	Solvers    int               `json:"solvers_available"`
}

// Health reports dependency status. Any failing check makes the response
// 503 "degraded"; an open breaker alone does not.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}

	if len(h.Checks) > 0 {
		resp.Components = make(map[string]string, len(h.Checks))
		names := make([]string, 0, len(h.Checks))
		for name := range h.Checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			err := h.Checks[name](ctx)
			cancel()
			if err != nil {
				resp.Components[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Components[name] = "ok"
		}
	}

	if len(h.Breakers) > 0 {
		resp.Breakers = make(map[string]string, len(h.Breakers))
		for _, b := range h.Breakers {
			resp.Breakers[b.Name()] = b.State()
		}
	}

	for _, s := range h.Orchestrator.Solvers() {
		if s.Available {
			resp.Solvers++
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Version returns the API version.
func (h *Handlers) Version(w http.ResponseWriter, _ *http.Request) {
	v := h.APIVersion
	if v == "" {
		v = "dev"
	}
	writeJSON(w, http.StatusOK, map[string]string{"version": v})
}
