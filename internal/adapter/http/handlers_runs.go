package http

import (
	"net/http"

	"github.com/Strob0t/planforge/internal/logger"
	"github.com/Strob0t/planforge/internal/port/messagequeue"
)

type runAccepted struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ListSolvers returns every registered solver and whether it is installed.
func (h *Handlers) ListSolvers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Orchestrator.Solvers())
}

// CreateRun executes a planning request. With ?async=true the run is
// started in the background and 202 is returned with its ID; otherwise
// the response is the finished report.
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSON[messagequeue.RunRequestPayload](w, r, h.bodyLimit())
	if !ok {
		return
	}
	ctx := r.Context()
	if body.RequestID != "" && logger.RequestID(ctx) == "" {
		ctx = logger.WithRequestID(ctx, body.RequestID)
	}
	req, err := body.ToRequest()
	if err != nil {
		writeDomainError(w, err, "")
		return
	}

	if queryBool(r, "async") {
		id, err := h.Orchestrator.Start(ctx, req)
		if err != nil {
			writeDomainError(w, err, "")
			return
		}
		w.Header().Set("Location", "/api/v1/runs/"+id)
		writeJSON(w, http.StatusAccepted, runAccepted{ID: id, Status: "running"})
		return
	}

	rep, err := h.Orchestrator.Run(ctx, req)
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	w.Header().Set("Location", "/api/v1/runs/"+rep.ID)
	writeJSON(w, http.StatusOK, rep)
}

// GetRun returns a finished report.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	rep, err := h.Orchestrator.GetReport(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ListRuns returns report summaries, newest first.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit = min(limit, maxListLimit)

	sums, err := h.Orchestrator.ListReports(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sums)
}

func (h *Handlers) bodyLimit() int64 {
	if h.BodyLimit > 0 {
		return h.BodyLimit
	}
	return defaultBodyLimit
}
