package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/planforge/internal/domain"
	"github.com/Strob0t/planforge/internal/domain/run"
	"github.com/Strob0t/planforge/internal/logger"
	"github.com/Strob0t/planforge/internal/port/messagequeue"
	"github.com/Strob0t/planforge/internal/port/solver"
)

// WorkerService executes run requests received from the message queue.
// Reports reach subscribers through the orchestrator's run events.
type WorkerService struct {
	orch  *OrchestratorService
	queue messagequeue.Queue
}

// NewWorkerService creates a WorkerService.
func NewWorkerService(orch *OrchestratorService, queue messagequeue.Queue) *WorkerService {
	return &WorkerService{orch: orch, queue: queue}
}

// Start subscribes to run requests. The returned func stops the subscription.
func (w *WorkerService) Start(ctx context.Context) (func(), error) {
	stop, err := w.queue.Subscribe(ctx, messagequeue.SubjectRunRequest, w.handle)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", messagequeue.SubjectRunRequest, err)
	}
	slog.Info("worker listening", "subject", messagequeue.SubjectRunRequest)
	return stop, nil
}

func (w *WorkerService) handle(ctx context.Context, _ string, data []byte) error {
	var p messagequeue.RunRequestPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode run request: %w", err)
	}
	if p.RequestID != "" && logger.RequestID(ctx) == "" {
		ctx = logger.WithRequestID(ctx, p.RequestID)
	}

	req, err := p.ToRequest()
	if err == nil {
		var rep *run.Report
		if rep, err = w.orch.Run(ctx, req); err == nil {
			slog.Info("run request served", "request_id", p.RequestID, "run_id", rep.ID)
			return nil
		}
	}
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, solver.ErrUnknownSolver) {
		// Redelivery cannot fix a bad request; tell the sender instead.
		slog.Warn("run request rejected", "request_id", p.RequestID, "error", err)
		return w.reject(ctx, p.RequestID, err)
	}
	return err
}

func (w *WorkerService) reject(ctx context.Context, requestID string, cause error) error {
	data, err := json.Marshal(messagequeue.RunRejectedPayload{RequestID: requestID, Error: cause.Error()})
	if err != nil {
		return err
	}
	return w.queue.Publish(ctx, messagequeue.SubjectRunRejected, data)
}
