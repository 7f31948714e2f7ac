package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/Strob0t/planforge/internal/domain/run"
	"github.com/Strob0t/planforge/internal/port/messagequeue"
	"github.com/Strob0t/planforge/internal/service"
)

// loopbackQueue delivers published messages to subscribers synchronously.
type loopbackQueue struct {
	mu        sync.Mutex
	handlers  map[string]messagequeue.Handler
	published map[string][][]byte
}

func newLoopbackQueue() *loopbackQueue {
	return &loopbackQueue{handlers: map[string]messagequeue.Handler{}, published: map[string][][]byte{}}
}

func (q *loopbackQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	q.published[subject] = append(q.published[subject], data)
	h := q.handlers[subject]
	q.mu.Unlock()
	if h != nil {
		return h(ctx, subject, data)
	}
	return nil
}

func (q *loopbackQueue) Subscribe(_ context.Context, subject string, h messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[subject] = h
	return func() {
		q.mu.Lock()
		delete(q.handlers, subject)
		q.mu.Unlock()
	}, nil
}

func (q *loopbackQueue) Drain() error      { return nil }
func (q *loopbackQueue) Close() error      { return nil }
func (q *loopbackQueue) IsConnected() bool { return true }

func (q *loopbackQueue) count(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.published[subject])
}

func publishRequest(t *testing.T, q *loopbackQueue, p messagequeue.RunRequestPayload) error {
	t.Helper()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	return q.Publish(context.Background(), messagequeue.SubjectRunRequest, data)
}

func TestWorkerRunsRequests(t *testing.T) {
	fd := &fakeSolver{name: "FD", set: onePlan("a")}
	svc := newOrchestrator(t, fd)
	hub := &recordingHub{}
	svc.SetBroadcaster(hub)
	q := newLoopbackQueue()

	stop, err := service.NewWorkerService(svc, q).Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	err = publishRequest(t, q, messagequeue.RunRequestPayload{
		RequestID:      "req-1",
		Domain:         "d",
		Problem:        "p",
		Solvers:        []string{"FD"},
		TimeoutSeconds: 1,
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if fd.calls.Load() != 1 {
		t.Fatalf("FD invoked %d times", fd.calls.Load())
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if _, ok := hub.last[run.EventCompleted]; !ok {
		t.Error("expected a completed event")
	}
}

func TestWorkerRejectsUnknownSolver(t *testing.T) {
	fd := &fakeSolver{name: "FD"}
	svc := newOrchestrator(t, fd)
	q := newLoopbackQueue()

	stop, err := service.NewWorkerService(svc, q).Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	err = publishRequest(t, q, messagequeue.RunRequestPayload{RequestID: "req-2", Domain: "d", Problem: "p", Solvers: []string{"NOPE"}})
	if err != nil {
		t.Fatalf("a rejected request must be acked, got %v", err)
	}
	if q.count(messagequeue.SubjectRunRejected) != 1 {
		t.Fatal("expected a rejection message")
	}
	var rej messagequeue.RunRejectedPayload
	q.mu.Lock()
	_ = json.Unmarshal(q.published[messagequeue.SubjectRunRejected][0], &rej)
	q.mu.Unlock()
	if rej.RequestID != "req-2" || rej.Error == "" {
		t.Errorf("unexpected rejection %+v", rej)
	}
	if fd.calls.Load() != 0 {
		t.Error("no solver may run for a rejected request")
	}
}

func TestWorkerRejectsOverflowingTimeout(t *testing.T) {
	fd := &fakeSolver{name: "FD", set: onePlan("a")}
	svc := newOrchestrator(t, fd)
	q := newLoopbackQueue()

	stop, err := service.NewWorkerService(svc, q).Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	err = publishRequest(t, q, messagequeue.RunRequestPayload{RequestID: "req-3", Domain: "d", Problem: "p", TimeoutSeconds: 1e300})
	if err != nil {
		t.Fatalf("a rejected request must be acked, got %v", err)
	}
	if q.count(messagequeue.SubjectRunRejected) != 1 {
		t.Fatal("expected a rejection message")
	}
	if fd.calls.Load() != 0 {
		t.Error("no solver may run for a rejected request")
	}
}
