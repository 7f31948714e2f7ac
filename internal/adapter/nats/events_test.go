package nats

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/planforge/internal/domain/run"
	"github.com/Strob0t/planforge/internal/port/messagequeue"
	"github.com/Strob0t/planforge/internal/resilience"
)

type publishedMsg struct {
	subject string
	data    []byte
}

type fakeQueue struct {
	mu   sync.Mutex
	msgs []publishedMsg
	err  error
}

func (f *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, publishedMsg{subject, data})
	return nil
}

func (f *fakeQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}
func (f *fakeQueue) Drain() error      { return nil }
func (f *fakeQueue) Close() error      { return nil }
func (f *fakeQueue) IsConnected() bool { return true }

func TestEventPublisherSubjects(t *testing.T) {
	q := &fakeQueue{}
	p := NewEventPublisher(q, resilience.NewBreaker("nats", 3, time.Minute))

	p.BroadcastEvent(context.Background(), run.EventStarted, run.StartedEvent{RunID: "r1", Solvers: []string{"FD"}})
	p.BroadcastEvent(context.Background(), run.EventCompleted, run.CompletedEvent{Report: &run.Report{ID: "r1"}})

	if len(q.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(q.msgs))
	}
	if q.msgs[0].subject != messagequeue.SubjectRunStarted || q.msgs[1].subject != messagequeue.SubjectRunCompleted {
		t.Errorf("unexpected subjects %s, %s", q.msgs[0].subject, q.msgs[1].subject)
	}
	var ev run.StartedEvent
	if err := json.Unmarshal(q.msgs[0].data, &ev); err != nil || ev.RunID != "r1" {
		t.Errorf("bad payload %s: %v", q.msgs[0].data, err)
	}
	for _, m := range q.msgs {
		if err := messagequeue.Validate(m.subject, m.data); err != nil {
			t.Errorf("published payload fails validation: %v", err)
		}
	}
}

func TestEventPublisherBreakerStopsPublishing(t *testing.T) {
	q := &fakeQueue{err: errors.New("nats: timeout")}
	p := NewEventPublisher(q, resilience.NewBreaker("nats", 1, time.Minute))

	p.BroadcastEvent(context.Background(), run.EventStarted, run.StartedEvent{RunID: "r1"})
	q.err = nil
	p.BroadcastEvent(context.Background(), run.EventStarted, run.StartedEvent{RunID: "r2"})

	if len(q.msgs) != 0 {
		t.Errorf("expected open breaker to drop the publish, got %d messages", len(q.msgs))
	}
}

func TestConsumerName(t *testing.T) {
	if got := consumerName("planforge.requests"); got != "planforge-planforge_requests" {
		t.Errorf("consumerName = %q", got)
	}
}

func TestRetryCount(t *testing.T) {
	if retryCount(nil) != 0 {
		t.Error("nil header should count 0")
	}
}
