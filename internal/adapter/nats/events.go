package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/planforge/internal/port/messagequeue"
	"github.com/Strob0t/planforge/internal/resilience"
)

// EventPublisher forwards run events to the bus as JSON on
// "planforge.<event type>", e.g. planforge.run.outcome.
type EventPublisher struct {
	queue   messagequeue.Queue
	breaker *resilience.Breaker
}

// NewEventPublisher creates an EventPublisher. Publishes go through breaker
// so an unreachable server does not slow every run down.
func NewEventPublisher(q messagequeue.Queue, breaker *resilience.Breaker) *EventPublisher {
	return &EventPublisher{queue: q, breaker: breaker}
}

// BroadcastEvent implements broadcast.Broadcaster.
func (p *EventPublisher) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encode event", "type", eventType, "error", err)
		return
	}
	subject := messagequeue.SubjectPrefix + eventType
	err = p.breaker.Execute(func() error {
		return p.queue.Publish(ctx, subject, data)
	})
	if err != nil {
		slog.Warn("publish event failed", "subject", subject, "error", err)
	}
}
