package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/planforge/internal/domain/run"
	"github.com/Strob0t/planforge/internal/port/broadcast"
)

var _ broadcast.Broadcaster = (*Hub)(nil)

// BroadcastEvent marshals a run event and queues it for subscribed clients.
func (h *Hub) BroadcastEvent(_ context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	}, runIDOf(payload))
}

// runIDOf extracts the run an event belongs to, or "".
func runIDOf(payload any) string {
	switch e := payload.(type) {
	case run.StartedEvent:
		return e.RunID
	case run.OutcomeEvent:
		return e.RunID
	case run.CompletedEvent:
		if e.Report != nil {
			return e.Report.ID
		}
	}
	return ""
}
