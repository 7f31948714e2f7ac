// Package broadcast defines the port for fanning run events out to
// interested parties (WebSocket clients, message bus subscribers).
package broadcast

import "context"

// Broadcaster delivers a typed event. Implementations must not block the
// caller for long; delivery is best-effort.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Multi fans an event out to several broadcasters in order.
type Multi []Broadcaster

// BroadcastEvent implements Broadcaster.
func (m Multi) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	for _, b := range m {
		if b != nil {
			b.BroadcastEvent(ctx, eventType, payload)
		}
	}
}
