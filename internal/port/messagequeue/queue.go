// Package messagequeue defines the message queue port (interface) and the
// payloads exchanged over it.
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	// Pending messages are processed; no new messages are accepted.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects used by planforge. Every subject lives under "planforge." so a
// single JetStream stream captures them all.
const (
	SubjectPrefix = "planforge."

	SubjectRunRequest   = "planforge.requests"      // remote clients → worker: run a request
	SubjectRunStarted   = "planforge.run.started"   // a run resolved its solvers and began
	SubjectRunOutcome   = "planforge.run.outcome"   // one solver finished
	SubjectRunCompleted = "planforge.run.completed" // the full report
	SubjectRunRejected  = "planforge.run.rejected"  // worker refused a request before running it
)

// DeadLetterSubject is where messages go after exhausting redelivery.
func DeadLetterSubject(subject string) string {
	return subject + ".dlq"
}
