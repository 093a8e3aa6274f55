package subscription

import (
	"log/slog"
	"sync"
)

// Subscription is one active operation multiplexed over a Channel. Its
// event sequence is consumed from Events.
type Subscription struct {
	id     string
	events chan Event
	logger *slog.Logger

	mu       sync.Mutex
	finished bool
}

func newSubscription(id string, buffer int, logger *slog.Logger) *Subscription {
	return &Subscription{
		id:     id,
		events: make(chan Event, buffer),
		logger: logger,
	}
}

// ID returns the protocol-level operation identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Events returns the ordered event sequence. The channel is closed
// after a terminal event (EventError or EventComplete) or after the
// subscription is cancelled.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// deliver queues ev unless the subscription already terminated. A
// terminal event closes the stream. Delivery never blocks the caller:
// a consumer lagging behind the buffer loses the event, which is logged.
func (s *Subscription) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("subscription consumer lagging, dropping event",
			"id", s.id, "kind", ev.Kind.String())
	}
	if ev.Kind != EventData {
		s.finished = true
		close(s.events)
	}
}

// stop terminates the sequence without a terminal event. Used for
// caller cancellation; once stop returns no further event is delivered.
func (s *Subscription) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	close(s.events)
}
