package subscription

import (
	"encoding/json"

	"github.com/gqlnav/gqlnav/pkg/graphql"
)

// EventKind tags the variants of a subscription event.
type EventKind int

// Event kinds.
const (
	// EventData carries a server-pushed execution result.
	EventData EventKind = iota
	// EventError terminates the subscription with an error.
	EventError
	// EventComplete terminates the subscription normally.
	EventComplete
)

func (k EventKind) String() string {
	switch k {
	case EventData:
		return "data"
	case EventError:
		return "error"
	case EventComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Event is one element of a subscription's event sequence. The sequence
// is ordered and terminates with an EventError or EventComplete event,
// or with cancellation by the caller.
type Event struct {
	// Kind selects the variant.
	Kind EventKind
	// Data is the raw execution result payload (EventData only).
	Data json.RawMessage
	// Errors holds GraphQL execution errors reported by the server in
	// an error frame (EventError only).
	Errors []graphql.ResponseError
	// Err is set for transport or protocol failures (EventError only).
	Err *graphql.Error
}
