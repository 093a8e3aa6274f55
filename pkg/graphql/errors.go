package graphql

import "fmt"

// ErrKind classifies the failures the client core reports as data.
type ErrKind string

// Error kinds.
const (
	// KindTransport covers DNS, connect, TLS, and timeout failures.
	// Transport failures are surfaced, never retried automatically.
	KindTransport ErrKind = "transport"
	// KindProtocol covers malformed subscription frames. A protocol
	// error terminates the affected subscription; the channel keeps
	// serving others.
	KindProtocol ErrKind = "protocol"
	// KindSchemaMalformed covers structurally invalid introspection
	// payloads. No partial catalog is ever produced.
	KindSchemaMalformed ErrKind = "schema_malformed"
	// KindPersistence covers unreadable or unwritable session state.
	// Persistence failures are never fatal to a running session.
	KindPersistence ErrKind = "persistence"
)

// Error is a classified error carried across the core boundary.
type Error struct {
	// Kind identifies the error category.
	Kind ErrKind
	// Message is a human-readable description.
	Message string
	// Timeout is true when the failure was a deadline expiry.
	Timeout bool
	// Err is the underlying cause, if any.
	Err error
}

// NewError creates an Error with the given kind and message, wrapping
// an optional cause.
func NewError(kind ErrKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}
