// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"encoding/json"
)

// Event is an unsolicited notification received from the debug target.
type Event struct {
	Method string
	Params json.RawMessage
}

// DebugClient abstracts a single bidirectional connection to a remote
// debugging target. It multiplexes request/response pairs and event
// notifications over one message-oriented transport.
type DebugClient interface {
	// Call sends a command and blocks until the matching response arrives
	// or ctx is done. params is marshaled as the command payload; when
	// result is non-nil the response payload is unmarshaled into it.
	// Safe for concurrent use.
	Call(ctx context.Context, method string, params, result interface{}) error

	// Events returns the stream of notifications in connection arrival
	// order. The channel is closed when the connection terminates.
	Events() <-chan Event

	// Close tears down the connection. Pending calls fail.
	Close() error
}
