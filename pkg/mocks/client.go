// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/user/vidcast/pkg/ports"
)

// Call records one protocol command sent through the mock client.
type Call struct {
	Method string
	Params json.RawMessage
}

// DebugClient is a mock implementation of ports.DebugClient. Events are
// scripted through Emit and commands are recorded for inspection.
type DebugClient struct {
	CallFunc func(ctx context.Context, method string, params, result interface{}) error

	mu     sync.Mutex
	calls  []Call
	events chan ports.Event
	closed bool
}

// NewDebugClient creates a mock client with a buffered event channel.
func NewDebugClient() *DebugClient {
	return &DebugClient{
		events: make(chan ports.Event, 256),
	}
}

func (m *DebugClient) Call(ctx context.Context, method string, params, result interface{}) error {
	var raw json.RawMessage
	if params != nil {
		raw, _ = json.Marshal(params)
	}
	m.mu.Lock()
	m.calls = append(m.calls, Call{Method: method, Params: raw})
	m.mu.Unlock()

	if m.CallFunc != nil {
		return m.CallFunc(ctx, method, params, result)
	}
	return nil
}

func (m *DebugClient) Events() <-chan ports.Event {
	return m.events
}

func (m *DebugClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}

// Emit delivers a scripted event. params is marshaled to JSON.
func (m *DebugClient) Emit(method string, params interface{}) {
	raw, _ := json.Marshal(params)
	m.events <- ports.Event{Method: method, Params: raw}
}

// EmitRaw delivers a scripted event with a raw JSON payload.
func (m *DebugClient) EmitRaw(method string, params json.RawMessage) {
	m.events <- ports.Event{Method: method, Params: params}
}

// FinishEvents closes the event channel, simulating a clean end of stream.
func (m *DebugClient) FinishEvents() {
	m.Close()
}

// Calls returns a copy of the recorded commands.
func (m *DebugClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns the recorded commands with the given method.
func (m *DebugClient) CallsTo(method string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

var _ ports.DebugClient = (*DebugClient)(nil)
