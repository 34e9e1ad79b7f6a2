// Package cdpclient provides a DevTools protocol client over a websocket.
package cdpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/user/vidcast/pkg/ports"
)

// eventQueueDepth bounds the notification channel. Screencast delivery is
// ack-gated, so the queue stays shallow as long as the session keeps
// consuming; a full queue blocks the read loop rather than dropping or
// reordering events.
const eventQueueDepth = 64

// wire buffer sizes; screencast payloads are full JPEG frames.
const readBufferSize = 1 << 20

var errClosed = errors.New("cdpclient: client closed")

// message is the JSON wire format shared by commands, responses and events.
type message struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *responseError  `json:"error,omitempty"`
}

// responseError is the error object of a failed command.
type responseError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

// Client implements ports.DebugClient over a single websocket connection
// to a page-target debugger URL.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex // serializes writes to the websocket

	mu        sync.Mutex
	nextID    int64
	pending   map[int64]chan *message
	forgotten map[int64]struct{} // abandoned calls whose reply may still arrive
	err       error

	events chan ports.Event
	done   chan struct{}
}

// Dial connects to the debugger websocket endpoint and starts the read loop.
func Dial(ctx context.Context, debuggerURL string) (*Client, error) {
	dialer := websocket.Dialer{
		ReadBufferSize:  readBufferSize,
		WriteBufferSize: 4096,
	}
	conn, _, err := dialer.DialContext(ctx, debuggerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ports.ErrConnectionLost, debuggerURL, err)
	}

	c := &Client{
		conn:      conn,
		nextID:    1,
		pending:   make(map[int64]chan *message),
		forgotten: make(map[int64]struct{}),
		events:    make(chan ports.Event, eventQueueDepth),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Call sends a command and waits for the matching response.
func (c *Client) Call(ctx context.Context, method string, params, result interface{}) error {
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal %s params: %w", method, err)
		}
		raw = b
	}

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	id := c.nextID
	c.nextID++
	ch := make(chan *message, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(message{ID: id, Method: method, Params: raw})
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return fmt.Errorf("%w: send %s: %v", ports.ErrConnectionLost, method, err)
	}

	select {
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	case <-c.done:
		return c.terminalErr()
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("%w: %s: %s (code %d)", ports.ErrProtocol, method, resp.Error.Message, resp.Error.Code)
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("%w: unmarshal %s result: %v", ports.ErrProtocol, method, err)
			}
		}
		return nil
	}
}

// Events returns the notification stream in connection arrival order.
func (c *Client) Events() <-chan ports.Event {
	return c.events
}

// Close tears down the connection. Pending calls fail with the terminal
// error and the event channel is closed.
func (c *Client) Close() error {
	c.fail(errClosed)
	return nil
}

// readLoop delivers responses to their pending callers and notifications to
// the event channel, in the order the connection received them.
func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(fmt.Errorf("%w: read: %v", ports.ErrConnectionLost, err))
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.fail(fmt.Errorf("%w: malformed message: %v", ports.ErrProtocol, err))
			return
		}

		switch {
		case msg.ID != 0:
			c.mu.Lock()
			ch, ok := c.pending[msg.ID]
			delete(c.pending, msg.ID)
			if !ok {
				// A caller may have abandoned its call (context expired)
				// before the reply landed. That reply is discarded; only a
				// response to an id this client never issued is fatal.
				if _, abandoned := c.forgotten[msg.ID]; abandoned {
					delete(c.forgotten, msg.ID)
					c.mu.Unlock()
					continue
				}
				c.mu.Unlock()
				c.fail(fmt.Errorf("%w: response for unknown id %d", ports.ErrProtocol, msg.ID))
				return
			}
			c.mu.Unlock()
			ch <- &msg
		case msg.Method != "":
			select {
			case c.events <- ports.Event{Method: msg.Method, Params: msg.Params}:
			case <-c.done:
				return
			}
		default:
			c.fail(fmt.Errorf("%w: message with neither id nor method", ports.ErrProtocol))
			return
		}
	}
}

// fail records the terminal error once, wakes pending callers and closes
// the event stream.
func (c *Client) fail(err error) {
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return
	}
	c.err = err
	c.pending = nil
	c.forgotten = nil
	c.mu.Unlock()

	close(c.done)
	close(c.events)
	c.conn.Close()
}

// forget abandons a call whose caller gave up waiting. If the response has
// not been delivered yet, the id is remembered so the read loop can discard
// the late reply instead of treating it as a protocol violation.
func (c *Client) forget(id int64) {
	c.mu.Lock()
	if _, ok := c.pending[id]; ok {
		delete(c.pending, id)
		if c.forgotten != nil {
			c.forgotten[id] = struct{}{}
		}
	}
	c.mu.Unlock()
}

func (c *Client) terminalErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return errClosed
}

// Ensure Client implements ports.DebugClient
var _ ports.DebugClient = (*Client)(nil)
