// Package wsclient implements the engine API over the engine's JSON-frame
// websocket protocol.
//
// Every frame is `{"type": ..., "request_id": ..., "payload": ...}`.
// Request/response calls carry a generated request id echoed by the engine;
// frames of type "event" carry push events and are fanned out to
// subscribers. Error replies carry a machine code and a human message.
package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/arbourlane/vigil/internal/engine"
	"github.com/arbourlane/vigil/internal/platform/id"
)

const eventFrameType = "event"

type frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Code      string          `json:"code,omitempty"`
	Message   string          `json:"message,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// CallError is a coded error reply from the engine.
type CallError struct {
	Code    string
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("engine call failed: %s: %s", e.Code, e.Message)
}

// Client speaks the engine frame protocol over a single websocket
// connection. It is safe for concurrent use.
type Client struct {
	conn *websocket.Conn

	encMu sync.Mutex
	enc   *json.Encoder

	mu          sync.Mutex
	pending     map[string]chan frame
	handlers    map[int]func(engine.Event)
	nextHandler int

	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the engine websocket endpoint and starts the read loop.
func Dial(url, origin string) (*Client, error) {
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, fmt.Errorf("dial engine %s: %w", url, err)
	}
	c := &Client{
		conn:     conn,
		enc:      json.NewEncoder(conn),
		pending:  make(map[string]chan frame),
		handlers: make(map[int]func(engine.Event)),
		closed:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the connection. Pending calls fail with ErrUnavailable.
func (c *Client) Close() error {
	c.shutdown(engine.ErrUnavailable)
	return nil
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.closeErr = err
		close(c.closed)
		_ = c.conn.Close()
	})
}

func (c *Client) readLoop() {
	decoder := json.NewDecoder(c.conn)
	for {
		var f frame
		if err := decoder.Decode(&f); err != nil {
			if !errors.Is(err, io.EOF) && !isClosed(c.closed) {
				log.Printf("engine: read frame: %v", err)
			}
			c.shutdown(fmt.Errorf("%w: %v", engine.ErrUnavailable, err))
			return
		}
		if f.Type == eventFrameType {
			c.dispatchEvent(f.Payload)
			continue
		}
		if f.RequestID == "" {
			log.Printf("engine: dropping frame type %q without request id", f.Type)
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[f.RequestID]
		delete(c.pending, f.RequestID)
		c.mu.Unlock()
		if !ok {
			// Late reply for a caller that already gave up.
			continue
		}
		ch <- f
	}
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func (c *Client) dispatchEvent(payload json.RawMessage) {
	var evt engine.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		log.Printf("engine: decode event payload: %v", err)
		return
	}
	c.mu.Lock()
	handlers := make([]func(engine.Event), 0, len(c.handlers))
	for i := 1; i <= c.nextHandler; i++ {
		if h, ok := c.handlers[i]; ok {
			handlers = append(handlers, h)
		}
	}
	c.mu.Unlock()
	for _, h := range handlers {
		h(evt)
	}
}

// Subscribe registers a push handler until its unsubscribe is called.
func (c *Client) Subscribe(handler func(engine.Event)) (func(), error) {
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	if isClosed(c.closed) {
		return nil, engine.ErrUnavailable
	}
	c.mu.Lock()
	c.nextHandler++
	handlerID := c.nextHandler
	c.handlers[handlerID] = handler
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.handlers, handlerID)
		c.mu.Unlock()
	}, nil
}

func (c *Client) call(ctx context.Context, frameType string, payload, out any) error {
	if isClosed(c.closed) {
		return engine.ErrUnavailable
	}

	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", frameType, err)
		}
		raw = encoded
	}

	requestID := id.New()
	reply := make(chan frame, 1)
	c.mu.Lock()
	c.pending[requestID] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, requestID)
		c.mu.Unlock()
	}()

	c.encMu.Lock()
	err := c.enc.Encode(frame{Type: frameType, RequestID: requestID, Payload: raw})
	c.encMu.Unlock()
	if err != nil {
		return fmt.Errorf("write %s frame: %w", frameType, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return c.closeErr
	case f := <-reply:
		if f.Type == "error" {
			if f.Code == "NOT_FOUND" {
				return fmt.Errorf("%w: %s", engine.ErrNotFound, f.Message)
			}
			return &CallError{Code: f.Code, Message: f.Message}
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(f.Payload, out); err != nil {
			return fmt.Errorf("decode %s reply: %w", frameType, err)
		}
		return nil
	}
}
