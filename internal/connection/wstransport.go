package connection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrTransportClosed is returned by WSTransport operations after Close.
var ErrTransportClosed = errors.New("transport closed")

// WSTransportConfig configures a WebSocket transport.
type WSTransportConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// WSTransport is a Transport over a single WebSocket connection.
// Writes are serialized; reads are expected from a single external
// receive loop calling Receive.
type WSTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

// DialWS establishes a WebSocket connection and wraps it as a
// Transport. Authentication, if any, happens before this layer via
// whatever headers or URL the caller encodes into cfg.URL.
func DialWS(ctx context.Context, cfg WSTransportConfig) (*WSTransport, error) {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, err
	}

	return NewWSTransport(conn, cfg.WriteTimeout), nil
}

// NewWSTransport wraps an already-established WebSocket connection,
// for instance one accepted server-side by an upgrader.
func NewWSTransport(conn *websocket.Conn, writeTimeout time.Duration) *WSTransport {
	if writeTimeout == 0 {
		writeTimeout = 5 * time.Second
	}
	return &WSTransport{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// Send writes one text frame.
func (t *WSTransport) Send(data []byte) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTransportClosed
	}
	t.mu.Unlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Receive blocks for the next inbound frame. Intended to be called
// from one external receive loop that feeds Manager.HandleMessage.
func (t *WSTransport) Receive() ([]byte, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTransportClosed
	}
	t.mu.Unlock()

	_, data, err := t.conn.ReadMessage()
	return data, err
}

// Close closes the underlying connection. Idempotent.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return t.conn.Close()
}
