package connection

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrClosing          = errors.New("connection closing")
	ErrNoTransport      = errors.New("no transport")
)

// State is the lifecycle state of a connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosing
	StateClosed
)

// String returns the lowercase state name used on the wire and in logs.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Transport sends one frame of text to the peer. The Manager owns its
// transport exclusively and replaces it wholesale on reconnect.
type Transport interface {
	Send(data []byte) error
	Close() error
}

// Redialer attempts to re-establish a transport during reconnection.
// attempt is 1-based. Returning an error counts the attempt as failed;
// the manager sleeps its backoff and tries again.
type Redialer func(ctx context.Context, attempt int) (Transport, error)

// ackBurstThreshold is the number of ack timeouts in a single monitor
// pass above which the connection is declared stalled.
const ackBurstThreshold = 2

// heartbeatFailureLimit is the number of consecutive ping enqueue
// failures counted as one heartbeat failure.
const heartbeatFailureLimit = 3

// Config holds Manager tuning knobs.
type Config struct {
	HeartbeatInterval    time.Duration
	AckTimeout           time.Duration
	AckCheckInterval     time.Duration
	MaxReconnectAttempts int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	BackoffMultiplier    float64
	MessageBufferSize    int
	ReplayDelay          time.Duration
	ErrorLogSize         int
}

// Default configuration values.
const (
	DefaultHeartbeatInterval    = 30 * time.Second
	DefaultAckTimeout           = 10 * time.Second
	DefaultAckCheckInterval     = 1 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultInitialBackoff       = 1 * time.Second
	DefaultMaxBackoff           = 30 * time.Second
	DefaultBackoffMultiplier    = 2.0
	DefaultMessageBufferSize    = 100
	DefaultReplayDelay          = 100 * time.Millisecond
)

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.AckTimeout == 0 {
		c.AckTimeout = DefaultAckTimeout
	}
	if c.AckCheckInterval == 0 {
		c.AckCheckInterval = DefaultAckCheckInterval
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	if c.BackoffMultiplier == 0 {
		c.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if c.MessageBufferSize == 0 {
		c.MessageBufferSize = DefaultMessageBufferSize
	}
	if c.ReplayDelay == 0 {
		c.ReplayDelay = DefaultReplayDelay
	}
}
