package metrics

import (
	"sync"
	"time"
)

// DefaultErrorLogSize bounds the error ring when no size is given.
const DefaultErrorLogSize = 100

// Snapshot is a point-in-time copy of a Recorder, safe to hand to
// concurrent readers.
type Snapshot struct {
	MessagesSent         int64
	MessagesReceived     int64
	ReconnectAttempts    int64
	SuccessfulReconnects int64
	HeartbeatFailures    int64

	ConnectedAt   time.Time
	LastHeartbeat time.Time
	LastMessage   time.Time

	Errors []string
}

// Recorder accumulates connection health counters. All methods are
// safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	messagesSent         int64
	messagesReceived     int64
	reconnectAttempts    int64
	successfulReconnects int64
	heartbeatFailures    int64

	connectedAt   time.Time
	lastHeartbeat time.Time
	lastMessage   time.Time

	// Bounded error ring, oldest evicted first.
	errors   []string
	errHead  int
	errCount int

	collectors *Collectors
}

// NewRecorder creates a recorder whose error log holds at most
// errorLogSize entries. Non-positive sizes fall back to
// DefaultErrorLogSize.
func NewRecorder(errorLogSize int) *Recorder {
	if errorLogSize <= 0 {
		errorLogSize = DefaultErrorLogSize
	}
	return &Recorder{
		errors: make([]string, errorLogSize),
	}
}

// SetCollectors attaches Prometheus collectors that mirror the
// recorder's counters. Optional; a nil recorder set is a no-op.
func (r *Recorder) SetCollectors(c *Collectors) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors = c
}

// MessageSent records one outbound message.
func (r *Recorder) MessageSent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messagesSent++
	r.lastMessage = time.Now()
	if r.collectors != nil {
		r.collectors.messagesSent.Inc()
	}
}

// MessageReceived records one inbound message.
func (r *Recorder) MessageReceived() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messagesReceived++
	r.lastMessage = time.Now()
	if r.collectors != nil {
		r.collectors.messagesReceived.Inc()
	}
}

// ReconnectAttempt records one reconnection attempt.
func (r *Recorder) ReconnectAttempt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconnectAttempts++
	if r.collectors != nil {
		r.collectors.reconnectAttempts.Inc()
	}
}

// ReconnectSucceeded records one successful reconnection.
func (r *Recorder) ReconnectSucceeded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successfulReconnects++
	if r.collectors != nil {
		r.collectors.successfulReconnects.Inc()
	}
}

// HeartbeatFailure records one heartbeat failure.
func (r *Recorder) HeartbeatFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.heartbeatFailures++
	if r.collectors != nil {
		r.collectors.heartbeatFailures.Inc()
	}
}

// HeartbeatSent updates the last heartbeat timestamp.
func (r *Recorder) HeartbeatSent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastHeartbeat = time.Now()
}

// Connected records the connection start time.
func (r *Recorder) Connected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectedAt = time.Now()
}

// RecordError appends an error description, evicting the oldest entry
// once the ring is full.
func (r *Recorder) RecordError(desc string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := (r.errHead + r.errCount) % len(r.errors)
	r.errors[idx] = desc
	if r.errCount < len(r.errors) {
		r.errCount++
	} else {
		r.errHead = (r.errHead + 1) % len(r.errors)
	}
}

// Snapshot returns a copy of the current values. Errors are ordered
// oldest first.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	errs := make([]string, 0, r.errCount)
	for i := 0; i < r.errCount; i++ {
		errs = append(errs, r.errors[(r.errHead+i)%len(r.errors)])
	}

	return Snapshot{
		MessagesSent:         r.messagesSent,
		MessagesReceived:     r.messagesReceived,
		ReconnectAttempts:    r.reconnectAttempts,
		SuccessfulReconnects: r.successfulReconnects,
		HeartbeatFailures:    r.heartbeatFailures,
		ConnectedAt:          r.connectedAt,
		LastHeartbeat:        r.lastHeartbeat,
		LastMessage:          r.lastMessage,
		Errors:               errs,
	}
}
