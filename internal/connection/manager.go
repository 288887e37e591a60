package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marketpulse/pushgate/internal/metrics"
	"github.com/marketpulse/pushgate/internal/protocol"
)

// Manager owns one logical push-channel connection: its transport,
// sequence counter, pending-ack bookkeeping, message buffer, and the
// background loops monitoring liveness.
type Manager struct {
	cfg     Config
	logger  *slog.Logger
	events  Events
	redial  Redialer
	metrics *metrics.Recorder

	// mu guards the fields below. The sequence increment and the
	// buffer append must happen as one atomic step, so the transport
	// write also runs under mu to keep wire order aligned with
	// sequence order.
	mu           sync.Mutex
	state        State
	transport    Transport
	seq          uint64
	pendingAcks  map[string]time.Time
	buffer       *messageRing
	subscription *protocol.Subscription

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager in the disconnected state. redial is
// invoked during reconnection to re-establish the transport; a nil
// redialer makes every reconnection attempt fail. Any Events field may
// be nil. A nil logger falls back to slog.Default().
func NewManager(cfg Config, redial Redialer, events Events, logger *slog.Logger) *Manager {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		cfg:         cfg,
		logger:      logger,
		events:      events,
		redial:      redial,
		metrics:     metrics.NewRecorder(cfg.ErrorLogSize),
		state:       StateDisconnected,
		pendingAcks: make(map[string]time.Time),
		buffer:      newMessageRing(cfg.MessageBufferSize),
	}
}

// Connect attaches an established transport and starts the heartbeat
// and ack-monitor loops. The sequence counter is NOT reset, so numbers
// stay monotonic across disconnect/connect cycles of the same manager.
func (m *Manager) Connect(ctx context.Context, t Transport) error {
	m.mu.Lock()
	switch m.state {
	case StateConnecting, StateConnected, StateReconnecting:
		m.mu.Unlock()
		return ErrAlreadyConnected
	case StateClosing:
		m.mu.Unlock()
		return ErrClosing
	}
	old := m.state
	m.state = StateConnecting
	m.mu.Unlock()
	m.stateChanged(old, StateConnecting)

	if t == nil {
		m.metrics.RecordError(ErrNoTransport.Error())
		m.mu.Lock()
		m.state = StateDisconnected
		m.mu.Unlock()
		m.stateChanged(StateConnecting, StateDisconnected)
		return ErrNoTransport
	}

	loopCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.transport = t
	m.cancel = cancel
	m.state = StateConnected
	m.mu.Unlock()
	m.metrics.Connected()

	m.wg.Add(2)
	go m.heartbeatLoop(loopCtx)
	go m.ackMonitorLoop(loopCtx)

	m.stateChanged(StateConnecting, StateConnected)
	m.fire("on_connected", m.events.OnConnected)
	m.logger.Info("connected")
	return nil
}

// Disconnect cancels both background loops, waits for them (bounded by
// ctx), and releases the transport. Idempotent: disconnecting an
// already-closed manager is a no-op and changes no metrics.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	old := m.state
	m.state = StateClosing
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	m.stateChanged(old, StateClosing)

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout, forcing close")
	}

	m.mu.Lock()
	if m.transport != nil {
		m.transport.Close()
		m.transport = nil
	}
	m.state = StateClosed
	m.mu.Unlock()
	m.stateChanged(StateClosing, StateClosed)
	m.fire("on_disconnected", m.events.OnDisconnected)
	m.logger.Info("disconnected")
	return nil
}

// Send stamps the next sequence number on a new message, buffers it,
// and transmits it. Rejected with ErrNotConnected unless the state is
// connected with a transport attached. A transport-level failure is
// recorded and surfaced via OnError but never interrupts the loops.
func (m *Manager) Send(t protocol.MessageType, data map[string]any, requiresAck bool) (protocol.Message, error) {
	msg := protocol.NewMessage(t, data, requiresAck)

	m.mu.Lock()
	if m.state != StateConnected || m.transport == nil {
		m.mu.Unlock()
		return protocol.Message{}, ErrNotConnected
	}

	m.seq++
	msg.SequenceNum = m.seq
	m.buffer.Add(msg)

	raw, err := msg.Encode()
	if err == nil {
		err = m.transport.Send(raw)
	}
	if err == nil && requiresAck {
		m.pendingAcks[msg.ID] = time.Now()
	}
	m.mu.Unlock()

	if err != nil {
		m.metrics.RecordError(err.Error())
		m.logger.Warn("send failed", "type", string(t), "seq", msg.SequenceNum, "error", err)
		m.fireError(err)
		return msg, fmt.Errorf("send %s: %w", t, err)
	}

	m.metrics.MessageSent()
	return msg, nil
}

// Subscribe stores the descriptor in the current-subscription slot
// (replacing any previous one) and sends a subscribe message carrying
// its payload. The stored descriptor is replayed after reconnection.
func (m *Manager) Subscribe(symbols, notificationTypes []string, priceThreshold, sentimentThreshold *float64) (protocol.Message, error) {
	sub := protocol.NewSubscription(symbols, notificationTypes, priceThreshold, sentimentThreshold)

	m.mu.Lock()
	m.subscription = &sub
	m.mu.Unlock()

	return m.Send(protocol.TypeSubscribe, sub.Payload(), true)
}

// Unsubscribe clears the stored descriptor and sends an unsubscribe
// message carrying the cleared subscription's payload.
func (m *Manager) Unsubscribe() (protocol.Message, error) {
	m.mu.Lock()
	sub := m.subscription
	m.subscription = nil
	m.mu.Unlock()

	data := map[string]any{}
	if sub != nil {
		data = sub.Payload()
	}
	return m.Send(protocol.TypeUnsubscribe, data, true)
}

// HandleMessage feeds one inbound frame to the manager. Acknowledge
// messages settle their referenced pending ack; every other type is
// forwarded to the OnMessage callback.
func (m *Manager) HandleMessage(raw []byte) error {
	msg, err := protocol.Decode(raw)
	if err != nil {
		m.metrics.RecordError(err.Error())
		m.logger.Warn("discarding undecodable frame", "error", err)
		return err
	}

	m.mu.Lock()
	m.buffer.Add(msg)
	m.mu.Unlock()
	m.metrics.MessageReceived()

	if msg.Type == protocol.TypeAcknowledge {
		m.AcknowledgeMessage(msg.AckedID())
		return nil
	}

	if m.events.OnMessage != nil {
		m.fire("on_message", func() { m.events.OnMessage(msg) })
	}
	return nil
}

// AcknowledgeMessage settles a pending ack. Acknowledging an unknown
// or already-settled id is a no-op.
func (m *Manager) AcknowledgeMessage(id string) {
	m.mu.Lock()
	delete(m.pendingAcks, id)
	m.mu.Unlock()
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Metrics returns a snapshot of the connection health counters.
func (m *Manager) Metrics() metrics.Snapshot {
	return m.metrics.Snapshot()
}

// Recorder exposes the underlying recorder so callers can attach
// Prometheus collectors.
func (m *Manager) Recorder() *metrics.Recorder {
	return m.metrics
}

// Subscriptions returns the active subscription descriptors in replay
// order (at most one in the current design).
func (m *Manager) Subscriptions() []protocol.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscription == nil {
		return nil
	}
	return []protocol.Subscription{*m.subscription}
}

// RecentMessages returns up to n recently sent and received messages,
// most recent last.
func (m *Manager) RecentMessages(n int) []protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffer.Recent(n)
}

// PendingAcks returns the number of messages still awaiting an
// acknowledgment.
func (m *Manager) PendingAcks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pendingAcks)
}

// heartbeatLoop sends a ping expecting an ack on a fixed interval
// while the connection is connected or reconnecting. Failures to even
// enqueue the ping are counted; the definitive stall signal is the ack
// monitor, not a missed pong.
func (m *Manager) heartbeatLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := m.State()
			if st != StateConnected && st != StateReconnecting {
				continue
			}

			if _, err := m.Send(protocol.TypePing, nil, true); err != nil {
				failures++
				if failures >= heartbeatFailureLimit {
					m.metrics.HeartbeatFailure()
					m.logger.Warn("heartbeat failing", "consecutive", failures)
					failures = 0
				}
				continue
			}
			failures = 0
			m.metrics.HeartbeatSent()
		}
	}
}

// ackMonitorLoop evicts pending acks older than the ack timeout on a
// short interval. A burst of evictions in a single pass declares the
// connection stalled and triggers reconnection.
func (m *Manager) ackMonitorLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.AckCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := m.State()
			if st != StateConnected && st != StateReconnecting {
				continue
			}

			expired := m.evictExpiredAcks()
			if expired > ackBurstThreshold {
				m.logger.Warn("ack timeout burst, connection stalled", "timed_out", expired)
				m.triggerReconnect(ctx)
			}
		}
	}
}

// evictExpiredAcks removes pending acks older than the ack timeout and
// returns how many were evicted in this pass.
func (m *Manager) evictExpiredAcks() int {
	cutoff := time.Now().Add(-m.cfg.AckTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for id, sentAt := range m.pendingAcks {
		if sentAt.Before(cutoff) {
			delete(m.pendingAcks, id)
			expired++
		}
	}
	return expired
}

// triggerReconnect moves connected → reconnecting and starts the
// backoff loop. Only valid from connected; racing triggers collapse
// into one reconnection cycle.
func (m *Manager) triggerReconnect(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateConnected {
		m.mu.Unlock()
		return
	}
	m.state = StateReconnecting
	m.mu.Unlock()
	m.stateChanged(StateConnected, StateReconnecting)

	m.wg.Add(1)
	go m.reconnectLoop(ctx)
}

// reconnectLoop runs capped exponential backoff: the delay starts at
// InitialBackoff and after each attempt is multiplied and clamped to
// MaxBackoff. Success swaps the transport wholesale and replays the
// stored subscription; exhaustion stops both background loops,
// releases the transport, forces disconnected, and reports a fatal
// error. A fresh Connect is required after exhaustion.
func (m *Manager) reconnectLoop(ctx context.Context) {
	defer m.wg.Done()

	delay := m.cfg.InitialBackoff
	for attempt := 1; attempt <= m.cfg.MaxReconnectAttempts; attempt++ {
		m.metrics.ReconnectAttempt()
		if m.events.OnReconnecting != nil {
			a := attempt
			m.fire("on_reconnecting", func() { m.events.OnReconnecting(a) })
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		delay = nextBackoff(delay, m.cfg.BackoffMultiplier, m.cfg.MaxBackoff)

		t, err := m.dial(ctx, attempt)
		if err != nil {
			m.metrics.RecordError(err.Error())
			m.logger.Warn("reconnection attempt failed", "attempt", attempt, "error", err)
			continue
		}

		m.mu.Lock()
		if m.state != StateReconnecting {
			// Disconnect won the race; don't resurrect the connection.
			m.mu.Unlock()
			t.Close()
			return
		}
		if m.transport != nil {
			m.transport.Close()
		}
		m.transport = t
		m.state = StateConnected
		m.mu.Unlock()

		m.metrics.ReconnectSucceeded()
		m.metrics.Connected()
		m.stateChanged(StateReconnecting, StateConnected)
		m.fire("on_connected", m.events.OnConnected)
		m.logger.Info("reconnected", "attempt", attempt)

		m.replaySubscriptions(ctx)
		return
	}

	m.mu.Lock()
	old := m.state
	m.state = StateDisconnected
	cancel := m.cancel
	m.cancel = nil
	t := m.transport
	m.transport = nil
	m.mu.Unlock()

	// Stop the heartbeat and ack-monitor loops with the connection,
	// or a later Connect would start a second pair while the first
	// keeps Disconnect's WaitGroup from ever draining.
	if cancel != nil {
		cancel()
	}
	if t != nil {
		t.Close()
	}

	m.stateChanged(old, StateDisconnected)

	err := fmt.Errorf("reconnection failed after %d attempts", m.cfg.MaxReconnectAttempts)
	m.metrics.RecordError(err.Error())
	m.fireError(err)
	m.logger.Error("reconnection exhausted", "attempts", m.cfg.MaxReconnectAttempts)
}

// nextBackoff returns the capped exponential successor of delay.
func nextBackoff(delay time.Duration, multiplier float64, max time.Duration) time.Duration {
	next := time.Duration(float64(delay) * multiplier)
	if next > max {
		next = max
	}
	return next
}

func (m *Manager) dial(ctx context.Context, attempt int) (Transport, error) {
	if m.redial == nil {
		return nil, ErrNoTransport
	}
	return m.redial(ctx, attempt)
}

// replaySubscriptions resubmits the stored descriptors through the
// normal send path, in stored order, pausing briefly between each to
// avoid bursting the freshly reopened connection.
func (m *Manager) replaySubscriptions(ctx context.Context) {
	m.mu.Lock()
	var subs []protocol.Subscription
	if m.subscription != nil {
		subs = append(subs, *m.subscription)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.ReplayDelay):
		}

		if _, err := m.Send(protocol.TypeSubscribe, sub.Payload(), true); err != nil {
			m.logger.Warn("subscription replay failed", "symbols", sub.Symbols, "error", err)
			continue
		}
		m.logger.Info("subscription replayed", "symbols", sub.Symbols)
	}
}

func (m *Manager) stateChanged(old, new State) {
	if old == new {
		return
	}
	m.logger.Debug("state change", "from", old.String(), "to", new.String())
	if m.events.OnStateChange != nil {
		m.fire("on_state_change", func() { m.events.OnStateChange(old, new) })
	}
}

func (m *Manager) fire(name string, fn func()) {
	invoke(m.logger, name, fn)
}

func (m *Manager) fireError(err error) {
	if m.events.OnError == nil {
		return
	}
	m.fire("on_error", func() { m.events.OnError(err) })
}
