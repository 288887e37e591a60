package connection

import "github.com/marketpulse/pushgate/internal/protocol"

// messageRing is a fixed-capacity FIFO of recently sent and received
// messages. Once full, each append evicts exactly the oldest entry.
// Not safe for concurrent use; the Manager guards it with its mutex.
type messageRing struct {
	buf   []protocol.Message
	head  int // oldest entry
	count int
}

func newMessageRing(capacity int) *messageRing {
	if capacity < 1 {
		capacity = 1
	}
	return &messageRing{
		buf: make([]protocol.Message, capacity),
	}
}

// Add appends a message, evicting the oldest once full.
func (r *messageRing) Add(m protocol.Message) {
	idx := (r.head + r.count) % len(r.buf)
	r.buf[idx] = m
	if r.count < len(r.buf) {
		r.count++
	} else {
		r.head = (r.head + 1) % len(r.buf)
	}
}

// Len returns the number of buffered messages.
func (r *messageRing) Len() int {
	return r.count
}

// Cap returns the fixed capacity.
func (r *messageRing) Cap() int {
	return len(r.buf)
}

// Recent returns up to n buffered messages, oldest first with the most
// recent entry last. n <= 0 or n > Len returns all buffered messages.
func (r *messageRing) Recent(n int) []protocol.Message {
	if n <= 0 || n > r.count {
		n = r.count
	}
	out := make([]protocol.Message, 0, n)
	start := r.count - n
	for i := start; i < r.count; i++ {
		out = append(out, r.buf[(r.head+i)%len(r.buf)])
	}
	return out
}
