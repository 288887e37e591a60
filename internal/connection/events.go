package connection

import (
	"log/slog"

	"github.com/marketpulse/pushgate/internal/protocol"
)

// Events is the closed set of lifecycle callbacks a business layer can
// observe. Any field may be nil. Callbacks are invoked synchronously
// from the manager's own goroutines; panics are recovered and logged,
// never allowed to unwind into the state machine.
type Events struct {
	OnConnected    func()
	OnDisconnected func()
	OnReconnecting func(attempt int)
	OnStateChange  func(old, new State)
	OnMessage      func(msg protocol.Message)
	OnError        func(err error)
}

// invoke runs fn, recovering and logging any panic.
func invoke(logger *slog.Logger, name string, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("callback panicked", "callback", name, "panic", rec)
		}
	}()
	fn()
}
