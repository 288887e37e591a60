// Package connection implements the push-channel lifecycle manager.
//
// One Manager owns one logical connection:
//   - serializes all outbound traffic and stamps sequence numbers
//   - runs a heartbeat loop and an acknowledgment-timeout monitor
//   - reconnects with capped exponential backoff and replays the
//     stored subscription after a successful reconnect
//
// The underlying socket is abstracted behind Transport; socket
// acceptance, framing, and authentication happen before a transport
// is handed to Connect. Inbound frames are fed to HandleMessage by an
// external receive loop.
package connection
