// Package protocol defines the wire types exchanged over a push channel.
//
// Wire format is JSON:
//
//	{"id": "...", "type": "ping", "sequence_number": 7,
//	 "timestamp": "2026-01-02T15:04:05Z", "data": {...}, "requires_ack": true}
//
// Sequence numbers are assigned by the sending connection at send time;
// inbound messages with no sequence carry 0.
package protocol
