package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the kind of a wire message.
type MessageType string

const (
	TypePing         MessageType = "ping"
	TypePong         MessageType = "pong"
	TypeSubscribe    MessageType = "subscribe"
	TypeUnsubscribe  MessageType = "unsubscribe"
	TypeNotification MessageType = "notification"
	TypeAcknowledge  MessageType = "acknowledge"
	TypeError        MessageType = "error"
	TypeStateChange  MessageType = "state_change"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case TypePing, TypePong, TypeSubscribe, TypeUnsubscribe,
		TypeNotification, TypeAcknowledge, TypeError, TypeStateChange:
		return true
	}
	return false
}

// Message is the unit of wire communication. A Message is immutable
// after construction; the sequence number is stamped by the owning
// connection at send time.
type Message struct {
	ID          string         `json:"id"`
	Type        MessageType    `json:"type"`
	SequenceNum uint64         `json:"sequence_number"`
	Timestamp   time.Time      `json:"timestamp"`
	Data        map[string]any `json:"data"`
	RequiresAck bool           `json:"requires_ack"`
}

// NewMessage constructs a message with a fresh id and the current time.
// The sequence number is left at 0 until the message is sent.
func NewMessage(t MessageType, data map[string]any, requiresAck bool) Message {
	if data == nil {
		data = map[string]any{}
	}
	return Message{
		ID:          uuid.NewString(),
		Type:        t,
		Timestamp:   time.Now().UTC(),
		Data:        data,
		RequiresAck: requiresAck,
	}
}

// AckFor builds an acknowledge message referencing the given message id.
func AckFor(id string) Message {
	return NewMessage(TypeAcknowledge, map[string]any{"message_id": id}, false)
}

// AckedID returns the message id an acknowledge message refers to.
// Returns "" if the message is not an acknowledge or carries no id.
func (m Message) AckedID() string {
	if m.Type != TypeAcknowledge {
		return ""
	}
	id, _ := m.Data["message_id"].(string)
	return id
}

// Encode serializes the message to its JSON wire form.
func (m Message) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}

// Decode parses a JSON wire frame into a Message.
func Decode(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if !m.Type.Valid() {
		return Message{}, fmt.Errorf("decode message: unknown type %q", m.Type)
	}
	return m, nil
}
