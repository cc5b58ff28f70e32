package webrtc

import "github.com/vmihailenco/msgpack/v5"

// Data channel message types.
const (
	MessageTypeSync      = "sync"
	MessageTypeAwareness = "awareness"
)

// Message represents all WebRTC data channel messages.
type Message struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// SyncPayload carries an encoded document state.
type SyncPayload struct {
	Update []byte `msgpack:"update"`
}

// AwarenessPayload announces who is on the other end.
type AwarenessPayload struct {
	Name  string `msgpack:"name"`
	Color string `msgpack:"color"`
}

// DecodePayload decodes the message payload into the provided struct.
func (m Message) DecodePayload(v any) error {
	return msgpack.Unmarshal(m.Payload, v)
}

// NewMessage creates a new Message with the given type and payload.
func NewMessage(t string, payload any) (Message, error) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Type:    t,
		Payload: b,
	}, nil
}

// Encode serializes m for the data channel.
func (m Message) Encode() ([]byte, error) {
	return msgpack.Marshal(m)
}

// DecodeMessage parses a data channel frame.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	err := msgpack.Unmarshal(data, &m)
	return m, err
}
