package signaling

import "encoding/json"

// Message is the y-webrtc signaling wire format shared by the client and the
// bundled server.
type Message struct {
	Type    string          `json:"type"`
	Topics  []string        `json:"topics,omitempty"`
	Topic   string          `json:"topic,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Clients int             `json:"clients,omitempty"`
}

// Message type constants.
const (
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypePublish     = "publish"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// RoomMessage is the payload published to a room topic.
type RoomMessage struct {
	Type   string          `json:"type"`
	From   string          `json:"from"`
	To     string          `json:"to,omitempty"`
	Signal json.RawMessage `json:"signal,omitempty"`
}

// Room message types.
const (
	RoomMessageAnnounce = "announce"
	RoomMessageSignal   = "signal"
)

// SignalPayload is a WebRTC offer, answer or ICE candidate.
type SignalPayload struct {
	Type      string          `json:"type"`
	SDP       string          `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// Signal payload types.
const (
	SignalOffer     = "offer"
	SignalAnswer    = "answer"
	SignalCandidate = "candidate"
)

// DecodeRoomMessage parses the data of a publish message.
func (m *Message) DecodeRoomMessage() (*RoomMessage, error) {
	var rm RoomMessage
	if err := json.Unmarshal(m.Data, &rm); err != nil {
		return nil, err
	}
	return &rm, nil
}
