/*
Package signalserver is a y-webrtc compatible signaling server. Peers subscribe
to opaque room topics and publish announcements and WebRTC signals to each
other; the server never sees document content or human-readable room names.
*/
package signalserver

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/BioHazard786/rtcshare/internal/logging"
	"github.com/BioHazard786/rtcshare/internal/signaling"
)

// Hub owns every topic and subscription. All state is touched only from Run.
type Hub struct {
	topics map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	stats      chan chan Stats
	quit       chan struct{}

	log *zerolog.Logger
}

type inbound struct {
	client *Client
	msg    *signaling.Message
}

// Stats is a point-in-time view of the hub.
type Stats struct {
	Clients       int `json:"clients"`
	Topics        int `json:"topics"`
	Subscriptions int `json:"subscriptions"`
}

// NewHub creates a new Hub instance.
func NewHub(log *zerolog.Logger) *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 64),
		stats:      make(chan chan Stats),
		quit:       make(chan struct{}),
		log:        logging.Or(log),
	}
}

// Run is the hub's event loop. It returns after Shutdown.
func (h *Hub) Run() {
	clients := make(map[*Client]struct{})

	for {
		select {
		case client := <-h.register:
			clients[client] = struct{}{}
			h.log.Debug().Str("remote", client.remote).Msg("Client registered")

		case client := <-h.unregister:
			if _, ok := clients[client]; !ok {
				continue
			}
			delete(clients, client)
			for topic := range client.topics {
				h.leave(topic, client)
			}
			close(client.send)
			h.log.Debug().Str("remote", client.remote).Msg("Client unregistered")

		case in := <-h.inbound:
			if _, ok := clients[in.client]; !ok {
				continue
			}
			h.handle(in.client, in.msg)

		case reply := <-h.stats:
			st := Stats{Clients: len(clients), Topics: len(h.topics)}
			for _, subs := range h.topics {
				st.Subscriptions += len(subs)
			}
			reply <- st

		case <-h.quit:
			for client := range clients {
				close(client.send)
			}
			return
		}
	}
}

// Shutdown stops Run and closes every client's send queue.
func (h *Hub) Shutdown() {
	close(h.quit)
}

// Stats asks the event loop for current counts.
func (h *Hub) Stats() Stats {
	reply := make(chan Stats, 1)
	select {
	case h.stats <- reply:
		return <-reply
	case <-h.quit:
		return Stats{}
	}
}

func (h *Hub) handle(client *Client, msg *signaling.Message) {
	switch msg.Type {
	case signaling.MessageTypeSubscribe:
		for _, topic := range msg.Topics {
			if topic == "" {
				continue
			}
			subs, ok := h.topics[topic]
			if !ok {
				subs = make(map[*Client]struct{})
				h.topics[topic] = subs
			}
			subs[client] = struct{}{}
			client.topics[topic] = struct{}{}
		}

	case signaling.MessageTypeUnsubscribe:
		for _, topic := range msg.Topics {
			h.leave(topic, client)
			delete(client.topics, topic)
		}

	case signaling.MessageTypePublish:
		if msg.Topic == "" {
			return
		}
		subs := h.topics[msg.Topic]
		out := &signaling.Message{
			Type:    signaling.MessageTypePublish,
			Topic:   msg.Topic,
			Data:    json.RawMessage(msg.Data),
			Clients: len(subs),
		}
		for sub := range subs {
			h.deliver(sub, out)
		}

	case signaling.MessageTypePing:
		h.deliver(client, &signaling.Message{Type: signaling.MessageTypePong})

	default:
		h.log.Debug().Str("type", msg.Type).Msg("Unknown message type")
	}
}

// deliver drops messages for clients whose queue is full; a stalled reader
// must not block the hub.
func (h *Hub) deliver(client *Client, msg *signaling.Message) {
	select {
	case client.send <- msg:
	default:
		h.log.Warn().Str("remote", client.remote).Msg("Client send queue full, dropping message")
	}
}

func (h *Hub) leave(topic string, client *Client) {
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}
