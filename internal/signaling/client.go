package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/BioHazard786/rtcshare/internal/dns"
	"github.com/BioHazard786/rtcshare/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var ErrClosed = errors.New("signaling client closed")

// Client manages the WebSocket connection to one signaling server.
type Client struct {
	serverURL string
	dialer    *websocket.Dialer
	log       *zerolog.Logger

	conn     *websocket.Conn
	incoming chan *Message
	outgoing chan *Message
	done     chan struct{}
	closed   chan struct{}

	closeOnce sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithResolver dials through r instead of the system resolver only.
func WithResolver(r *dns.Resolver) Option {
	return func(c *Client) {
		c.dialer.NetDialContext = r.DialContext
	}
}

// WithLogger sets the client logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a new signaling client.
func NewClient(serverURL string, opts ...Option) *Client {
	dialer := *websocket.DefaultDialer
	c := &Client{
		serverURL: serverURL,
		dialer:    &dialer,
		incoming:  make(chan *Message, 32),
		outgoing:  make(chan *Message, 32),
		done:      make(chan struct{}),
		closed:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.Or(c.log)
	return c
}

// URL is the server this client talks to.
func (c *Client) URL() string {
	return c.serverURL
}

// Connect establishes the WebSocket connection and starts the pumps.
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.serverURL, err)
	}

	c.conn = conn
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.readPump()
	go c.writePump()

	return nil
}

// readPump reads messages from the WebSocket connection. Application-level
// pongs only extend the deadline and are not forwarded.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
		close(c.closed)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Str("server", c.serverURL).Msg("Signaling connection lost")
			}
			return
		}

		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if msg.Type == MessageTypePong {
			continue
		}

		select {
		case c.incoming <- &msg:
		case <-c.done:
			return
		}
	}
}

// writePump writes messages to the WebSocket connection and sends periodic
// pings, both as control frames and as y-webrtc ping messages.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			if err := c.conn.WriteJSON(&Message{Type: MessageTypePing}); err != nil {
				return
			}

		case <-c.closed:
			return

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send queues msg for the server.
func (c *Client) Send(msg *Message) error {
	select {
	case <-c.done:
		return ErrClosed
	case <-c.closed:
		return ErrClosed
	default:
	}

	select {
	case c.outgoing <- msg:
		return nil
	case <-c.done:
		return ErrClosed
	case <-c.closed:
		return ErrClosed
	}
}

// Subscribe joins topics.
func (c *Client) Subscribe(topics ...string) error {
	return c.Send(&Message{Type: MessageTypeSubscribe, Topics: topics})
}

// Unsubscribe leaves topics.
func (c *Client) Unsubscribe(topics ...string) error {
	return c.Send(&Message{Type: MessageTypeUnsubscribe, Topics: topics})
}

// Publish sends data, encoded as JSON, to every subscriber of topic.
func (c *Client) Publish(topic string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode publish data: %w", err)
	}
	return c.Send(&Message{Type: MessageTypePublish, Topic: topic, Data: raw})
}

// Incoming returns the channel for receiving messages. It is closed when the
// connection ends.
func (c *Client) Incoming() <-chan *Message {
	return c.incoming
}

// Closed is closed once the connection has ended for any reason.
func (c *Client) Closed() <-chan struct{} {
	return c.closed
}

// Close closes the WebSocket connection. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
