package provider

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/BioHazard786/rtcshare/internal/dns"
	"github.com/BioHazard786/rtcshare/internal/logging"
	"github.com/BioHazard786/rtcshare/internal/randx"
	"github.com/BioHazard786/rtcshare/internal/signal"
	"github.com/BioHazard786/rtcshare/internal/signaling"
	"github.com/BioHazard786/rtcshare/internal/webrtc"
)

const (
	baseMaxConns   = 20
	maxConnsJitter = 15
	minBackoff     = time.Second
	maxBackoff     = 30 * time.Second
)

// WebRTC shares a Document with every peer in a room. Peers find each other
// through the signaling servers and then talk over data channels.
type WebRTC struct {
	topic    string
	peerID   string
	user     User
	doc      Document
	opts     Options
	maxConns int
	resolver *dns.Resolver
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	conns   map[string]*conn
	clients map[*signaling.Client]struct{}
	synced  bool

	peers    signal.Signal
	syncing  signal.Signal
	initial  *Deferred[bool]
	timeout  time.Duration
	race     sync.Once
	disposed atomic.Bool
}

type conn struct {
	peer      *webrtc.Peer
	via       *signaling.Client
	connected bool
	synced    bool
}

var _ Provider = (*WebRTC)(nil)

// New joins the room described by opts. Signaling connections are made in the
// background; a server that cannot be reached is retried with backoff.
func New(ctx context.Context, opts Options) (*WebRTC, error) {
	if opts.Room == "" {
		return nil, NewError("create provider", ErrNoRoom)
	}
	if len(opts.SignalingURLs) == 0 {
		return nil, NewError("create provider", ErrNoSignaling)
	}

	p := &WebRTC{
		topic:    opts.Room + opts.Path,
		peerID:   opts.PeerID,
		user:     claimUser(opts.Awareness, opts.User),
		doc:      opts.Document,
		opts:     opts,
		maxConns: opts.MaxConns,
		resolver: dns.NewResolver(),
		log:      logging.Or(opts.Logger),
		conns:    make(map[string]*conn),
		clients:  make(map[*signaling.Client]struct{}),
		initial:  NewDeferred[bool](),
	}
	if p.peerID == "" {
		p.peerID = randx.UUID()
	}
	if p.maxConns <= 0 {
		p.maxConns = baseMaxConns + randx.Index(maxConnsJitter)
	}
	p.timeout = opts.SyncTimeout
	if p.timeout <= 0 {
		p.timeout = SyncTimeout
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	for _, u := range opts.SignalingURLs {
		go p.connectLoop(u)
	}

	return p, nil
}

// PeerID is this provider's id in the room.
func (p *WebRTC) PeerID() string { return p.peerID }

// Topic is the signaling topic, the room id followed by the document path.
func (p *WebRTC) Topic() string { return p.topic }

// MaxConns is the cap on simultaneous peer connections.
func (p *WebRTC) MaxConns() int { return p.maxConns }

func (p *WebRTC) Ready() <-chan struct{} {
	return p.initial.Done()
}

// RequestInitialContent starts the sync timer on its first call. A sync that
// happened earlier already decided the answer.
func (p *WebRTC) RequestInitialContent(ctx context.Context) (bool, error) {
	p.race.Do(func() { go p.raceInitial(p.timeout) })
	return p.initial.Wait(ctx)
}

func (p *WebRTC) OnSynced(fn func(bool)) func() {
	return p.syncing.Connect(func() { fn(p.Synced()) })
}

func (p *WebRTC) OnPeers(fn func(int)) func() {
	return p.peers.Connect(func() { fn(p.PeerCount()) })
}

// Synced reports whether every connected peer has sent its state.
func (p *WebRTC) Synced() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.synced
}

// PeerCount is the number of peers with an open data channel.
func (p *WebRTC) PeerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectedLocked()
}

func (p *WebRTC) connectedLocked() int {
	n := 0
	for _, c := range p.conns {
		if c.connected {
			n++
		}
	}
	return n
}

func (p *WebRTC) IsDisposed() bool {
	return p.disposed.Load()
}

// Dispose leaves the room and closes every connection. Later calls do nothing.
func (p *WebRTC) Dispose() {
	if !p.disposed.CompareAndSwap(false, true) {
		return
	}
	p.cancel()

	p.mu.Lock()
	clients := make([]*signaling.Client, 0, len(p.clients))
	for c := range p.clients {
		clients = append(clients, c)
	}
	peers := make([]*webrtc.Peer, 0, len(p.conns))
	for _, c := range p.conns {
		if c.peer != nil {
			peers = append(peers, c.peer)
		}
	}
	p.mu.Unlock()

	for _, c := range clients {
		_ = c.Unsubscribe(p.topic)
		c.Close()
	}
	for _, peer := range peers {
		peer.Close()
	}
	p.initial.Resolve(false)
	p.log.Debug().Str("topic", p.topic).Msg("Provider disposed")
}

func (p *WebRTC) raceInitial(timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.initial.Done():
	case <-timer.C:
		if p.initial.Resolve(false) {
			p.log.Debug().Dur("timeout", timeout).Msg("No initial content from peers")
		}
	case <-p.ctx.Done():
		p.initial.Resolve(false)
	}
}

func (p *WebRTC) connectLoop(serverURL string) {
	backoff := minBackoff
	for {
		client := signaling.NewClient(serverURL,
			signaling.WithResolver(p.resolver),
			signaling.WithLogger(p.log),
		)
		if err := client.Connect(p.ctx); err != nil {
			p.log.Warn().Err(err).Str("url", serverURL).Dur("retry", backoff).Msg("Signaling server unreachable")
		} else {
			backoff = minBackoff
			p.serve(client)
		}

		select {
		case <-p.ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// serve joins the room over client and handles messages until the
// connection drops.
func (p *WebRTC) serve(client *signaling.Client) {
	p.mu.Lock()
	if p.ctx.Err() != nil {
		p.mu.Unlock()
		client.Close()
		return
	}
	p.clients[client] = struct{}{}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.clients, client)
		p.mu.Unlock()
		client.Close()
	}()

	if err := client.Subscribe(p.topic); err != nil {
		return
	}
	announce := signaling.RoomMessage{Type: signaling.RoomMessageAnnounce, From: p.peerID}
	if err := client.Publish(p.topic, announce); err != nil {
		return
	}
	p.log.Debug().Str("url", client.URL()).Str("peer", p.peerID).Msg("Joined signaling room")

	for {
		select {
		case <-p.ctx.Done():
			return
		case msg, ok := <-client.Incoming():
			if !ok {
				p.log.Debug().Str("url", client.URL()).Msg("Signaling connection closed")
				return
			}
			p.handle(client, msg)
		}
	}
}

func (p *WebRTC) handle(client *signaling.Client, msg *signaling.Message) {
	if msg.Type != signaling.MessageTypePublish || msg.Topic != p.topic {
		return
	}
	rm, err := msg.DecodeRoomMessage()
	if err != nil {
		p.log.Debug().Err(err).Msg("Ignoring malformed room message")
		return
	}
	if rm.From == "" || rm.From == p.peerID {
		return
	}

	switch rm.Type {
	case signaling.RoomMessageAnnounce:
		p.mu.Lock()
		full := len(p.conns) >= p.maxConns
		_, exists := p.conns[rm.From]
		p.mu.Unlock()
		if full || exists {
			return
		}
		if _, err := p.connect(client, rm.From, true); err != nil {
			p.log.Warn().Err(err).Str("peer", rm.From).Msg("Failed to connect to peer")
		}

	case signaling.RoomMessageSignal:
		if rm.To != p.peerID {
			return
		}
		var payload signaling.SignalPayload
		if err := json.Unmarshal(rm.Signal, &payload); err != nil {
			p.log.Debug().Err(err).Msg("Ignoring malformed signal")
			return
		}

		p.mu.Lock()
		c := p.conns[rm.From]
		p.mu.Unlock()
		if c == nil {
			if c, err = p.connect(client, rm.From, false); err != nil {
				p.log.Warn().Err(err).Str("peer", rm.From).Msg("Failed to accept peer")
				return
			}
		}

		p.mu.Lock()
		peer := c.peer
		p.mu.Unlock()
		if err := peer.HandleSignal(payload); err != nil {
			p.log.Debug().Err(err).Str("peer", rm.From).Str("signal", payload.Type).Msg("Signal rejected")
		}
	}
}

// connect creates the connection to remoteID, or returns the existing one if
// another server's message got there first.
func (p *WebRTC) connect(client *signaling.Client, remoteID string, initiator bool) (*conn, error) {
	c := &conn{via: client}

	peer, err := webrtc.NewPeer(p.opts.ICE, remoteID, initiator, webrtc.Handlers{
		Signal:  func(s signaling.SignalPayload) { p.relay(c, remoteID, s) },
		Open:    func() { p.opened(c, remoteID) },
		Message: func(m webrtc.Message) { p.received(c, remoteID, m) },
		Close:   func() { p.closed(c, remoteID) },
	})
	if err != nil {
		return nil, WrapError("connect", ErrConnectionFailed, err.Error())
	}

	p.mu.Lock()
	if existing, ok := p.conns[remoteID]; ok || p.ctx.Err() != nil {
		p.mu.Unlock()
		peer.Close()
		if existing == nil {
			return nil, NewError("connect", ErrDisposed)
		}
		return existing, nil
	}
	c.peer = peer
	p.conns[remoteID] = c
	p.mu.Unlock()

	p.log.Debug().Str("peer", remoteID).Bool("initiator", initiator).Msg("Peer connection created")
	return c, nil
}

func (p *WebRTC) relay(c *conn, remoteID string, s signaling.SignalPayload) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	msg := signaling.RoomMessage{
		Type:   signaling.RoomMessageSignal,
		From:   p.peerID,
		To:     remoteID,
		Signal: raw,
	}
	if err := c.via.Publish(p.topic, msg); err != nil {
		p.log.Debug().Err(err).Str("peer", remoteID).Msg("Failed to relay signal")
	}
}

func (p *WebRTC) opened(c *conn, remoteID string) {
	p.mu.Lock()
	c.connected = true
	peer := c.peer
	p.mu.Unlock()

	p.log.Info().Str("peer", remoteID).Msg("Peer connected")
	p.peers.Emit()

	if peer == nil {
		return
	}
	if m, err := webrtc.NewMessage(webrtc.MessageTypeAwareness, webrtc.AwarenessPayload{Name: p.user.Name, Color: p.user.Color}); err == nil {
		_ = peer.Send(m)
	}

	var update []byte
	if p.doc != nil {
		snap, err := p.doc.Snapshot()
		if err != nil {
			p.log.Warn().Err(err).Msg("Failed to snapshot document")
		}
		update = snap
	}
	if m, err := webrtc.NewMessage(webrtc.MessageTypeSync, webrtc.SyncPayload{Update: update}); err == nil {
		if err := peer.Send(m); err != nil {
			p.log.Debug().Err(err).Str("peer", remoteID).Msg("Failed to send document state")
		}
	}
}

func (p *WebRTC) received(c *conn, remoteID string, m webrtc.Message) {
	switch m.Type {
	case webrtc.MessageTypeSync:
		var sync webrtc.SyncPayload
		if err := m.DecodePayload(&sync); err != nil {
			p.log.Debug().Err(err).Str("peer", remoteID).Msg("Malformed sync message")
			return
		}
		if p.doc != nil {
			if err := p.doc.Apply(sync.Update); err != nil {
				p.log.Warn().Err(err).Str("peer", remoteID).Msg("Failed to apply document update")
				return
			}
		}
		p.mu.Lock()
		c.synced = true
		p.mu.Unlock()
		p.checkSynced()

	case webrtc.MessageTypeAwareness:
		var aw webrtc.AwarenessPayload
		if err := m.DecodePayload(&aw); err != nil {
			return
		}
		p.log.Info().Str("peer", remoteID).Str("name", aw.Name).Msg("Collaborator joined")
	}
}

func (p *WebRTC) closed(c *conn, remoteID string) {
	p.mu.Lock()
	wasConnected := c.connected
	if p.conns[remoteID] == c {
		delete(p.conns, remoteID)
	}
	p.mu.Unlock()

	if wasConnected {
		p.log.Info().Str("peer", remoteID).Msg("Peer disconnected")
		p.peers.Emit()
	}
	p.checkSynced()
}

// checkSynced recomputes the room sync state and emits on transitions. An
// empty room never becomes synced on its own.
func (p *WebRTC) checkSynced() {
	p.mu.Lock()
	if len(p.conns) == 0 {
		p.mu.Unlock()
		return
	}
	all := true
	for _, c := range p.conns {
		if !c.synced {
			all = false
			break
		}
	}
	changed := all != p.synced
	p.synced = all
	p.mu.Unlock()

	if !changed {
		return
	}
	p.log.Debug().Bool("synced", all).Msg("Sync state changed")
	p.initial.Resolve(all)
	p.syncing.Emit()
}
