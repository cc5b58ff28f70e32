package webrtc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/rtcshare/internal/config"
	"github.com/BioHazard786/rtcshare/internal/signaling"
)

// DataChannelLabel names the single channel each peer pair shares.
const DataChannelLabel = "rtcshare"

var (
	ErrChannelNotOpen   = errors.New("channel not open")
	ErrUnexpectedSignal = errors.New("unexpected signal type")
	ErrPeerClosed       = errors.New("peer closed")
)

// Handlers receive peer events. Every field is optional. Callbacks run on
// pion goroutines and must not block.
type Handlers struct {
	// Signal is called with every offer, answer and ICE candidate that must be
	// relayed to the remote peer.
	Signal  func(signaling.SignalPayload)
	Open    func()
	Message func(Message)
	Close   func()
}

// Peer is one WebRTC connection to a remote participant.
type Peer struct {
	RemoteID  string
	Initiator bool

	pc       *pion.PeerConnection
	handlers Handlers

	mu                sync.Mutex
	dc                *pion.DataChannel
	remoteDescription bool
	pending           []pion.ICECandidateInit

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPeerConnection creates a pion peer connection from the ICE config.
func NewPeerConnection(ice config.ICE) (*pion.PeerConnection, error) {
	pc, err := pion.NewPeerConnection(ice.Configuration())
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}
	return pc, nil
}

// NewPeer sets up a connection to remoteID. The initiator opens the data
// channel and sends the offer right away.
func NewPeer(ice config.ICE, remoteID string, initiator bool, h Handlers) (*Peer, error) {
	pc, err := NewPeerConnection(ice)
	if err != nil {
		return nil, err
	}

	p := &Peer{
		RemoteID:  remoteID,
		Initiator: initiator,
		pc:        pc,
		handlers:  h,
		closed:    make(chan struct{}),
	}
	p.setupHandlers()

	if initiator {
		ordered := true
		dc, err := pc.CreateDataChannel(DataChannelLabel, &pion.DataChannelInit{Ordered: &ordered})
		if err != nil {
			pc.Close()
			return nil, fmt.Errorf("create data channel: %w", err)
		}
		p.attach(dc)

		if err := p.offer(); err != nil {
			pc.Close()
			return nil, err
		}
	}

	return p, nil
}

func (p *Peer) setupHandlers() {
	p.pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		raw, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		p.emitSignal(signaling.SignalPayload{Type: signaling.SignalCandidate, Candidate: raw})
	})

	p.pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		switch state {
		case pion.PeerConnectionStateFailed, pion.PeerConnectionStateClosed, pion.PeerConnectionStateDisconnected:
			p.Close()
		}
	})

	p.pc.OnDataChannel(func(dc *pion.DataChannel) {
		if dc.Label() != DataChannelLabel {
			return
		}
		p.attach(dc)
	})
}

func (p *Peer) attach(dc *pion.DataChannel) {
	p.mu.Lock()
	p.dc = dc
	p.mu.Unlock()

	dc.OnOpen(func() {
		if p.handlers.Open != nil {
			p.handlers.Open()
		}
	})
	dc.OnMessage(func(msg pion.DataChannelMessage) {
		m, err := DecodeMessage(msg.Data)
		if err != nil {
			return
		}
		if p.handlers.Message != nil {
			p.handlers.Message(m)
		}
	})
	dc.OnClose(func() {
		p.Close()
	})
}

func (p *Peer) offer() error {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	p.emitSignal(signaling.SignalPayload{Type: signaling.SignalOffer, SDP: offer.SDP})
	return nil
}

// HandleSignal applies an offer, answer or ICE candidate from the remote peer.
func (p *Peer) HandleSignal(payload signaling.SignalPayload) error {
	select {
	case <-p.closed:
		return ErrPeerClosed
	default:
	}

	switch payload.Type {
	case signaling.SignalOffer:
		if err := p.setRemote(pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: payload.SDP}); err != nil {
			return err
		}
		answer, err := p.pc.CreateAnswer(nil)
		if err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		if err := p.pc.SetLocalDescription(answer); err != nil {
			return fmt.Errorf("set local description: %w", err)
		}
		p.emitSignal(signaling.SignalPayload{Type: signaling.SignalAnswer, SDP: answer.SDP})
		return nil

	case signaling.SignalAnswer:
		return p.setRemote(pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: payload.SDP})

	case signaling.SignalCandidate:
		var ice pion.ICECandidateInit
		if err := json.Unmarshal(payload.Candidate, &ice); err != nil {
			return fmt.Errorf("parse ICE candidate: %w", err)
		}
		p.mu.Lock()
		if !p.remoteDescription {
			p.pending = append(p.pending, ice)
			p.mu.Unlock()
			return nil
		}
		p.mu.Unlock()
		if err := p.pc.AddICECandidate(ice); err != nil {
			return fmt.Errorf("add ICE candidate: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnexpectedSignal, payload.Type)
	}
}

// setRemote applies desc and flushes candidates that arrived before it.
func (p *Peer) setRemote(desc pion.SessionDescription) error {
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}

	p.mu.Lock()
	p.remoteDescription = true
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, c := range pending {
		if err := p.pc.AddICECandidate(c); err != nil {
			return fmt.Errorf("add ICE candidate: %w", err)
		}
	}
	return nil
}

// Send writes m to the data channel.
func (p *Peer) Send(m Message) error {
	p.mu.Lock()
	dc := p.dc
	p.mu.Unlock()

	if dc == nil || dc.ReadyState() != pion.DataChannelStateOpen {
		return ErrChannelNotOpen
	}

	data, err := m.Encode()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return dc.Send(data)
}

// Closed is closed once the peer has shut down.
func (p *Peer) Closed() <-chan struct{} {
	return p.closed
}

// Close tears down the connection. The Close handler runs exactly once.
func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
		go func() {
			p.pc.Close()
		}()
		if p.handlers.Close != nil {
			p.handlers.Close()
		}
	})
}

func (p *Peer) emitSignal(payload signaling.SignalPayload) {
	if p.handlers.Signal != nil {
		p.handlers.Signal(payload)
	}
}
