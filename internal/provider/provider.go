/*
Package provider adapts a shared document to a peer-to-peer transport. The
WebRTC implementation follows the y-webrtc room protocol; Mock stands in when
sharing is disabled so callers never need a nil check.
*/
package provider

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BioHazard786/rtcshare/internal/config"
)

// SyncTimeout bounds how long RequestInitialContent waits for the first sync.
const SyncTimeout = time.Second

// Provider is the transport-facing side of a shared document.
type Provider interface {
	// Ready is closed once the initial sync race has been decided.
	Ready() <-chan struct{}
	// RequestInitialContent reports whether content arrived from a peer
	// within SyncTimeout of the first call. The answer is computed once.
	RequestInitialContent(ctx context.Context) (bool, error)
	OnSynced(fn func(synced bool)) func()
	OnPeers(fn func(count int)) func()
	PeerCount() int
	Dispose()
	IsDisposed() bool
}

// Document is the shared state. Merging is up to the implementation.
type Document interface {
	Snapshot() ([]byte, error)
	Apply(update []byte) error
}

// User is what collaborators see of each other.
type User struct {
	Name  string
	Color string
}

// Awareness holds the local user's presence state.
type Awareness interface {
	LocalUser() (User, bool)
	SetLocalUser(User)
}

// Options configures a provider.
type Options struct {
	// Room is the hashed room id; Path is appended to form the topic.
	Room          string
	Path          string
	User          User
	SignalingURLs []string
	ICE           config.ICE
	Document      Document
	Awareness     Awareness
	// MaxConns of zero picks 20 plus a random jitter.
	MaxConns    int
	SyncTimeout time.Duration
	PeerID      string
	Logger      *zerolog.Logger
}

// MemoryDocument keeps the latest state in memory. Apply replaces the state
// wholesale.
type MemoryDocument struct {
	mu      sync.RWMutex
	data    []byte
	applied int
}

func NewMemoryDocument(initial []byte) *MemoryDocument {
	return &MemoryDocument{data: append([]byte(nil), initial...)}
}

func (d *MemoryDocument) Snapshot() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]byte(nil), d.data...), nil
}

func (d *MemoryDocument) Apply(update []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(update) == 0 {
		return nil
	}
	d.data = append([]byte(nil), update...)
	d.applied++
	return nil
}

// Applied counts non-empty updates received from peers.
func (d *MemoryDocument) Applied() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.applied
}

// LocalAwareness is an in-memory Awareness.
type LocalAwareness struct {
	mu   sync.RWMutex
	user *User
}

func (a *LocalAwareness) LocalUser() (User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return User{}, false
	}
	return *a.user, true
}

func (a *LocalAwareness) SetLocalUser(u User) {
	a.mu.Lock()
	a.user = &u
	a.mu.Unlock()
}

// claimUser sets u as the local user unless something else already did, and
// returns whichever user is in effect.
func claimUser(a Awareness, u User) User {
	if a == nil {
		return u
	}
	if existing, ok := a.LocalUser(); ok {
		return existing
	}
	a.SetLocalUser(u)
	return u
}
