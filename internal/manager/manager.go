/*
Package manager resolves who the local user is, which room they share and how
peers find each other. Every value comes from a precedence chain of share-link
parameters, deployment options and persisted settings, with random fallbacks
drawn once per Manager.
*/
package manager

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/BioHazard786/rtcshare/internal/config"
	"github.com/BioHazard786/rtcshare/internal/logging"
	"github.com/BioHazard786/rtcshare/internal/provider"
	"github.com/BioHazard786/rtcshare/internal/randx"
	"github.com/BioHazard786/rtcshare/internal/settings"
	"github.com/BioHazard786/rtcshare/internal/signal"
)

// DefaultSignalingServers are public y-webrtc servers. They are fine for
// trying things out and nothing else.
var DefaultSignalingServers = []string{
	"wss://signaling.yjs.dev",
	"wss://y-webrtc-signaling-eu.herokuapp.com",
	"wss://y-webrtc-signaling-us.herokuapp.com",
}

var ErrDisabled = errors.New("sharing is disabled")

// Identity is how the local user appears to collaborators.
type Identity struct {
	Username  string
	Usercolor string
}

// Room is the resolved rendezvous. Prefix is salt and must not leave the
// process; only FullID is sent anywhere.
type Room struct {
	Name   string
	Prefix string
	FullID string
}

// SessionConfig is everything a transport session needs.
type SessionConfig struct {
	Identity      Identity
	Room          Room
	SignalingURLs []string
}

// Status is the read-only view the status widget renders.
type Status struct {
	Username      string
	Usercolor     string
	RoomName      string
	Disabled      bool
	PeerCount     int
	SignalingURLs []string
}

// Options wires a Manager to its configuration sources. Every field is
// optional.
type Options struct {
	Settings   *settings.Store
	Deployment config.Deployment
	Params     URLParams
	Location   Location
	Random     randx.Source
	Logger     *zerolog.Logger
	ICE        config.ICE
}

// Manager is the room and identity resolver for one session.
type Manager struct {
	settings   *settings.Store
	deployment config.Deployment
	params     URLParams
	location   Location
	random     randx.Source
	ice        config.ICE
	log        *zerolog.Logger

	// Fallbacks, drawn once.
	fallbackName  string
	fallbackColor string
	fallbackRoom  string

	prefixOnce  sync.Once
	localPrefix string
	roomLog     sync.Once

	mu        sync.Mutex
	peerCount int

	state      signal.Signal
	disconnect func()
}

// New builds a Manager and subscribes it to settings changes.
func New(opts Options) *Manager {
	m := &Manager{
		settings:   opts.Settings,
		deployment: opts.Deployment,
		params:     opts.Params,
		location:   opts.Location,
		random:     opts.Random,
		ice:        opts.ICE,
		log:        logging.Or(opts.Logger),
		disconnect: func() {},
	}
	if m.deployment == nil {
		m.deployment = config.MapDeployment(nil)
	}
	if m.random == nil {
		m.random = randx.Default
	}

	m.fallbackName = m.random.Name()
	m.fallbackColor = m.random.Color()
	m.fallbackRoom = m.random.UUID()

	if m.settings != nil {
		m.disconnect = m.settings.Changed().Connect(m.state.Emit)
	}
	return m
}

// Close stops listening for settings changes.
func (m *Manager) Close() {
	m.disconnect()
}

func (m *Manager) persisted() settings.Settings {
	if m.settings == nil {
		return settings.Settings{}
	}
	return m.settings.Composite()
}

// Disabled reports whether sharing is off. The deployment must opt in with
// collaborative=true; the user may then opt out.
func (m *Manager) Disabled() bool {
	if m.deployment.Option(config.OptionCollaborative) != "true" {
		return true
	}
	return m.persisted().Disabled
}

func (m *Manager) Username() string {
	return firstNonEmpty(m.params.Username, m.persisted().Username, m.fallbackName)
}

func (m *Manager) Usercolor() string {
	return firstNonEmpty(m.params.Usercolor, m.persisted().Usercolor, m.fallbackColor)
}

func (m *Manager) Identity() Identity {
	return Identity{Username: m.Username(), Usercolor: m.Usercolor()}
}

func (m *Manager) RoomName() string {
	if name := firstNonEmpty(m.params.Room, m.persisted().Room); name != "" {
		return name
	}
	m.roomLog.Do(func() {
		m.log.Info().Str("room", m.fallbackRoom).Msg("No room configured, using a random room name")
	})
	return m.fallbackRoom
}

func (m *Manager) RoomPrefix() string {
	if prefix := firstNonEmpty(
		strings.TrimSpace(m.deployment.Option(config.OptionRoomPrefix)),
		m.persisted().RoomPrefix,
	); prefix != "" {
		return prefix
	}
	if m.location.IsLocal() {
		m.prefixOnce.Do(func() { m.localPrefix = m.random.UUID() })
		return m.localPrefix
	}
	return m.location.Join()
}

// FullRoomID is the hex SHA-256 of prefix and room name. It is the only room
// identifier sent to signaling servers and peers.
func (m *Manager) FullRoomID() string {
	return RoomID(m.RoomPrefix(), m.RoomName())
}

// RoomID hashes a prefix and room name into a 64 character hex id.
func RoomID(prefix, name string) string {
	sum := sha256.Sum256([]byte(prefix + "-" + name))
	return hex.EncodeToString(sum[:])
}

// SignalingURLs never returns an empty list. Falling back to the public
// servers logs a warning on every call.
func (m *Manager) SignalingURLs() []string {
	urls, fallback := m.signalingURLs()
	if fallback {
		m.log.Warn().Strs("servers", urls).
			Msg("Using public signaling servers; configure your own for production use")
	}
	return urls
}

// signalingURLs resolves the list without logging and reports whether the
// public defaults were used.
func (m *Manager) signalingURLs() ([]string, bool) {
	if raw := strings.TrimSpace(m.deployment.Option(config.OptionSignalingURLs)); raw != "" {
		var urls []string
		if err := json.Unmarshal([]byte(raw), &urls); err != nil {
			m.log.Debug().Err(err).Msg("Ignoring malformed signaling_urls option")
		} else if urls = compact(urls); len(urls) > 0 {
			return urls, false
		}
	}
	if urls := compact(m.persisted().SignalingURLs); len(urls) > 0 {
		return urls, false
	}
	return slices.Clone(DefaultSignalingServers), true
}

// SessionConfig resolves every value once. It returns ErrDisabled when sharing
// is off.
func (m *Manager) SessionConfig() (SessionConfig, error) {
	if m.Disabled() {
		return SessionConfig{}, ErrDisabled
	}
	name := m.RoomName()
	prefix := m.RoomPrefix()
	return SessionConfig{
		Identity: m.Identity(),
		Room: Room{
			Name:   name,
			Prefix: prefix,
			FullID: RoomID(prefix, name),
		},
		SignalingURLs: m.SignalingURLs(),
	}, nil
}

// CreateProvider opens a transport for the document at opts.Path. Room, user,
// signaling and ICE fields in opts are filled in from the resolved session.
// When sharing is off, or the transport cannot be built, a Mock is returned.
func (m *Manager) CreateProvider(ctx context.Context, opts provider.Options) provider.Provider {
	sc, err := m.SessionConfig()
	if err != nil {
		m.log.Debug().Msg("Sharing disabled, using local-only provider")
		return provider.NewMock()
	}

	opts.Room = sc.Room.FullID
	opts.User = provider.User{Name: sc.Identity.Username, Color: sc.Identity.Usercolor}
	opts.SignalingURLs = sc.SignalingURLs
	opts.ICE = m.ice
	if opts.Logger == nil {
		opts.Logger = m.log
	}

	p, err := provider.New(ctx, opts)
	if err != nil {
		m.log.Error().Err(err).Msg("Failed to create provider")
		return provider.NewMock()
	}
	p.OnPeers(m.SetPeerCount)
	return p
}

func (m *Manager) PeerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peerCount
}

// SetPeerCount records the number of connected peers and notifies listeners
// if it changed.
func (m *Manager) SetPeerCount(n int) {
	m.mu.Lock()
	changed := m.peerCount != n
	m.peerCount = n
	m.mu.Unlock()

	if changed {
		m.state.Emit()
	}
}

// StateChanged fires once per settings change and once per peer count change.
func (m *Manager) StateChanged() *signal.Signal {
	return &m.state
}

// Status is read on every redraw, so it resolves the signaling list without
// repeating the public-server warning.
func (m *Manager) Status() Status {
	urls, _ := m.signalingURLs()
	return Status{
		Username:      m.Username(),
		Usercolor:     m.Usercolor(),
		RoomName:      m.RoomName(),
		Disabled:      m.Disabled(),
		PeerCount:     m.PeerCount(),
		SignalingURLs: urls,
	}
}

// ToggleDisabled flips the persisted disabled flag.
func (m *Manager) ToggleDisabled() error {
	if m.settings == nil {
		return errors.New("no settings store")
	}
	return m.settings.Update(func(s *settings.Settings) {
		s.Disabled = !s.Disabled
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func compact(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
