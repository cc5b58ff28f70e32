package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/rs/zerolog"

	"github.com/BioHazard786/rtcshare/internal/config"
	"github.com/BioHazard786/rtcshare/internal/provider"
	"github.com/BioHazard786/rtcshare/internal/signaling"
	"github.com/BioHazard786/rtcshare/internal/signalserver"
)

func startServer(t *testing.T) (*signalserver.Server, string) {
	t.Helper()
	nop := zerolog.Nop()
	s := signalserver.New(&config.Server{Environment: "development", UpgradeRate: 100, UpgradeBurst: 100}, &nop)
	go s.Hub().Run()
	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		ts.Close()
		s.Hub().Shutdown()
	})
	return s, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newProvider(t *testing.T, url string, mutate func(*provider.Options)) *provider.WebRTC {
	t.Helper()
	nop := zerolog.Nop()
	opts := provider.Options{
		Room:          "abc123",
		Path:          "notebook.ipynb",
		User:          provider.User{Name: "Ada", Color: "#72dd76"},
		SignalingURLs: []string{url},
		Document:      provider.NewMemoryDocument([]byte("hello")),
		Logger:        &nop,
	}
	if mutate != nil {
		mutate(&opts)
	}
	p, err := provider.New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(p.Dispose)
	return p
}

func TestMock(t *testing.T) {
	t.Parallel()
	m := provider.NewMock()

	select {
	case <-m.Ready():
	default:
		t.Fatal("mock should be ready immediately")
	}

	got, err := m.RequestInitialContent(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, false, got)
	assert.Equal(t, 0, m.PeerCount())

	m.OnPeers(func(int) { t.Error("mock should never report peers") })()
	assert.Equal(t, false, m.IsDisposed())
	m.Dispose()
	m.Dispose()
	assert.Equal(t, true, m.IsDisposed())
}

func TestDeferred(t *testing.T) {
	t.Parallel()
	d := provider.NewDeferred[bool]()

	_, ok := d.Value()
	assert.Equal(t, false, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := d.Wait(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)

	assert.Equal(t, true, d.Resolve(true))
	assert.Equal(t, false, d.Resolve(false))

	v, err := d.Wait(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, true, v)
}

func TestNewValidatesOptions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		opts provider.Options
		want error
	}{
		{"no room", provider.Options{SignalingURLs: []string{"ws://x"}}, provider.ErrNoRoom},
		{"no signaling", provider.Options{Room: "r"}, provider.ErrNoSignaling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.New(context.Background(), tt.opts)
			assert.Equal(t, true, errors.Is(err, tt.want))

			var se *provider.SessionError
			assert.Equal(t, true, errors.As(err, &se))
			assert.Equal(t, "create provider", se.Op)
		})
	}
}

func TestSessionErrorFormat(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "connect: connection failed", provider.NewError("connect", provider.ErrConnectionFailed).Error())
	assert.Equal(t, "connect: connection failed (ice)", provider.WrapError("connect", provider.ErrConnectionFailed, "ice").Error())
}

func TestInitialContentTimesOut(t *testing.T) {
	t.Parallel()
	_, url := startServer(t)
	p := newProvider(t, url, func(o *provider.Options) { o.SyncTimeout = 50 * time.Millisecond })

	start := time.Now()
	got, err := p.RequestInitialContent(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, false, got)
	assert.Equal(t, true, time.Since(start) < 2*time.Second)

	select {
	case <-p.Ready():
	default:
		t.Fatal("ready should be closed after the timeout")
	}

	again, _ := p.RequestInitialContent(context.Background())
	assert.Equal(t, false, again)
}

func TestSyncTimerStartsOnFirstRequest(t *testing.T) {
	t.Parallel()
	_, url := startServer(t)
	timeout := 50 * time.Millisecond
	p := newProvider(t, url, func(o *provider.Options) { o.SyncTimeout = timeout })

	time.Sleep(3 * timeout)
	select {
	case <-p.Ready():
		t.Fatal("ready closed before anyone asked for initial content")
	default:
	}

	start := time.Now()
	got, err := p.RequestInitialContent(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, false, got)
	assert.Equal(t, true, time.Since(start) >= timeout-10*time.Millisecond)
}

func TestTopicAndDefaults(t *testing.T) {
	t.Parallel()
	_, url := startServer(t)
	p := newProvider(t, url, nil)

	assert.Equal(t, "abc123notebook.ipynb", p.Topic())
	assert.NotEqual(t, "", p.PeerID())
	assert.Equal(t, true, p.MaxConns() >= 20 && p.MaxConns() < 35)

	q := newProvider(t, url, func(o *provider.Options) { o.MaxConns = 3; o.PeerID = "fixed" })
	assert.Equal(t, 3, q.MaxConns())
	assert.Equal(t, "fixed", q.PeerID())
}

func TestAwarenessIsClaimedOnlyWhenUnset(t *testing.T) {
	t.Parallel()
	_, url := startServer(t)

	empty := &provider.LocalAwareness{}
	newProvider(t, url, func(o *provider.Options) { o.Awareness = empty })
	u, ok := empty.LocalUser()
	assert.Equal(t, true, ok)
	assert.Equal(t, "Ada", u.Name)

	taken := &provider.LocalAwareness{}
	taken.SetLocalUser(provider.User{Name: "Grace", Color: "#000000"})
	newProvider(t, url, func(o *provider.Options) { o.Awareness = taken })
	u, _ = taken.LocalUser()
	assert.Equal(t, "Grace", u.Name)
}

func TestAnnounceTriggersOffer(t *testing.T) {
	t.Parallel()
	s, url := startServer(t)
	p := newProvider(t, url, func(o *provider.Options) { o.ICE = config.ICE{} })
	waitFor(t, func() bool { return s.Hub().Stats().Subscriptions == 1 })

	nop := zerolog.Nop()
	remote := signaling.NewClient(url, signaling.WithLogger(&nop))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.Equal(t, nil, remote.Connect(ctx))
	t.Cleanup(remote.Close)

	assert.Equal(t, nil, remote.Subscribe(p.Topic()))
	assert.Equal(t, nil, remote.Publish(p.Topic(), signaling.RoomMessage{Type: signaling.RoomMessageAnnounce, From: "remote-peer"}))

	for {
		select {
		case msg, ok := <-remote.Incoming():
			if !ok {
				t.Fatal("signaling connection closed")
			}
			rm, err := msg.DecodeRoomMessage()
			if err != nil || rm.Type != signaling.RoomMessageSignal {
				continue
			}
			assert.Equal(t, p.PeerID(), rm.From)
			assert.Equal(t, "remote-peer", rm.To)

			var payload signaling.SignalPayload
			assert.Equal(t, nil, json.Unmarshal(rm.Signal, &payload))
			assert.Equal(t, signaling.SignalOffer, payload.Type)
			assert.NotEqual(t, "", payload.SDP)
			return
		case <-ctx.Done():
			t.Fatal("no offer received")
		}
	}
}

func TestDisposeLeavesRoom(t *testing.T) {
	t.Parallel()
	s, url := startServer(t)
	p := newProvider(t, url, func(o *provider.Options) { o.SyncTimeout = time.Hour })
	waitFor(t, func() bool { return s.Hub().Stats().Subscriptions == 1 })

	p.Dispose()
	p.Dispose()
	assert.Equal(t, true, p.IsDisposed())

	got, err := p.RequestInitialContent(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, false, got)
	waitFor(t, func() bool { return s.Hub().Stats().Subscriptions == 0 })
}

func TestMemoryDocument(t *testing.T) {
	t.Parallel()
	d := provider.NewMemoryDocument([]byte("a"))

	assert.Equal(t, nil, d.Apply(nil))
	assert.Equal(t, 0, d.Applied())

	assert.Equal(t, nil, d.Apply([]byte("b")))
	snap, err := d.Snapshot()
	assert.Equal(t, nil, err)
	assert.Equal(t, "b", string(snap))
	assert.Equal(t, 1, d.Applied())
}
