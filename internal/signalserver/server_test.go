package signalserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/BioHazard786/rtcshare/internal/config"
	"github.com/BioHazard786/rtcshare/internal/signaling"
)

func newTestServer(t *testing.T, cfg *config.Server) (*Server, string) {
	t.Helper()
	if cfg == nil {
		cfg = &config.Server{Environment: "development", Port: 4444, UpgradeRate: 100, UpgradeBurst: 100}
	}
	nop := zerolog.Nop()
	s := New(cfg, &nop)
	go s.hub.Run()
	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		ts.Close()
		s.hub.Shutdown()
	})
	return s, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) *signaling.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg signaling.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return &msg
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

func TestPingPong(t *testing.T) {
	t.Parallel()
	_, url := newTestServer(t, nil)
	conn := dial(t, url)

	assert.Equal(t, nil, conn.WriteJSON(signaling.Message{Type: signaling.MessageTypePing}))
	assert.Equal(t, signaling.MessageTypePong, read(t, conn).Type)
}

func TestPublishFansOutToSubscribers(t *testing.T) {
	t.Parallel()
	s, url := newTestServer(t, nil)
	a, b, outsider := dial(t, url), dial(t, url), dial(t, url)

	assert.Equal(t, nil, a.WriteJSON(signaling.Message{Type: signaling.MessageTypeSubscribe, Topics: []string{"room"}}))
	assert.Equal(t, nil, b.WriteJSON(signaling.Message{Type: signaling.MessageTypeSubscribe, Topics: []string{"room"}}))
	assert.Equal(t, nil, outsider.WriteJSON(signaling.Message{Type: signaling.MessageTypeSubscribe, Topics: []string{"other"}}))
	waitFor(t, func() bool { return s.hub.Stats().Subscriptions == 3 })

	assert.Equal(t, nil, a.WriteJSON(signaling.Message{
		Type:  signaling.MessageTypePublish,
		Topic: "room",
		Data:  []byte(`{"type":"announce","from":"peer-a"}`),
	}))

	for _, conn := range []*websocket.Conn{a, b} {
		msg := read(t, conn)
		assert.Equal(t, signaling.MessageTypePublish, msg.Type)
		assert.Equal(t, "room", msg.Topic)
		assert.Equal(t, 2, msg.Clients)
		rm, err := msg.DecodeRoomMessage()
		assert.Equal(t, nil, err)
		assert.Equal(t, "peer-a", rm.From)
	}

	// The outsider only ever sees its own pong.
	assert.Equal(t, nil, outsider.WriteJSON(signaling.Message{Type: signaling.MessageTypePing}))
	assert.Equal(t, signaling.MessageTypePong, read(t, outsider).Type)
}

func TestUnsubscribeAndDisconnectCleanUpTopics(t *testing.T) {
	t.Parallel()
	s, url := newTestServer(t, nil)
	a, b := dial(t, url), dial(t, url)

	assert.Equal(t, nil, a.WriteJSON(signaling.Message{Type: signaling.MessageTypeSubscribe, Topics: []string{"x", "y"}}))
	assert.Equal(t, nil, b.WriteJSON(signaling.Message{Type: signaling.MessageTypeSubscribe, Topics: []string{"y"}}))
	waitFor(t, func() bool { return s.hub.Stats().Subscriptions == 3 })
	assert.Equal(t, 2, s.hub.Stats().Topics)

	assert.Equal(t, nil, a.WriteJSON(signaling.Message{Type: signaling.MessageTypeUnsubscribe, Topics: []string{"x"}}))
	waitFor(t, func() bool { return s.hub.Stats().Topics == 1 })

	b.Close()
	waitFor(t, func() bool { return s.hub.Stats().Clients == 1 })
	assert.Equal(t, 1, s.hub.Stats().Subscriptions)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, strings.Contains(rec.Body.String(), `"status":"ok"`))
}

func TestRejectsDisallowedOrigin(t *testing.T) {
	t.Parallel()
	_, url := newTestServer(t, &config.Server{
		Environment:    "production",
		AllowedOrigins: []string{"https://lab.example"},
		UpgradeRate:    100,
		UpgradeBurst:   100,
	})

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	assert.NotEqual(t, nil, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"https://lab.example"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	assert.Equal(t, nil, err)
	conn.Close()
}

func TestRateLimitsUpgrades(t *testing.T) {
	t.Parallel()
	_, url := newTestServer(t, &config.Server{Environment: "development", UpgradeRate: 0.001, UpgradeBurst: 1})

	dial(t, url)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NotEqual(t, nil, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestLimiterSweep(t *testing.T) {
	t.Parallel()
	l := NewIPRateLimiter(1, 2)
	l.Limiter("192.0.2.1").Allow()
	l.Limiter("192.0.2.2")
	assert.Equal(t, 2, l.Len())

	removed := l.Sweep(time.Now().Add(time.Minute))
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, l.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	nop := zerolog.Nop()
	s := New(&config.Server{Port: 0, UpgradeRate: 1, UpgradeBurst: 1}, &nop)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.Equal(t, nil, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
