package ui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/assert/v2"

	"github.com/BioHazard786/rtcshare/internal/manager"
	"github.com/BioHazard786/rtcshare/internal/signal"
)

type fakeSource struct {
	status  manager.Status
	changed signal.Signal
}

func (f *fakeSource) Status() manager.Status        { return f.status }
func (f *fakeSource) StateChanged() *signal.Signal { return &f.changed }

func TestTitle(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Not Sharing", Title(manager.Status{Disabled: true, PeerCount: 4}))
	assert.Equal(t, "Sharing with 2 peers in standup as Ada",
		Title(manager.Status{PeerCount: 2, RoomName: "standup", Username: "Ada"}))
}

func TestStatusLine(t *testing.T) {
	t.Parallel()
	off := StatusLine(manager.Status{Disabled: true, RoomName: "standup"})
	assert.Equal(t, false, strings.Contains(off, "standup"))
	assert.Equal(t, true, strings.Contains(off, IconOff))

	on := StatusLine(manager.Status{PeerCount: 3, RoomName: "standup", Usercolor: "#ff0000"})
	assert.Equal(t, true, strings.HasPrefix(on, "3 "+IconPeers))
	assert.Equal(t, true, strings.Contains(on, "standup"))
}

func TestStatusModelRefreshesOnStateMsg(t *testing.T) {
	t.Parallel()
	src := &fakeSource{status: manager.Status{RoomName: "standup", Username: "Ada"}}
	m := NewStatusModel(src)
	assert.Equal(t, true, strings.Contains(m.View(), "Sharing with 0 peers in standup as Ada"))
	assert.Equal(t, true, strings.Contains(m.View(), "waiting for peers"))

	src.status.PeerCount = 2
	next, _ := m.Update(StateMsg{})
	m = next.(StatusModel)
	assert.Equal(t, 2, m.Status().PeerCount)
	assert.Equal(t, false, strings.Contains(m.View(), "waiting for peers"))

	src.status.Disabled = true
	next, _ = m.Update(StateMsg{})
	assert.Equal(t, true, strings.Contains(next.View(), "Not Sharing"))
}

func TestStatusModelQuits(t *testing.T) {
	t.Parallel()
	m := NewStatusModel(&fakeSource{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotEqual(t, nil, cmd)
	assert.Equal(t, "", next.View())
}

func TestSessionViewHidesPrefix(t *testing.T) {
	t.Parallel()
	roomID := manager.RoomID("secret-salt", "standup")
	view := SessionView(SessionInfo{
		Status: manager.Status{RoomName: "standup", Username: "Ada", Usercolor: "#72dd76", SignalingURLs: []string{"wss://a", "wss://b"}},
		RoomID: roomID,
	})
	assert.Equal(t, true, strings.Contains(view, roomID))
	assert.Equal(t, true, strings.Contains(view, "wss://b"))
	assert.Equal(t, false, strings.Contains(view, "secret-salt"))
}

func TestWriteSettings(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	path := "/home/ada/.config/rtcshare/settings.yaml"
	WriteSettings(&buf, path, []SettingRow{{Key: "username", Value: "Ada"}, {Key: "room"}})

	out := buf.String()
	lines := strings.Split(out, "\n")
	assert.Equal(t, path, lines[0])
	assert.Equal(t, 1, strings.Count(out, path))
	assert.Equal(t, true, strings.Contains(out, "username"))
	assert.Equal(t, true, strings.Contains(out, "Ada"))
	assert.Equal(t, true, strings.Contains(out, "│ room"))
	assert.Equal(t, false, strings.Contains(out, "\x1b["))
}
