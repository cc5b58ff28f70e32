package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/BioHazard786/rtcshare/internal/manager"
	"github.com/BioHazard786/rtcshare/internal/signal"
)

// StatusSource is what the status widget reads. *manager.Manager satisfies it.
type StatusSource interface {
	Status() manager.Status
	StateChanged() *signal.Signal
}

// StateMsg tells the model to re-read its source.
type StateMsg struct{}

// Title is the one-line description of the sharing state.
func Title(s manager.Status) string {
	if s.Disabled {
		return "Not Sharing"
	}
	return fmt.Sprintf("Sharing with %d peers in %s as %s", s.PeerCount, s.RoomName, s.Username)
}

// StatusLine is the compact indicator: the peer count, an icon and the room
// underlined in the user's color. Sharing off shows only the off icon.
func StatusLine(s manager.Status) string {
	if s.Disabled {
		return StatusOffStyle.Render(IconOff)
	}
	room := StatusOnStyle.
		Underline(true).
		Foreground(lipgloss.Color(s.Usercolor)).
		Render(s.RoomName)
	return fmt.Sprintf("%d %s %s", s.PeerCount, IconPeers, room)
}

// StatusModel is the live status widget.
type StatusModel struct {
	source   StatusSource
	status   manager.Status
	spinner  spinner.Model
	quitting bool
}

func NewStatusModel(source StatusSource) StatusModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = SpinnerStyle

	return StatusModel{
		source:  source,
		status:  source.Status(),
		spinner: s,
	}
}

// Status is the snapshot currently on screen.
func (m StatusModel) Status() manager.Status {
	return m.status
}

func (m StatusModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case StateMsg:
		m.status = m.source.Status()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m StatusModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(Title(m.status)))
	b.WriteString("\n")

	b.WriteString(StatusLine(m.status))
	if !m.status.Disabled && m.status.PeerCount == 0 {
		b.WriteString(" " + m.spinner.View() + MutedStyle.Render(" waiting for peers"))
	}
	b.WriteString("\n")

	b.WriteString(FooterStyle.Render("Press q to leave"))
	return b.String()
}

// RunStatus shows the widget until the user quits or ctx ends. Every
// StateChanged notification refreshes the view.
func RunStatus(ctx context.Context, source StatusSource, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewStatusModel(source), opts...)

	disconnect := source.StateChanged().Connect(func() {
		go p.Send(StateMsg{})
	})
	defer disconnect()

	_, err := p.Run()
	if err == nil || ctx.Err() != nil {
		return nil
	}
	return err
}
