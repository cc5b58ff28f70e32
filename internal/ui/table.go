package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/BioHazard786/rtcshare/internal/manager"
)

// SessionInfo is a resolved session as shown by the status command. The
// room prefix is deliberately absent.
type SessionInfo struct {
	Status manager.Status
	RoomID string
}

// SessionView renders the session as a two-column table.
func SessionView(info SessionInfo) string {
	s := info.Status
	sharing := SuccessStyle.Render("on")
	if s.Disabled {
		sharing = MutedStyle.Render("off")
	}

	rows := [][]string{
		{"Sharing", sharing},
		{"Room", s.RoomName},
		{"Room ID", info.RoomID},
		{"User", s.Username},
		{"Color", lipgloss.NewStyle().Foreground(lipgloss.Color(s.Usercolor)).Render(s.Usercolor)},
		{"Peers", strconv.Itoa(s.PeerCount)},
		{"Signaling", strings.Join(s.SignalingURLs, "\n")},
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Setting", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

func RenderSession(info SessionInfo) {
	fmt.Fprintln(Output, SessionView(info))
}
