package ui

import (
	"fmt"
	"io"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
)

// SettingRow is one persisted setting.
type SettingRow struct {
	Key   string
	Value string
}

// WriteSettings prints the settings file path on its own line, then the
// settings as a rounded table. Unset values show as a dash.
func WriteSettings(w io.Writer, path string, rows []SettingRow) {
	fmt.Fprintln(w, path)

	t := prettytable.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(prettytable.StyleRounded)
	t.AppendHeader(prettytable.Row{"Key", "Value"})
	for _, r := range rows {
		v := r.Value
		if v == "" {
			v = "-"
		}
		t.AppendRow(prettytable.Row{r.Key, v})
	}
	t.Render()
}
