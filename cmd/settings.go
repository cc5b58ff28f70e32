package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/rtcshare/internal/manager"
	"github.com/BioHazard786/rtcshare/internal/settings"
	"github.com/BioHazard786/rtcshare/internal/ui"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and change saved settings",
}

// loadStrict refuses to continue past a malformed settings file, so a write
// never clobbers it.
func loadStrict() (*settings.Store, error) {
	path, err := settingsPath()
	if err != nil {
		return nil, err
	}
	return settings.Load(path)
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStrict()
		if err != nil {
			return err
		}
		rows := make([]ui.SettingRow, 0, len(settings.Keys))
		for _, key := range settings.Keys {
			v, err := store.Get(key)
			if err != nil {
				return err
			}
			rows = append(rows, ui.SettingRow{Key: key, Value: v})
		}
		ui.WriteSettings(os.Stdout, store.Path(), rows)
		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Print one setting",
	Args:      cobra.ExactArgs(1),
	ValidArgs: settings.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStrict()
		if err != nil {
			return err
		}
		v, err := store.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change one setting; omit the value to clear it",
	Long: `Change one setting. Keys: disabled, username, usercolor, room, roomPrefix,
signalingUrls (comma separated).

Examples:
  rtcshare settings set username Ada
  rtcshare settings set signalingUrls wss://a.example,wss://b.example
  rtcshare settings set room`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: settings.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStrict()
		if err != nil {
			return err
		}
		value := ""
		if len(args) == 2 {
			value = args[1]
		}
		if err := store.Set(args[0], value); err != nil {
			return err
		}
		ui.PrintSuccessf("Saved %s", args[0])
		return nil
	},
}

var settingsToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle WebRTC sharing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := loadStrict()
		if err != nil {
			return err
		}
		m := manager.New(manager.Options{Settings: store})
		defer m.Close()

		if err := m.ToggleDisabled(); err != nil {
			return err
		}
		if store.Composite().Disabled {
			ui.PrintInfo("Sharing disabled")
		} else {
			ui.PrintSuccess("Sharing enabled")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsListCmd, settingsGetCmd, settingsSetCmd, settingsToggleCmd)
}
