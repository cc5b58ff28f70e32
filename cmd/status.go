package cmd

import (
	"github.com/spf13/cobra"

	"github.com/BioHazard786/rtcshare/internal/config"
	"github.com/BioHazard786/rtcshare/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status [share-url]",
	Short: "Show how a session would be resolved",
	Long: `Show the room, identity and signaling servers that join would use.

The room prefix is never printed; only the hashed room id is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager(shareArg(args), config.ICE{})
		defer m.Close()

		ui.RenderSession(ui.SessionInfo{
			Status: m.Status(),
			RoomID: m.FullRoomID(),
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
