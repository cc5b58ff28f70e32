package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/rtcshare/internal/ui"
	"github.com/BioHazard786/rtcshare/internal/version"
)

var flagSettingsPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rtcshare",
	Short: "Share documents peer-to-peer over WebRTC rooms",
	Long: `rtcshare joins a WebRTC room to share a document with everyone else in it.

Rooms are addressed by a hash of a room prefix and a room name, so signaling
servers and peers never see either in the clear. Who you are, which room you
join and which signaling servers are used come from the share link, the
RTCSHARE_* environment and your saved settings, in that order.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSettingsPath, "settings", "", "Settings file (default is <config dir>/rtcshare/settings.yaml)")
}
