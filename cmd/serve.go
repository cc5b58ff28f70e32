package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/BioHazard786/rtcshare/internal/config"
	"github.com/BioHazard786/rtcshare/internal/signalserver"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a signaling server",
	Long: `Run a y-webrtc compatible signaling server.

Configured through PORT, ENVIRONMENT, ALLOWED_ORIGINS, UPGRADE_RATE and
UPGRADE_BURST. Point clients at it with RTCSHARE_SIGNALING_URLS='["ws://host:4444"]'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServer()
		if err != nil {
			return err
		}
		if servePort != 0 {
			if servePort < 1024 || servePort > 65535 {
				return fmt.Errorf("port must be between 1024 and 65535, got %d", servePort)
			}
			cfg.Port = servePort
		}
		return signalserver.New(cfg, &log.Logger).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides PORT)")
}
