package cmd

import (
	"github.com/rs/zerolog/log"

	"github.com/BioHazard786/rtcshare/internal/config"
	"github.com/BioHazard786/rtcshare/internal/manager"
	"github.com/BioHazard786/rtcshare/internal/provider"
	"github.com/BioHazard786/rtcshare/internal/settings"
)

// iceFlags are the STUN/TURN overrides shared by commands that open peers.
type iceFlags struct {
	stun     string
	turn     string
	turnUser string
	turnPass string
	relay    bool
}

func (f iceFlags) load() (config.ICE, error) {
	ice, err := config.LoadICE(config.ICEOptions{
		STUNServer: f.stun,
		TURNServer: f.turn,
		TURNUser:   f.turnUser,
		TURNPass:   f.turnPass,
		ForceRelay: f.relay,
		AutoRelay:  true,
	})
	if err != nil {
		return config.ICE{}, provider.NewError("load config", err)
	}
	return ice, nil
}

func settingsPath() (string, error) {
	if flagSettingsPath != "" {
		return flagSettingsPath, nil
	}
	return settings.DefaultPath()
}

// openStore loads saved settings for commands that only read them. A broken
// file is reported and then treated as empty.
func openStore() *settings.Store {
	path, err := settingsPath()
	if err != nil {
		log.Warn().Err(err).Msg("No settings location, continuing without saved settings")
		return settings.Empty("")
	}
	store, err := settings.Load(path)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load settings, continuing without them")
		return settings.Empty(path)
	}
	return store
}

// newManager resolves the session for an optional share link.
func newManager(shareURL string, ice config.ICE) *manager.Manager {
	deployment := config.EnvDeployment{}
	return manager.New(manager.Options{
		Settings:   openStore(),
		Deployment: deployment,
		Params:     manager.ParseURLParams(shareURL),
		Location:   manager.LocationFromURL(shareURL, deployment.Option(config.OptionBaseURL)),
		Logger:     &log.Logger,
		ICE:        ice,
	})
}

func shareArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
