package config

import (
	"fmt"
	"os"

	pion "github.com/pion/webrtc/v4"
)

// Default ICE values.
const (
	DefaultSTUN = "stun:stun.l.google.com:19302"
)

// ICE holds the STUN/TURN configuration handed to every peer connection.
type ICE struct {
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
}

// ICEOptions carries CLI flag overrides for LoadICE.
type ICEOptions struct {
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
	// AutoRelay switches to relay mode on restricted networks when a TURN
	// server is available.
	AutoRelay bool
}

// LoadICE resolves ICE settings with the following priority:
// 1. CLI flags (passed via ICEOptions) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
//
// TURN has no default; without one peers connect over STUN only.
func LoadICE(opts ICEOptions) (ICE, error) {
	ice := ICE{
		STUNServer: firstNonEmpty(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		TURNServer: firstNonEmpty(opts.TURNServer, os.Getenv("TURN_SERVER")),
		TURNUser:   firstNonEmpty(opts.TURNUser, os.Getenv("TURN_USERNAME")),
		TURNPass:   firstNonEmpty(opts.TURNPass, os.Getenv("TURN_PASSWORD")),
		ForceRelay: opts.ForceRelay,
	}

	if ice.ForceRelay && ice.TURNServer == "" {
		return ICE{}, fmt.Errorf("cannot force relay mode without TURN server configured")
	}
	if !ice.ForceRelay && opts.AutoRelay && ice.TURNServer != "" && RestrictedNetwork() {
		ice.ForceRelay = true
	}
	return ice, nil
}

// STUNServers returns STUN server URLs as strings.
func (c ICE) STUNServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}

// TURNServers returns TURN server URLs if configured.
func (c ICE) TURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// Configuration builds the pion configuration for a new peer connection.
func (c ICE) Configuration() pion.Configuration {
	var servers []pion.ICEServer
	if stun := c.STUNServers(); stun != nil {
		servers = append(servers, pion.ICEServer{URLs: stun})
	}

	policy := pion.ICETransportPolicyAll
	if turn := c.TURNServers(); turn != nil {
		servers = append(servers, pion.ICEServer{
			URLs:       turn,
			Username:   c.TURNUser,
			Credential: c.TURNPass,
		})
		if c.ForceRelay {
			policy = pion.ICETransportPolicyRelay
		}
	}

	return pion.Configuration{
		ICEServers:         servers,
		ICETransportPolicy: policy,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
