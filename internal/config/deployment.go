package config

import (
	"os"
	"strings"
)

// Deployment option keys. They mirror the page-level options a host exposes
// to every session of a deployment.
const (
	OptionCollaborative = "collaborative"
	OptionRoomPrefix    = "room_prefix"
	OptionSignalingURLs = "signaling_urls"
	OptionBaseURL       = "base_url"
)

// EnvPrefix prefixes every deployment option read from the environment.
const EnvPrefix = "RTCSHARE_"

// Deployment is the read-only, deployment-wide key-value configuration.
// Option returns "" for unknown or unset keys.
type Deployment interface {
	Option(key string) string
}

// EnvDeployment reads options from RTCSHARE_<KEY> environment variables,
// e.g. RTCSHARE_COLLABORATIVE=true.
type EnvDeployment struct{}

func (EnvDeployment) Option(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + strings.ToUpper(key)))
}

// MapDeployment is a fixed set of options.
type MapDeployment map[string]string

func (m MapDeployment) Option(key string) string {
	return m[key]
}

// Layered returns the first non-empty value across its deployments, so flags
// can sit in front of the environment.
type Layered []Deployment

func (l Layered) Option(key string) string {
	for _, d := range l {
		if d == nil {
			continue
		}
		if v := d.Option(key); v != "" {
			return v
		}
	}
	return ""
}
