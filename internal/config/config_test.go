package config

import (
	"testing"

	"github.com/go-playground/assert/v2"
	pion "github.com/pion/webrtc/v4"
)

func TestLoadICEPrecedence(t *testing.T) {
	t.Setenv("STUN_SERVER", "stun:env.example:3478")
	t.Setenv("TURN_SERVER", "turn:env.example")
	t.Setenv("TURN_USERNAME", "env-user")
	t.Setenv("TURN_PASSWORD", "")

	ice, err := LoadICE(ICEOptions{TURNServer: "turn:flag.example", TURNPass: "flag-pass"})
	assert.Equal(t, nil, err)
	assert.Equal(t, "stun:env.example:3478", ice.STUNServer)
	assert.Equal(t, "turn:flag.example", ice.TURNServer)
	assert.Equal(t, "env-user", ice.TURNUser)
	assert.Equal(t, "flag-pass", ice.TURNPass)
}

func TestLoadICEDefaults(t *testing.T) {
	t.Setenv("STUN_SERVER", "")
	t.Setenv("TURN_SERVER", "")

	ice, err := LoadICE(ICEOptions{})
	assert.Equal(t, nil, err)
	assert.Equal(t, DefaultSTUN, ice.STUNServer)
	assert.Equal(t, 0, len(ice.TURNServers()))

	cfg := ice.Configuration()
	assert.Equal(t, 1, len(cfg.ICEServers))
	assert.Equal(t, pion.ICETransportPolicyAll, cfg.ICETransportPolicy)
}

func TestLoadICERelayNeedsTURN(t *testing.T) {
	t.Setenv("TURN_SERVER", "")

	_, err := LoadICE(ICEOptions{ForceRelay: true})
	assert.NotEqual(t, nil, err)
}

func TestICEConfigurationRelay(t *testing.T) {
	t.Parallel()
	ice := ICE{STUNServer: DefaultSTUN, TURNServer: "turn:relay.example", TURNUser: "u", TURNPass: "p", ForceRelay: true}

	cfg := ice.Configuration()
	assert.Equal(t, 2, len(cfg.ICEServers))
	assert.Equal(t, pion.ICETransportPolicyRelay, cfg.ICETransportPolicy)
	assert.Equal(t, "u", cfg.ICEServers[1].Username)
	assert.Equal(t, "turn:relay.example:3478?transport=udp", cfg.ICEServers[1].URLs[0])
}

func TestEnvDeployment(t *testing.T) {
	t.Setenv("RTCSHARE_COLLABORATIVE", " true ")
	t.Setenv("RTCSHARE_ROOM_PREFIX", "")

	var d EnvDeployment
	assert.Equal(t, "true", d.Option(OptionCollaborative))
	assert.Equal(t, "", d.Option(OptionRoomPrefix))
}

func TestLayeredDeployment(t *testing.T) {
	t.Parallel()
	d := Layered{
		nil,
		MapDeployment{OptionRoomPrefix: "flag"},
		MapDeployment{OptionRoomPrefix: "env", OptionCollaborative: "true"},
	}
	assert.Equal(t, "flag", d.Option(OptionRoomPrefix))
	assert.Equal(t, "true", d.Option(OptionCollaborative))
	assert.Equal(t, "", d.Option(OptionSignalingURLs))
}

func TestLoadServer(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example, ,https://b.example")
	t.Setenv("UPGRADE_RATE", "")
	t.Setenv("UPGRADE_BURST", "")

	cfg, err := LoadServer()
	assert.Equal(t, nil, err)
	assert.Equal(t, true, cfg.IsDevelopment())
	assert.Equal(t, ":4444", cfg.Addr())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 10, cfg.UpgradeBurst)
}

func TestLoadServerRejectsPrivilegedPort(t *testing.T) {
	t.Setenv("PORT", "80")

	_, err := LoadServer()
	assert.NotEqual(t, nil, err)
}
