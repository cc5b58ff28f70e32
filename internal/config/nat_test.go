package config

import (
	"net"
	"testing"

	"github.com/go-playground/assert/v2"
)

func withInterfaces(t *testing.T, ifs []iface) {
	t.Helper()
	orig := listInterfaces
	listInterfaces = func() []iface { return ifs }
	t.Cleanup(func() { listInterfaces = orig })
}

func TestRestrictedNetwork(t *testing.T) {
	up := net.FlagUp
	tests := []struct {
		name string
		ifs  []iface
		want bool
	}{
		{"plain ethernet", []iface{{name: "eth0", flags: up, addrs: []net.Addr{&net.IPNet{IP: net.ParseIP("192.168.1.5")}}}}, false},
		{"wireguard", []iface{{name: "wg0", flags: up}}, true},
		{"tunnel that is down", []iface{{name: "tun0"}}, false},
		{"loopback ignored", []iface{{name: "lo-tun", flags: up | net.FlagLoopback}}, false},
		{"cgnat address", []iface{{name: "eth0", flags: up, addrs: []net.Addr{&net.IPAddr{IP: net.ParseIP("100.100.1.1")}}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withInterfaces(t, tt.ifs)
			assert.Equal(t, tt.want, RestrictedNetwork())
		})
	}
}

func TestLoadICEAutoRelay(t *testing.T) {
	t.Setenv("TURN_SERVER", "")
	withInterfaces(t, []iface{{name: "wg0", flags: net.FlagUp}})

	ice, err := LoadICE(ICEOptions{AutoRelay: true})
	assert.Equal(t, nil, err)
	assert.Equal(t, false, ice.ForceRelay)

	ice, err = LoadICE(ICEOptions{AutoRelay: true, TURNServer: "turn:relay.example"})
	assert.Equal(t, nil, err)
	assert.Equal(t, true, ice.ForceRelay)

	ice, err = LoadICE(ICEOptions{TURNServer: "turn:relay.example"})
	assert.Equal(t, nil, err)
	assert.Equal(t, false, ice.ForceRelay)
}
