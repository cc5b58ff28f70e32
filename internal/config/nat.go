package config

import (
	"net"
	"strings"
)

var cgnat = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// tunnelNames are interface name fragments used by VPN and tunnel adapters.
var tunnelNames = []string{"tun", "tap", "wg", "ppp", "warp"}

// iface is the part of net.Interface the relay check looks at.
type iface struct {
	name  string
	flags net.Flags
	addrs []net.Addr
}

// listInterfaces is replaced in tests.
var listInterfaces = func() []iface {
	ifs, err := net.Interfaces()
	if err != nil {
		return nil
	}
	out := make([]iface, 0, len(ifs))
	for _, i := range ifs {
		addrs, _ := i.Addrs()
		out = append(out, iface{name: i.Name, flags: i.Flags, addrs: addrs})
	}
	return out
}

// RestrictedNetwork reports whether this host sits behind a VPN tunnel or a
// carrier-grade NAT (100.64.0.0/10), where direct peer connections rarely
// work and a TURN relay should be used when one is configured.
func RestrictedNetwork() bool {
	for _, i := range listInterfaces() {
		if i.flags&net.FlagUp == 0 || i.flags&net.FlagLoopback != 0 {
			continue
		}

		name := strings.ToLower(i.name)
		for _, frag := range tunnelNames {
			if strings.Contains(name, frag) {
				return true
			}
		}

		for _, addr := range i.addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip != nil && cgnat.Contains(ip) {
				return true
			}
		}
	}
	return false
}
