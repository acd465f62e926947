// Package netutil detects the host's LAN IPv4 address for discovery
// responses.
package netutil

import (
	"fmt"
	"net"
)

// LocalIPv4 returns the IPv4 address this host would use to reach the LAN.
// It prefers the source address of an outbound route and falls back to
// walking the interfaces. No packets are sent; the dial is connectionless.
func LocalIPv4() (net.IP, error) {
	// The destination doesn't need to be reachable; the kernel just picks
	// the route and with it the source address.
	conn, err := net.Dial("udp4", "192.0.2.1:9")
	if err == nil {
		local := conn.LocalAddr().(*net.UDPAddr).IP
		_ = conn.Close()
		if ip := usableIPv4(local); ip != nil {
			return ip, nil
		}
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip := usableIPv4(ipnet.IP); ip != nil {
				return ip, nil
			}
		}
	}
	return nil, fmt.Errorf("no usable IPv4 address found")
}

// usableIPv4 returns the 4-byte form of ip if it is a routable unicast IPv4
// address, nil otherwise.
func usableIPv4(ip net.IP) net.IP {
	ip4 := ip.To4()
	if ip4 == nil {
		return nil
	}
	if ip4.IsLoopback() || ip4.IsLinkLocalUnicast() || ip4.IsUnspecified() {
		return nil
	}
	return ip4
}
