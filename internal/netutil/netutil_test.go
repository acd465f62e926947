package netutil

import (
	"net"
	"testing"
)

func TestUsableIPv4(t *testing.T) {
	tests := []struct {
		name string
		ip   net.IP
		want bool
	}{
		{"private LAN address", net.ParseIP("192.168.1.10"), true},
		{"ten-net address", net.ParseIP("10.0.0.5"), true},
		{"public address", net.ParseIP("203.0.113.7"), true},
		{"loopback", net.ParseIP("127.0.0.1"), false},
		{"link-local", net.ParseIP("169.254.1.1"), false},
		{"unspecified", net.ParseIP("0.0.0.0"), false},
		{"IPv6 address", net.ParseIP("2001:db8::1"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usableIPv4(tt.ip)
			if (got != nil) != tt.want {
				t.Errorf("usableIPv4(%v) = %v, want usable=%v", tt.ip, got, tt.want)
			}
			if got != nil && len(got) != net.IPv4len {
				t.Errorf("usableIPv4(%v) returned %d-byte form, want 4", tt.ip, len(got))
			}
		})
	}
}
