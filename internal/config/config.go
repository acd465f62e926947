package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lanlocate/lanlocate/internal/protocol"
)

// Defaults applied by New and to fields left empty in the config file.
const (
	DefaultUDPPort = 5354
	DefaultWSPort  = 8080
	DefaultWorkers = 4
)

// Server is the daemon configuration, loadable from a YAML file with CLI
// flags layered on top.
type Server struct {
	// Secret is the pre-shared HMAC key. Required, never logged.
	Secret string `yaml:"secret"`

	// UDPPort is the discovery listener port.
	UDPPort int `yaml:"udp_port"`

	// WSHost is the bind host for the WebSocket endpoint (empty = all interfaces).
	WSHost string `yaml:"ws_host,omitempty"`

	// WSPort is the companion WebSocket endpoint port, announced in responses.
	WSPort int `yaml:"ws_port"`

	// Variant selects the discovery wire protocol:
	// "signed-probe" or "signed-reply".
	Variant string `yaml:"variant"`

	// AdvertiseIP overrides the autodetected IPv4 address announced in
	// responses. Useful on multihomed hosts.
	AdvertiseIP string `yaml:"advertise_ip,omitempty"`

	// MDNS also registers the WebSocket endpoint over mDNS when true.
	MDNS bool `yaml:"mdns,omitempty"`

	// Workers is the number of goroutines answering discovery probes.
	Workers int `yaml:"workers,omitempty"`

	// LogLevel is the zap level (debug, info, warn, error). Empty = silent
	// unless LANLOCATE_LOG_LEVEL is set.
	LogLevel string `yaml:"log_level,omitempty"`
}

// New returns a Server config populated with defaults. The secret has no
// default; it must come from the file or a flag.
func New() *Server {
	return &Server{
		UDPPort: DefaultUDPPort,
		WSPort:  DefaultWSPort,
		Variant: string(protocol.SignedProbe),
		Workers: DefaultWorkers,
	}
}

// Load reads a YAML config file over the defaults. A missing file is an
// error; callers decide whether a config file is mandatory.
func Load(path string) (*Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration once at startup. These are the only
// fatal errors in the system; everything at runtime is log-and-continue.
func (c *Server) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("config: secret must not be empty")
	}
	if c.UDPPort < 1 || c.UDPPort > 65535 {
		return fmt.Errorf("config: udp_port %d out of range", c.UDPPort)
	}
	if c.WSPort < 1 || c.WSPort > 65535 {
		return fmt.Errorf("config: ws_port %d out of range", c.WSPort)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1")
	}

	switch protocol.Variant(c.Variant) {
	case protocol.SignedProbe, protocol.SignedReply:
	default:
		return fmt.Errorf("config: unknown variant %q (valid: %v)", c.Variant, protocol.Variants())
	}

	if c.AdvertiseIP != "" {
		ip := net.ParseIP(c.AdvertiseIP)
		if ip == nil || ip.To4() == nil {
			return fmt.Errorf("config: advertise_ip %q is not an IPv4 address", c.AdvertiseIP)
		}
	}
	return nil
}
