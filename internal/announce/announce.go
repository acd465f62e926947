// Package announce optionally registers the WebSocket endpoint over mDNS.
//
// The UDP probe protocol is the primary discovery path, but clients on
// platforms with working zeroconf stacks can browse for the service instead
// of broadcasting. Registration is off by default and carries no secret:
// mDNS announces exactly what the signed-reply variant already discloses to
// any prober, the endpoint's location.
package announce

import (
	"fmt"
	"os"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/lanlocate/lanlocate/internal/logging"
)

const (
	// ServiceType is the mDNS service type for the lanlocate WebSocket endpoint.
	ServiceType = "_lanlocate-ws._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."
)

// Announcer keeps an mDNS registration alive until Stop.
type Announcer struct {
	srv *zeroconf.Server
}

// Start registers the WebSocket endpoint. The instance name defaults to the
// hostname when empty.
func Start(instance string, port int, version string) (*Announcer, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to determine hostname for mDNS instance: %w", err)
		}
		instance = host
	}

	txt := []string{"path=/ws", "v=" + version}
	srv, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("mDNS registration active",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Announcer{srv: srv}, nil
}

// Stop withdraws the registration.
func (a *Announcer) Stop() {
	a.srv.Shutdown()
	logging.Info("mDNS registration withdrawn")
}
