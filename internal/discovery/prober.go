package discovery

import (
	"context"
	"crypto/rand"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/lanlocate/lanlocate/internal/logging"
	"github.com/lanlocate/lanlocate/internal/protocol"
)

const (
	// DefaultTimeout is the per-attempt wait for a response.
	DefaultTimeout = 3 * time.Second

	// DefaultAttempts is how many probes are sent before giving up.
	DefaultAttempts = 3
)

// Config holds the prober configuration.
type Config struct {
	// Variant selects the wire protocol; must match the server.
	Variant protocol.Variant
	// Secret is the pre-shared key. Required for SignedProbe (to sign the
	// request) and for SignedReply (to verify the response).
	Secret []byte
	// Port is the server's discovery UDP port.
	Port int
	// DeviceID identifies this client in probes; padded or truncated to 16
	// bytes on the wire.
	DeviceID string
	// Timeout is the per-attempt response wait. Zero means DefaultTimeout.
	Timeout time.Duration
	// Attempts is the number of probes before giving up. Zero means
	// DefaultAttempts.
	Attempts int
	// Target overrides the broadcast destination, e.g. "127.0.0.1:5354".
	// Empty means 255.255.255.255:<Port>.
	Target string
}

// Prober broadcasts discovery requests and verifies responses.
type Prober struct {
	variant  protocol.Variant
	secret   []byte
	deviceID [protocol.DeviceIDLen]byte
	target   *net.UDPAddr
	timeout  time.Duration
	attempts int
}

// NewProber validates cfg and builds a prober.
func NewProber(cfg Config) (*Prober, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("discovery: empty shared secret")
	}
	switch cfg.Variant {
	case protocol.SignedProbe, protocol.SignedReply:
	default:
		return nil, fmt.Errorf("discovery: unknown variant %q", cfg.Variant)
	}

	target := cfg.Target
	if target == "" {
		if cfg.Port < 1 || cfg.Port > 65535 {
			return nil, fmt.Errorf("discovery: port %d out of range", cfg.Port)
		}
		target = fmt.Sprintf("255.255.255.255:%d", cfg.Port)
	}
	addr, err := net.ResolveUDPAddr("udp4", target)
	if err != nil {
		return nil, fmt.Errorf("discovery: bad target address %q: %w", target, err)
	}

	p := &Prober{
		variant:  cfg.Variant,
		secret:   append([]byte(nil), cfg.Secret...),
		target:   addr,
		timeout:  cfg.Timeout,
		attempts: cfg.Attempts,
	}
	copy(p.deviceID[:], cfg.DeviceID)
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.attempts <= 0 {
		p.attempts = DefaultAttempts
	}
	return p, nil
}

// Discover broadcasts probes until a verified response arrives, the attempts
// are exhausted, or ctx is cancelled.
func (p *Prober) Discover(ctx context.Context) (protocol.Endpoint, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return protocol.Endpoint{}, fmt.Errorf("failed to open probe socket: %w", err)
	}
	defer conn.Close()

	// Cancellation interrupts a blocked read by expiring its deadline.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return protocol.Endpoint{}, err
		}

		ep, err := p.probeOnce(conn)
		if err == nil {
			return ep, nil
		}
		logging.Debug("Discovery attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.attempts),
			zap.Error(err),
		)
	}

	if err := ctx.Err(); err != nil {
		return protocol.Endpoint{}, err
	}
	return protocol.Endpoint{}, fmt.Errorf("no server answered after %d attempts", p.attempts)
}

// probeOnce sends one freshly built request and waits up to the per-attempt
// timeout for a matching, verified response. Responses for other probes or
// from impostors are ignored, not errors.
func (p *Prober) probeOnce(conn *net.UDPConn) (protocol.Endpoint, error) {
	var nonce [protocol.NonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return protocol.Endpoint{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	req, err := protocol.BuildRequest(p.variant, p.secret, p.deviceID, nonce, time.Now())
	if err != nil {
		return protocol.Endpoint{}, err
	}

	if _, err := conn.WriteToUDP(req, p.target); err != nil {
		return protocol.Endpoint{}, fmt.Errorf("failed to send probe: %w", err)
	}
	logging.LogRawBytes("Probe sent", req)

	deadline := time.Now().Add(p.timeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return protocol.Endpoint{}, err
	}

	buf := make([]byte, 256)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			return protocol.Endpoint{}, fmt.Errorf("no response: %w", err)
		}

		ep, ok := protocol.VerifyResponse(p.variant, p.secret, req, buf[:n])
		if !ok {
			logging.Debug("Ignoring unverifiable response",
				zap.String("from", from.String()),
				zap.Int("size", n),
			)
			continue
		}

		logging.Info("Server located",
			zap.String("endpoint", ep.String()),
			zap.String("responder", from.String()),
		)
		return ep, nil
	}
}
