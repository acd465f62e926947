package protocol

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// Packet layout constants. Offsets and lengths are part of the wire contract;
// changing any of them breaks interoperability with deployed clients.
const (
	// DeviceIDLen is the length of the opaque client-chosen device identifier.
	DeviceIDLen = 16
	// NonceLen is the length of the client-chosen nonce.
	NonceLen = 4
	// TimestampLen is the length of the big-endian Unix timestamp.
	TimestampLen = 8
	// MACLen is the length of an HMAC-SHA256 digest.
	MACLen = sha256.Size

	// timestamp field offsets within a request
	timestampOffset = DeviceIDLen + NonceLen         // 20
	headerLen       = timestampOffset + TimestampLen // 28, the unsigned request body

	addrLen = 4 + 2 // serverIP + wsPort

	// SignedProbeRequestSize is the exact size of a signed-probe request.
	SignedProbeRequestSize = headerLen + MACLen // 60
	// SignedProbeResponseSize is the exact size of a signed-probe response.
	SignedProbeResponseSize = probeEchoLen + addrLen // 38
	// probeEchoLen is how much of a signed-probe request the response echoes.
	probeEchoLen = 32

	// SignedReplyRequestSize is the exact size of a signed-reply request.
	SignedReplyRequestSize = headerLen // 28
	// SignedReplyResponseSize is the exact size of a signed-reply response.
	SignedReplyResponseSize = headerLen + addrLen + MACLen // 66
)

// freshnessWindow is the maximum tolerated clock skew between the timestamp
// embedded in a request and the validator's clock. Fixed by the protocol;
// deliberately not configurable.
const freshnessWindow = 30 * time.Second

// Variant selects one of the two discovery wire protocols.
type Variant string

const (
	// SignedProbe authenticates the requester: the request carries an HMAC,
	// the response is unsigned.
	SignedProbe Variant = "signed-probe"
	// SignedReply authenticates the responder: the request is open, the
	// response carries an HMAC the client must verify.
	SignedReply Variant = "signed-reply"
)

// Variants lists the supported protocol variants.
func Variants() []Variant {
	return []Variant{SignedProbe, SignedReply}
}

// Config holds the immutable codec configuration. The secret is never
// transmitted; it lives in memory for the lifetime of the listener.
type Config struct {
	// Secret is the pre-shared HMAC key. Must be non-empty.
	Secret []byte
	// ServerIP is the IPv4 address announced in responses.
	ServerIP net.IP
	// WSPort is the WebSocket endpoint port announced in responses.
	WSPort uint16
}

// Codec validates discovery requests and builds discovery responses for one
// protocol variant. Implementations are pure: no I/O, no shared mutable
// state, safe for concurrent use.
type Codec interface {
	// Variant reports the wire protocol this codec speaks.
	Variant() Variant
	// RequestSize is the exact request length in bytes; anything else is invalid.
	RequestSize() int
	// ResponseSize is the exact response length in bytes.
	ResponseSize() int
	// Validate reports whether pkt is a well-formed, fresh and (for
	// SignedProbe) authentic request. Malformed input is an ordinary false,
	// never an error.
	Validate(pkt []byte) bool
	// BuildResponse constructs the response for a request that has already
	// passed Validate.
	BuildResponse(pkt []byte) []byte
}

// New creates a codec for the given variant.
func New(v Variant, cfg Config) (Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("protocol: empty shared secret")
	}
	ip4 := cfg.ServerIP.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("protocol: server address %q is not IPv4", cfg.ServerIP)
	}

	c := core{
		secret: append([]byte(nil), cfg.Secret...),
		wsPort: cfg.WSPort,
		now:    time.Now,
	}
	copy(c.serverIP[:], ip4)

	switch v {
	case SignedProbe:
		return &signedProbeCodec{core: c}, nil
	case SignedReply:
		return &signedReplyCodec{core: c}, nil
	default:
		return nil, fmt.Errorf("protocol: unknown variant %q", v)
	}
}

// core holds the state shared by both variants.
type core struct {
	secret   []byte
	serverIP [4]byte
	wsPort   uint16
	now      func() time.Time // clock hook for tests
}

// fresh reports whether the request timestamp is within the freshness window
// of the current wall clock. The clock is read once per call.
func (c *core) fresh(pkt []byte) bool {
	ts := binary.BigEndian.Uint64(pkt[timestampOffset : timestampOffset+TimestampLen])
	now := uint64(c.now().Unix())

	var skew uint64
	if now > ts {
		skew = now - ts
	} else {
		skew = ts - now
	}
	return skew <= uint64(freshnessWindow/time.Second)
}

// sign computes HMAC-SHA256 over the concatenation of parts.
func (c *core) sign(parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}

// appendAddr appends the announced IPv4 octets and big-endian WebSocket port.
func (c *core) appendAddr(b []byte) []byte {
	b = append(b, c.serverIP[:]...)
	return binary.BigEndian.AppendUint16(b, c.wsPort)
}

// signedProbeCodec implements the variant where the client signs its request.
type signedProbeCodec struct {
	core
}

func (c *signedProbeCodec) Variant() Variant  { return SignedProbe }
func (c *signedProbeCodec) RequestSize() int  { return SignedProbeRequestSize }
func (c *signedProbeCodec) ResponseSize() int { return SignedProbeResponseSize }

func (c *signedProbeCodec) Validate(pkt []byte) bool {
	if len(pkt) != SignedProbeRequestSize {
		return false
	}
	if !c.fresh(pkt) {
		return false
	}
	want := c.sign(pkt[:headerLen])
	// hmac.Equal is constant time. A short-circuiting comparison here would
	// leak digest bytes through response timing.
	return hmac.Equal(want, pkt[headerLen:])
}

func (c *signedProbeCodec) BuildResponse(pkt []byte) []byte {
	resp := make([]byte, 0, SignedProbeResponseSize)
	resp = append(resp, pkt[:probeEchoLen]...)
	return c.appendAddr(resp)
}

// signedReplyCodec implements the variant where the server signs its response.
type signedReplyCodec struct {
	core
}

func (c *signedReplyCodec) Variant() Variant  { return SignedReply }
func (c *signedReplyCodec) RequestSize() int  { return SignedReplyRequestSize }
func (c *signedReplyCodec) ResponseSize() int { return SignedReplyResponseSize }

// Validate checks length and freshness only. This variant does not
// authenticate the requester; anyone may elicit a response.
func (c *signedReplyCodec) Validate(pkt []byte) bool {
	return len(pkt) == SignedReplyRequestSize && c.fresh(pkt)
}

func (c *signedReplyCodec) BuildResponse(pkt []byte) []byte {
	resp := make([]byte, 0, SignedReplyResponseSize)
	resp = append(resp, pkt[:SignedReplyRequestSize]...)
	resp = c.appendAddr(resp)
	return append(resp, c.sign(resp)...)
}
