package protocol

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// Endpoint is the service location a discovery response announces.
type Endpoint struct {
	IP   net.IP
	Port uint16
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.IP, e.Port)
}

// BuildRequest assembles the client side of a discovery exchange: a request
// carrying deviceID, nonce and the timestamp ts, signed when the variant
// requires it. The timestamp should be the client's current wall-clock time;
// servers reject anything outside the freshness window.
func BuildRequest(v Variant, secret []byte, deviceID [DeviceIDLen]byte, nonce [NonceLen]byte, ts time.Time) ([]byte, error) {
	req := make([]byte, 0, SignedProbeRequestSize)
	req = append(req, deviceID[:]...)
	req = append(req, nonce[:]...)
	req = binary.BigEndian.AppendUint64(req, uint64(ts.Unix()))

	switch v {
	case SignedReply:
		return req, nil
	case SignedProbe:
		if len(secret) == 0 {
			return nil, fmt.Errorf("protocol: empty shared secret")
		}
		mac := hmac.New(sha256.New, secret)
		mac.Write(req)
		return mac.Sum(req), nil
	default:
		return nil, fmt.Errorf("protocol: unknown variant %q", v)
	}
}

// VerifyResponse checks a received response against the request it should
// answer and extracts the announced endpoint. For SignedReply the response
// MAC is verified in constant time; a response failing that check must not be
// trusted, since any host on the network can see the open request.
func VerifyResponse(v Variant, secret, request, response []byte) (Endpoint, bool) {
	switch v {
	case SignedProbe:
		if len(request) != SignedProbeRequestSize || len(response) != SignedProbeResponseSize {
			return Endpoint{}, false
		}
		if !bytes.Equal(response[:probeEchoLen], request[:probeEchoLen]) {
			return Endpoint{}, false
		}
		return endpointAt(response[probeEchoLen:]), true

	case SignedReply:
		if len(request) != SignedReplyRequestSize || len(response) != SignedReplyResponseSize {
			return Endpoint{}, false
		}
		if !bytes.Equal(response[:headerLen], request) {
			return Endpoint{}, false
		}
		mac := hmac.New(sha256.New, secret)
		mac.Write(response[:headerLen+addrLen])
		if !hmac.Equal(mac.Sum(nil), response[headerLen+addrLen:]) {
			return Endpoint{}, false
		}
		return endpointAt(response[headerLen:]), true

	default:
		return Endpoint{}, false
	}
}

// endpointAt decodes the 6-byte serverIP+wsPort span starting at b.
func endpointAt(b []byte) Endpoint {
	return Endpoint{
		IP:   net.IPv4(b[0], b[1], b[2], b[3]),
		Port: binary.BigEndian.Uint16(b[4:6]),
	}
}
