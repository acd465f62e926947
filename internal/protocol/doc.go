// Package protocol implements the lanlocate discovery wire protocol.
//
// This package handles validation of binary discovery probes and construction
// of signed discovery responses. A client that knows nothing about the server
// except the shared secret broadcasts a small UDP probe; the server answers
// with its IPv4 address and the port of its WebSocket endpoint.
//
// # Wire Formats
//
// Two protocol variants exist. They are deliberately kept as distinct modes
// because their packets have different lengths and different signed spans;
// they do not interoperate.
//
// Signed-probe variant (the client proves knowledge of the secret):
//
//	request  (60 bytes): deviceID[16] nonce[4] timestamp[8] hmac[32]
//	response (38 bytes): request[0:32] serverIP[4] wsPort[2]
//
// The request HMAC-SHA256 covers bytes 0..28 (deviceID, nonce, timestamp).
// The response carries no signature; the client only learns that its own
// probe was accepted.
//
// Signed-reply variant (the server proves knowledge of the secret):
//
//	request  (28 bytes): deviceID[16] nonce[4] timestamp[8]
//	response (66 bytes): request[0:28] serverIP[4] wsPort[2] hmac[32]
//
// The response HMAC-SHA256 covers bytes 0..34. Any party can elicit a
// response, but only the legitimate server can sign one.
//
// All multi-byte integers are big-endian. The IPv4 address is four raw
// octets, never a formatted string.
//
// # Freshness
//
// Every request carries the client's wall-clock time in seconds since the
// Unix epoch. Requests whose timestamp differs from the server clock by more
// than 30 seconds are rejected. There is no nonce replay cache: a captured
// authentic packet replayed inside the window is accepted. That is a known
// property of the protocol, traded for keeping the server stateless.
//
// # Usage Example
//
//	codec, err := protocol.New(protocol.SignedProbe, protocol.Config{
//	    Secret:   []byte("shared-secret"),
//	    ServerIP: net.IPv4(192, 168, 1, 10),
//	    WSPort:   8080,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// In the datagram receive loop:
//	if codec.Validate(pkt) {
//	    conn.WriteToUDP(codec.BuildResponse(pkt), addr)
//	}
//
// # Thread Safety
//
// Codecs are stateless aside from the immutable configuration and are safe
// for concurrent use. Validate and BuildResponse perform no I/O and never
// block.
package protocol
