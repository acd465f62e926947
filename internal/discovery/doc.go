// Package discovery implements the client side of the lanlocate protocol:
// locating the server's WebSocket endpoint without knowing the server's
// address.
//
// # Discovery Process
//
// The prober works as follows:
//  1. Builds a discovery request (device ID, random nonce, current timestamp),
//     signed when the signed-probe variant is in use
//  2. Broadcasts it to 255.255.255.255 on the discovery port
//  3. Waits for a response whose echoed prefix matches the outstanding request
//  4. Verifies the response per variant (signed-reply responses carry an HMAC
//     that must check out before the announced address is trusted)
//  5. Returns the announced IPv4 address and WebSocket port
//
// Each attempt uses a fresh nonce and timestamp; the retry cadence is the
// client's recovery mechanism for lost datagrams.
//
// # Usage Example
//
//	prober, err := discovery.NewProber(discovery.Config{
//	    Variant:  protocol.SignedProbe,
//	    Secret:   []byte("shared-secret"),
//	    Port:     5354,
//	    DeviceID: "living-room-panel",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ep, err := prober.Discover(ctx)
package discovery
