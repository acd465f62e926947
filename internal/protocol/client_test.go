package protocol

import (
	"bytes"
	"testing"
	"time"
)

func TestBuildRequest(t *testing.T) {
	deviceID := [DeviceIDLen]byte{1, 2, 3, 4}
	nonce := [NonceLen]byte{5, 6, 7, 8}
	ts := time.Unix(1700000000, 0)

	tests := []struct {
		name    string
		variant Variant
		secret  []byte
		wantLen int
		wantErr bool
	}{
		{"signed-probe", SignedProbe, testSecret, SignedProbeRequestSize, false},
		{"signed-reply", SignedReply, nil, SignedReplyRequestSize, false},
		{"signed-probe without secret", SignedProbe, nil, 0, true},
		{"unknown variant", Variant("bogus"), testSecret, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(tt.variant, tt.secret, deviceID, nonce, ts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(req) != tt.wantLen {
				t.Errorf("request length = %d, want %d", len(req), tt.wantLen)
			}
			if !bytes.Equal(req[:DeviceIDLen], deviceID[:]) {
				t.Error("deviceID not at offset 0")
			}
			if !bytes.Equal(req[DeviceIDLen:DeviceIDLen+NonceLen], nonce[:]) {
				t.Error("nonce not at offset 16")
			}
		})
	}
}

// TestRoundTrip drives a full exchange through the client half and the server
// codec for both variants: build, validate, respond, verify.
func TestRoundTrip(t *testing.T) {
	deviceID := [DeviceIDLen]byte{0xca, 0xfe}
	nonce := [NonceLen]byte{0x01, 0x02, 0x03, 0x04}

	for _, v := range Variants() {
		t.Run(string(v), func(t *testing.T) {
			codec := newTestCodec(t, v)

			req, err := BuildRequest(v, testSecret, deviceID, nonce, fixedNow)
			if err != nil {
				t.Fatalf("BuildRequest() error = %v", err)
			}
			if !codec.Validate(req) {
				t.Fatal("freshly built request rejected")
			}

			resp := codec.BuildResponse(req)
			ep, ok := VerifyResponse(v, testSecret, req, resp)
			if !ok {
				t.Fatal("VerifyResponse() = false for authentic response")
			}
			if got := ep.IP.String(); got != "192.168.1.10" {
				t.Errorf("endpoint IP = %s, want 192.168.1.10", got)
			}
			if ep.Port != 4399 {
				t.Errorf("endpoint port = %d, want 4399", ep.Port)
			}
		})
	}
}

func TestVerifyResponseRejects(t *testing.T) {
	deviceID := [DeviceIDLen]byte{0xca, 0xfe}
	nonce := [NonceLen]byte{4, 3, 2, 1}

	t.Run("signed-reply wrong secret", func(t *testing.T) {
		codec := newTestCodec(t, SignedReply)
		req, _ := BuildRequest(SignedReply, nil, deviceID, nonce, fixedNow)
		resp := codec.BuildResponse(req)

		if _, ok := VerifyResponse(SignedReply, []byte("other-secret"), req, resp); ok {
			t.Error("response signed with a different secret verified")
		}
	})

	t.Run("signed-reply tampered port", func(t *testing.T) {
		codec := newTestCodec(t, SignedReply)
		req, _ := BuildRequest(SignedReply, nil, deviceID, nonce, fixedNow)
		resp := codec.BuildResponse(req)
		resp[33] ^= 0xff

		if _, ok := VerifyResponse(SignedReply, testSecret, req, resp); ok {
			t.Error("response with tampered port verified")
		}
	})

	t.Run("response to someone else's probe", func(t *testing.T) {
		codec := newTestCodec(t, SignedProbe)
		mine, _ := BuildRequest(SignedProbe, testSecret, deviceID, nonce, fixedNow)
		theirs, _ := BuildRequest(SignedProbe, testSecret, [DeviceIDLen]byte{0xee}, nonce, fixedNow)
		resp := codec.BuildResponse(theirs)

		if _, ok := VerifyResponse(SignedProbe, testSecret, mine, resp); ok {
			t.Error("response echoing a different probe verified")
		}
	})

	t.Run("truncated response", func(t *testing.T) {
		codec := newTestCodec(t, SignedProbe)
		req, _ := BuildRequest(SignedProbe, testSecret, deviceID, nonce, fixedNow)
		resp := codec.BuildResponse(req)

		if _, ok := VerifyResponse(SignedProbe, testSecret, req, resp[:37]); ok {
			t.Error("truncated response verified")
		}
	})

	t.Run("cross-variant response", func(t *testing.T) {
		codec := newTestCodec(t, SignedReply)
		req, _ := BuildRequest(SignedReply, nil, deviceID, nonce, fixedNow)
		resp := codec.BuildResponse(req)

		if _, ok := VerifyResponse(SignedProbe, testSecret, req, resp); ok {
			t.Error("signed-reply response verified as signed-probe")
		}
	})
}
