package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(Config{})
	ts := httptest.NewServer(s.httpSrv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
}

func TestWebSocketHelloAndEcho(t *testing.T) {
	ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	// First message is the hello.
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("hello message type = %d, want text", msgType)
	}
	var hello helloMessage
	if err := json.Unmarshal(data, &hello); err != nil {
		t.Fatalf("hello is not JSON: %v", err)
	}
	if hello.Type != "hello" || hello.Server != "lanlocate" {
		t.Errorf("hello = %+v, want type=hello server=lanlocate", hello)
	}

	// Text messages are echoed.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping?")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var echo echoMessage
	if err := json.Unmarshal(data, &echo); err != nil {
		t.Fatalf("echo is not JSON: %v", err)
	}
	if echo.Type != "echo" || echo.Data != "ping?" {
		t.Errorf("echo = %+v, want type=echo data=ping?", echo)
	}
}

// TestWebSocketEchoDuringKeepalive drives echo traffic while keepalive
// pings fire on a tight interval, so ping and echo writes overlap on the
// same connection. Session writes must be serialized for this to pass
// under the race detector and keep frames intact.
func TestWebSocketEchoDuringKeepalive(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := &session{conn: conn}
		done := make(chan struct{})
		defer close(done)
		go sess.pingLoop(time.Millisecond, done)

		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			if err := sess.write(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	// Pings arriving mid-stream are answered by the default ping handler;
	// only the echoed text frames come back from ReadMessage.
	const rounds = 200
	for i := 0; i < rounds; i++ {
		msg := []byte(fmt.Sprintf("msg-%03d", i))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			t.Fatalf("WriteMessage(%d) error = %v", i, err)
		}
		_, got, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage(%d) error = %v", i, err)
		}
		if !bytes.Equal(got, msg) {
			t.Fatalf("echo %d = %q, want %q", i, got, msg)
		}
	}
}

func TestWebSocketUpgradeRequired(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/ws")
	if err != nil {
		t.Fatalf("GET /ws error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		t.Error("plain GET to /ws succeeded, want upgrade failure")
	}
}
