package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lanlocate/lanlocate/internal/logging"
	"github.com/lanlocate/lanlocate/internal/version"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Discovery already gates who finds this endpoint; the usual browser
	// origin check does not apply to LAN device clients.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// helloMessage is sent once after the upgrade so clients can confirm they
// reached the server their probe located.
type helloMessage struct {
	Type    string `json:"type"`
	Server  string `json:"server"`
	Version string `json:"version"`
}

// echoMessage answers each text message.
type echoMessage struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// session wraps one upgraded connection. gorilla/websocket supports at most
// one concurrent writer per connection, and both the read loop (echo
// replies) and the keepalive ticker produce frames, so every write goes
// through the session mutex.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// write sends one frame, serialized against all other writers on this
// session.
func (s *session) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// pingLoop sends keepalive pings every interval until done closes.
func (s *session) pingLoop(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// handleWebSocket upgrades the connection and runs the session loop.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}
	logging.LogConnection(remoteAddr, "websocket_upgraded")

	sess := &session{conn: conn}
	defer func() {
		_ = conn.Close()
		logging.LogConnection(remoteAddr, "websocket_closed")
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	hello, _ := json.Marshal(helloMessage{
		Type:    "hello",
		Server:  "lanlocate",
		Version: version.Version,
	})
	if err := sess.write(websocket.TextMessage, hello); err != nil {
		return
	}

	// Keepalive pings on their own goroutine for the life of this session.
	done := make(chan struct{})
	defer close(done)
	go sess.pingLoop(pingPeriod, done)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Warn("WebSocket read error",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			reply, _ := json.Marshal(echoMessage{Type: "echo", Data: string(data)})
			if err := sess.write(websocket.TextMessage, reply); err != nil {
				return
			}
		case websocket.BinaryMessage:
			// No binary protocol is defined on this endpoint yet.
			logging.LogRawBytes("Unexpected binary WebSocket message", data)
		}
	}
}
