package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lanlocate/lanlocate/internal/logging"
)

// Config holds the WebSocket endpoint configuration.
type Config struct {
	// Host is the bind host (empty = all interfaces).
	Host string
	// Port is the TCP port. This is the port announced in discovery responses.
	Port int
}

// Server is the companion WebSocket endpoint whose port the discovery
// protocol announces. Clients that located the server via a probe connect
// here.
type Server struct {
	httpSrv *http.Server
}

// New creates the endpoint. Nothing listens until Serve is called.
func New(cfg Config) *Server {
	s := &Server{}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", handleHealth)

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	logging.Info("WebSocket endpoint starting",
		zap.String("addr", s.httpSrv.Addr),
	)

	stop := context.AfterFunc(ctx, func() {
		_ = s.httpSrv.Close()
	})
	defer stop()

	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) || ctx.Err() != nil {
		logging.Info("WebSocket endpoint stopped")
		return nil
	}
	return fmt.Errorf("websocket endpoint failed: %w", err)
}

// Shutdown stops accepting connections and waits for active ones, bounded
// by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
