package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/lanlocate/lanlocate/internal/logging"
	"github.com/lanlocate/lanlocate/internal/protocol"
)

// maxDatagramSize bounds a single read. Both request variants are under 64
// bytes; anything larger is garbage but must still be drained from the socket.
const maxDatagramSize = 1024

// Config holds the listener configuration.
type Config struct {
	// Port is the UDP port to bind (0 picks an ephemeral port, used in tests).
	Port int
	// Workers is the number of goroutines answering probes.
	Workers int
	// Codec validates probes and builds responses.
	Codec protocol.Codec
}

// datagram is one received probe handed from the read loop to a worker.
type datagram struct {
	payload []byte
	addr    *net.UDPAddr
}

// Listener owns the discovery UDP socket. It reads datagrams, hands them to
// a worker pool over a channel, and sends whatever the codec produces back
// to the originating address. A datagram that fails validation is dropped
// without a reply and never affects the next one.
type Listener struct {
	codec   protocol.Codec
	conn    *net.UDPConn
	workers int
	inbox   chan datagram

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New binds the discovery socket. The listener does not process anything
// until Serve is called.
func New(cfg Config) (*Listener, error) {
	if cfg.Codec == nil {
		return nil, fmt.Errorf("listener: nil codec")
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: cfg.Port})
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP port %d: %w", cfg.Port, err)
	}

	return &Listener{
		codec:   cfg.Codec,
		conn:    conn,
		workers: workers,
		inbox:   make(chan datagram, workers*4),
	}, nil
}

// Addr returns the bound socket address.
func (l *Listener) Addr() *net.UDPAddr {
	return l.conn.LocalAddr().(*net.UDPAddr)
}

// Serve runs the receive loop until ctx is cancelled or the socket fails.
// It returns nil on orderly shutdown.
func (l *Listener) Serve(ctx context.Context) error {
	logging.Info("Discovery listener started",
		zap.String("addr", l.Addr().String()),
		zap.String("variant", string(l.codec.Variant())),
		zap.Int("workers", l.workers),
	)

	stop := context.AfterFunc(ctx, l.closeConn)
	defer stop()

	for i := 0; i < l.workers; i++ {
		l.wg.Add(1)
		go l.worker()
	}

	var readErr error
	for {
		buf := make([]byte, maxDatagramSize)
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			readErr = err
			break
		}
		l.inbox <- datagram{payload: buf[:n], addr: addr}
	}

	close(l.inbox)
	l.wg.Wait()

	if errors.Is(readErr, net.ErrClosed) {
		logging.Info("Discovery listener stopped")
		return nil
	}
	return fmt.Errorf("discovery receive loop failed: %w", readErr)
}

// Shutdown closes the socket and waits for in-flight probes to drain,
// bounded by ctx.
func (l *Listener) Shutdown(ctx context.Context) error {
	l.closeConn()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, abandoning in-flight probes")
		return ctx.Err()
	}
}

func (l *Listener) closeConn() {
	l.closeOnce.Do(func() {
		_ = l.conn.Close()
	})
}

// worker validates probes and answers the valid ones.
func (l *Listener) worker() {
	defer l.wg.Done()

	for d := range l.inbox {
		remote := d.addr.String()

		if !l.codec.Validate(d.payload) {
			logging.LogProbe(remote, len(d.payload), false)
			continue
		}

		resp := l.codec.BuildResponse(d.payload)
		if _, err := l.conn.WriteToUDP(resp, d.addr); err != nil {
			logging.Warn("Failed to send discovery response",
				zap.String("remote_addr", remote),
				zap.Error(err),
			)
			continue
		}
		logging.LogProbe(remote, len(d.payload), true)
	}
}
