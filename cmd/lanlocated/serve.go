package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lanlocate/lanlocate/internal/announce"
	"github.com/lanlocate/lanlocate/internal/config"
	"github.com/lanlocate/lanlocate/internal/listener"
	"github.com/lanlocate/lanlocate/internal/logging"
	"github.com/lanlocate/lanlocate/internal/netutil"
	"github.com/lanlocate/lanlocate/internal/protocol"
	"github.com/lanlocate/lanlocate/internal/server"
	"github.com/lanlocate/lanlocate/internal/version"
)

// shutdownTimeout bounds the drain of in-flight work after a signal.
const shutdownTimeout = 10 * time.Second

var (
	configPath  string
	secret      string
	udpPort     int
	wsHost      string
	wsPort      int
	variant     string
	advertiseIP string
	mdns        bool
	workers     int
	logLevel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the discovery listener and WebSocket endpoint",
	Long: `Run the UDP discovery listener together with the WebSocket endpoint it
announces. Configuration comes from an optional YAML file; any flag set on
the command line overrides the file.`,
	Example: `  # Serve with everything on the command line
  lanlocated serve --secret shared-secret

  # Custom ports and the signed-reply variant
  lanlocated serve --secret shared-secret --port 6000 --ws-port 9000 --variant signed-reply

  # From a config file, with mDNS registration as well
  lanlocated serve --config /etc/lanlocate.yaml --mdns`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	serveCmd.Flags().StringVar(&secret, "secret", "", "Shared secret for HMAC verification")
	serveCmd.Flags().IntVar(&udpPort, "port", config.DefaultUDPPort, "UDP discovery port")
	serveCmd.Flags().StringVar(&wsHost, "ws-host", "", "WebSocket bind host (empty = all interfaces)")
	serveCmd.Flags().IntVar(&wsPort, "ws-port", config.DefaultWSPort, "WebSocket endpoint port (announced to clients)")
	serveCmd.Flags().StringVar(&variant, "variant", string(protocol.SignedProbe), "Protocol variant (signed-probe or signed-reply)")
	serveCmd.Flags().StringVar(&advertiseIP, "advertise-ip", "", "IPv4 address to announce (default: autodetected)")
	serveCmd.Flags().BoolVar(&mdns, "mdns", false, "Also register the endpoint over mDNS")
	serveCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "Probe worker goroutines")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// buildConfig merges the optional config file with flag overrides.
func buildConfig(cmd *cobra.Command) (*config.Server, error) {
	cfg := config.New()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("secret") {
		cfg.Secret = secret
	}
	if flags.Changed("port") {
		cfg.UDPPort = udpPort
	}
	if flags.Changed("ws-host") {
		cfg.WSHost = wsHost
	}
	if flags.Changed("ws-port") {
		cfg.WSPort = wsPort
	}
	if flags.Changed("variant") {
		cfg.Variant = variant
	}
	if flags.Changed("advertise-ip") {
		cfg.AdvertiseIP = advertiseIP
	}
	if flags.Changed("mdns") {
		cfg.MDNS = mdns
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	serverIP := net.ParseIP(cfg.AdvertiseIP)
	if serverIP == nil {
		serverIP, err = netutil.LocalIPv4()
		if err != nil {
			return fmt.Errorf("cannot determine address to announce (use --advertise-ip): %w", err)
		}
	}

	codec, err := protocol.New(protocol.Variant(cfg.Variant), protocol.Config{
		Secret:   []byte(cfg.Secret),
		ServerIP: serverIP,
		WSPort:   uint16(cfg.WSPort),
	})
	if err != nil {
		return err
	}

	lis, err := listener.New(listener.Config{
		Port:    cfg.UDPPort,
		Workers: cfg.Workers,
		Codec:   codec,
	})
	if err != nil {
		return err
	}

	ws := server.New(server.Config{Host: cfg.WSHost, Port: cfg.WSPort})

	logging.Info("Starting lanlocated",
		zap.String("version", version.Full()),
		zap.String("variant", cfg.Variant),
		zap.Int("udp_port", cfg.UDPPort),
		zap.Int("ws_port", cfg.WSPort),
		zap.String("advertised_ip", serverIP.String()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MDNS {
		ann, err := announce.Start("", cfg.WSPort, version.Version)
		if err != nil {
			return err
		}
		defer ann.Stop()
	}

	errc := make(chan error, 2)
	go func() { errc <- lis.Serve(ctx) }()
	go func() { errc <- ws.Serve(ctx) }()

	var runErr error
	remaining := 2
	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received, stopping...")
	case runErr = <-errc:
		remaining--
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := lis.Shutdown(sctx); err != nil && runErr == nil {
		runErr = err
	}
	if err := ws.Shutdown(sctx); err != nil && runErr == nil {
		runErr = err
	}

	// Both Serve goroutines exit once their sockets close.
	for ; remaining > 0; remaining-- {
		if err := <-errc; err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}
