// Lanlocate is the client side of the lanlocate LAN discovery protocol.
//
// It broadcasts an authenticated UDP probe and prints the WebSocket endpoint
// the server announces in its reply.
//
// Usage:
//
//	lanlocate discover --secret shared-secret
//
// See 'lanlocate discover --help' for available options.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lanlocate/lanlocate/internal/discovery"
	"github.com/lanlocate/lanlocate/internal/logging"
	"github.com/lanlocate/lanlocate/internal/protocol"
	"github.com/lanlocate/lanlocate/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lanlocate",
	Short: "lanlocate discovery client",
	Long: `Locate a lanlocate server on the local network.

The client broadcasts a UDP probe carrying a device ID, a random nonce and
the current timestamp; a server sharing the same secret answers with its
IPv4 address and WebSocket port. The variant must match the server's:

  signed-probe   the probe is signed, the reply is not
  signed-reply   the probe is open, the reply is signed and verified here`,
	Version: version.Version,
}

var (
	secret   string
	port     int
	variant  string
	deviceID string
	timeout  time.Duration
	attempts int
	logLevel string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Broadcast a probe and print the discovered endpoint",
	Example: `  # Locate the server with the default variant
  lanlocate discover --secret shared-secret

  # Signed-reply variant on a custom port with more patience
  lanlocate discover --secret shared-secret --variant signed-reply --port 6000 --attempts 5`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVar(&secret, "secret", "", "Shared secret for HMAC (required)")
	discoverCmd.Flags().IntVar(&port, "port", 5354, "Server UDP discovery port")
	discoverCmd.Flags().StringVar(&variant, "variant", string(protocol.SignedProbe), "Protocol variant (signed-probe or signed-reply)")
	discoverCmd.Flags().StringVar(&deviceID, "device-id", "lanlocate-client", "Device identifier sent in probes (16 bytes on the wire)")
	discoverCmd.Flags().DurationVar(&timeout, "timeout", discovery.DefaultTimeout, "Per-attempt response timeout")
	discoverCmd.Flags().IntVar(&attempts, "attempts", discovery.DefaultAttempts, "Number of probes before giving up")
	discoverCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; silent when empty)")
	_ = discoverCmd.MarkFlagRequired("secret")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(versionCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	prober, err := discovery.NewProber(discovery.Config{
		Variant:  protocol.Variant(variant),
		Secret:   []byte(secret),
		Port:     port,
		DeviceID: deviceID,
		Timeout:  timeout,
		Attempts: attempts,
	})
	if err != nil {
		return err
	}

	ep, err := prober.Discover(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("ws://%s/ws\n", ep)
	return nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lanlocate %s (commit: %s)\n", version.Version, version.Commit)
	},
}
