// Lanlocated is the server side of the lanlocate LAN discovery protocol.
//
// It answers authenticated UDP discovery probes with this host's IPv4
// address and the port of the companion WebSocket endpoint, and runs that
// endpoint.
//
// Usage:
//
//	lanlocated serve [flags]
//
// See 'lanlocated serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanlocate/lanlocate/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lanlocated",
	Short: "lanlocate discovery server",
	Long: `The lanlocate daemon lets clients on the same LAN find this host without
knowing its address: they broadcast a small UDP probe, and the daemon answers
with this host's IPv4 address and the port of its WebSocket endpoint.
Authenticity rests on a shared secret with HMAC-SHA256 and a ±30 second
freshness window.

Two wire variants exist and do not interoperate; server and clients must
agree on one:

  signed-probe   the client signs its request, the reply is unsigned
  signed-reply   the request is open, the server signs its reply

Use the separate 'lanlocate' utility on the client side.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lanlocated %s (commit: %s)\n", version.Version, version.Commit)
	},
}
