// Package config holds the lanlocated daemon configuration.
//
// Configuration comes from an optional YAML file with command-line flags
// layered on top. A minimal file looks like:
//
//	secret: shared-secret
//	udp_port: 5354
//	ws_port: 8080
//	variant: signed-probe
//
// Validate runs once at startup and is the only place configuration errors
// are fatal; the running daemon never stops over a bad datagram.
package config
