// Package server implements the companion WebSocket endpoint.
//
// The discovery protocol exists to announce this endpoint's port, so the
// daemon runs a real one: an HTTP server with a WebSocket upgrade at /ws and
// a liveness check at /healthz. Sessions get a hello message after the
// upgrade, JSON echoes of text messages, and keepalive pings.
package server
