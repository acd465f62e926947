// Package listener runs the UDP receive loop for discovery probes.
//
// The listener owns the raw datagram socket and nothing else: every received
// payload goes to the protocol codec, and only codec-produced bytes ever go
// back out. Probes are dispatched to a small worker pool over a channel, so
// a burst of broadcasts cannot stall the read loop.
//
// Lifecycle is explicit: New binds the socket, Serve blocks until the
// context is cancelled, Shutdown drains in-flight work. Signal handling
// belongs to the caller.
package listener
