// Package logging provides structured logging for the lanlocate daemon and
// client.
//
// This package wraps the zap logger with convenience functions for the
// logging patterns used throughout the project: probe accept/reject events,
// WebSocket connection lifecycle, and raw wire dumps at debug level.
//
// Initialize logging once at startup:
//
//	if err := logging.Initialize("info"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// When no level is given and LANLOCATE_LOG_LEVEL is unset, logging is
// silent, which keeps one-shot client invocations clean.
//
// All functions are safe for concurrent use.
package logging
