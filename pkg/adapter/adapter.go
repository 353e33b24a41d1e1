// Package adapter defines the protocol adapter interface managed by the
// server orchestrator.
package adapter

import (
	"context"
)

// Adapter is one protocol listener managed by HarborServer.
//
// Lifecycle:
//  1. Creation: the adapter is built with its configuration and the shared
//     engine context
//  2. Startup: Serve() starts the listener and blocks until shutdown
//  3. Shutdown: Stop() initiates graceful shutdown with timeout
//
// Implementations must be safe for concurrent use; Stop() may be called
// concurrently with Serve().
type Adapter interface {
	// Serve starts the protocol server and blocks until the context is
	// cancelled or an unrecoverable error occurs. On cancellation it must
	// stop accepting, drain active connections within its shutdown timeout,
	// and return context.Canceled or nil.
	Serve(ctx context.Context) error

	// Stop initiates graceful shutdown. Safe to call multiple times and
	// concurrently with Serve. The context bounds how long to wait.
	Stop(ctx context.Context) error

	// Protocol returns the human-readable protocol name for logging and
	// metrics, e.g. "FTP".
	Protocol() string

	// Port returns the TCP port the adapter listens on.
	Port() int
}
