// Package ftp holds the control-connection engine: parsed requests, the
// reply writer, the per-connection session state machine, and the server
// context shared by all command handlers.
package ftp

import (
	"errors"

	"github.com/harborfs/harborftp/pkg/ftplet"
	"github.com/harborfs/harborftp/pkg/metrics"
	"github.com/harborfs/harborftp/pkg/stats"
	"github.com/harborfs/harborftp/pkg/user/store"
	"github.com/harborfs/harborftp/pkg/vfs"
)

// ErrDisconnect tells the connection loop to drop the session without
// writing any further reply. It is the forced-disconnect signal from hooks
// and from QUIT.
var ErrDisconnect = errors.New("session disconnect requested")

// ServerContext bundles the process-wide collaborators the handlers consult.
// It is shared read-only across all connection goroutines; the mutable parts
// (Stats) synchronize internally.
type ServerContext struct {
	// Users resolves credentials and administrative status.
	Users store.UserStore

	// Views creates a fresh filesystem view at every login.
	Views vfs.Factory

	// Stats owns the process-wide login counters and ceilings.
	Stats *stats.Statistics

	// Ftplets is the extension hook chain.
	Ftplets *ftplet.Chain

	// Metrics records command and connection activity. Never nil; use the
	// no-op implementation when metrics are disabled.
	Metrics metrics.FTPMetrics
}

// NewServerContext builds a context, substituting a no-op metrics sink and
// an empty hook chain when nil is given.
func NewServerContext(users store.UserStore, views vfs.Factory, st *stats.Statistics, chain *ftplet.Chain, m metrics.FTPMetrics) *ServerContext {
	if chain == nil {
		chain = ftplet.NewChain()
	}
	if m == nil {
		m = metrics.NewNoopFTPMetrics()
	}
	return &ServerContext{
		Users:   users,
		Views:   views,
		Stats:   st,
		Ftplets: chain,
		Metrics: m,
	}
}
