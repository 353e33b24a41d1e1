package handlers

import (
	"context"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
)

// Rein handles REIN: log the user out and return the session to the
// unauthenticated state without closing the connection.
func Rein(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	if u := sess.User(); u != nil {
		sctx.Stats.Logout(u.IsAnonymous())
	}
	sess.Reinitialize()

	return sink.Send(ftp.CodeServiceReady, "REIN", "")
}
