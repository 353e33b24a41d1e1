package handlers

import (
	"context"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
)

// Noop handles NOOP.
func Noop(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	sess.ResetState()
	return sink.Send(ftp.CodeCommandOkay, "NOOP", "")
}
