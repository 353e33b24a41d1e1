package handlers

import (
	"context"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
)

// Cdup handles CDUP: change the working directory to the parent. View
// faults are swallowed into a not-found reply.
func Cdup(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	sess.ResetState()

	if err := sess.View().ChangeWorkingDirectory(".."); err != nil {
		return sink.Send(ftp.CodeFileUnavailable, "CDUP", "..")
	}

	cwd, err := sess.View().CurrentDirectory()
	if err != nil {
		return sink.Send(ftp.CodeFileUnavailable, "CDUP", "..")
	}
	return sink.Send(ftp.CodeFileActionOkay, "CDUP", cwd.FullName())
}
