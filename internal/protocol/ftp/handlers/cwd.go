package handlers

import (
	"context"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
)

// Cwd handles CWD. A missing argument means the view root.
func Cwd(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	sess.ResetState()

	target := req.Argument
	if target == "" {
		target = "/"
	}

	if err := sess.View().ChangeWorkingDirectory(target); err != nil {
		return sink.Send(ftp.CodeFileUnavailable, "CWD", target)
	}

	cwd, err := sess.View().CurrentDirectory()
	if err != nil {
		return sink.Send(ftp.CodeFileUnavailable, "CWD", target)
	}
	return sink.Send(ftp.CodeFileActionOkay, "CWD", cwd.FullName())
}
