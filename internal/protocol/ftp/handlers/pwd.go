package handlers

import (
	"context"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
)

// Pwd handles PWD, replying 257 with the current working directory.
func Pwd(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	sess.ResetState()

	cwd, err := sess.View().CurrentDirectory()
	if err != nil {
		return sink.Send(ftp.CodeFileUnavailable, "PWD", "")
	}
	return sink.Send(ftp.CodePathCreated, "PWD", cwd.FullName())
}
