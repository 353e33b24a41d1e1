package handlers

import (
	"context"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
)

// Mdtm handles MDTM: reply 213 with the modification time of the target.
// The 550 reply carries the path exactly as the client spelled it; path
// normalization is the view's business, not the handler's.
func Mdtm(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	sess.ResetState()

	if !req.HasArgument() {
		return sink.Send(ftp.CodeSyntaxErrorArguments, "MDTM", "")
	}

	obj, err := sess.View().GetFileObject(req.Argument)
	if err != nil || !obj.DoesExist() {
		return sink.Send(ftp.CodeFileUnavailable, "MDTM", req.Argument)
	}

	return sink.Send(ftp.CodeFileStatus, "MDTM", ftp.FormatFTPTimestamp(obj.LastModified()))
}
