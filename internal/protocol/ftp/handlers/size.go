package handlers

import (
	"context"
	"strconv"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
)

// Size handles SIZE: reply 213 with the byte count of a regular file.
// Directories and missing paths get 550 with the requested spelling.
func Size(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	sess.ResetState()

	if !req.HasArgument() {
		return sink.Send(ftp.CodeSyntaxErrorArguments, "SIZE", "")
	}

	obj, err := sess.View().GetFileObject(req.Argument)
	if err != nil || !obj.DoesExist() || obj.IsDirectory() {
		return sink.Send(ftp.CodeFileUnavailable, "SIZE", req.Argument)
	}

	return sink.Send(ftp.CodeFileStatus, "SIZE", strconv.FormatInt(obj.Size(), 10))
}
