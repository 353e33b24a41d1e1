package handlers

import (
	"context"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
)

// Quit handles QUIT: say goodbye and ask the connection loop to close.
// Logout accounting happens in the connection teardown, which also covers
// clients that just drop the socket.
func Quit(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	sess.ResetState()

	if err := sink.Send(ftp.CodeClosingControl, "QUIT", ""); err != nil {
		return err
	}
	return ftp.ErrDisconnect
}
