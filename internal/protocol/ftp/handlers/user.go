package handlers

import (
	"context"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
	"github.com/harborfs/harborftp/pkg/user"
)

// User handles USER: it records the candidate username and asks for the
// password. Re-issuing USER while unauthenticated simply replaces the
// pending name.
func User(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	sess.ResetState()

	if !req.HasArgument() {
		return sink.Send(ftp.CodeSyntaxErrorArguments, "USER", "")
	}
	username := req.Argument

	// A logged-in session may re-announce the same name; switching names
	// requires REIN first.
	if current := sess.User(); current != nil {
		if current.Name == username {
			return sink.Send(ftp.CodeUserLoggedIn, "USER", username)
		}
		return sink.Send(ftp.CodeNotLoggedIn, "USER", username)
	}

	// Fast refusal when the ceilings already rule the login out. The
	// authoritative check still happens at PASS commit time.
	anonymous := username == user.AnonymousUsername
	if anonymous && !sctx.Stats.AllowsAnonymousLogin() {
		return sink.Send(ftp.CodeServiceNotAvailable, "USER", username)
	}
	if !anonymous && !sctx.Stats.AllowsLogin() {
		return sink.Send(ftp.CodeServiceNotAvailable, "USER", username)
	}

	sess.SetPendingUsername(username)
	return sink.Send(ftp.CodeNeedPassword, "USER", username)
}
