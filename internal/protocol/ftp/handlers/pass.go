package handlers

import (
	"context"

	"github.com/harborfs/harborftp/internal/logger"
	"github.com/harborfs/harborftp/internal/protocol/ftp"
	"github.com/harborfs/harborftp/pkg/ftplet"
	"github.com/harborfs/harborftp/pkg/user"
	"github.com/harborfs/harborftp/pkg/user/store"
)

// Pass handles PASS, the second half of the login sequence.
//
// A failed attempt must leave the session exactly as it was before the
// attempt, pending username included, so the client can retry PASS without
// re-sending USER. The handler snapshots the login-affecting fields before
// the tentative apply and restores them on every failure path.
func Pass(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
	sess.ResetState()

	if !req.HasArgument() {
		return sink.Send(ftp.CodeSyntaxErrorArguments, "PASS", "")
	}
	password := req.Argument

	pending := sess.PendingUsername()
	if pending == "" && sess.User() == nil {
		return sink.Send(ftp.CodeBadSequence, "PASS", "")
	}

	// Re-submitting PASS while logged in is a harmless no-op. Counters
	// must not move.
	if sess.User() != nil {
		return sink.Send(ftp.CodeCommandNotImplSuper, "PASS", "")
	}

	anonymous := pending == user.AnonymousUsername

	// Ceiling pre-check: refuse before doing any credential work. The
	// authoritative, race-free check is the TryLogin at commit time.
	if anonymous && !sctx.Stats.AllowsAnonymousLogin() {
		return sink.Send(ftp.CodeServiceNotAvailable, "PASS", pending)
	}
	if !anonymous && !sctx.Stats.AllowsLogin() {
		return sink.Send(ftp.CodeServiceNotAvailable, "PASS", pending)
	}

	// Resolve credentials. Store faults and bad credentials collapse into
	// the same failure; the client never learns which it was. The peer
	// certificate chain is attached best effort.
	authUser, err := sctx.Users.Authenticate(ctx, store.AuthenticationRequest{
		Username:     pending,
		Password:     password,
		Anonymous:    anonymous,
		ClientAddr:   sess.ClientAddr(),
		Certificates: sess.PeerCertificates(),
	})
	if err != nil {
		logger.Debug("authentication failed for %q on session %s: %v", pending, sess.ID(), err)
		authUser = nil
	}
	success := authUser != nil

	snap := sess.Snapshot()

	// Tentative apply: the hooks see the session as it would look if the
	// login went through.
	if success {
		sess.SetUser(authUser)
		sess.SetPendingUsername("")
		sess.SetIdleTimeout(authUser.MaxIdleTime)
	} else {
		sess.SetUser(nil)
	}

	switch sctx.Ftplets.OnLogin(ctx, ftplet.Event{
		SessionID:  sess.ID(),
		ClientAddr: sess.ClientAddr(),
		Username:   pending,
		Anonymous:  anonymous,
	}) {
	case ftplet.ActionDisconnect:
		sess.Restore(snap)
		sess.ResetState()
		return ftp.ErrDisconnect
	case ftplet.ActionSkip:
		success = false
	}

	if success {
		view, err := sctx.Views.CreateView(sess.User())
		if err != nil {
			logger.Error("failed to create view for %q on session %s: %v", pending, sess.ID(), err)
			success = false
		} else if err := sctx.Stats.TryLogin(anonymous); err != nil {
			// The slot vanished between the pre-check and the commit.
			// Treat it as a quota refusal, not a credential failure.
			view.Dispose()
			sess.Restore(snap)
			sess.ResetState()
			return sink.Send(ftp.CodeServiceNotAvailable, "PASS", pending)
		} else {
			sess.SetLogin(view)
			logger.Info("session %s logged in as %q from %s", sess.ID(), pending, sess.ClientAddr())
			return sink.Send(ftp.CodeUserLoggedIn, "PASS", pending)
		}
	}

	sess.Restore(snap)
	sess.ResetState()
	sctx.Stats.LoginFailed(sess.ClientAddr())
	return sink.Send(ftp.CodeNotLoggedIn, "PASS", pending)
}
