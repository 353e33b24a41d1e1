package handlers

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
	"github.com/harborfs/harborftp/pkg/ftplet"
	"github.com/harborfs/harborftp/pkg/stats"
)

func TestPass(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingArgument", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()
		sess.SetPendingUsername("alice")

		sink := &captureSink{}
		require.NoError(t, Pass(ctx, sctx, ftp.ParseRequest("PASS"), sess, sink))
		assert.Equal(t, ftp.CodeSyntaxErrorArguments, sink.last(t).code)

		// The pending username is untouched; the client may retry.
		assert.Equal(t, "alice", sess.PendingUsername())
	})

	t.Run("WithoutPriorUser", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()

		sink := &captureSink{}
		require.NoError(t, Pass(ctx, sctx, ftp.ParseRequest("PASS secret"), sess, sink))
		assert.Equal(t, ftp.CodeBadSequence, sink.last(t).code)
		assert.Equal(t, ftp.StatusUnauthenticated, sess.Status())
	})

	t.Run("SuccessfulLogin", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()
		sink := &captureSink{}
		require.NoError(t, User(ctx, sctx, ftp.ParseRequest("USER alice"), sess, sink))

		require.NoError(t, Pass(ctx, sctx, ftp.ParseRequest("PASS secret"), sess, sink))
		last := sink.last(t)
		assert.Equal(t, ftp.CodeUserLoggedIn, last.code)
		assert.Equal(t, "alice", last.payload)

		assert.Equal(t, ftp.StatusAuthenticated, sess.Status())
		assert.Empty(t, sess.PendingUsername())
		assert.NotNil(t, sess.View())
		assert.Equal(t, 1, sctx.Stats.CurrentLogins())
		assert.Equal(t, uint64(1), sctx.Stats.TotalLogins())

		// The transfer-rate authority materialized as a limiter.
		require.NotNil(t, sess.TransferLimiter())
		assert.Equal(t, 4096, sess.TransferLimiter().UploadLimit())
		assert.Equal(t, 8192, sess.TransferLimiter().DownloadLimit())
	})

	t.Run("RepeatedWhileLoggedIn", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()
		login(t, sctx, sess, "alice", "secret")

		sink := &captureSink{}
		require.NoError(t, Pass(ctx, sctx, ftp.ParseRequest("PASS whatever"), sess, sink))
		assert.Equal(t, ftp.CodeCommandNotImplSuper, sink.last(t).code)

		// A superfluous PASS never moves the counters.
		assert.Equal(t, 1, sctx.Stats.CurrentLogins())
		assert.Equal(t, uint64(1), sctx.Stats.TotalLogins())
	})

	t.Run("WrongPasswordRollsBack", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()
		sink := &captureSink{}
		require.NoError(t, User(ctx, sctx, ftp.ParseRequest("USER bob"), sess, sink))

		require.NoError(t, Pass(ctx, sctx, ftp.ParseRequest("PASS wrong"), sess, sink))
		last := sink.last(t)
		assert.Equal(t, ftp.CodeNotLoggedIn, last.code)
		assert.Equal(t, "bob", last.payload)

		// The pending username survives the failure, so the next PASS is a
		// fresh attempt, not a sequence error.
		assert.Equal(t, "bob", sess.PendingUsername())
		assert.Equal(t, ftp.StatusUsernamePending, sess.Status())
		assert.Equal(t, 0, sctx.Stats.CurrentLogins())
		assert.Equal(t, uint64(1), sctx.Stats.TotalFailedLogins())

		// Second wrong attempt replays the same refusal.
		require.NoError(t, Pass(ctx, sctx, ftp.ParseRequest("PASS still-wrong"), sess, sink))
		assert.Equal(t, ftp.CodeNotLoggedIn, sink.last(t).code)
		assert.Equal(t, uint64(2), sctx.Stats.TotalFailedLogins())
		assert.Equal(t, ftp.StatusUsernamePending, sess.Status())

		// Then the right one goes through.
		require.NoError(t, Pass(ctx, sctx, ftp.ParseRequest("PASS right"), sess, sink))
		assert.Equal(t, ftp.CodeUserLoggedIn, sink.last(t).code)
		assert.Equal(t, ftp.StatusAuthenticated, sess.Status())
	})

	t.Run("UnknownUserRollsBack", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()
		sink := &captureSink{}
		require.NoError(t, User(ctx, sctx, ftp.ParseRequest("USER mallory"), sess, sink))
		require.Equal(t, ftp.CodeNeedPassword, sink.last(t).code)

		require.NoError(t, Pass(ctx, sctx, ftp.ParseRequest("PASS anything"), sess, sink))
		assert.Equal(t, ftp.CodeNotLoggedIn, sink.last(t).code)
		assert.Equal(t, uint64(1), sctx.Stats.TotalFailedLogins())
	})

	t.Run("LoginInstallsUserIdlePolicy", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()
		login(t, sctx, sess, "bob", "right")

		assert.Equal(t, "bob", sess.User().Name)
		assert.Equal(t, sess.User().MaxIdleTime, sess.IdleTimeout())
	})

	t.Run("AnonymousCeilingAtCommit", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{MaxAnonymousLogins: 1})

		first := newSession()
		login(t, sctx, first, "anonymous", "one@example.com")

		sess := newSession()
		sess.SetPendingUsername("anonymous")
		sink := &captureSink{}
		require.NoError(t, Pass(ctx, sctx, ftp.ParseRequest("PASS two@example.com"), sess, sink))
		assert.Equal(t, ftp.CodeServiceNotAvailable, sink.last(t).code)

		assert.Equal(t, 1, sctx.Stats.CurrentAnonymousLogins())
		// A quota refusal is not a credential failure.
		assert.Equal(t, uint64(0), sctx.Stats.TotalFailedLogins())
	})

	t.Run("HookSkipVetoesLogin", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{}, &vetoLoginFtplet{action: ftplet.ActionSkip})
		sess := newSession()
		sink := &captureSink{}
		require.NoError(t, User(ctx, sctx, ftp.ParseRequest("USER alice"), sess, sink))

		require.NoError(t, Pass(ctx, sctx, ftp.ParseRequest("PASS secret"), sess, sink))
		assert.Equal(t, ftp.CodeNotLoggedIn, sink.last(t).code)

		assert.Equal(t, ftp.StatusUsernamePending, sess.Status())
		assert.Equal(t, 0, sctx.Stats.CurrentLogins())
		assert.Equal(t, uint64(1), sctx.Stats.TotalFailedLogins())
	})

	t.Run("HookDisconnectWritesNoReply", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{}, &vetoLoginFtplet{action: ftplet.ActionDisconnect})
		sess := newSession()
		sink := &captureSink{}
		require.NoError(t, User(ctx, sctx, ftp.ParseRequest("USER alice"), sess, sink))
		replyCount := len(sink.replies)

		err := Pass(ctx, sctx, ftp.ParseRequest("PASS secret"), sess, sink)
		assert.ErrorIs(t, err, ftp.ErrDisconnect)

		// No reply beyond the USER response, and no counter movement.
		assert.Len(t, sink.replies, replyCount)
		assert.Equal(t, 0, sctx.Stats.CurrentLogins())
		assert.Equal(t, uint64(0), sctx.Stats.TotalFailedLogins())
	})

	t.Run("ViewCreationFailureRollsBack", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sctx.Views = failingViewFactory{}

		sess := newSession()
		sink := &captureSink{}
		require.NoError(t, User(ctx, sctx, ftp.ParseRequest("USER alice"), sess, sink))

		require.NoError(t, Pass(ctx, sctx, ftp.ParseRequest("PASS secret"), sess, sink))
		assert.Equal(t, ftp.CodeNotLoggedIn, sink.last(t).code)
		assert.Equal(t, ftp.StatusUsernamePending, sess.Status())
		assert.Equal(t, 0, sctx.Stats.CurrentLogins())
	})

	t.Run("ConcurrentLoginsNeverOvershootCeiling", func(t *testing.T) {
		const attempts = 20
		const ceiling = 3

		sctx := testContext(t, stats.Limits{MaxLogins: ceiling})

		var wg sync.WaitGroup
		results := make([]int, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sess := newSession()
				sess.SetPendingUsername("alice")
				sink := &captureSink{}
				_ = Pass(ctx, sctx, ftp.ParseRequest("PASS secret"), sess, sink)
				if len(sink.replies) > 0 {
					results[i] = sink.replies[len(sink.replies)-1].code
				}
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, code := range results {
			if code == ftp.CodeUserLoggedIn {
				succeeded++
			}
		}
		assert.Equal(t, ceiling, succeeded)
		assert.Equal(t, ceiling, sctx.Stats.CurrentLogins())
		assert.Equal(t, uint64(ceiling), sctx.Stats.TotalLogins())
	})
}
