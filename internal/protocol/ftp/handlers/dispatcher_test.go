package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
	"github.com/harborfs/harborftp/pkg/stats"
)

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher()

	t.Run("UnknownVerb", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()
		sink := &captureSink{}

		require.NoError(t, d.Dispatch(ctx, sctx, ftp.ParseRequest("FEAT"), sess, sink))
		last := sink.last(t)
		assert.Equal(t, ftp.CodeCommandNotImpl, last.code)
		assert.Equal(t, "FEAT", last.payload)
	})

	t.Run("AuthenticatedVerbBeforeLogin", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()

		for _, line := range []string{"PWD", "CWD /docs", "MDTM /hello.txt", "SITE STAT"} {
			sink := &captureSink{}
			require.NoError(t, d.Dispatch(ctx, sctx, ftp.ParseRequest(line), sess, sink))
			assert.Equal(t, ftp.CodeNotLoggedIn, sink.last(t).code, "line %q", line)
		}
	})

	t.Run("NoAuthVerbsBeforeLogin", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()
		sink := &captureSink{}

		require.NoError(t, d.Dispatch(ctx, sctx, ftp.ParseRequest("NOOP"), sess, sink))
		assert.Equal(t, ftp.CodeCommandOkay, sink.last(t).code)
	})

	t.Run("UsernamePendingStillRestricted", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()
		sink := &captureSink{}
		require.NoError(t, d.Dispatch(ctx, sctx, ftp.ParseRequest("USER alice"), sess, sink))
		require.Equal(t, ftp.StatusUsernamePending, sess.Status())

		require.NoError(t, d.Dispatch(ctx, sctx, ftp.ParseRequest("PWD"), sess, sink))
		assert.Equal(t, ftp.CodeNotLoggedIn, sink.last(t).code)
	})

	t.Run("PanicRecoveredIntoFailureReply", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()
		login(t, sctx, sess, "alice", "secret")

		d := NewDispatcher()
		d.register("BOOM", HandlerFunc(func(ctx context.Context, sctx *ftp.ServerContext, req *ftp.Request, sess *ftp.Session, sink ftp.ReplySink) error {
			panic("handler exploded")
		}))

		sink := &captureSink{}
		require.NoError(t, d.Dispatch(ctx, sctx, ftp.ParseRequest("BOOM"), sess, sink))
		assert.Equal(t, ftp.CodeSyntaxError, sink.last(t).code)
	})

	t.Run("QuitReturnsDisconnect", func(t *testing.T) {
		sctx := testContext(t, stats.Limits{})
		sess := newSession()
		sink := &captureSink{}

		err := d.Dispatch(ctx, sctx, ftp.ParseRequest("QUIT"), sess, sink)
		assert.ErrorIs(t, err, ftp.ErrDisconnect)
		assert.Equal(t, ftp.CodeClosingControl, sink.last(t).code)
	})
}
