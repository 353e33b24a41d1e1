package handlers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harborfs/harborftp/internal/protocol/ftp"
	"github.com/harborfs/harborftp/pkg/ftplet"
	"github.com/harborfs/harborftp/pkg/stats"
	"github.com/harborfs/harborftp/pkg/user"
	"github.com/harborfs/harborftp/pkg/user/store"
	memorystore "github.com/harborfs/harborftp/pkg/user/store/memory"
	"github.com/harborfs/harborftp/pkg/vfs"
	memoryvfs "github.com/harborfs/harborftp/pkg/vfs/memory"
)

// reply is one captured Send call.
type reply struct {
	code    int
	key     string
	payload string
}

// captureSink records every reply a handler writes.
type captureSink struct {
	replies []reply
}

func (s *captureSink) Send(code int, messageKey string, payload string) error {
	s.replies = append(s.replies, reply{code: code, key: messageKey, payload: payload})
	return nil
}

func (s *captureSink) last(t *testing.T) reply {
	t.Helper()
	require.NotEmpty(t, s.replies, "handler wrote no reply")
	return s.replies[len(s.replies)-1]
}

// countingStore wraps a UserStore and counts GetByName calls.
type countingStore struct {
	store.UserStore
	getByNameCalls int
}

func (s *countingStore) GetByName(ctx context.Context, name string) (*user.User, error) {
	s.getByNameCalls++
	return s.UserStore.GetByName(ctx, name)
}

// failingViewFactory refuses every view creation.
type failingViewFactory struct{}

func (failingViewFactory) CreateView(u *user.User) (vfs.FileSystemView, error) {
	return nil, fmt.Errorf("backend unavailable")
}

// vetoLoginFtplet skips or disconnects logins depending on the action.
type vetoLoginFtplet struct {
	ftplet.DefaultFtplet
	action ftplet.Action
}

func (f *vetoLoginFtplet) OnLogin(ctx context.Context, ev ftplet.Event) (ftplet.Action, error) {
	return f.action, nil
}

// testTree builds the filesystem every handler test shares.
func testTree() *memoryvfs.Tree {
	tree := memoryvfs.NewTree()
	tree.AddDir("/docs")
	tree.AddDir("/docs/archive")
	tree.AddFile("/docs/report.txt", 1234, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC))
	tree.AddFile("/hello.txt", 5, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	return tree
}

// seedUsers populates the store with the accounts the tests log in as.
func seedUsers(t *testing.T, st *memorystore.MemoryUserStore) {
	t.Helper()

	writeUser := &user.User{
		Name:    "alice",
		HomeDir: "/",
		Enabled: true,
		Authorities: []user.Authority{
			user.NewWritePermission(),
			&user.ConcurrentLoginPermission{MaxConcurrentLogins: 2},
			&user.TransferRatePermission{MaxUploadRate: 4096, MaxDownloadRate: 8192},
		},
	}
	require.NoError(t, st.Put(writeUser, "secret"))

	require.NoError(t, st.Put(&user.User{
		Name:        "bob",
		HomeDir:     "/",
		Enabled:     true,
		MaxIdleTime: 90 * time.Second,
	}, "right"))

	require.NoError(t, st.Put(&user.User{
		Name:    "admin",
		HomeDir: "/",
		Enabled: true,
	}, "adminpw"))

	require.NoError(t, st.Put(&user.User{
		Name:    user.AnonymousUsername,
		HomeDir: "/",
		Enabled: true,
	}, ""))
}

// testContext builds a ServerContext over the memory store and memory tree.
func testContext(t *testing.T, limits stats.Limits, hooks ...ftplet.Ftplet) *ftp.ServerContext {
	t.Helper()

	st := memorystore.NewMemoryUserStore("admin")
	seedUsers(t, st)

	return ftp.NewServerContext(
		st,
		memoryvfs.NewFactory(testTree()),
		stats.New(limits, nil),
		ftplet.NewChain(hooks...),
		nil,
	)
}

func newSession() *ftp.Session {
	return ftp.NewSession("192.0.2.10:50000", nil)
}

// login walks a session through USER and PASS and asserts success.
func login(t *testing.T, sctx *ftp.ServerContext, sess *ftp.Session, username, password string) {
	t.Helper()

	sink := &captureSink{}
	require.NoError(t, User(context.Background(), sctx, ftp.ParseRequest("USER "+username), sess, sink))
	require.Equal(t, ftp.CodeNeedPassword, sink.last(t).code)

	require.NoError(t, Pass(context.Background(), sctx, ftp.ParseRequest("PASS "+password), sess, sink))
	require.Equal(t, ftp.CodeUserLoggedIn, sink.last(t).code)
	require.Equal(t, ftp.StatusAuthenticated, sess.Status())
}
