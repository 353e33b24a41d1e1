package ftp

import (
	"crypto/tls"
	"crypto/x509"
	"time"

	"github.com/google/uuid"

	"github.com/harborfs/harborftp/internal/ratelimiter"
	"github.com/harborfs/harborftp/pkg/user"
	"github.com/harborfs/harborftp/pkg/vfs"
)

// Status is the authentication state of a session.
type Status int

const (
	// StatusUnauthenticated is the initial state, also reached again after
	// REIN or logout.
	StatusUnauthenticated Status = iota

	// StatusUsernamePending means USER supplied a candidate username and
	// the session is waiting for PASS.
	StatusUsernamePending

	// StatusAuthenticated means a login committed.
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUsernamePending:
		return "username-pending"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// DefaultIdleTimeout applies until a login installs the user's own idle
// policy.
const DefaultIdleTimeout = 5 * time.Minute

// DefaultMLSTFacts is the fact set MLST renders until OPTS MLST negotiates
// a different one.
var DefaultMLSTFacts = []string{"size", "modify", "type"}

// Session is the per-connection state machine. Exactly one connection
// goroutine owns a session; no internal locking is needed.
//
// The authenticated user reference is non-nil iff the status is
// StatusAuthenticated. The status is derived from the fields rather than
// stored, so the invariant cannot be broken by a missed update.
type Session struct {
	id         string
	clientAddr string
	tlsState   *tls.ConnectionState

	pendingUsername string
	user            *user.User
	view            vfs.FileSystemView

	idleTimeout time.Duration

	// Transient per-command state, cleared by ResetState.
	renameFrom    string
	restartOffset int64

	// mlstFacts survives ResetState: it is negotiated once by OPTS MLST
	// and consumed by every later MLST.
	mlstFacts []string

	limiter *ratelimiter.TransferLimiter
}

// Snapshot captures the login-affecting fields for rollback.
type Snapshot struct {
	User            *user.User
	PendingUsername string
	IdleTimeout     time.Duration
}

// NewSession creates a session for a freshly accepted control connection.
// tlsState is nil for plaintext connections.
func NewSession(clientAddr string, tlsState *tls.ConnectionState) *Session {
	return &Session{
		id:          uuid.NewString(),
		clientAddr:  clientAddr,
		tlsState:    tlsState,
		idleTimeout: DefaultIdleTimeout,
		mlstFacts:   append([]string(nil), DefaultMLSTFacts...),
	}
}

// ID returns the session identifier used for log correlation.
func (s *Session) ID() string {
	return s.id
}

// ClientAddr returns the remote address of the control connection.
func (s *Session) ClientAddr() string {
	return s.clientAddr
}

// Status derives the authentication state from the session fields.
func (s *Session) Status() Status {
	switch {
	case s.user != nil:
		return StatusAuthenticated
	case s.pendingUsername != "":
		return StatusUsernamePending
	default:
		return StatusUnauthenticated
	}
}

// ResetState clears the transient per-command fields. It never touches the
// authentication state, the pending username, or the view; command
// reception clears rename markers and restart offsets, nothing more.
func (s *Session) ResetState() {
	s.renameFrom = ""
	s.restartOffset = 0
}

// Reinitialize returns the session to the unauthenticated state: user,
// view, pending username, and transient state are cleared and the idle
// timeout falls back to the default. The session identifier and transport
// facts survive.
func (s *Session) Reinitialize() {
	if s.view != nil {
		s.view.Dispose()
	}
	s.user = nil
	s.view = nil
	s.pendingUsername = ""
	s.idleTimeout = DefaultIdleTimeout
	s.limiter = nil
	s.ResetState()
}

// Snapshot captures user, pending username, and idle timeout for the login
// rollback.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		User:            s.user,
		PendingUsername: s.pendingUsername,
		IdleTimeout:     s.idleTimeout,
	}
}

// Restore puts back exactly the fields captured by Snapshot.
func (s *Session) Restore(snap Snapshot) {
	s.user = snap.User
	s.pendingUsername = snap.PendingUsername
	s.idleTimeout = snap.IdleTimeout
}

// PendingUsername returns the username supplied by USER, or "".
func (s *Session) PendingUsername() string {
	return s.pendingUsername
}

// SetPendingUsername records the candidate username from USER.
func (s *Session) SetPendingUsername(name string) {
	s.pendingUsername = name
}

// User returns the authenticated user, nil before login.
func (s *Session) User() *user.User {
	return s.user
}

// SetUser installs or clears the tentative user during the login flow.
func (s *Session) SetUser(u *user.User) {
	s.user = u
}

// View returns the session's filesystem view, nil before login.
func (s *Session) View() vfs.FileSystemView {
	return s.view
}

// SetLogin commits a successful login: the view is installed, the pending
// username cleared, and the user's idle and transfer-rate policies applied.
// The user reference must already be set.
func (s *Session) SetLogin(view vfs.FileSystemView) {
	s.view = view
	s.pendingUsername = ""
	if s.user != nil && s.user.MaxIdleTime > 0 {
		s.idleTimeout = s.user.MaxIdleTime
	}

	s.limiter = nil
	if s.user != nil {
		if res := s.user.Authorize(&user.TransferRateRequest{}); res != nil {
			if rate, ok := res.(*user.TransferRateRequest); ok {
				s.limiter = ratelimiter.New(rate.MaxUploadRate, rate.MaxDownloadRate)
			}
		}
	}
}

// IdleTimeout returns the current idle timeout for the control connection.
func (s *Session) IdleTimeout() time.Duration {
	return s.idleTimeout
}

// SetIdleTimeout overrides the idle timeout.
func (s *Session) SetIdleTimeout(d time.Duration) {
	if d > 0 {
		s.idleTimeout = d
	}
}

// TransferLimiter returns the per-session transfer throttle installed at
// login, nil when the user has no rate authority.
func (s *Session) TransferLimiter() *ratelimiter.TransferLimiter {
	return s.limiter
}

// RenameFrom returns the pending rename source path, "" when none.
func (s *Session) RenameFrom() string {
	return s.renameFrom
}

// SetRenameFrom records the rename source path until the next command.
func (s *Session) SetRenameFrom(path string) {
	s.renameFrom = path
}

// RestartOffset returns the pending restart offset.
func (s *Session) RestartOffset() int64 {
	return s.restartOffset
}

// SetRestartOffset records a restart offset until the next command.
func (s *Session) SetRestartOffset(offset int64) {
	s.restartOffset = offset
}

// MLSTFacts returns the negotiated MLST fact set.
func (s *Session) MLSTFacts() []string {
	return s.mlstFacts
}

// SetMLSTFacts installs the fact set negotiated by OPTS MLST.
func (s *Session) SetMLSTFacts(facts []string) {
	s.mlstFacts = facts
}

// Secure reports whether the control connection runs over TLS.
func (s *Session) Secure() bool {
	return s.tlsState != nil
}

// PeerCertificates returns the client's certificate chain when the
// transport is encrypted and the client presented one. Retrieval is best
// effort: plaintext connections and clients without certificates simply
// yield nil.
func (s *Session) PeerCertificates() []*x509.Certificate {
	if s.tlsState == nil || len(s.tlsState.PeerCertificates) == 0 {
		return nil
	}
	return s.tlsState.PeerCertificates
}
