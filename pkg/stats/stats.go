// Package stats owns the process-wide login counters and ceilings.
//
// Every mutation of the current-login counters goes through Statistics under
// a single lock, so the ceiling check and the increment are one atomic step
// and concurrent logins can never overshoot a limit. Callers never see raw
// read-then-write access to the counters.
package stats

import (
	"errors"
	"sync"

	"github.com/harborfs/harborftp/pkg/metrics"
)

// ErrTooManyUsers is returned by TryLogin when the total login ceiling is
// reached.
var ErrTooManyUsers = errors.New("too many logged-in users")

// ErrTooManyAnonymousUsers is returned by TryLogin when the anonymous login
// ceiling is reached.
var ErrTooManyAnonymousUsers = errors.New("too many anonymous users")

// Limits configures the login ceilings. A zero value means unlimited.
type Limits struct {
	MaxLogins          int
	MaxAnonymousLogins int
}

// Statistics tracks current and cumulative login activity for the whole
// process.
//
// All methods are safe for concurrent use.
type Statistics struct {
	mu sync.Mutex

	limits Limits

	currentLogins     int
	currentAnonLogins int

	totalLogins        uint64
	totalAnonLogins    uint64
	totalFailedLogins  uint64
	failedLoginsByAddr map[string]uint64
	totalConnections   uint64
	currentConnections int

	metrics metrics.FTPMetrics
}

// New creates a Statistics with the given ceilings. A nil metrics sink
// disables metric recording.
func New(limits Limits, m metrics.FTPMetrics) *Statistics {
	if m == nil {
		m = metrics.NewNoopFTPMetrics()
	}
	return &Statistics{
		limits:             limits,
		failedLoginsByAddr: make(map[string]uint64),
		metrics:            m,
	}
}

// TryLogin atomically checks the ceilings and claims a login slot.
//
// Returns ErrTooManyAnonymousUsers when an anonymous login would exceed the
// anonymous ceiling, ErrTooManyUsers when any login would exceed the total
// ceiling. On error no counter changes.
func (s *Statistics) TryLogin(anonymous bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if anonymous && s.limits.MaxAnonymousLogins > 0 && s.currentAnonLogins >= s.limits.MaxAnonymousLogins {
		return ErrTooManyAnonymousUsers
	}
	if s.limits.MaxLogins > 0 && s.currentLogins >= s.limits.MaxLogins {
		return ErrTooManyUsers
	}

	s.currentLogins++
	s.totalLogins++
	if anonymous {
		s.currentAnonLogins++
		s.totalAnonLogins++
	}

	s.metrics.RecordLogin(anonymous)
	s.metrics.SetCurrentLogins(int32(s.currentLogins), int32(s.currentAnonLogins))
	return nil
}

// Logout releases a login slot claimed by TryLogin. Calling it for a session
// that never logged in is a no-op.
func (s *Statistics) Logout(anonymous bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentLogins == 0 {
		return
	}
	s.currentLogins--
	if anonymous && s.currentAnonLogins > 0 {
		s.currentAnonLogins--
	}

	s.metrics.RecordLogout(anonymous)
	s.metrics.SetCurrentLogins(int32(s.currentLogins), int32(s.currentAnonLogins))
}

// LoginFailed records a failed login attempt from the given client address.
// Login counters are untouched; the failure only feeds the cumulative
// statistics.
func (s *Statistics) LoginFailed(clientAddr string) {
	s.mu.Lock()
	s.totalFailedLogins++
	if clientAddr != "" {
		s.failedLoginsByAddr[clientAddr]++
	}
	s.mu.Unlock()

	s.metrics.RecordLoginFailure()
}

// FailedLogins returns the number of failed login attempts recorded for the
// given client address.
func (s *Statistics) FailedLogins(clientAddr string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failedLoginsByAddr[clientAddr]
}

// AllowsLogin reports whether a login would currently be admitted under the
// total ceiling. It is advisory: the authoritative check is TryLogin.
func (s *Statistics) AllowsLogin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits.MaxLogins == 0 || s.currentLogins < s.limits.MaxLogins
}

// AllowsAnonymousLogin reports whether an anonymous login would currently be
// admitted under both ceilings. Advisory, like AllowsLogin.
func (s *Statistics) AllowsAnonymousLogin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limits.MaxAnonymousLogins > 0 && s.currentAnonLogins >= s.limits.MaxAnonymousLogins {
		return false
	}
	return s.limits.MaxLogins == 0 || s.currentLogins < s.limits.MaxLogins
}

// ConnectionOpened records a new control connection.
func (s *Statistics) ConnectionOpened() {
	s.mu.Lock()
	s.totalConnections++
	s.currentConnections++
	s.mu.Unlock()
}

// ConnectionClosed records a closed control connection.
func (s *Statistics) ConnectionClosed() {
	s.mu.Lock()
	if s.currentConnections > 0 {
		s.currentConnections--
	}
	s.mu.Unlock()
}

// CurrentLogins returns the number of logged-in sessions.
func (s *Statistics) CurrentLogins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLogins
}

// CurrentAnonymousLogins returns the number of anonymous logged-in sessions.
func (s *Statistics) CurrentAnonymousLogins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentAnonLogins
}

// CurrentConnections returns the number of open control connections.
func (s *Statistics) CurrentConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentConnections
}

// TotalLogins returns the cumulative successful login count.
func (s *Statistics) TotalLogins() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLogins
}

// TotalAnonymousLogins returns the cumulative anonymous login count.
func (s *Statistics) TotalAnonymousLogins() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalAnonLogins
}

// TotalFailedLogins returns the cumulative failed login count.
func (s *Statistics) TotalFailedLogins() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalFailedLogins
}

// TotalConnections returns the cumulative connection count.
func (s *Statistics) TotalConnections() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalConnections
}

// Limits returns the configured ceilings.
func (s *Statistics) Limits() Limits {
	return s.limits
}
