// Package store defines the credential-store contract consumed by the
// session engine.
//
// The engine only ever reads from the store during request handling; user
// management (creating, saving, deleting users) is an administrative concern
// handled outside the command path.
package store

import (
	"context"
	"crypto/x509"
	"errors"

	"github.com/harborfs/harborftp/pkg/user"
)

// ErrAuthenticationFailed is returned by Authenticate when the presented
// credentials do not match a usable account. Stores collapse every failure
// mode (unknown user, wrong password, disabled account) into this error so
// that clients cannot distinguish them.
var ErrAuthenticationFailed = errors.New("authentication failed")

// ErrUserNotFound is returned by GetByName for unknown users.
var ErrUserNotFound = errors.New("user not found")

// AuthenticationRequest carries the credentials and connection metadata for
// one login attempt.
type AuthenticationRequest struct {
	// Username is the login name supplied by the USER command.
	Username string

	// Password is the cleartext password supplied by the PASS command.
	// For anonymous logins this is conventionally an email address and is
	// not verified.
	Password string

	// Anonymous marks the attempt as an anonymous login.
	Anonymous bool

	// ClientAddr is the network origin of the control connection.
	ClientAddr string

	// Certificates is the client's TLS peer certificate chain, when the
	// control connection is encrypted and the client presented one. The
	// chain is best effort: an empty slice is normal and never fails a
	// login by itself.
	Certificates []*x509.Certificate
}

// UserStore resolves and describes user accounts.
//
// Implementations must be safe for concurrent use: every control connection
// consults the store independently.
type UserStore interface {
	// Authenticate resolves a login attempt to a user. Any failure is
	// reported as ErrAuthenticationFailed (possibly wrapped); the returned
	// user is a private copy the caller may hold for the session lifetime.
	Authenticate(ctx context.Context, req AuthenticationRequest) (*user.User, error)

	// Exists reports whether a user with the given name is known.
	Exists(ctx context.Context, name string) (bool, error)

	// GetByName returns a copy of the named user, or ErrUserNotFound.
	GetByName(ctx context.Context, name string) (*user.User, error)

	// IsAdmin reports whether the named user is the store administrator.
	IsAdmin(ctx context.Context, name string) (bool, error)

	// Put creates or replaces the named user with the given password.
	Put(u *user.User, password string) error

	// AdminName returns the administrator login name.
	AdminName() string

	// Close releases store resources.
	Close() error
}
