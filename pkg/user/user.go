// Package user defines the user model and the capability-based authorization
// primitives used by the HarborFTP session engine.
//
// A User carries an ordered list of Authority objects. Authorization is
// evaluated by walking the list in stored order and letting the first
// authority that can decide a request variant do so; later authorities of the
// same decidable variant are never consulted. This is first-match-wins, not a
// merge of all matching authorities.
package user

import "time"

// AnonymousUsername is the conventional username for anonymous logins.
const AnonymousUsername = "anonymous"

// User is the identity a session authenticates as.
//
// Users are owned by the credential store and treated as immutable once
// loaded: sessions hold a shared, read-only reference, and changes to a user
// only take effect on the next login. Stores return fresh copies so a cached
// record can never be mutated through a session.
type User struct {
	// Name is the login name, unique within the store.
	Name string

	// DisplayName is an optional human-readable name shown in reports.
	// Empty means Name is used.
	DisplayName string

	// HomeDir is the root of the user's virtual filesystem view.
	HomeDir string

	// Enabled controls whether the user may log in at all.
	Enabled bool

	// MaxIdleTime is the default idle timeout adopted by the session at
	// login. Zero means the server default applies.
	MaxIdleTime time.Duration

	// Authorities is the ordered authority list consulted by Authorize.
	Authorities []Authority
}

// Authorize evaluates an authorization request against the user's ordered
// authority list.
//
// The first authority whose CanAuthorize predicate accepts the request
// variant decides it; its result is returned as-is, including a nil refusal.
// If no authority can decide the variant the request is implicitly
// unauthorized and nil is returned.
func (u *User) Authorize(request AuthorizationRequest) AuthorizationRequest {
	for _, authority := range u.Authorities {
		if authority.CanAuthorize(request) {
			return authority.Authorize(request)
		}
	}
	return nil
}

// IsAnonymous reports whether this is the anonymous user.
func (u *User) IsAnonymous() bool {
	return u.Name == AnonymousUsername
}

// Clone returns a shallow copy of the user with its own authority slice.
// Authority values themselves are stateless and safe to share.
func (u *User) Clone() *User {
	clone := *u
	clone.Authorities = make([]Authority, len(u.Authorities))
	copy(clone.Authorities, u.Authorities)
	return &clone
}
