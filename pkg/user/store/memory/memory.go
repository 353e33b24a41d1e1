// Package memory provides an in-memory UserStore.
//
// It backs tests and small static deployments where the user list comes from
// the configuration file. Passwords are stored as bcrypt hashes even here so
// that the authentication path is identical to the persistent store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/harborfs/harborftp/pkg/user"
	"github.com/harborfs/harborftp/pkg/user/store"
)

// DefaultAdminName is used when no administrator is configured.
const DefaultAdminName = "admin"

type record struct {
	user         *user.User
	passwordHash []byte
}

// MemoryUserStore is a thread-safe, map-backed UserStore.
type MemoryUserStore struct {
	mu        sync.RWMutex
	users     map[string]*record
	adminName string
}

var _ store.UserStore = (*MemoryUserStore)(nil)

// NewMemoryUserStore creates an empty store. An empty adminName falls back
// to DefaultAdminName.
func NewMemoryUserStore(adminName string) *MemoryUserStore {
	if adminName == "" {
		adminName = DefaultAdminName
	}
	return &MemoryUserStore{
		users:     make(map[string]*record),
		adminName: adminName,
	}
}

// Put adds or replaces a user. The cleartext password is hashed before it is
// stored; an empty password is only acceptable for the anonymous user.
func (s *MemoryUserStore) Put(u *user.User, password string) error {
	if u == nil || u.Name == "" {
		return fmt.Errorf("cannot store user without a name")
	}
	if password == "" && u.Name != user.AnonymousUsername {
		return fmt.Errorf("cannot store user %q without a password", u.Name)
	}

	var hash []byte
	if password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %q: %w", u.Name, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Name] = &record{user: u.Clone(), passwordHash: hash}
	return nil
}

// Authenticate implements store.UserStore.
//
// Anonymous attempts succeed when an enabled "anonymous" account exists; the
// password (conventionally an email address) is not verified. Named attempts
// verify the bcrypt hash. Every failure collapses to ErrAuthenticationFailed.
func (s *MemoryUserStore) Authenticate(ctx context.Context, req store.AuthenticationRequest) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	name := req.Username
	if req.Anonymous {
		name = user.AnonymousUsername
	}

	rec, ok := s.users[name]
	if !ok || !rec.user.Enabled {
		return nil, store.ErrAuthenticationFailed
	}

	if !req.Anonymous {
		if err := bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(req.Password)); err != nil {
			return nil, store.ErrAuthenticationFailed
		}
	}

	return rec.user.Clone(), nil
}

// Exists implements store.UserStore.
func (s *MemoryUserStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[name]
	return ok, nil
}

// GetByName implements store.UserStore.
func (s *MemoryUserStore) GetByName(ctx context.Context, name string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[name]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", name, store.ErrUserNotFound)
	}
	return rec.user.Clone(), nil
}

// IsAdmin implements store.UserStore.
func (s *MemoryUserStore) IsAdmin(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return name == s.adminName, nil
}

// AdminName implements store.UserStore.
func (s *MemoryUserStore) AdminName() string {
	return s.adminName
}

// Close implements store.UserStore. The memory store holds no resources.
func (s *MemoryUserStore) Close() error {
	return nil
}
