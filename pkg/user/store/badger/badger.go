// Package badger provides a BadgerDB-backed UserStore.
//
// User records are stored as JSON values under a namespaced key prefix
// ("user:<name>"), which keeps the schema self-documenting and leaves room
// for other record types in the same database. Passwords are stored as
// bcrypt hashes only; the cleartext never touches disk.
//
// The store is suitable for deployments where accounts must survive server
// restarts without requiring an external database.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/harborfs/harborftp/internal/logger"
	"github.com/harborfs/harborftp/pkg/user"
	"github.com/harborfs/harborftp/pkg/user/store"
)

const userKeyPrefix = "user:"

// userRecord is the on-disk representation of an account. Authorities are
// flattened into plain fields so the JSON stays stable and hand-editable.
type userRecord struct {
	Name                string `json:"name"`
	DisplayName         string `json:"display_name,omitempty"`
	PasswordHash        []byte `json:"password_hash,omitempty"`
	HomeDir             string `json:"home_dir"`
	Enabled             bool   `json:"enabled"`
	MaxIdleTimeSeconds  int    `json:"max_idle_time_seconds"`
	WritePermission     bool   `json:"write_permission"`
	MaxConcurrentLogins int    `json:"max_concurrent_logins"`
	MaxLoginsPerIP      int    `json:"max_logins_per_ip"`
	MaxUploadRate       int    `json:"max_upload_rate"`
	MaxDownloadRate     int    `json:"max_download_rate"`
}

func (r *userRecord) toUser() *user.User {
	authorities := []user.Authority{
		&user.ConcurrentLoginPermission{
			MaxConcurrentLogins:      r.MaxConcurrentLogins,
			MaxConcurrentLoginsPerIP: r.MaxLoginsPerIP,
		},
		&user.TransferRatePermission{
			MaxUploadRate:   r.MaxUploadRate,
			MaxDownloadRate: r.MaxDownloadRate,
		},
	}
	if r.WritePermission {
		// Write access first: ordering is part of the authorization
		// contract (first match wins).
		authorities = append([]user.Authority{user.NewWritePermission()}, authorities...)
	}

	return &user.User{
		Name:        r.Name,
		DisplayName: r.DisplayName,
		HomeDir:     r.HomeDir,
		Enabled:     r.Enabled,
		MaxIdleTime: time.Duration(r.MaxIdleTimeSeconds) * time.Second,
		Authorities: authorities,
	}
}

// BadgerUserStore implements store.UserStore on top of BadgerDB.
type BadgerUserStore struct {
	db        *badger.DB
	adminName string
}

var _ store.UserStore = (*BadgerUserStore)(nil)

// Options configures a BadgerUserStore.
type Options struct {
	// Path is the database directory. Required.
	Path string

	// AdminName is the administrator login name. Defaults to "admin".
	AdminName string

	// SyncWrites forces a sync on every write. User mutations are rare so
	// the durability is usually worth it.
	SyncWrites bool
}

// Open opens (creating if necessary) a Badger-backed user store.
func Open(opts Options) (*BadgerUserStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("badger user store: path is required")
	}
	if opts.AdminName == "" {
		opts.AdminName = "admin"
	}

	badgerOpts := badger.DefaultOptions(opts.Path).
		WithSyncWrites(opts.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger user store at %s: %w", opts.Path, err)
	}

	logger.Debug("Badger user store opened at %s", opts.Path)
	return &BadgerUserStore{db: db, adminName: opts.AdminName}, nil
}

func userKey(name string) []byte {
	return []byte(userKeyPrefix + name)
}

func (s *BadgerUserStore) getRecord(name string) (*userRecord, error) {
	var rec userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to read user %q: %w", name, err)
	}
	return &rec, nil
}

// Put adds or replaces a user record. The cleartext password is hashed
// before being written; an empty password keeps the existing hash (or none,
// for the anonymous user).
func (s *BadgerUserStore) Put(u *user.User, password string) error {
	if u == nil || u.Name == "" {
		return fmt.Errorf("cannot store user without a name")
	}

	rec := &userRecord{
		Name:               u.Name,
		DisplayName:        u.DisplayName,
		HomeDir:            u.HomeDir,
		Enabled:            u.Enabled,
		MaxIdleTimeSeconds: int(u.MaxIdleTime / time.Second),
	}

	if write, ok := u.Authorize(user.NewWriteRequest()).(*user.WriteRequest); ok && write != nil {
		rec.WritePermission = true
	}
	if login, ok := u.Authorize(&user.ConcurrentLoginRequest{}).(*user.ConcurrentLoginRequest); ok && login != nil {
		rec.MaxConcurrentLogins = login.MaxConcurrentLogins
		rec.MaxLoginsPerIP = login.MaxConcurrentLoginsPerIP
	}
	if rate, ok := u.Authorize(&user.TransferRateRequest{}).(*user.TransferRateRequest); ok && rate != nil {
		rec.MaxUploadRate = rate.MaxUploadRate
		rec.MaxDownloadRate = rate.MaxDownloadRate
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %q: %w", u.Name, err)
		}
		rec.PasswordHash = hash
	} else if existing, err := s.getRecord(u.Name); err == nil {
		rec.PasswordHash = existing.PasswordHash
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode user %q: %w", u.Name, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(u.Name), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write user %q: %w", u.Name, err)
	}
	return nil
}

// Delete removes a user record. Deleting an unknown user is not an error.
func (s *BadgerUserStore) Delete(name string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(userKey(name))
	})
	if err != nil {
		return fmt.Errorf("failed to delete user %q: %w", name, err)
	}
	return nil
}

// Authenticate implements store.UserStore. Unknown users, disabled accounts
// and password mismatches all collapse to ErrAuthenticationFailed.
func (s *BadgerUserStore) Authenticate(ctx context.Context, req store.AuthenticationRequest) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := req.Username
	if req.Anonymous {
		name = user.AnonymousUsername
	}

	rec, err := s.getRecord(name)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, store.ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("%w: %w", store.ErrAuthenticationFailed, err)
	}
	if !rec.Enabled {
		return nil, store.ErrAuthenticationFailed
	}

	if !req.Anonymous {
		if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(req.Password)); err != nil {
			return nil, store.ErrAuthenticationFailed
		}
	}

	return rec.toUser(), nil
}

// Exists implements store.UserStore.
func (s *BadgerUserStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.getRecord(name)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetByName implements store.UserStore.
func (s *BadgerUserStore) GetByName(ctx context.Context, name string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := s.getRecord(name)
	if err != nil {
		return nil, err
	}
	return rec.toUser(), nil
}

// IsAdmin implements store.UserStore.
func (s *BadgerUserStore) IsAdmin(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return name == s.adminName, nil
}

// AdminName implements store.UserStore.
func (s *BadgerUserStore) AdminName() string {
	return s.adminName
}

// Close closes the underlying database.
func (s *BadgerUserStore) Close() error {
	return s.db.Close()
}
