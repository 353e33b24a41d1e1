// Package vfs defines the virtual-filesystem abstraction consumed by the
// command handlers.
//
// A FileSystemView is a per-user, per-session window over some storage
// backend, rooted at the user's home directory. Views track a current
// working directory and resolve relative paths ("..", named children)
// against it. Views are created fresh at every login and are never shared
// across sessions; only the backend behind them is shared.
package vfs

import (
	"errors"
	"time"

	"github.com/harborfs/harborftp/pkg/user"
)

// ErrNotExist is returned by views when a path cannot be resolved. Handlers
// translate it (and any other view fault) into a not-found reply; backend
// error detail never reaches the client.
var ErrNotExist = errors.New("no such file or directory")

// FileObject describes one path as seen by the current user.
//
// A FileObject may describe a path that does not exist (DoesExist reports
// false); this mirrors the metadata commands, which must distinguish "the
// path is invalid" from "the path is fine but nothing is there".
type FileObject interface {
	// FullName is the absolute virtual path, normalized.
	FullName() string

	// ShortName is the last path element.
	ShortName() string

	// DoesExist reports whether anything is present at the path.
	DoesExist() bool

	// IsDirectory reports whether the object is a directory.
	IsDirectory() bool

	// Size is the object size in bytes; zero for directories.
	Size() int64

	// LastModified is the modification timestamp.
	LastModified() time.Time

	// LinkCount is the number of hard links; backends without link
	// tracking report 1 for files and 3 for directories.
	LinkCount() int

	// OwnerName and GroupName identify the owner as presented to clients.
	OwnerName() string
	GroupName() string

	// Permission flags as seen by the view's user.
	HasReadPermission() bool
	HasWritePermission() bool
	HasDeletePermission() bool
}

// FileSystemView is the per-session navigation state over a backend.
//
// Implementations are not required to be safe for concurrent use: exactly
// one connection goroutine owns a view.
type FileSystemView interface {
	// HomeDirectory returns the view's root.
	HomeDirectory() (FileObject, error)

	// CurrentDirectory returns the working directory.
	CurrentDirectory() (FileObject, error)

	// ChangeWorkingDirectory moves the working directory. The path may be
	// absolute, relative, or "..". Returns ErrNotExist (possibly wrapped)
	// when the target does not resolve to an existing directory.
	ChangeWorkingDirectory(path string) error

	// GetFileObject resolves a path relative to the working directory.
	// A well-formed path that points at nothing yields an object whose
	// DoesExist reports false, not an error.
	GetFileObject(path string) (FileObject, error)

	// ListFiles returns the children of the directory at path, or
	// ErrNotExist when the path does not resolve to a directory.
	ListFiles(path string) ([]FileObject, error)

	// Dispose releases any view resources. Called at logout.
	Dispose()
}

// Factory creates per-login views.
type Factory interface {
	// CreateView builds a fresh view rooted at the user's home directory.
	CreateView(u *user.User) (FileSystemView, error)
}
