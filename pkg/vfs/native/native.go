// Package native provides a FileSystemView over the local filesystem.
//
// Each view is rooted at the user's home directory: virtual path "/" maps to
// the home directory on disk and relative navigation can never escape it.
// Write permission combines the user's write authority with the underlying
// file mode; a user without write authority sees a read-only tree no matter
// what the on-disk modes say.
package native

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	gopath "path"
	"path/filepath"
	"strings"
	"time"

	"github.com/harborfs/harborftp/pkg/user"
	"github.com/harborfs/harborftp/pkg/vfs"
)

// Factory creates native views rooted at each user's home directory.
type Factory struct{}

var _ vfs.Factory = (*Factory)(nil)

// NewFactory creates a native view factory.
func NewFactory() *Factory {
	return &Factory{}
}

// CreateView implements vfs.Factory. The user's home directory must exist
// and be a directory.
func (f *Factory) CreateView(u *user.User) (vfs.FileSystemView, error) {
	if u.HomeDir == "" {
		return nil, fmt.Errorf("user %q has no home directory", u.Name)
	}

	info, err := os.Stat(u.HomeDir)
	if err != nil {
		return nil, fmt.Errorf("home directory %s for user %q: %w", u.HomeDir, u.Name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("home directory %s for user %q is not a directory", u.HomeDir, u.Name)
	}

	writable := u.Authorize(user.NewWriteRequest()) != nil

	return &View{
		root:     filepath.Clean(u.HomeDir),
		cwd:      "/",
		username: u.Name,
		writable: writable,
	}, nil
}

// View is a native filesystem view. It is owned by a single connection
// goroutine and requires no locking.
type View struct {
	root     string
	cwd      string
	username string
	writable bool
}

var _ vfs.FileSystemView = (*View)(nil)

// realPath maps a cleaned virtual path to an on-disk path under the root.
func (v *View) realPath(virtual string) string {
	rel := strings.TrimPrefix(virtual, "/")
	if rel == "" {
		return v.root
	}
	return filepath.Join(v.root, filepath.FromSlash(rel))
}

func (v *View) object(virtual string) *fileObject {
	obj := &fileObject{
		virtualPath: virtual,
		username:    v.username,
		writable:    v.writable,
	}
	info, err := os.Stat(v.realPath(virtual))
	if err == nil {
		obj.info = info
	}
	return obj
}

// HomeDirectory implements vfs.FileSystemView.
func (v *View) HomeDirectory() (vfs.FileObject, error) {
	return v.object("/"), nil
}

// CurrentDirectory implements vfs.FileSystemView.
func (v *View) CurrentDirectory() (vfs.FileObject, error) {
	return v.object(v.cwd), nil
}

// ChangeWorkingDirectory implements vfs.FileSystemView.
func (v *View) ChangeWorkingDirectory(path string) error {
	target := vfs.ResolveVirtual(v.cwd, path)

	info, err := os.Stat(v.realPath(target))
	if err != nil {
		return fmt.Errorf("%s: %w", path, vfs.ErrNotExist)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", path, vfs.ErrNotExist)
	}

	v.cwd = target
	return nil
}

// GetFileObject implements vfs.FileSystemView.
func (v *View) GetFileObject(path string) (vfs.FileObject, error) {
	return v.object(vfs.ResolveVirtual(v.cwd, path)), nil
}

// ListFiles implements vfs.FileSystemView.
func (v *View) ListFiles(path string) ([]vfs.FileObject, error) {
	target := vfs.ResolveVirtual(v.cwd, path)

	entries, err := os.ReadDir(v.realPath(target))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, vfs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}

	objects := make([]vfs.FileObject, 0, len(entries))
	for _, entry := range entries {
		objects = append(objects, v.object(gopath.Join(target, entry.Name())))
	}
	return objects, nil
}

// Dispose implements vfs.FileSystemView. Native views hold no resources.
func (v *View) Dispose() {}

// fileObject adapts an os.FileInfo to vfs.FileObject. A nil info marks a
// path with nothing behind it.
type fileObject struct {
	virtualPath string
	info        fs.FileInfo
	username    string
	writable    bool
}

var _ vfs.FileObject = (*fileObject)(nil)

func (f *fileObject) FullName() string {
	return f.virtualPath
}

func (f *fileObject) ShortName() string {
	name := gopath.Base(f.virtualPath)
	if name == "/" {
		return "/"
	}
	return name
}

func (f *fileObject) DoesExist() bool {
	return f.info != nil
}

func (f *fileObject) IsDirectory() bool {
	return f.info != nil && f.info.IsDir()
}

func (f *fileObject) Size() int64 {
	if f.info == nil || f.info.IsDir() {
		return 0
	}
	return f.info.Size()
}

func (f *fileObject) LastModified() time.Time {
	if f.info == nil {
		return time.Time{}
	}
	return f.info.ModTime()
}

func (f *fileObject) LinkCount() int {
	if f.IsDirectory() {
		return 3
	}
	return 1
}

func (f *fileObject) OwnerName() string {
	return f.username
}

func (f *fileObject) GroupName() string {
	return "group"
}

func (f *fileObject) HasReadPermission() bool {
	return f.info != nil && f.info.Mode().Perm()&0o400 != 0
}

func (f *fileObject) HasWritePermission() bool {
	if !f.writable {
		return false
	}
	if f.info == nil {
		// A missing path is writable if its parent tree is; creation is
		// decided by the backend at write time.
		return true
	}
	return f.info.Mode().Perm()&0o200 != 0
}

func (f *fileObject) HasDeletePermission() bool {
	if f.virtualPath == "/" {
		return false
	}
	return f.HasWritePermission()
}
