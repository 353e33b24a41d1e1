// Package memory provides an in-memory FileSystemView backend.
//
// The backend is a flat map of virtual paths to entries shared by all views
// created from the same Tree. It backs handler tests and can serve as a
// scratch filesystem for demo deployments.
package memory

import (
	"fmt"
	gopath "path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harborfs/harborftp/pkg/user"
	"github.com/harborfs/harborftp/pkg/vfs"
)

type entry struct {
	dir      bool
	size     int64
	modified time.Time
}

// Tree is a shared in-memory filesystem. The zero value is not usable; use
// NewTree, which creates the root directory.
type Tree struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewTree creates a tree containing only the root directory.
func NewTree() *Tree {
	return &Tree{
		entries: map[string]*entry{
			"/": {dir: true, modified: time.Now()},
		},
	}
}

// AddDir adds a directory (and any missing parents) at the given virtual path.
func (t *Tree) AddDir(path string) *Tree {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addDirLocked(gopath.Clean("/" + path))
	return t
}

// AddFile adds a file at the given virtual path, creating parent directories
// as needed.
func (t *Tree) AddFile(path string, size int64, modified time.Time) *Tree {
	cleaned := gopath.Clean("/" + path)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.addDirLocked(gopath.Dir(cleaned))
	t.entries[cleaned] = &entry{size: size, modified: modified}
	return t
}

func (t *Tree) addDirLocked(path string) {
	for p := path; ; p = gopath.Dir(p) {
		if _, ok := t.entries[p]; !ok {
			t.entries[p] = &entry{dir: true, modified: time.Now()}
		}
		if p == "/" {
			return
		}
	}
}

func (t *Tree) lookup(path string) (*entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[path]
	return e, ok
}

// Factory creates views over a shared tree.
type Factory struct {
	tree *Tree
}

var _ vfs.Factory = (*Factory)(nil)

// NewFactory creates a factory serving views of the given tree.
func NewFactory(tree *Tree) *Factory {
	return &Factory{tree: tree}
}

// CreateView implements vfs.Factory. The in-memory backend ignores the
// user's home directory and roots every view at "/".
func (f *Factory) CreateView(u *user.User) (vfs.FileSystemView, error) {
	return NewView(f.tree, u), nil
}

// View is a session view over a shared Tree.
type View struct {
	tree     *Tree
	cwd      string
	username string
	writable bool
}

var _ vfs.FileSystemView = (*View)(nil)

// NewView creates a view rooted at "/" for the given user.
func NewView(tree *Tree, u *user.User) *View {
	writable := false
	username := ""
	if u != nil {
		writable = u.Authorize(user.NewWriteRequest()) != nil
		username = u.Name
	}
	return &View{tree: tree, cwd: "/", username: username, writable: writable}
}

func (v *View) object(virtual string) vfs.FileObject {
	e, ok := v.tree.lookup(virtual)
	return &fileObject{
		virtualPath: virtual,
		entry:       e,
		exists:      ok,
		username:    v.username,
		writable:    v.writable,
	}
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
	e, ok := v.tree.lookup(target)
	if !ok || !e.dir {
		return fmt.Errorf("%s: %w", path, vfs.ErrNotExist)
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
	e, ok := v.tree.lookup(target)
	if !ok || !e.dir {
		return nil, fmt.Errorf("%s: %w", path, vfs.ErrNotExist)
	}

	prefix := target
	if prefix != "/" {
		prefix += "/"
	}

	v.tree.mu.RLock()
	var names []string
	for p := range v.tree.entries {
		if p == target || !strings.HasPrefix(p, prefix) {
			continue
		}
		if strings.Contains(p[len(prefix):], "/") {
			continue
		}
		names = append(names, p)
	}
	v.tree.mu.RUnlock()

	sort.Strings(names)
	objects := make([]vfs.FileObject, 0, len(names))
	for _, p := range names {
		objects = append(objects, v.object(p))
	}
	return objects, nil
}

// Dispose implements vfs.FileSystemView.
func (v *View) Dispose() {}

type fileObject struct {
	virtualPath string
	entry       *entry
	exists      bool
	username    string
	writable    bool
}

var _ vfs.FileObject = (*fileObject)(nil)

func (f *fileObject) FullName() string { return f.virtualPath }

func (f *fileObject) ShortName() string {
	name := gopath.Base(f.virtualPath)
	if name == "/" {
		return "/"
	}
	return name
}

func (f *fileObject) DoesExist() bool    { return f.exists }
func (f *fileObject) IsDirectory() bool  { return f.exists && f.entry.dir }
func (f *fileObject) LinkCount() int {
	if f.IsDirectory() {
		return 3
	}
	return 1
}

func (f *fileObject) Size() int64 {
	if !f.exists || f.entry.dir {
		return 0
	}
	return f.entry.size
}

func (f *fileObject) LastModified() time.Time {
	if !f.exists {
		return time.Time{}
	}
	return f.entry.modified
}

func (f *fileObject) OwnerName() string { return f.username }
func (f *fileObject) GroupName() string { return "group" }

func (f *fileObject) HasReadPermission() bool { return f.exists }

func (f *fileObject) HasWritePermission() bool { return f.writable }

func (f *fileObject) HasDeletePermission() bool {
	return f.writable && f.virtualPath != "/"
}
