package native

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborfs/harborftp/pkg/user"
	"github.com/harborfs/harborftp/pkg/vfs"
)

// setupHome builds an on-disk home directory with a small tree.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(home, "docs", "archive"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "docs", "report.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(home, "top.txt"), []byte("top"), 0o644))
	return home
}

func homeUser(home string) *user.User {
	return &user.User{
		Name:        "alice",
		HomeDir:     home,
		Enabled:     true,
		Authorities: []user.Authority{user.NewWritePermission()},
	}
}

func TestCreateView(t *testing.T) {
	factory := NewFactory()

	t.Run("RequiresHomeDir", func(t *testing.T) {
		_, err := factory.CreateView(&user.User{Name: "alice"})
		assert.Error(t, err)
	})

	t.Run("RequiresExistingDirectory", func(t *testing.T) {
		_, err := factory.CreateView(&user.User{Name: "alice", HomeDir: "/does/not/exist"})
		assert.Error(t, err)
	})

	t.Run("RefusesFileAsHome", func(t *testing.T) {
		home := setupHome(t)
		_, err := factory.CreateView(&user.User{Name: "alice", HomeDir: filepath.Join(home, "top.txt")})
		assert.Error(t, err)
	})

	t.Run("CreatesViewAtRoot", func(t *testing.T) {
		home := setupHome(t)
		v, err := factory.CreateView(homeUser(home))
		require.NoError(t, err)

		cwd, err := v.CurrentDirectory()
		require.NoError(t, err)
		assert.Equal(t, "/", cwd.FullName())
	})
}

func TestNativeNavigation(t *testing.T) {
	home := setupHome(t)
	v, err := NewFactory().CreateView(homeUser(home))
	require.NoError(t, err)

	t.Run("ChangeWorkingDirectory", func(t *testing.T) {
		require.NoError(t, v.ChangeWorkingDirectory("docs"))
		cwd, _ := v.CurrentDirectory()
		assert.Equal(t, "/docs", cwd.FullName())
	})

	t.Run("CannotEscapeRoot", func(t *testing.T) {
		require.NoError(t, v.ChangeWorkingDirectory("/"))
		require.NoError(t, v.ChangeWorkingDirectory("../../.."))
		cwd, _ := v.CurrentDirectory()
		assert.Equal(t, "/", cwd.FullName())
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		assert.ErrorIs(t, v.ChangeWorkingDirectory("/nope"), vfs.ErrNotExist)
	})

	t.Run("FileIsNotADirectory", func(t *testing.T) {
		assert.ErrorIs(t, v.ChangeWorkingDirectory("/top.txt"), vfs.ErrNotExist)
	})
}

func TestNativeFileObjects(t *testing.T) {
	home := setupHome(t)
	v, err := NewFactory().CreateView(homeUser(home))
	require.NoError(t, err)

	t.Run("ExistingFile", func(t *testing.T) {
		obj, err := v.GetFileObject("/docs/report.txt")
		require.NoError(t, err)
		assert.True(t, obj.DoesExist())
		assert.False(t, obj.IsDirectory())
		assert.Equal(t, int64(len("hello world")), obj.Size())
		assert.Equal(t, "report.txt", obj.ShortName())
		assert.False(t, obj.LastModified().IsZero())
	})

	t.Run("Directory", func(t *testing.T) {
		obj, err := v.GetFileObject("/docs")
		require.NoError(t, err)
		assert.True(t, obj.IsDirectory())
		assert.Zero(t, obj.Size())
		assert.Equal(t, 3, obj.LinkCount())
	})

	t.Run("MissingPath", func(t *testing.T) {
		obj, err := v.GetFileObject("/ghost.bin")
		require.NoError(t, err)
		assert.False(t, obj.DoesExist())
		assert.True(t, obj.LastModified().IsZero())
	})
}

func TestNativeListFiles(t *testing.T) {
	home := setupHome(t)
	v, err := NewFactory().CreateView(homeUser(home))
	require.NoError(t, err)

	objects, err := v.ListFiles("/docs")
	require.NoError(t, err)

	names := make([]string, 0, len(objects))
	for _, obj := range objects {
		names = append(names, obj.FullName())
	}
	assert.ElementsMatch(t, []string{"/docs/archive", "/docs/report.txt"}, names)

	_, err = v.ListFiles("/nope")
	assert.ErrorIs(t, err, vfs.ErrNotExist)
}

func TestNativePermissions(t *testing.T) {
	home := setupHome(t)

	t.Run("UserWithoutWriteAuthority", func(t *testing.T) {
		v, err := NewFactory().CreateView(&user.User{Name: "bob", HomeDir: home, Enabled: true})
		require.NoError(t, err)

		obj, _ := v.GetFileObject("/docs/report.txt")
		assert.True(t, obj.HasReadPermission())
		assert.False(t, obj.HasWritePermission())
	})

	t.Run("WriteAuthorityCombinesWithMode", func(t *testing.T) {
		v, err := NewFactory().CreateView(homeUser(home))
		require.NoError(t, err)

		obj, _ := v.GetFileObject("/docs/report.txt")
		assert.True(t, obj.HasWritePermission())
		assert.True(t, obj.HasDeletePermission())

		root, _ := v.GetFileObject("/")
		assert.False(t, root.HasDeletePermission())
	})
}
