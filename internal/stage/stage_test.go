package stage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustWriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestInstallReplacesDestinationTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "onnx")
	mustWriteFile(t, src, "CMakeLists.txt", "project(onnx)")
	mustWriteFile(t, src, "src/main.cc", "int main() {}")
	require.NoError(t, os.Chmod(filepath.Join(src, "CMakeLists.txt"), 0o600))
	require.NoError(t, os.Symlink("src/main.cc", filepath.Join(src, "entry.cc")))

	dest := filepath.Join(root, "install")
	mustWriteFile(t, dest, "onnx/stale.txt", "old")

	installed, err := Install(context.Background(), Options{Src: src, Dest: dest})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dest, "onnx"), installed)

	_, err = os.Stat(filepath.Join(installed, "stale.txt"))
	require.True(t, os.IsNotExist(err))

	content, err := os.ReadFile(filepath.Join(installed, "src", "main.cc"))
	require.NoError(t, err)
	require.Equal(t, "int main() {}", string(content))

	info, err := os.Stat(filepath.Join(installed, "CMakeLists.txt"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	link, err := os.Readlink(filepath.Join(installed, "entry.cc"))
	require.NoError(t, err)
	require.Equal(t, "src/main.cc", link)
}

func TestInstallHonoursBasename(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "src")
	mustWriteFile(t, src, "a.txt", "a")

	installed, err := Install(context.Background(), Options{Src: src, Dest: filepath.Join(root, "out"), Basename: "renamed"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "out", "renamed"), installed)
	require.FileExists(t, filepath.Join(installed, "a.txt"))
}

func TestInstallWithoutDestinationIsNoop(t *testing.T) {
	t.Parallel()

	installed, err := Install(context.Background(), Options{Src: t.TempDir()})
	require.NoError(t, err)
	require.Empty(t, installed)
}

func TestInstallRejectsMissingSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, err := Install(context.Background(), Options{Src: filepath.Join(root, "missing"), Dest: root})
	require.Error(t, err)

	_, err = Install(context.Background(), Options{Dest: root})
	require.Error(t, err)
}
