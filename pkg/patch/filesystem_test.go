package patch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFixture(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestApplyFilesystemPatchUpdatesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := writeFixture(t, dir, "notes.txt", "a\nb\nc\n")
	writeFixture(t, dir, "fix.patch", strings.Join([]string{
		"--- something/else.txt",
		"+++ notes.txt",
		"@@ -1,2 +1,3 @@",
		" a",
		"+x",
		" b",
	}, "\n")+"\n")

	doc, results, err := ApplyFilesystemPatch(context.Background(), "fix.patch", FilesystemOptions{WorkingDir: dir})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "fix.patch"), doc.Source)
	require.Equal(t, []Result{{Number: 1, Path: "notes.txt", Status: StatusApplied}}, results)
	require.Equal(t, "a\nx\nb\nc\n", readFixture(t, target))
}

func TestApplyFilesystemPreservesMissingTrailingNewline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := writeFixture(t, dir, "f.txt", "a\r\nb")
	doc, err := Parse("+++ f.txt\n@@ -2,1 +2,2 @@\n+new\n b\n")
	require.NoError(t, err)

	_, err = ApplyFilesystem(context.Background(), doc, FilesystemOptions{WorkingDir: dir})
	require.NoError(t, err)
	require.Equal(t, "a\nnew\nb", readFixture(t, target))
}

func TestApplyFilesystemPreservesPermissions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := writeFixture(t, dir, "run.sh", "#!/bin/sh\necho hi\n")
	require.NoError(t, os.Chmod(target, 0o755))
	doc, err := Parse("+++ run.sh\n@@ -1,2 +1,3 @@\n #!/bin/sh\n+set -e\n echo hi\n")
	require.NoError(t, err)

	_, err = ApplyFilesystem(context.Background(), doc, FilesystemOptions{WorkingDir: dir})
	require.NoError(t, err)
	info, err := os.Stat(target)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestApplyFilesystemKeepsEarlierHunksOnMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeFixture(t, dir, "first.txt", "one\ntwo\n")
	second := writeFixture(t, dir, "second.txt", "three\nfour\n")
	doc, err := Parse(strings.Join([]string{
		"+++ first.txt",
		"@@ -1,1 +1,2 @@",
		"+zero",
		" one",
		"+++ second.txt",
		"@@ -1,1 +1,2 @@",
		"+two-and-a-half",
		" not-three",
	}, "\n"))
	require.NoError(t, err)

	results, err := ApplyFilesystem(context.Background(), doc, FilesystemOptions{WorkingDir: dir})
	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, CodeContentMismatch, pe.Code)
	require.Equal(t, "second.txt", pe.Path)
	require.Equal(t, 2, pe.Hunk)
	require.Len(t, results, 1)

	require.Equal(t, "zero\none\ntwo\n", readFixture(t, first))
	require.Equal(t, "three\nfour\n", readFixture(t, second))
}

func TestApplyFilesystemAppliesHunksSequentially(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := writeFixture(t, dir, "f.txt", "1\n2\n3\n4\n5\n6\n")
	doc, err := Parse(strings.Join([]string{
		"+++ f.txt",
		"@@ -1,1 +1,2 @@",
		"+0",
		" 1",
		"@@ -5,1 +6,2 @@",
		"+4.5",
		" 5",
	}, "\n"))
	require.NoError(t, err)
	require.Empty(t, Lint(doc))

	_, err = ApplyFilesystem(context.Background(), doc, FilesystemOptions{WorkingDir: dir})
	require.NoError(t, err)
	require.Equal(t, "0\n1\n2\n3\n4\n4.5\n5\n6\n", readFixture(t, target))
}

func TestApplyFilesystemIgnoresAlreadyPatchedWhenRequested(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	patched := writeFixture(t, dir, "patched.txt", "a\nx\nb\n")
	pending := writeFixture(t, dir, "pending.txt", "a\nb\n")
	body := strings.Join([]string{
		"+++ patched.txt",
		"@@ -1,2 +1,3 @@",
		" a",
		"+x",
		" b",
		"+++ pending.txt",
		"@@ -1,2 +1,3 @@",
		" a",
		"+x",
		" b",
	}, "\n")
	doc, err := Parse(body)
	require.NoError(t, err)

	_, err = ApplyFilesystem(context.Background(), doc, FilesystemOptions{WorkingDir: dir})
	require.True(t, IsAlreadyPatched(err))
	require.Equal(t, "a\nb\n", readFixture(t, pending))

	results, err := ApplyFilesystem(context.Background(), doc, FilesystemOptions{
		Options:    Options{IgnoreAlreadyPatched: true},
		WorkingDir: dir,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, StatusAlreadyPatched, results[0].Status)
	require.NotNil(t, results[0].Skipped)
	require.Equal(t, "patched.txt", results[0].Skipped.Path)
	require.Equal(t, StatusApplied, results[1].Status)
	require.Equal(t, "a\nx\nb\n", readFixture(t, patched))
	require.Equal(t, "a\nx\nb\n", readFixture(t, pending))
}

func TestApplyFilesystemMissingTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc, err := Parse("+++ absent.txt\n@@ -1,1 +1,1 @@\n a\n")
	require.NoError(t, err)

	_, err = ApplyFilesystem(context.Background(), doc, FilesystemOptions{WorkingDir: dir})
	require.Equal(t, CodeIO, CodeOf(err))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyFilesystemRejectsMissingWorkingDir(t *testing.T) {
	t.Parallel()

	_, err := ApplyFilesystem(context.Background(), &Document{}, FilesystemOptions{WorkingDir: filepath.Join(t.TempDir(), "nope")})
	require.Equal(t, CodeIO, CodeOf(err))
}

func TestApplyFilesystemStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := writeFixture(t, dir, "f.txt", "a\n")
	doc, err := Parse("+++ f.txt\n@@ -1,1 +1,2 @@\n+z\n a\n")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ApplyFilesystem(ctx, doc, FilesystemOptions{WorkingDir: dir})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, "a\n", readFixture(t, target))
}
