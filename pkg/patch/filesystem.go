package patch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ApplyFilesystem applies a parsed document to the OS filesystem.
func ApplyFilesystem(ctx context.Context, doc *Document, opts FilesystemOptions) ([]Result, error) {
	ws, err := newFilesystemWorkspace(opts)
	if err != nil {
		return nil, err
	}
	return apply(ctx, doc, ws, opts.Options)
}

// ApplyFilesystemPatch parses the patch file at patchPath and applies it to
// the filesystem. A relative patchPath is resolved against opts.WorkingDir.
func ApplyFilesystemPatch(ctx context.Context, patchPath string, opts FilesystemOptions) (*Document, []Result, error) {
	ws, err := newFilesystemWorkspace(opts)
	if err != nil {
		return nil, nil, err
	}
	abs, _, err := ws.resolvePath(patchPath)
	if err != nil {
		return nil, nil, err
	}
	doc, err := ParseFile(abs)
	if err != nil {
		return nil, nil, err
	}
	results, err := apply(ctx, doc, ws, opts.Options)
	return doc, results, err
}

type filesystemWorkspace struct {
	workingDir string
}

func newFilesystemWorkspace(opts FilesystemOptions) (*filesystemWorkspace, error) {
	workingDir := strings.TrimSpace(opts.WorkingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, ioError(".", fmt.Errorf("failed to determine working directory: %w", err))
		}
		workingDir = wd
	}
	if abs, err := filepath.Abs(workingDir); err == nil {
		workingDir = abs
	}
	info, err := os.Stat(workingDir)
	if err != nil {
		return nil, ioError(workingDir, err)
	}
	if !info.IsDir() {
		return nil, ioError(workingDir, errors.New("not a directory"))
	}
	return &filesystemWorkspace{workingDir: workingDir}, nil
}

func (ws *filesystemWorkspace) Load(path string) (*file, error) {
	abs, rel, err := ws.resolvePath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, ioError(rel, err)
	}
	if info.IsDir() {
		return nil, ioError(rel, errors.New("cannot patch directory"))
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, ioError(rel, err)
	}
	f := newFile(abs, rel, string(content))
	f.mode = info.Mode()
	return f, nil
}

func (ws *filesystemWorkspace) Store(f *file) error {
	perm := f.mode & fs.ModePerm
	if perm == 0 {
		perm = 0o644
	}
	if err := os.WriteFile(f.path, []byte(f.content()), perm); err != nil {
		return ioError(f.relativePath, err)
	}
	return nil
}

func (ws *filesystemWorkspace) resolvePath(relative string) (string, string, error) {
	rel := strings.TrimSpace(relative)
	if rel == "" {
		return "", "", malformed("invalid patch path")
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return cleaned, cleaned, nil
	}
	return filepath.Join(ws.workingDir, cleaned), cleaned, nil
}
