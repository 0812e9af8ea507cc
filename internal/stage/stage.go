// Package stage installs a copy of a source tree into a destination
// directory, replacing whatever was there before.
package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/asynkron/minipatch/internal/logging"
)

// Options describe one installation.
type Options struct {
	// Src is the directory to copy.
	Src string
	// Dest is the parent of the installed tree. An empty Dest skips the
	// installation.
	Dest string
	// Basename names the installed tree inside Dest. Defaults to the base
	// name of Src.
	Basename string
	Logger   logging.Logger
}

// Destination returns the directory the tree is installed into, or "" when
// no destination is configured.
func (o Options) Destination() string {
	if strings.TrimSpace(o.Dest) == "" {
		return ""
	}
	name := strings.TrimSpace(o.Basename)
	if name == "" {
		name = filepath.Base(filepath.Clean(o.Src))
	}
	return filepath.Join(o.Dest, name)
}

// Install removes the destination tree if present and copies Src into it.
// Symlinks are recreated rather than followed. It returns the destination
// path, or "" when nothing was installed.
func Install(ctx context.Context, opts Options) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	src := strings.TrimSpace(opts.Src)
	if src == "" {
		return "", errors.New("stage: source directory is required")
	}
	dest := opts.Destination()
	if dest == "" {
		logger.Info(ctx, "source not installed, no destination specified", logging.F("src", src))
		return "", nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stage: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("stage: %s is not a directory", src)
	}

	logger.Info(ctx, "installing source tree", logging.F("src", src), logging.F("dest", dest))
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("stage: remove %s: %w", dest, err)
	}
	if err := CopyTree(ctx, src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// CopyTree copies the directory src to dst, overwriting existing files.
func CopyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("stage: %w", walkErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("stage: %w", err)
		}
		target := filepath.Join(dst, rel)

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stage: %w", err)
		}
		switch mode := info.Mode(); {
		case mode&fs.ModeSymlink != 0:
			return copySymlink(path, target)
		case mode.IsDir():
			if err := os.MkdirAll(target, mode.Perm()|0o700); err != nil {
				return fmt.Errorf("stage: %w", err)
			}
			return nil
		case mode.IsRegular():
			return copyFile(path, target, mode.Perm())
		default:
			return fmt.Errorf("stage: unsupported file type %s for %s", mode.Type(), path)
		}
	})
}

func copySymlink(path, target string) error {
	link, err := os.Readlink(path)
	if err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stage: %w", err)
	}
	if err := os.Symlink(link, target); err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	return nil
}

func copyFile(path, target string, perm fs.FileMode) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("stage: copy %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	return os.Chmod(target, perm)
}
