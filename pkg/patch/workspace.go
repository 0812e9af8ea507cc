package patch

import (
	"context"
	"errors"
	"io/fs"
	"strings"
)

// Hunk outcomes reported in Result.Status.
const (
	StatusApplied        = "applied"
	StatusAlreadyPatched = "already-patched"
)

// Options configure how a document is applied for both filesystem and
// in-memory operations.
type Options struct {
	// IgnoreAlreadyPatched skips hunks whose insertions are already present
	// instead of aborting.
	IgnoreAlreadyPatched bool
}

// FilesystemOptions augments Options with a working directory used to resolve
// relative paths when touching the local filesystem.
type FilesystemOptions struct {
	Options
	WorkingDir string
}

// Result describes the outcome of a single hunk.
type Result struct {
	Number int
	Path   string
	Status string
	// Skipped holds the tolerated condition when Status is
	// StatusAlreadyPatched.
	Skipped *Error
}

// workspace loads and stores whole target files. Every hunk reloads its
// target, so no file content is held across hunks.
type workspace interface {
	Load(path string) (*file, error)
	Store(f *file) error
}

type file struct {
	path            string
	relativePath    string
	lines           []string
	endsWithNewline bool
	mode            fs.FileMode
}

func newFile(path, relativePath, content string) *file {
	return &file{
		path:            path,
		relativePath:    relativePath,
		lines:           splitLines(content),
		endsWithNewline: strings.HasSuffix(content, "\n") || strings.HasSuffix(content, "\r"),
	}
}

func (f *file) content() string {
	content := strings.Join(f.lines, "\n")
	if f.endsWithNewline && len(f.lines) > 0 {
		content += "\n"
	}
	return content
}

// apply replays every hunk in document order. A failure aborts immediately
// and leaves the hunks already stored in place; the results gathered so far
// are returned alongside the error.
func apply(ctx context.Context, doc *Document, ws workspace, opts Options) ([]Result, error) {
	if ws == nil {
		return nil, errors.New("nil workspace")
	}
	if doc == nil {
		return nil, nil
	}
	results := make([]Result, 0, len(doc.Hunks))
	for index, hunk := range doc.Hunks {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		number := index + 1
		target, err := ws.Load(hunk.Path)
		if err != nil {
			return results, annotate(err, hunk.Path, number)
		}
		lines, err := ApplyHunk(target.lines, hunk)
		if err != nil {
			pe := annotate(err, target.relativePath, number)
			if pe.Code == CodeAlreadyPatched && opts.IgnoreAlreadyPatched {
				results = append(results, Result{
					Number:  number,
					Path:    target.relativePath,
					Status:  StatusAlreadyPatched,
					Skipped: pe,
				})
				continue
			}
			return results, pe
		}
		target.lines = lines
		if err := ws.Store(target); err != nil {
			return results, annotate(err, target.relativePath, number)
		}
		results = append(results, Result{Number: number, Path: target.relativePath, Status: StatusApplied})
	}
	return results, nil
}

func annotate(err error, path string, number int) *Error {
	var pe *Error
	if !errors.As(err, &pe) {
		pe = &Error{Code: CodeIO, Message: err.Error()}
	}
	if pe.Path == "" {
		pe.Path = path
	}
	if pe.Hunk == 0 {
		pe.Hunk = number
	}
	return pe
}
