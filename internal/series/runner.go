// Package series applies ordered lists of patches, either a single patch
// given on the command line or a manifest of patches.
package series

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/asynkron/minipatch/internal/logging"
	"github.com/asynkron/minipatch/pkg/patch"
)

// Runner applies patch files to the filesystem.
type Runner struct {
	Logger logging.Logger
	// IgnoreAlreadyPatched tolerates already applied hunks for every entry
	// regardless of the entry's own setting.
	IgnoreAlreadyPatched bool
	// OnSkipped is called for each tolerated already-patched hunk.
	OnSkipped func(entry Entry, result patch.Result)
}

// Outcome records what happened to one entry.
type Outcome struct {
	Entry    Entry
	Document *patch.Document
	Results  []patch.Result
}

// Run applies every entry of manifest in order and stops at the first
// failure. Outcomes of the entries that succeeded are returned with the
// error.
func (r *Runner) Run(ctx context.Context, manifest *Manifest) ([]Outcome, error) {
	if manifest == nil {
		return nil, nil
	}
	outcomes := make([]Outcome, 0, len(manifest.Patches))
	for index, entry := range manifest.Patches {
		outcome, err := r.Apply(ctx, entry, manifest.Dir)
		if err != nil {
			return outcomes, fmt.Errorf("patch %d (%s): %w", index+1, entry.File, err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// Apply parses entry.File and applies it inside entry.Directory. Relative
// paths resolve against baseDir. With an empty baseDir the patch file is
// resolved against entry.Directory, matching a change of directory before
// the patch is read.
func (r *Runner) Apply(ctx context.Context, entry Entry, baseDir string) (Outcome, error) {
	logger := r.logger()
	outcome := Outcome{Entry: entry}

	workingDir := resolve(baseDir, entry.Directory)
	patchBase := baseDir
	if patchBase == "" {
		patchBase = workingDir
	}
	patchPath := resolve(patchBase, entry.File)
	logger = logger.WithFields(logging.F("patch", entry.File))

	doc, err := patch.ParseFile(patchPath)
	if err != nil {
		logger.Error(ctx, "failed to parse patch", err)
		return outcome, err
	}
	outcome.Document = doc
	logger.Info(ctx, "applying patch",
		logging.F("hunks", len(doc.Hunks)),
		logging.F("files", strings.Join(doc.Paths(), ",")),
		logging.F("directory", workingDir),
	)
	for _, issue := range patch.Lint(doc) {
		logger.Warn(ctx, "hunk placement may not match sequential application",
			logging.F("file", issue.Path),
			logging.F("hunk", issue.Hunk),
			logging.F("detail", issue.Message),
		)
	}

	opts := patch.FilesystemOptions{
		Options: patch.Options{
			IgnoreAlreadyPatched: r.IgnoreAlreadyPatched || entry.IgnoreAlreadyPatched,
		},
		WorkingDir: workingDir,
	}
	results, err := patch.ApplyFilesystem(ctx, doc, opts)
	outcome.Results = results
	for _, result := range results {
		switch result.Status {
		case patch.StatusAlreadyPatched:
			logger.Info(ctx, "ignoring already patched hunk",
				logging.F("file", result.Path),
				logging.F("hunk", result.Number),
			)
			if r.OnSkipped != nil {
				r.OnSkipped(entry, result)
			}
		default:
			logger.Debug(ctx, "hunk applied", logging.F("file", result.Path), logging.F("hunk", result.Number))
		}
	}
	if err != nil {
		logger.Error(ctx, "failed to apply patch", err)
		return outcome, err
	}
	return outcome, nil
}

func (r *Runner) logger() logging.Logger {
	if r.Logger == nil {
		return &logging.NoOpLogger{}
	}
	return r.Logger
}

// resolve joins path onto base unless path is absolute or base is empty.
func resolve(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return base
	}
	if filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}
