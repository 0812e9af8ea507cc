package patch

import (
	"context"
	"io/fs"
	"maps"
	"path/filepath"
	"strings"
)

// ApplyToMemory applies a document to an in-memory file store keyed by
// cleaned relative path. The provided map is copied before mutation and the
// updated snapshot is returned, including when a hunk fails part way.
func ApplyToMemory(ctx context.Context, doc *Document, files map[string]string, opts Options) (map[string]string, []Result, error) {
	snapshot := maps.Clone(files)
	if snapshot == nil {
		snapshot = make(map[string]string)
	}
	ws := &memoryWorkspace{files: snapshot}
	results, err := apply(ctx, doc, ws, opts)
	return ws.files, results, err
}

// ApplyMemoryPatch parses a raw patch payload and applies it to an in-memory
// map of files.
func ApplyMemoryPatch(ctx context.Context, patchBody string, files map[string]string, opts Options) (map[string]string, []Result, error) {
	doc, err := Parse(patchBody)
	if err != nil {
		return nil, nil, err
	}
	return ApplyToMemory(ctx, doc, files, opts)
}

type memoryWorkspace struct {
	files map[string]string
}

func (ws *memoryWorkspace) Load(path string) (*file, error) {
	rel := filepath.Clean(strings.TrimSpace(path))
	if rel == "" || rel == "." {
		return nil, malformed("invalid patch path")
	}
	content, ok := ws.files[rel]
	if !ok {
		return nil, ioError(rel, fs.ErrNotExist)
	}
	return newFile(rel, rel, content), nil
}

func (ws *memoryWorkspace) Store(f *file) error {
	ws.files[f.path] = f.content()
	return nil
}
