package patch

import (
	"context"
	"strings"
	"testing"
)

func TestApplyMemoryPatchUpdatesDocument(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	patchBody := strings.Join([]string{
		"--- a/notes.txt",
		"+++ notes.txt",
		"@@ -1,2 +1,2 @@",
		"-alpha",
		"+gamma",
		" beta",
	}, "\n")

	initial := map[string]string{"notes.txt": "alpha\nbeta\n"}
	updated, results, err := ApplyMemoryPatch(ctx, patchBody, initial, Options{})
	if err != nil {
		t.Fatalf("ApplyMemoryPatch returned error: %v", err)
	}
	if got, want := len(results), 1; got != want {
		t.Fatalf("unexpected result count: got %d want %d", got, want)
	}
	if results[0].Status != StatusApplied || results[0].Path != "notes.txt" {
		t.Fatalf("unexpected result entry: %+v", results[0])
	}
	if got, want := updated["notes.txt"], "gamma\nbeta\n"; got != want {
		t.Fatalf("updated document mismatch: got %q want %q", got, want)
	}

	// Ensure the original map was not mutated.
	if got, want := initial["notes.txt"], "alpha\nbeta\n"; got != want {
		t.Fatalf("initial map mutated: got %q want %q", got, want)
	}
}

func TestApplyToMemoryReturnsPartialSnapshotOnFailure(t *testing.T) {
	t.Parallel()

	doc, err := Parse(strings.Join([]string{
		"+++ one.txt",
		"@@ -1,1 +1,2 @@",
		"+head",
		" one",
		"+++ two.txt",
		"@@ -1,1 +1,1 @@",
		" missing",
	}, "\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	files := map[string]string{"one.txt": "one", "two.txt": "two"}
	updated, results, err := ApplyToMemory(context.Background(), doc, files, Options{})
	if CodeOf(err) != CodeContentMismatch {
		t.Fatalf("expected content mismatch, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one applied hunk, got %+v", results)
	}
	if got := updated["one.txt"]; got != "head\none" {
		t.Fatalf("first hunk not kept: %q", got)
	}
	if got := updated["two.txt"]; got != "two" {
		t.Fatalf("second file modified: %q", got)
	}
}

func TestApplyToMemoryMissingFile(t *testing.T) {
	t.Parallel()

	doc, err := Parse("+++ nope.txt\n@@ -1,1 +1,1 @@\n a\n")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if _, _, err := ApplyToMemory(context.Background(), doc, nil, Options{}); CodeOf(err) != CodeIO {
		t.Fatalf("expected IO error, got %v", err)
	}
}
