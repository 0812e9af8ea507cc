package patch

import "fmt"

// Issue describes a hunk whose placement is unsafe under sequential
// application.
type Issue struct {
	Path     string
	Hunk     int
	Previous int
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: hunk %d: %s", i.Path, i.Hunk, i.Message)
}

// Lint reports hunks that target the same file as an earlier hunk but start
// before it or inside the lines it produced.
//
// Each hunk is applied to the file as rewritten by the previous hunks, so its
// start line must be expressed in that rewritten numbering. Diffs produced in
// ascending order satisfy this; reordered or overlapping hunks do not and
// would edit the wrong lines.
func Lint(doc *Document) []Issue {
	if doc == nil {
		return nil
	}
	type placed struct {
		number int
		start  int
		end    int
	}
	last := make(map[string]placed)
	var issues []Issue
	for index, hunk := range doc.Hunks {
		number := index + 1
		current := placed{number: number, start: hunk.Start, end: hunk.Start + newLength(hunk)}
		if prev, ok := last[hunk.Path]; ok {
			switch {
			case hunk.Start < prev.start:
				issues = append(issues, Issue{
					Path:     hunk.Path,
					Hunk:     number,
					Previous: prev.number,
					Message:  fmt.Sprintf("starts at line %d, before hunk %d at line %d", hunk.Start, prev.number, prev.start),
				})
			case hunk.Start < prev.end:
				issues = append(issues, Issue{
					Path:     hunk.Path,
					Hunk:     number,
					Previous: prev.number,
					Message:  fmt.Sprintf("starts at line %d, inside lines %d-%d written by hunk %d", hunk.Start, prev.start, prev.end-1, prev.number),
				})
			}
		}
		last[hunk.Path] = current
	}
	return issues
}

// newLength counts the lines a hunk leaves in the file.
func newLength(hunk Hunk) int {
	n := 0
	for _, line := range hunk.Lines {
		if line.Kind != LineDelete {
			n++
		}
	}
	return n
}
