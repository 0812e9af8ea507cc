package patch

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Hunk is one contiguous edit region of one file.
//
// Start is taken from the new-file range of the header while Span comes from
// the old-file range: the applier walks the original file and needs to know
// how many original lines the hunk covers, anchored at Start.
type Hunk struct {
	Path   string
	Start  int
	Span   int
	Header string
	// SourceLine is the 1-based line of the header inside the patch text.
	SourceLine int
	Lines      []Line
}

// End returns the first original line number past the hunk window.
func (h Hunk) End() int {
	return h.Start + h.Span
}

func (h Hunk) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hunk: %s %d,%d", h.Path, h.Start, h.Span)
	for _, line := range h.Lines {
		b.WriteString("\n")
		b.WriteString(line.String())
	}
	return b.String()
}

// Document is a parsed patch: its hunks in source order.
type Document struct {
	Source string
	Hunks  []Hunk
}

func (d *Document) String() string {
	if d == nil {
		return ""
	}
	parts := make([]string, 0, len(d.Hunks)+1)
	parts = append(parts, "Patch: "+d.Source)
	for _, hunk := range d.Hunks {
		parts = append(parts, hunk.String())
	}
	return strings.Join(parts, "\n")
}

// Paths returns the distinct target files in first-seen order.
func (d *Document) Paths() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]bool, len(d.Hunks))
	var paths []string
	for _, hunk := range d.Hunks {
		if seen[hunk.Path] {
			continue
		}
		seen[hunk.Path] = true
		paths = append(paths, hunk.Path)
	}
	return paths
}

// ParseFile reads and parses the patch stored at path.
func ParseFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError(path, err)
	}
	doc, err := Parse(string(content))
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}
	doc.Source = path
	return doc, nil
}

// Parse converts the text of a unified-diff subset into a Document.
//
// Header counts are not checked against the body here; inconsistencies
// surface when the hunk is applied.
func Parse(input string) (*Document, error) {
	var scan scanState
	for index, line := range splitLines(input) {
		next, err := scan.consume(index+1, line)
		if err != nil {
			var pe *Error
			if errors.As(err, &pe) && pe.Line == 0 {
				pe.Line = index + 1
			}
			return nil, err
		}
		scan = next
	}
	scan = scan.flush()
	return &Document{Hunks: scan.hunks}, nil
}

// scanState is the parser accumulator threaded through the line scan.
type scanState struct {
	target string
	open   *Hunk
	hunks  []Hunk
}

func (s scanState) flush() scanState {
	if s.open != nil {
		s.hunks = append(s.hunks, *s.open)
		s.open = nil
	}
	return s
}

func (s scanState) consume(number int, line string) (scanState, error) {
	switch {
	case strings.HasPrefix(line, "---"):
		return s, nil
	case strings.HasPrefix(line, "+++"):
		fields := strings.Fields(line[len("+++"):])
		if len(fields) == 0 {
			return s, malformed("missing file name after +++")
		}
		s.target = fields[0]
		return s, nil
	case len(line) >= 2*len("@@") && strings.HasPrefix(line, "@@") && strings.HasSuffix(line, "@@"):
		start, span, err := parseHeader(line)
		if err != nil {
			return s, err
		}
		if s.target == "" {
			return s, malformed("hunk header before any +++ file marker")
		}
		s = s.flush()
		s.open = &Hunk{Path: s.target, Start: start, Span: span, Header: line, SourceLine: number}
		return s, nil
	}

	parsed, err := Classify(line)
	if err != nil {
		return s, err
	}
	if s.open == nil {
		return s, malformed("hunk line before any hunk header: %q", line)
	}
	s.open.Lines = append(s.open.Lines, parsed)
	return s, nil
}

func parseHeader(line string) (int, int, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(line, "@@"), "@@")
	fields := strings.Fields(body)
	if len(fields) != 2 {
		return 0, 0, malformed("invalid hunk header: %q", line)
	}
	_, oldCount, err := parseRange(fields[0], '-')
	if err != nil {
		return 0, 0, err
	}
	newStart, _, err := parseRange(fields[1], '+')
	if err != nil {
		return 0, 0, err
	}
	return newStart, oldCount, nil
}

// parseRange reads a "-start,count" or "+start,count" token. Both numbers are
// required.
func parseRange(token string, marker byte) (int, int, error) {
	if len(token) < 2 || token[0] != marker {
		return 0, 0, malformed("invalid hunk range %q: expected %c prefix", token, marker)
	}
	startText, countText, found := strings.Cut(token[1:], ",")
	if !found {
		return 0, 0, malformed("invalid hunk range %q: missing line count", token)
	}
	start, err := strconv.Atoi(startText)
	if err != nil || start < 0 {
		return 0, 0, malformed("invalid hunk range %q: bad start line", token)
	}
	count, err := strconv.Atoi(countText)
	if err != nil || count < 0 {
		return 0, 0, malformed("invalid hunk range %q: bad line count", token)
	}
	return start, count, nil
}

// splitLines breaks text into lines without their terminators. "\r\n" and
// "\r" count as line breaks and a trailing break does not produce an extra
// empty line.
func splitLines(input string) []string {
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	if normalized == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(normalized, "\n"), "\n")
}
