package patch

// LineKind identifies how a hunk body line affects the target file. The
// values are the markers that introduce the line in a patch.
type LineKind byte

const (
	// LineContext is a line present unchanged before and after the edit.
	LineContext LineKind = ' '
	// LineInsert is a line added by the hunk.
	LineInsert LineKind = '+'
	// LineDelete is a line removed by the hunk.
	LineDelete LineKind = '-'
)

func (k LineKind) String() string {
	switch k {
	case LineContext:
		return "context"
	case LineInsert:
		return "insert"
	case LineDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Line is one classified hunk body line. Text excludes the marker.
type Line struct {
	Kind LineKind
	Text string
}

func (l Line) String() string {
	return string(rune(l.Kind)) + l.Text
}

// Classify tags a raw hunk body line by its leading marker.
func Classify(raw string) (Line, error) {
	if raw == "" {
		return Line{}, malformed("empty line in hunk body")
	}
	switch kind := LineKind(raw[0]); kind {
	case LineContext, LineInsert, LineDelete:
		return Line{Kind: kind, Text: raw[1:]}, nil
	default:
		return Line{}, malformed("unexpected line: %q", raw)
	}
}
