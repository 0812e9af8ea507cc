package patch

// ApplyHunk replays hunk against the lines of the original file and returns
// the new lines. It performs no I/O; the returned *Error carries the failing
// line number but no path.
//
// Lines outside [hunk.Start, hunk.End()) are copied through. Inside the
// window every context line must equal the original line, every insert
// streak must be followed by a context line, and delete lines drop the
// original line without emitting it.
func ApplyHunk(original []string, hunk Hunk) ([]string, error) {
	if n := len(hunk.Lines); n > 0 && hunk.Lines[n-1].Kind == LineInsert {
		err := malformed("hunk ends with an insert streak that is not followed by a context line")
		err.Line = hunk.Start
		return nil, err
	}
	r := &replay{
		hunk:    hunk,
		current: 1,
		output:  make([]string, 0, len(original)+len(hunk.Lines)),
	}
	for _, line := range original {
		if err := r.step(line); err != nil {
			return nil, err
		}
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return r.output, nil
}

type replayState int

const (
	stateSeeking replayState = iota
	stateContext
	stateInsertStreak
	stateDelete
)

// replay walks the original file with a 1-based cursor and the hunk body with
// a second cursor that only moves inside the window.
type replay struct {
	hunk     Hunk
	current  int
	relative int
	output   []string
}

func (r *replay) inWindow() bool {
	return r.current >= r.hunk.Start && r.current < r.hunk.End()
}

func (r *replay) state() (replayState, error) {
	if !r.inWindow() {
		return stateSeeking, nil
	}
	if r.relative >= len(r.hunk.Lines) {
		err := malformed("hunk body ends before its window (%d,%d)", r.hunk.Start, r.hunk.Span)
		err.Line = r.current
		return 0, err
	}
	switch kind := r.hunk.Lines[r.relative].Kind; kind {
	case LineContext:
		return stateContext, nil
	case LineInsert:
		return stateInsertStreak, nil
	case LineDelete:
		return stateDelete, nil
	default:
		err := malformed("unexpected line kind %q", byte(kind))
		err.Line = r.current
		return 0, err
	}
}

// step consumes exactly one original line.
func (r *replay) step(original string) error {
	state, err := r.state()
	if err != nil {
		return err
	}
	switch state {
	case stateSeeking:
		r.output = append(r.output, original)
	case stateContext:
		err = r.matchContext(original)
	case stateInsertStreak:
		err = r.insertStreak(original)
	case stateDelete:
		r.relative++
	}
	r.current++
	return err
}

func (r *replay) matchContext(original string) error {
	expected := r.hunk.Lines[r.relative].Text
	if expected != original {
		return mismatch(r.current, original, expected)
	}
	r.output = append(r.output, original)
	r.relative++
	return nil
}

// insertStreak emits consecutive insert lines without consuming the original
// line, then matches the mandatory trailing context line against it.
func (r *replay) insertStreak(original string) error {
	first := r.hunk.Lines[r.relative].Text
	if first == original {
		return &Error{
			Code:     CodeAlreadyPatched,
			Message:  "already patched",
			Line:     r.current,
			Expected: first,
			Actual:   original,
		}
	}
	for r.relative < len(r.hunk.Lines) && r.hunk.Lines[r.relative].Kind == LineInsert {
		r.output = append(r.output, r.hunk.Lines[r.relative].Text)
		r.relative++
	}
	if r.relative >= len(r.hunk.Lines) {
		err := malformed("insert streak is not followed by a context line")
		err.Line = r.current
		return err
	}
	if kind := r.hunk.Lines[r.relative].Kind; kind != LineContext {
		err := malformed("insert streak followed by %s line instead of context", kind)
		err.Line = r.current
		return err
	}
	return r.matchContext(original)
}

// finish checks what is left of the hunk body once the original file is
// exhausted.
func (r *replay) finish() error {
	rest := r.hunk.Lines[r.relative:]
	if len(rest) == 0 {
		return nil
	}
	if r.current < r.hunk.End() {
		return &Error{
			Code:     CodeContentMismatch,
			Message:  "file ends inside the hunk window",
			Line:     r.current,
			Expected: rest[0].Text,
		}
	}
	err := malformed("hunk has %d line(s) beyond its window (%d,%d)", len(rest), r.hunk.Start, r.hunk.Span)
	err.Line = r.current
	return err
}
