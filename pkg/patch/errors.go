package patch

import (
	"errors"
	"fmt"
)

// Code classifies a patch failure so callers can branch on the kind of
// problem instead of matching message text.
type Code string

const (
	// CodeAlreadyPatched reports that an inserted line is already present at
	// the expected location. Callers may choose to tolerate it.
	CodeAlreadyPatched Code = "ALREADY_PATCHED"
	// CodeContentMismatch reports that the target file diverged from the
	// lines the hunk expects.
	CodeContentMismatch Code = "CONTENT_MISMATCH"
	// CodeMalformedPatch reports a patch that violates the supported format.
	CodeMalformedPatch Code = "MALFORMED_PATCH"
	// CodeIO reports that the patch file or a target file could not be read
	// or written.
	CodeIO Code = "IO"
)

// Error represents a structured failure while parsing or applying a patch.
// It satisfies the error interface so it can be returned directly from the
// Parse* and Apply* helpers.
type Error struct {
	Code    Code
	Message string
	// Path is the target file for apply failures or the patch file for
	// parse failures.
	Path string
	// Line is the 1-based line number in Path, zero when unknown.
	Line int
	// Expected and Actual carry the compared lines for mismatches.
	Expected string
	Actual   string
	// Hunk is the 1-based index of the hunk inside its document, zero when
	// the failure is not tied to a hunk.
	Hunk int
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	message := e.Message
	if message == "" {
		message = "patch error"
	}
	if e.Path != "" && e.Line > 0 {
		message = fmt.Sprintf("%s:%d: %s", e.Path, e.Line, message)
	} else if e.Path != "" {
		message = fmt.Sprintf("%s: %s", e.Path, message)
	}
	if e.Err != nil {
		message = fmt.Sprintf("%s: %v", message, e.Err)
	}
	return message
}

// Unwrap exposes the underlying error, typically an I/O failure.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CodeOf returns the Code carried by err, or the empty string when err is
// not a patch error.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsAlreadyPatched reports whether err signals a previously applied hunk.
func IsAlreadyPatched(err error) bool {
	return CodeOf(err) == CodeAlreadyPatched
}

func malformed(format string, args ...any) *Error {
	return &Error{Code: CodeMalformedPatch, Message: fmt.Sprintf(format, args...)}
}

func mismatch(line int, actual, expected string) *Error {
	return &Error{
		Code:     CodeContentMismatch,
		Message:  "file does not match expected content",
		Line:     line,
		Actual:   actual,
		Expected: expected,
	}
}

func ioError(path string, err error) *Error {
	return &Error{Code: CodeIO, Message: "cannot access file", Path: path, Err: err}
}
