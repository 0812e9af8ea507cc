package patch

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// FormatError renders Error values into a human readable message suitable for
// surfacing to end users.
func FormatError(err *Error) string {
	if err == nil {
		return "Unknown error occurred."
	}
	location := err.Path
	if location == "" {
		location = "unknown file"
	}
	if err.Line > 0 {
		location = fmt.Sprintf("%s:%d", location, err.Line)
	}
	var parts []string
	switch err.Code {
	case CodeAlreadyPatched:
		parts = append(parts, fmt.Sprintf("Patch failed: %s already patched", location))
	case CodeContentMismatch:
		parts = append(parts,
			fmt.Sprintf("Patch failed: %s does not match expected line:", location),
			"Source: "+err.Actual,
			"Target: "+err.Expected,
		)
		if err.Actual != "" && err.Expected != "" {
			parts = append(parts, "Diff:   "+inlineDiff(err.Actual, err.Expected))
		}
	case CodeMalformedPatch:
		parts = append(parts, fmt.Sprintf("Malformed patch: %s: %s", location, err.Message))
	default:
		return err.Error()
	}
	if err.Hunk > 0 {
		parts[0] = fmt.Sprintf("%s (hunk %d)", parts[0], err.Hunk)
	}
	return strings.Join(parts, "\n")
}

// inlineDiff marks the characters that turn actual into expected: removed
// text as [-...-] and added text as {+...+}.
func inlineDiff(actual, expected string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(actual, expected, false))
	var b strings.Builder
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + diff.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + diff.Text + "+}")
		case diffmatchpatch.DiffEqual:
			b.WriteString(diff.Text)
		}
	}
	return b.String()
}
