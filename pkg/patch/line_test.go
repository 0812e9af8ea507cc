package patch

import "testing"

func TestClassifyMarkers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		kind LineKind
		text string
	}{
		{raw: " keep", kind: LineContext, text: "keep"},
		{raw: "+add", kind: LineInsert, text: "add"},
		{raw: "-drop", kind: LineDelete, text: "drop"},
		{raw: " ", kind: LineContext, text: ""},
		{raw: "+", kind: LineInsert, text: ""},
	}
	for _, tc := range cases {
		line, err := Classify(tc.raw)
		if err != nil {
			t.Fatalf("Classify(%q) returned error: %v", tc.raw, err)
		}
		if line.Kind != tc.kind || line.Text != tc.text {
			t.Fatalf("Classify(%q) = %+v, want kind %v text %q", tc.raw, line, tc.kind, tc.text)
		}
		if got := line.String(); got != tc.raw {
			t.Fatalf("String() = %q, want %q", got, tc.raw)
		}
	}
}

func TestClassifyRejectsUnknownPrefixes(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "\tindented", "diff --git a/x b/x", "index 123..456"} {
		if _, err := Classify(raw); CodeOf(err) != CodeMalformedPatch {
			t.Fatalf("Classify(%q) error = %v, want malformed patch", raw, err)
		}
	}
}
