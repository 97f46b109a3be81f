package textstat

import (
	"reflect"
	"testing"
)

func TestNonEmptyLines(t *testing.T) {
	got := NonEmptyLines("  INVOICE  \n\n\t\nACME INC\r\n total: 5 \n")
	want := []string{"INVOICE", "ACME INC", "total: 5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NonEmptyLines() = %q, want %q", got, want)
	}
}

func TestNonEmptyLines_Empty(t *testing.T) {
	if got := NonEmptyLines(" \n \n"); len(got) != 0 {
		t.Errorf("NonEmptyLines() = %q, want empty", got)
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one two\nthree\t four", 4},
		{"TOTAL: $49.14", 2},
	}
	for _, tc := range tests {
		if got := WordCount(tc.in); got != tc.want {
			t.Errorf("WordCount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestPreview(t *testing.T) {
	lines := make([]string, 15)
	for i := range lines {
		lines[i] = string(rune('a' + i))
	}

	got := Preview(lines, PreviewLines)
	if len(got) != PreviewLines {
		t.Fatalf("len = %d, want %d", len(got), PreviewLines)
	}
	if got[9] != "j" {
		t.Errorf("got[9] = %q", got[9])
	}

	short := Preview(lines[:3], PreviewLines)
	if len(short) != 3 {
		t.Errorf("len = %d, want 3", len(short))
	}

	if none := Preview(nil, PreviewLines); none == nil {
		t.Error("Preview(nil) must return an empty, non-nil slice")
	}
}

func TestHasText(t *testing.T) {
	if HasText(" \n\t ") {
		t.Error("whitespace is not text")
	}
	if !HasText(" x ") {
		t.Error("expected text")
	}
}
