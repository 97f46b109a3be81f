// Package textstat computes the word and line statistics reported with every extraction.
package textstat

import "strings"

// PreviewLines is the number of non-empty lines returned as a preview.
const PreviewLines = 10

// NonEmptyLines splits text on newlines and returns the trimmed, non-empty lines in order.
func NonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// WordCount returns the number of whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Preview returns at most n leading lines. The result is never nil.
func Preview(lines []string, n int) []string {
	if n > len(lines) {
		n = len(lines)
	}
	out := make([]string, n)
	copy(out, lines[:n])
	return out
}

// HasText reports whether s contains anything besides whitespace.
func HasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
