package fields

import (
	"regexp"
	"unicode/utf8"
)

// Rule is one entry of a field's ordered rule table.
// Pattern must contain exactly one capture group.
type Rule[T any] struct {
	Name      string
	Pattern   *regexp.Regexp
	Accept    func(capture string) bool // nil accepts everything
	Normalize func(capture string) (T, bool)
}

// Apply tests the rule against s. Only the leftmost match is considered;
// a rejected capture does not fall through to later matches of the same pattern.
func (r Rule[T]) Apply(s string) (T, bool) {
	var zero T
	m := r.Pattern.FindStringSubmatch(s)
	if m == nil {
		return zero, false
	}
	capture := m[1]
	if r.Accept != nil && !r.Accept(capture) {
		return zero, false
	}
	return r.Normalize(capture)
}

// FirstMatch evaluates rules top to bottom and returns the first accepted value.
func FirstMatch[T any](rules []Rule[T], s string) (T, bool) {
	for _, r := range rules {
		if v, ok := r.Apply(s); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func verbatim(s string) (string, bool) { return s, true }

func longerThan(n int) func(string) bool {
	return func(s string) bool { return utf8.RuneCountInString(s) > n }
}
