package domain

import (
	"iter"
	"regexp"
	"strings"
)

// headerRe matches the opening of a var_dump 5-element array.
var headerRe = regexp.MustCompile(`(?is)array\s*\(\s*5\s*\)\s*\{`)

// LocateFragments yields every fragment found in text, in source order.
// A fragment runs from its header to the first closing brace; a body that
// reaches the next header, or the end of text, before closing is unclosed
// and dropped. The sequence can be ranged over any number of times.
func LocateFragments(text string) iter.Seq[RawFragment] {
	return func(yield func(RawFragment) bool) {
		headers := headerRe.FindAllStringIndex(text, -1)
		for i, h := range headers {
			limit := len(text)
			if i+1 < len(headers) {
				limit = headers[i+1][0]
			}
			closing := strings.IndexByte(text[h[1]:limit], '}')
			if closing < 0 {
				continue
			}
			end := h[1] + closing + 1
			frag := RawFragment{
				Text:   normalizeFragment(text[h[0]:end]),
				Offset: h[0],
				Bound:  limit,
			}
			if !yield(frag) {
				return
			}
		}
	}
}

// normalizeFragment collapses every whitespace run, line breaks included,
// into a single space.
func normalizeFragment(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
