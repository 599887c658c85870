package grading

import "unicode"

// normalize casefolds and collapses runs of whitespace, trimming the ends.
// Text comparison is case-insensitive by contract; punctuation is kept so
// that fill-in answers like "don't" survive intact.
func normalize(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && len(out) > 0 {
			out = append(out, ' ')
		}
		space = false
		out = append(out, unicode.ToLower(r))
	}
	return string(out)
}
