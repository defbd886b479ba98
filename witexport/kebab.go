package witexport

import (
	"strings"
	"unicode"
)

// KebabCase converts a class, field or case name to a WIT identifier.
// Acronyms stay together ("HTTPServer" -> "http-server") and any run of
// characters outside letters and digits becomes a single dash.
func KebabCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	var last rune

	dash := func() {
		if b.Len() > 0 && last != '-' {
			b.WriteByte('-')
			last = '-'
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case unicode.IsUpper(r):
			end := i + 1
			for end < len(runes) && unicode.IsUpper(runes[end]) {
				end++
			}
			// last uppercase before lowercase starts the next word
			if end > i+1 && end < len(runes) && unicode.IsLower(runes[end]) {
				end--
			}
			dash()
			for j := i; j < end; j++ {
				last = unicode.ToLower(runes[j])
				b.WriteRune(last)
			}
			i = end - 1
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			last = r
		default:
			dash()
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
