// Package strcase converts identifiers between common casing conventions,
// such as Go's CamelCase and the snake_case expected by most SQL schemas.
package strcase

import (
	"strings"
	"unicode"
)

// Snake converts s (assumed to be camelCase or PascalCase) to snake_case.
func Snake(s string) string {
	return convert(s, '_', false)
}

// ScreamingSnake converts s to SCREAMING_SNAKE_CASE.
func ScreamingSnake(s string) string {
	return convert(s, '_', true)
}

// convert inserts sep before each upper-case rune that follows a lower-case rune or digit,
// or that is followed by a lower-case rune while itself preceded by another upper-case rune
// (so that e.g. "HTTPServer" becomes "http_server", not "h_t_t_p_server").
func convert(s string, sep rune, upper bool) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(runes) + len(runes)/3)

	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]

			switch {
			case unicode.IsLower(prev) || unicode.IsDigit(prev):
				b.WriteRune(sep)
			case unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				b.WriteRune(sep)
			}
		}

		if upper {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
	}

	return b.String()
}
