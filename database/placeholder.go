package database

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relio/jrm/database/dialect"
)

// NormalizePlaceholders rewrites sqlText so every bound parameter is spelled in style's native
// form, and returns the values vector in the same left-to-right order the placeholders occur in
// the rewritten text. args may be a positional []any or a named map[string]any; mixing a named
// placeholder against positional args, or vice versa, fails with ErrMalformedBinding.
//
// A small hand-written lexer tracks single-quote, double-quote and comment (--, /* */) state so
// that a literal "?", ":name" or "$name" inside a string or a comment is left untouched.
func NormalizePlaceholders(sqlText string, args any, style dialect.PlaceholderStyle) (string, []any, error) {
	positional, named, err := splitArgs(args)
	if err != nil {
		return "", nil, err
	}

	var out strings.Builder
	values := make([]any, 0, len(positional)+len(named))

	positionalIndex := 0
	n := len(sqlText)

	for i := 0; i < n; {
		c := sqlText[i]

		switch {
		case c == '\'':
			j := skipQuoted(sqlText, i, '\'')
			out.WriteString(sqlText[i:j])
			i = j
			continue
		case c == '"':
			j := skipQuoted(sqlText, i, '"')
			out.WriteString(sqlText[i:j])
			i = j
			continue
		case strings.HasPrefix(sqlText[i:], "--"):
			j := strings.IndexByte(sqlText[i:], '\n')
			if j < 0 {
				out.WriteString(sqlText[i:])
				i = n
			} else {
				out.WriteString(sqlText[i : i+j+1])
				i += j + 1
			}
			continue
		case strings.HasPrefix(sqlText[i:], "/*"):
			j := strings.Index(sqlText[i:], "*/")
			if j < 0 {
				out.WriteString(sqlText[i:])
				i = n
			} else {
				out.WriteString(sqlText[i : i+j+2])
				i += j + 2
			}
			continue
		}

		name, width, isPositional := scanPlaceholder(sqlText, i)
		if width == 0 {
			out.WriteByte(c)
			i++
			continue
		}

		var value any

		if isPositional {
			if positional == nil {
				return "", nil, fmt.Errorf("%w: positional placeholder with named argument map", ErrMalformedBinding)
			}

			if positionalIndex >= len(positional) {
				return "", nil, fmt.Errorf("%w: not enough positional arguments for %q", ErrMalformedBinding, sqlText[i:i+width])
			}

			value = positional[positionalIndex]
			positionalIndex++
		} else {
			if named == nil {
				return "", nil, fmt.Errorf("%w: named placeholder %q with positional argument slice", ErrMalformedBinding, name)
			}

			v, ok := named[name]
			if !ok {
				return "", nil, fmt.Errorf("%w: no value bound for %q", ErrMalformedBinding, name)
			}

			value = v
		}

		values = append(values, value)
		out.WriteString(style.BindVar(len(values), name))
		i += width
	}

	if positional != nil && positionalIndex != len(positional) {
		return "", nil, fmt.Errorf("%w: %d positional arguments supplied, %d placeholders found", ErrMalformedBinding, len(positional), positionalIndex)
	}

	return out.String(), values, nil
}

func splitArgs(args any) ([]any, map[string]any, error) {
	switch v := args.(type) {
	case nil:
		return nil, nil, nil
	case []any:
		return v, nil, nil
	case map[string]any:
		return nil, v, nil
	default:
		return nil, nil, fmt.Errorf("%w: unsupported argument container %T", ErrMalformedBinding, args)
	}
}

// skipQuoted returns the index just past the closing quote char starting at sqlText[start],
// treating a doubled quote char as an escaped literal quote rather than a close.
func skipQuoted(sqlText string, start int, quote byte) int {
	i := start + 1
	n := len(sqlText)

	for i < n {
		if sqlText[i] == quote {
			if i+1 < n && sqlText[i+1] == quote {
				i += 2
				continue
			}

			return i + 1
		}

		i++
	}

	return n
}

// scanPlaceholder recognizes a placeholder token starting at sqlText[i], returning its bound
// parameter name (empty for positional styles), its width in bytes, and whether it's positional.
// width is 0 when no placeholder starts at i.
func scanPlaceholder(sqlText string, i int) (name string, width int, positional bool) {
	switch sqlText[i] {
	case '?':
		return "", 1, true
	case ':':
		j := i + 1
		for j < len(sqlText) && isIdentByte(sqlText[j]) {
			j++
		}

		if j == i+1 {
			return "", 0, false
		}

		return sqlText[i+1 : j], j - i, false
	case '%':
		if i+1 < len(sqlText) && sqlText[i+1] == 's' {
			return "", 2, true
		}

		if i+1 < len(sqlText) && sqlText[i+1] == '(' {
			close := strings.IndexByte(sqlText[i+2:], ')')
			if close < 0 || i+2+close+1 >= len(sqlText) || sqlText[i+2+close+1] != 's' {
				return "", 0, false
			}

			return sqlText[i+2 : i+2+close], close + 4, false
		}

		return "", 0, false
	case '$':
		j := i + 1
		for j < len(sqlText) && isIdentByte(sqlText[j]) {
			j++
		}

		if j == i+1 {
			return "", 0, false
		}

		if _, err := strconv.Atoi(sqlText[i+1 : j]); err == nil {
			return "", j - i, true
		}

		return sqlText[i+1 : j], j - i, false
	default:
		return "", 0, false
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
