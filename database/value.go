package database

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// BindMode selects whether a FormattedValue is a driver-bindable parameter or a literal SQL
// fragment to splice directly into the statement text.
type BindMode int

const (
	// Bind passes the value as a query parameter.
	Bind BindMode = iota
	// Inline renders the value as literal SQL text.
	Inline
)

// FormattedValue is the result of FormatValue: either a value ready to hand to the driver as a
// bound parameter, or a literal SQL fragment.
type FormattedValue struct {
	Mode    BindMode
	Value   any
	Literal string
}

// FormatValue prepares v according to mode. A backtick-delimited string (e.g.
// "`CURRENT_TIMESTAMP`") is always treated as a SQL keyword literal and inlined verbatim
// regardless of mode, per spec; every other value follows the requested mode.
func FormatValue(v any, mode BindMode) (FormattedValue, error) {
	if s, ok := v.(string); ok {
		if lit, ok := keywordLiteral(s); ok {
			return FormattedValue{Mode: Inline, Literal: lit}, nil
		}
	}

	if mode == Inline {
		lit, err := inlineLiteral(v)
		if err != nil {
			return FormattedValue{}, err
		}

		return FormattedValue{Mode: Inline, Literal: lit}, nil
	}

	bound, err := bindValue(v)
	if err != nil {
		return FormattedValue{}, err
	}

	return FormattedValue{Mode: Bind, Value: bound}, nil
}

// keywordLiteral recognizes a backtick-delimited SQL keyword literal and returns its unquoted
// text, e.g. "`CURRENT_TIMESTAMP`" -> "CURRENT_TIMESTAMP".
func keywordLiteral(s string) (string, bool) {
	if len(s) >= 2 && strings.HasPrefix(s, "`") && strings.HasSuffix(s, "`") {
		return s[1 : len(s)-1], true
	}

	return "", false
}

// bindValue prepares v to be handed to the driver as a query parameter: nested mappings and
// sequences-of-mappings become JSON text, flat sequences of scalars are "|"-joined, and
// timestamps pass through natively.
func bindValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	if t, ok := v.(time.Time); ok {
		return t, nil
	}

	if isCompound(v) {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBinding, err)
		}

		return string(encoded), nil
	}

	if seq, ok := flatScalarSequence(v); ok {
		return strings.Join(seq, "|"), nil
	}

	return v, nil
}

// inlineLiteral renders v as SQL text suitable for splicing directly into a statement, with
// single quotes doubled inside string-like literals.
func inlineLiteral(v any) (string, error) {
	if v == nil {
		return "NULL", nil
	}

	switch val := v.(type) {
	case time.Time:
		return "'" + val.Format(time.RFC3339) + "'", nil
	case bool:
		if val {
			return "TRUE", nil
		}

		return "FALSE", nil
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'", nil
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%v", v), nil
	}

	if isCompound(v) {
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedBinding, err)
		}

		return "'" + strings.ReplaceAll(string(encoded), "'", "''") + "'", nil
	}

	if seq, ok := flatScalarSequence(v); ok {
		return "'" + strings.ReplaceAll(strings.Join(seq, "|"), "'", "''") + "'", nil
	}

	return "'" + strings.ReplaceAll(fmt.Sprintf("%v", v), "'", "''") + "'", nil
}

// isCompound reports whether v is a mapping, or a sequence whose elements are themselves
// mappings or sequences - the cases the value formatter serializes to JSON rather than
// "|"-joining.
func isCompound(v any) bool {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Map:
		return true
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			switch reflect.ValueOf(rv.Index(i).Interface()).Kind() {
			case reflect.Map, reflect.Slice, reflect.Array:
				return true
			}
		}
	}

	return false
}

// flatScalarSequence stringifies the elements of v if v is a non-compound sequence, for
// "|"-joining.
func flatScalarSequence(v any) ([]string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	out := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = fmt.Sprintf("%v", rv.Index(i).Interface())
	}

	return out, true
}
