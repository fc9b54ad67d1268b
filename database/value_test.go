package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValueKeywordLiteral(t *testing.T) {
	for _, mode := range []BindMode{Bind, Inline} {
		fv, err := FormatValue("`CURRENT_TIMESTAMP`", mode)
		require.NoError(t, err)
		assert.Equal(t, Inline, fv.Mode)
		assert.Equal(t, "CURRENT_TIMESTAMP", fv.Literal)
	}
}

func TestFormatValueBindMode(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "hello", "hello"},
		{"int", 42, 42},
		{"flat_slice_joined", []int{1, 2, 3}, "1|2|3"},
		{"map_becomes_json", map[string]any{"a": 1}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv, err := FormatValue(tt.in, Bind)
			require.NoError(t, err)
			assert.Equal(t, Bind, fv.Mode)
			assert.Equal(t, tt.want, fv.Value)
		})
	}
}

func TestFormatValueInlineMode(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "NULL"},
		{"bool_true", true, "TRUE"},
		{"bool_false", false, "FALSE"},
		{"string_escapes_quote", "it's", "'it''s'"},
		{"int", 42, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv, err := FormatValue(tt.in, Inline)
			require.NoError(t, err)
			assert.Equal(t, Inline, fv.Mode)
			assert.Equal(t, tt.want, fv.Literal)
		})
	}
}

func TestFormatValueTimePassesThroughBound(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	fv, err := FormatValue(now, Bind)
	require.NoError(t, err)
	assert.Equal(t, now, fv.Value)
}
