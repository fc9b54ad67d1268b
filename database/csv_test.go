package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		records []map[string]any
		options CSVOptions
		want    string
	}{{
		name:    "empty",
		records: nil,
		options: CSVOptions{Header: true},
		want:    "",
	}, {
		name: "header_and_sorted_columns",
		records: []map[string]any{
			{"id": 1, "name": "alice"},
			{"id": 2, "name": "bob"},
		},
		options: CSVOptions{Header: true},
		want:    "id,name\n1,alice\n2,bob\n",
	}, {
		name: "null_value_substitution",
		records: []map[string]any{
			{"a": 1, "b": nil},
		},
		options: CSVOptions{Header: false, NullValue: "\\N"},
		want:    "1,\\N\n",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder

			err := WriteCSV(&buf, tt.records, tt.options)
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
