package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relio/jrm/database/dialect"
)

func TestSplitSQLScript(t *testing.T) {
	postgres, err := dialect.Lookup("postgres")
	assert.NoError(t, err)

	mysql, err := dialect.Lookup("mysql")
	assert.NoError(t, err)

	tests := []struct {
		name   string
		script string
		d      *dialect.Dialect
		want   []string
	}{{
		name:   "empty",
		script: "",
		d:      postgres,
		want:   nil,
	}, {
		name:   "postgres_default_terminator",
		script: "SELECT 1;\nSELECT 2;\n",
		d:      postgres,
		want:   []string{"SELECT 1", "SELECT 2"},
	}, {
		name:   "nil_dialect_falls_back_to_semicolon",
		script: "SELECT 1;\nSELECT 2",
		d:      nil,
		want:   []string{"SELECT 1", "SELECT 2"},
	}, {
		name:   "mysql_delegates_to_delimiter_aware_splitter",
		script: "q1;\ndelimiter //\nq2//\ndelimiter ;\nq3;\n",
		d:      mysql,
		want:   []string{"q1", "q2", "q3"},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSQLScript(tt.script, tt.d))
		})
	}
}
