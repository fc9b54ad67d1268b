package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relio/jrm/database/dialect"
)

// TestMergeIntoStmtRequiresFromOnOracleAndDb2 guards against regressing to a bare
// "USING (SELECT ...)" source subquery, which Oracle and Db2 both reject: Oracle requires FROM on
// every SELECT (ORA-00923), and Db2 requires selecting from a dummy table for a single-row VALUES
// expression. SQL Server and Spark tolerate a FROM-less SELECT, so MergeSourceTable is empty for
// both and the generated SQL must not grow a stray FROM clause either.
func TestMergeIntoStmtRequiresFromOnOracleAndDb2(t *testing.T) {
	db := &DB{}

	tests := []struct {
		dialectName string
		wantSource  string
	}{
		{"oracle", `(SELECT :a AS "a", :id AS "id" FROM DUAL) AS source`},
		{"db2", `(SELECT ? AS "a", ? AS "id" FROM SYSIBM.SYSDUMMY1) AS source`},
		{"mssql", `(SELECT @p1 AS [a], @p2 AS [id]) AS source`},
		{"spark", "(SELECT ? AS `a`, ? AS `id`) AS source"},
	}

	for _, tt := range tests {
		t.Run(tt.dialectName, func(t *testing.T) {
			d, err := dialect.Lookup(tt.dialectName)
			require.NoError(t, err)

			columns := []string{"a", "id"}
			placeholders := make([]string, len(columns))
			for i, column := range columns {
				placeholders[i] = d.BindVar(i+1, column)
			}

			stmt := db.mergeIntoStmt(d, "widgets", columns, placeholders, []string{"id"}, []string{"a"}, false)

			assert.Contains(t, stmt, tt.wantSource)
		})
	}
}
