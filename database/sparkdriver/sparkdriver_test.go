package sparkdriver

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDriver_SharesBackendAcrossConnections(t *testing.T) {
	db, err := sql.Open(DriverName, "TestDriver_SharesBackendAcrossConnections")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	_, err = db.ExecContext(ctx, "CREATE TABLE events (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "INSERT INTO events (id, name) VALUES (?, ?)", 1, "merged")
	require.NoError(t, err)

	var name string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT name FROM events WHERE id = ?", 1).Scan(&name))
	require.Equal(t, "merged", name)
}

func TestDriver_IsolatesDistinctDSNs(t *testing.T) {
	a, err := sql.Open(DriverName, "TestDriver_IsolatesDistinctDSNs_a")
	require.NoError(t, err)
	defer a.Close()

	b, err := sql.Open(DriverName, "TestDriver_IsolatesDistinctDSNs_b")
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	_, err = a.ExecContext(ctx, "CREATE TABLE t (id INTEGER)")
	require.NoError(t, err)

	_, err = b.QueryContext(ctx, "SELECT * FROM t")
	require.Error(t, err, "distinct DSNs must not share state")
}
