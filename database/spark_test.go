package database

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/relio/jrm/logging"
)

type sparkWidgetID int

func (i sparkWidgetID) String() string { return strconv.Itoa(int(i)) }

type sparkWidget struct {
	RowID int `db:"id"`
	Name  string
}

func (w *sparkWidget) ID() ID            { return sparkWidgetID(w.RowID) }
func (w *sparkWidget) TableName() string { return "widgets" }

func newSparkTestDB(t *testing.T) *DB {
	t.Helper()

	var options Options
	require.NoError(t, defaults.Set(&options))

	logger := logging.NewLogger(zaptest.NewLogger(t).Sugar(), time.Hour)

	db, err := NewDbFromConfig(
		&Config{Type: "spark", File: t.Name(), Options: options}, logger, RetryConnectorCallbacks{},
	)
	require.NoError(t, err)

	_, err = db.Exec("CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// TestSparkMergeRequiresDeltaTable asserts the ErrDeltaRequired guard rejects MERGE, UPDATE, and
// DELETE against a table that hasn't been declared Delta, and that RegisterDeltaTable lifts it.
func TestSparkMergeRequiresDeltaTable(t *testing.T) {
	ctx := context.Background()
	db := newSparkTestDB(t)

	mergeResult := db.Merge(ctx, "widgets", map[string]any{"id": 1, "name": "alice"}, []string{"id"}, nil, false)
	require.Equal(t, -1, mergeResult.Status)
	require.Contains(t, mergeResult.Message, "delta")

	updateResult := db.Update(ctx, "widgets", map[string]any{"name": "alice"}, ConditionTree{"id": 1})
	require.Equal(t, -1, updateResult.Status)
	require.Contains(t, updateResult.Message, "delta")

	deleteResult := db.DeleteWhere(ctx, "widgets", ConditionTree{"id": 1})
	require.Equal(t, -1, deleteResult.Status)
	require.Contains(t, deleteResult.Message, "delta")

	db.RegisterDeltaTable("widgets")

	mergeResult = db.Merge(ctx, "widgets", map[string]any{"id": 1, "name": "alice"}, []string{"id"}, nil, false)
	require.Equal(t, 0, mergeResult.Status, mergeResult.Message)
	require.EqualValues(t, 1, mergeResult.Count)

	mergeResult = db.Merge(ctx, "widgets", map[string]any{"id": 1, "name": "alicia"}, []string{"id"}, nil, false)
	require.Equal(t, 0, mergeResult.Status, mergeResult.Message)

	selectResult := db.Select(ctx, "widgets", nil, ConditionTree{"id": 1}, QueryOptions{})
	require.Equal(t, 0, selectResult.Status, selectResult.Message)
	require.Len(t, selectResult.Data, 1)
	require.Equal(t, "alicia", selectResult.Data[0]["name"])
}

// TestSparkUpsertStatementUsesOnConflict confirms QueryBuilder builds a statement the
// sparkdriver's SQLite-backed engine can actually execute - Delta's MERGE INTO isn't available -
// and that it round-trips.
func TestSparkUpsertStatementUsesOnConflict(t *testing.T) {
	ctx := context.Background()
	db := newSparkTestDB(t)
	db.RegisterDeltaTable("widgets")

	qb := db.QueryBuilder()
	stmt := NewUpsertStatement(&sparkWidget{}).SetColumns("id", "name")
	sql, _, err := qb.UpsertStatement(stmt)
	require.NoError(t, err)
	require.Contains(t, sql, "ON CONFLICT")
	require.NotContains(t, sql, "MERGE INTO")

	_, err = db.NamedExecContext(ctx, sql, map[string]any{"id": 1, "name": "alice"})
	require.NoError(t, err)

	_, err = db.NamedExecContext(ctx, sql, map[string]any{"id": 1, "name": "alicia"})
	require.NoError(t, err)

	selectResult := db.Select(ctx, "widgets", nil, ConditionTree{"id": 1}, QueryOptions{})
	require.Equal(t, 0, selectResult.Status, selectResult.Message)
	require.Len(t, selectResult.Data, 1)
	require.Equal(t, "alicia", selectResult.Data[0]["name"])
}

// TestSparkTransactionCommitRollbackAreNoops asserts Commit and Rollback never error regardless
// of call order, matching Databricks SQL's lack of real multi-statement transactions.
func TestSparkTransactionCommitRollbackAreNoops(t *testing.T) {
	ctx := context.Background()
	db := newSparkTestDB(t)

	tx, err := db.BeginTx(ctx, ReadCommitted)
	require.NoError(t, err)

	_, err = tx.ExecContext(ctx, "INSERT INTO widgets (id, name) VALUES (1, 'a')")
	require.NoError(t, err)

	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Rollback())
	require.Equal(t, TxRolledBack, tx.State())

	selectResult := db.Select(ctx, "widgets", nil, ConditionTree{"id": 1}, QueryOptions{})
	require.Equal(t, 0, selectResult.Status, selectResult.Message)
	require.Len(t, selectResult.Data, 1)
}

// TestProbeSparkVersionCaches asserts the version probe only queries the backend once.
func TestProbeSparkVersionCaches(t *testing.T) {
	ctx := context.Background()
	db := newSparkTestDB(t)

	version, err := db.ProbeSparkVersion(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, version)

	again, err := db.ProbeSparkVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, version, again)
}
