package database

import (
	"context"
	"testing"
	"time"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/relio/jrm/logging"
)

func newTransactionTestDB(t *testing.T) *DB {
	t.Helper()

	var options Options
	require.NoError(t, defaults.Set(&options))

	logger := logging.NewLogger(zaptest.NewLogger(t).Sugar(), time.Hour)

	db, err := NewDbFromConfig(&Config{Type: "sqlite", Database: ":memory:", Options: options}, logger, RetryConnectorCallbacks{})
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE widgets ("id" INTEGER PRIMARY KEY, "name" VARCHAR(255))`)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestTransactionCommit(t *testing.T) {
	ctx := context.Background()
	db := newTransactionTestDB(t)

	err := db.Transaction(ctx, ReadCommitted, func(ctx context.Context, tx *Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO widgets ("id", "name") VALUES (1, 'a')`)
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM widgets"))
	require.Equal(t, 1, count)
}

func TestTransactionRollbackOnError(t *testing.T) {
	ctx := context.Background()
	db := newTransactionTestDB(t)

	sentinel := require.New(t)

	err := db.Transaction(ctx, ReadCommitted, func(ctx context.Context, tx *Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO widgets ("id", "name") VALUES (1, 'a')`); err != nil {
			return err
		}

		return errFakeFailure
	})
	sentinel.ErrorIs(err, errFakeFailure)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM widgets"))
	require.Equal(t, 0, count)
}

func TestTxStateMachine(t *testing.T) {
	ctx := context.Background()
	db := newTransactionTestDB(t)

	tx, err := db.BeginTx(ctx, ReadCommitted)
	require.NoError(t, err)
	require.Equal(t, TxActive, tx.State())

	require.NoError(t, tx.Commit())
	require.Equal(t, TxCommitted, tx.State())

	require.Error(t, tx.Commit())
	require.NoError(t, tx.Rollback())
}

var errFakeFailure = errFakeFailureType{}

type errFakeFailureType struct{}

func (errFakeFailureType) Error() string { return "fake failure" }
