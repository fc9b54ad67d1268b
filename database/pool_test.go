package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolFacadeResetStrategyTransaction(t *testing.T) {
	ctx := context.Background()
	db := newTransactionTestDB(t)
	db.Options.PoolStrategy = "reset"

	facade := NewPoolFacade(db)

	err := facade.Transaction(ctx, ReadCommitted, func(ctx context.Context, tx *Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO widgets ("id", "name") VALUES (1, 'a')`)
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM widgets"))
	require.Equal(t, 1, count)
}

func TestPoolFacadeExecuteBatch(t *testing.T) {
	ctx := context.Background()
	db := newTransactionTestDB(t)
	db.Options.PoolStrategy = "reset"

	facade := NewPoolFacade(db)

	results, err := facade.ExecuteBatch(ctx, ReadCommitted, []Operation{
		{Method: "execute", SQL: `INSERT INTO widgets ("id", "name") VALUES (?, ?)`, Args: []any{1, "a"}},
		{Method: "execute", SQL: `INSERT INTO widgets ("id", "name") VALUES (?, ?)`, Args: []any{2, "b"}},
		{Method: "query", SQL: "SELECT * FROM widgets"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.EqualValues(t, 2, results[2].Count)
}

func TestPoolFacadeEagerAcquireRelease(t *testing.T) {
	ctx := context.Background()
	db := newTransactionTestDB(t)
	db.Options.PoolStrategy = "eager"
	db.Options.PoolMinConnections = 1

	facade := NewPoolFacade(db)

	handle, err := facade.Acquire(ctx)
	require.NoError(t, err)

	var one int
	require.NoError(t, handle.Conn.GetContext(ctx, &one, "SELECT 1"))
	require.Equal(t, 1, one)

	handle.Release()
	handle.Release() // Release must tolerate being called more than once.
}
