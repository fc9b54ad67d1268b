package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestInsertStreamed asserts InsertStreamed drains its channel into the database, using the
// default statement derived from the first entity received.
func TestInsertStreamed(t *testing.T) {
	db := newUpsertExampleDb(t)

	entities := make(chan MockEntity, 2)
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error { return InsertStreamed(ctx, db, entities) })

	entities <- MockEntity{Id: 5, Name: "test5", Age: 50, Email: "test5@test.com"}
	entities <- MockEntity{Id: 6, Name: "test6", Age: 60, Email: "test6@test.com"}
	close(entities)

	require.NoError(t, g.Wait())

	var actual []MockEntity
	require.NoError(t, db.DB.Select(
		&actual, `SELECT "id", "name", "age", "email" FROM mock_entity WHERE "id" IN (5, 6) ORDER BY "id"`,
	))
	require.Equal(t, []MockEntity{
		{Id: 5, Name: "test5", Age: 50, Email: "test5@test.com"},
		{Id: 6, Name: "test6", Age: 60, Email: "test6@test.com"},
	}, actual)
}

// TestInsertStreamedWithOnInsert asserts the WithOnInsert callback fires once per batch with the
// rows that were actually inserted.
func TestInsertStreamedWithOnInsert(t *testing.T) {
	db := newUpsertExampleDb(t)

	var insertedCount int

	entities := make(chan MockEntity, 1)
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return InsertStreamed(ctx, db, entities, WithOnInsert(func(_ context.Context, rows []any) error {
			insertedCount += len(rows)
			return nil
		}))
	})

	entities <- MockEntity{Id: 5, Name: "test5", Age: 50, Email: "test5@test.com"}
	close(entities)

	require.NoError(t, g.Wait())
	require.Equal(t, 1, insertedCount)
}

// TestInsertStreamedStatementError asserts an InsertStatement targeting a nonexistent table
// surfaces as an error from InsertStreamed rather than being silently dropped.
func TestInsertStreamedStatementError(t *testing.T) {
	db := newUpsertExampleDb(t)

	entities := make(chan MockEntity, 1)
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return InsertStreamed(ctx, db, entities, NewInsertStatement(&MockEntity{}).Into("false_table"))
	})

	entities <- MockEntity{Id: 5, Name: "test5", Age: 50, Email: "test5@test.com"}
	close(entities)

	require.ErrorContains(t, g.Wait(), "can't perform")
}
