package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestUpdateStreamed asserts UpdateStreamed matches and updates entities by their default "id"
// where-clause when no WithUpdateStatement option is given.
func TestUpdateStreamed(t *testing.T) {
	db := newUpsertExampleDb(t)

	entities := make(chan MockEntity, 2)
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error { return UpdateStreamed(ctx, db, entities) })

	entities <- MockEntity{Id: 1, Name: "test1", Age: 100, Email: "test1@test.com"}
	entities <- MockEntity{Id: 2, Name: "test2", Age: 200, Email: "test2@test.com"}
	close(entities)

	require.NoError(t, g.Wait())

	var actual []MockEntity
	require.NoError(t, db.DB.Select(
		&actual, `SELECT "id", "name", "age", "email" FROM mock_entity WHERE "id" IN (1, 2) ORDER BY "id"`,
	))
	require.Equal(t, []MockEntity{
		{Id: 1, Name: "test1", Age: 100, Email: "test1@test.com"},
		{Id: 2, Name: "test2", Age: 200, Email: "test2@test.com"},
	}, actual)
}

// TestUpdateStreamedWithOnUpdate asserts the WithOnUpdate callback fires with the rows that were
// actually updated.
func TestUpdateStreamedWithOnUpdate(t *testing.T) {
	db := newUpsertExampleDb(t)

	var updatedCount int

	entities := make(chan MockEntity, 1)
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return UpdateStreamed(ctx, db, entities, WithOnUpdate(func(_ context.Context, rows []any) error {
			updatedCount += len(rows)
			return nil
		}))
	})

	entities <- MockEntity{Id: 1, Name: "test1", Age: 100, Email: "test1@test.com"}
	close(entities)

	require.NoError(t, g.Wait())
	require.Equal(t, 1, updatedCount)
}

// TestUpdateStreamedStatementError asserts an UpdateStatement targeting a nonexistent table
// surfaces as an error from UpdateStreamed rather than being silently dropped.
func TestUpdateStreamedStatementError(t *testing.T) {
	db := newUpsertExampleDb(t)

	entities := make(chan MockEntity, 1)
	g, ctx := errgroup.WithContext(context.Background())

	badStmt := NewUpdateStatement(&MockEntity{}).SetTable("false_table").SetWhere(`"id" = :id`)

	g.Go(func() error {
		return UpdateStreamed(ctx, db, entities, WithUpdateStatement(badStmt))
	})

	entities <- MockEntity{Id: 1, Name: "test1", Age: 100, Email: "test1@test.com"}
	close(entities)

	require.Error(t, g.Wait())
}
