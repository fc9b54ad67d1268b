package database

import (
	"context"
	"testing"
	"time"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/relio/jrm/logging"
)

// TestUpsertStreamedEndToEnd runs UpsertStreamed against a real sqlite database end to end,
// rather than through TestUpsertStreamed's table-driven shared db.
func TestUpsertStreamedEndToEnd(t *testing.T) {
	testEntites := []MockEntity{
		{Id: 1, Name: "test1", Age: 10, Email: "test1@test.com"},
		{Id: 2, Name: "test2", Age: 20, Email: "test2@test.com"},
	}

	var options Options
	require.NoError(t, defaults.Set(&options))

	logger := logging.NewLogger(zaptest.NewLogger(t).Sugar(), time.Hour)

	db, err := NewDbFromConfig(
		&Config{Type: "sqlite", File: t.Name(), Options: options}, logger, RetryConnectorCallbacks{},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	initTestDb(db, logger)

	g, ctx := errgroup.WithContext(context.Background())
	entities := make(chan MockEntity, len(testEntites))

	g.Go(func() error { return UpsertStreamed(ctx, db, entities) })

	for _, entity := range testEntites {
		entities <- entity
	}
	close(entities)

	require.NoError(t, g.Wait())

	var actual []MockEntity
	require.NoError(t, db.DB.Select(
		&actual, `SELECT "id", "name", "age", "email" FROM mock_entity WHERE "id" IN (1, 2) ORDER BY "id"`,
	))
	require.Equal(t, testEntites, actual)
}
