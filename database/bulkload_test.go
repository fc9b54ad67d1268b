package database

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenericBatchInsertLoad(t *testing.T) {
	ctx := context.Background()
	db := newTransactionTestDB(t)

	source := "id,name\n1,alice\n2,bob\n"

	result := db.BulkLoad(ctx, BulkLoadDescriptor{
		Table:      "widgets",
		Reader:     strings.NewReader(source),
		SourceType: "cursor",
		Header:     true,
	})
	require.Equal(t, 0, result.Status)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM widgets"))
	require.Equal(t, 2, count)
}

func TestBulkLoadOverwriteMode(t *testing.T) {
	ctx := context.Background()
	db := newTransactionTestDB(t)

	_, err := db.Exec(`INSERT INTO widgets ("id", "name") VALUES (99, 'stale')`)
	require.NoError(t, err)

	result := db.BulkLoad(ctx, BulkLoadDescriptor{
		Table:      "widgets",
		Reader:     strings.NewReader("id,name\n1,alice\n"),
		SourceType: "cursor",
		Header:     true,
		Mode:       "overwrite",
	})
	require.Equal(t, 0, result.Status)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM widgets"))
	require.Equal(t, 1, count)
}

func TestBulkLoadDescriptorReadRecordsRequiresColumns(t *testing.T) {
	d := BulkLoadDescriptor{
		Reader:     strings.NewReader("1,alice\n"),
		SourceType: "cursor",
		Header:     false,
	}

	_, err := d.readRecords()
	require.Error(t, err)
}
