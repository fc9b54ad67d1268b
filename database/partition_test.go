package database

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionManagementRejectsNonDb2(t *testing.T) {
	ctx := context.Background()
	db := newTransactionTestDB(t)

	result := db.AddPartition(ctx, "widgets", "p2024", "'2024-01-01'", "'2025-01-01'")
	require.NotEqual(t, 0, result.Status)
	require.True(t, strings.Contains(result.Message, ErrSyntaxOrDialect.Error()))
}
