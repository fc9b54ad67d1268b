package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertSelectUpdateDeleteWhere(t *testing.T) {
	ctx := context.Background()
	db := newTransactionTestDB(t)

	insertResult := db.Insert(ctx, "widgets", []map[string]any{
		{"id": 1, "name": "alice"},
		{"id": 2, "name": "bob"},
	}, nil, 1000)
	require.Equal(t, 0, insertResult.Status, insertResult.Message)
	require.EqualValues(t, 2, insertResult.Count)

	selectResult := db.Select(ctx, "widgets", nil, ConditionTree{"id": 1}, QueryOptions{})
	require.Equal(t, 0, selectResult.Status, selectResult.Message)
	require.Len(t, selectResult.Data, 1)
	require.Equal(t, "alice", selectResult.Data[0]["name"])

	updateResult := db.Update(ctx, "widgets", map[string]any{"name": "alicia"}, ConditionTree{"id": 1})
	require.Equal(t, 0, updateResult.Status, updateResult.Message)
	require.EqualValues(t, 1, updateResult.Count)

	deleteResult := db.DeleteWhere(ctx, "widgets", ConditionTree{"id": 2})
	require.Equal(t, 0, deleteResult.Status, deleteResult.Message)
	require.EqualValues(t, 1, deleteResult.Count)

	remaining := db.Select(ctx, "widgets", nil, ConditionTree{}, QueryOptions{})
	require.Equal(t, 0, remaining.Status, remaining.Message)
	require.Len(t, remaining.Data, 1)
	require.Equal(t, "alicia", remaining.Data[0]["name"])
}

func TestMergeOnConflictDoUpdate(t *testing.T) {
	ctx := context.Background()
	db := newTransactionTestDB(t)

	insertResult := db.Insert(ctx, "widgets", []map[string]any{{"id": 1, "name": "alice"}}, nil, 1000)
	require.Equal(t, 0, insertResult.Status, insertResult.Message)

	mergeResult := db.Merge(ctx, "widgets", map[string]any{"id": 1, "name": "alicia"}, []string{"id"}, nil, false)
	require.Equal(t, 0, mergeResult.Status, mergeResult.Message)

	selectResult := db.Select(ctx, "widgets", nil, ConditionTree{"id": 1}, QueryOptions{})
	require.Equal(t, 0, selectResult.Status, selectResult.Message)
	require.Len(t, selectResult.Data, 1)
	require.Equal(t, "alicia", selectResult.Data[0]["name"])

	mergeInsertResult := db.Merge(ctx, "widgets", map[string]any{"id": 2, "name": "bob"}, []string{"id"}, nil, false)
	require.Equal(t, 0, mergeInsertResult.Status, mergeInsertResult.Message)

	all := db.Select(ctx, "widgets", nil, ConditionTree{}, QueryOptions{})
	require.Len(t, all.Data, 2)
}
