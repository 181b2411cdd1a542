package tablestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdf2tables/backend/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenAtPath("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTables() []models.Table {
	return []models.Table{
		{
			Page:   1,
			Order:  1,
			Flavor: "grid",
			Data:   [][]string{{"Name", "Amount"}, {"Widget", "12.50"}},
		},
		{
			Page:   2,
			Order:  2,
			Flavor: "stream",
			Data:   [][]string{{"a", "b", "c"}, {"d", "e", "f"}},
		},
	}
}

func TestStore_InsertAndQueryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertTables(ctx, "req-1", "slug-a", sampleTables()))

	got, err := s.Tables(ctx, "req-1", "slug-a")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Page)
	assert.Equal(t, "grid", got[0].Flavor)
	assert.Equal(t, [][]string{{"Name", "Amount"}, {"Widget", "12.50"}}, got[0].Data)

	assert.Equal(t, 2, got[1].Page)
	assert.Equal(t, "stream", got[1].Flavor)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "e", "f"}}, got[1].Data)
}

func TestStore_QueryIsScopedToFile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertTables(ctx, "req-1", "slug-a", sampleTables()[:1]))
	require.NoError(t, s.InsertTables(ctx, "req-1", "slug-b", sampleTables()[1:]))
	require.NoError(t, s.InsertTables(ctx, "req-2", "slug-a", sampleTables()[:1]))

	got, err := s.Tables(ctx, "req-1", "slug-a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "grid", got[0].Flavor)

	empty, err := s.Tables(ctx, "req-1", "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_DeleteRequest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertTables(ctx, "req-1", "slug-a", sampleTables()))
	require.NoError(t, s.InsertTables(ctx, "req-2", "slug-a", sampleTables()[:1]))

	require.NoError(t, s.DeleteRequest(ctx, "req-1"))

	gone, err := s.Tables(ctx, "req-1", "slug-a")
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := s.Tables(ctx, "req-2", "slug-a")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestStore_InsertEmptyTableSet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertTables(ctx, "req-1", "slug-a", nil))

	got, err := s.Tables(ctx, "req-1", "slug-a")
	require.NoError(t, err)
	assert.Empty(t, got)
}
