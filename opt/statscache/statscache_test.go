package statscache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cascadedb/optimizer/opt/cat"
	"github.com/cascadedb/optimizer/opt/statscache"
)

func TestCacheServesStatsAcrossLookups(t *testing.T) {
	emp := &cat.MemTable{
		TableName:   "emp",
		Cols:        []cat.Column{{Name: "id", Type: "int"}},
		Rows:        14,
		Cardinality: map[int]int{0: 14},
	}
	catalog := cat.NewMemCatalog(emp)

	c, err := statscache.Open("", catalog)
	require.NoError(t, err)
	defer c.Close()

	table, ok := c.Table("emp")
	require.True(t, ok)
	require.Equal(t, 14.0, table.RowCount())
	hits, misses := c.Stats()
	require.Equal(t, uint64(0), hits)
	require.Equal(t, uint64(1), misses)

	table, ok = c.Table("emp")
	require.True(t, ok)
	require.Equal(t, 14.0, table.RowCount())
	hits, misses = c.Stats()
	require.Equal(t, uint64(1), hits)
	require.Equal(t, uint64(1), misses)
}

// Touching the underlying table's stats epoch invalidates the cached entry.
func TestCacheInvalidatesOnEpochBump(t *testing.T) {
	emp := &cat.MemTable{TableName: "emp", Cols: []cat.Column{{Name: "id", Type: "int"}}, Rows: 14}
	catalog := cat.NewMemCatalog(emp)

	c, err := statscache.Open("", catalog)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Table("emp")
	require.True(t, ok)

	emp.Rows = 28
	emp.Touch()

	table, ok := c.Table("emp")
	require.True(t, ok)
	require.Equal(t, 28.0, table.RowCount())
	_, misses := c.Stats()
	require.Equal(t, uint64(2), misses)
}

func TestCacheMissingTable(t *testing.T) {
	catalog := cat.NewMemCatalog()
	c, err := statscache.Open("", catalog)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Table("nope")
	require.False(t, ok)
}
