// Package statscache provides a durable cache of catalog table statistics
// in front of a cat.Catalog, keyed by table name and the table's own
// StatsEpoch so a stats refresh invalidates stale entries without the
// cache needing any separate TTL bookkeeping.
package statscache

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/cascadedb/optimizer/opt/cat"
)

// entry is the cached snapshot of a Table's statistics, encoded to JSON for
// storage in Badger.
type entry struct {
	Name        string
	Cols        []cat.Column
	Rows        float64
	Keys        [][]int
	Order       []cat.CollationKey
	Cardinality map[int]int
	Epoch       uint64
}

// Cache wraps a cat.Catalog with a Badger-backed statistics cache. Lookups
// first check Badger; a miss or an epoch mismatch falls through to the
// underlying catalog and repopulates the cache.
type Cache struct {
	db      *badger.DB
	catalog cat.Catalog

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// Open opens (creating if needed) a Badger database at path and wraps
// catalog with a statistics cache backed by it. An empty path opens an
// in-memory store instead of touching disk — the mode this package's own
// tests run in.
func Open(path string, catalog cat.Catalog) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("statscache: open badger: %w", err)
	}
	return &Cache{db: db, catalog: catalog}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Table resolves name through the cache, falling back to the wrapped
// catalog on a miss or a stale epoch.
func (c *Cache) Table(name string) (cat.Table, bool) {
	live, ok := c.catalog.Table(name)
	if !ok {
		return nil, false
	}

	key := cacheKey(name)
	if cached, ok := c.lookup(key, live.StatsEpoch()); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return cached, true
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	c.store(key, live)
	return live, true
}

// Stats reports cache hit/miss counters, for diagnostics.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func cacheKey(name string) []byte {
	return []byte("statscache:" + name)
}

func (c *Cache) lookup(key []byte, wantEpoch uint64) (cat.Table, bool) {
	var found *entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var e entry
			if err := json.Unmarshal(val, &e); err != nil {
				return err
			}
			found = &e
			return nil
		})
	})
	if err != nil || found == nil || found.Epoch != wantEpoch {
		return nil, false
	}
	return &memTable{found}, true
}

func (c *Cache) store(key []byte, t cat.Table) {
	e := entry{
		Name:        t.Name(),
		Cols:        t.Columns(),
		Rows:        t.RowCount(),
		Keys:        t.UniqueKeys(),
		Order:       t.Collation(),
		Cardinality: cardinalityMap(t),
		Epoch:       t.StatsEpoch(),
	}
	val, err := json.Marshal(&e)
	if err != nil {
		return
	}
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

// cardinalityMap snapshots AttributeCardinality across a table's columns;
// there is no enumeration method on cat.Table, so this reads one column at
// a time up to the table's own column count.
func cardinalityMap(t cat.Table) map[int]int {
	out := make(map[int]int, len(t.Columns()))
	for i := range t.Columns() {
		if card := t.AttributeCardinality(i); card > 0 {
			out[i] = card
		}
	}
	return out
}

// memTable adapts a cached entry back to cat.Table.
type memTable struct{ e *entry }

func (m *memTable) Name() string        { return m.e.Name }
func (m *memTable) Columns() []cat.Column { return m.e.Cols }
func (m *memTable) RowCount() float64   { return m.e.Rows }
func (m *memTable) UniqueKeys() [][]int { return m.e.Keys }
func (m *memTable) Collation() []cat.CollationKey { return m.e.Order }
func (m *memTable) StatsEpoch() uint64  { return m.e.Epoch }

func (m *memTable) AttributeCardinality(col int) int {
	return m.e.Cardinality[col]
}
