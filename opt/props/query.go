// Package props implements the pluggable metadata framework: a chain of
// named Providers answering questions about an
// expression's logical shape (row counts, keys, collations, predicates)
// plus the cumulative-cost accessor the optimizer's group-costing pass
// reads from. Every answer is cached per memo-timestamp so a register or
// merge invalidates stale reads without requiring callers to manage cache
// lifetime themselves.
package props

import (
	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/cat"
	"github.com/cascadedb/optimizer/opt/memo"
)

// Property name constants.
const (
	RowCountProp           = "rowCount"
	MaxRowCountProp        = "maxRowCount"
	SelectivityProp        = "selectivity"
	DistinctRowCountProp   = "distinctRowCount"
	UniqueKeysProp         = "uniqueKeys"
	ColumnUniqueProp       = "areColumnsUnique"
	ColumnOriginsProp      = "columnOrigins"
	CollationsProp         = "collations"
	PredicatesProp         = "predicates"
	AverageRowSizeProp     = "averageRowSize"
	AverageColumnSizesProp = "averageColumnSizes"
	MemoryProp             = "memory"
	ParallelismProp        = "parallelism"
)

// ColumnRef names the base-table column an output column ultimately reads
// from, the answer to the columnOrigins property.
type ColumnRef struct {
	Table string
	Col   int
}

// Provider computes one property for expr. ok=false means "I don't know",
// letting Chain fall through to the next provider in line — the first
// answer reported with ok=true wins.
type Provider func(q *Query, expr opt.Expr) (value interface{}, ok bool)

// Chain composes providers into one that tries each in order.
func Chain(providers ...Provider) Provider {
	return func(q *Query, expr opt.Expr) (interface{}, bool) {
		for _, p := range providers {
			if v, ok := p(q, expr); ok {
				return v, true
			}
		}
		return nil, false
	}
}

// CostModel is the minimal interface Query needs to answer the
// cumulativeCost property; opt/cost.DefaultModel implements it. Kept here
// rather than importing opt/cost, which itself depends on this package.
type CostModel interface {
	SelfCost(q *Query, expr opt.Expr) opt.Cost
}

type cacheKey struct {
	property string
	fp       string
}

// Query is the handle rules, the coster, and the optimizer driver use to
// read metadata about expressions in one memo.
type Query struct {
	m       *memo.Memo
	catalog cat.Catalog
	model   CostModel

	registry map[string]Provider

	cacheTimestamp uint64
	cache          map[cacheKey]interface{}
}

// NewQuery builds a Query bound to one memo, catalog, and cost model, with
// the built-in provider set installed (see providers.go).
func NewQuery(m *memo.Memo, catalog cat.Catalog, model CostModel) *Query {
	q := &Query{
		m:        m,
		catalog:  catalog,
		model:    model,
		registry: make(map[string]Provider),
		cache:    make(map[cacheKey]interface{}),
	}
	installBuiltins(q)
	return q
}

func (q *Query) Memo() *memo.Memo     { return q.m }
func (q *Query) Catalog() cat.Catalog { return q.catalog }

// Register overrides or adds a named property provider — e.g. a caller
// supplying a join-specific selectivity model that falls back to the
// built-in heuristic.
func (q *Query) Register(property string, p Provider) {
	if existing, ok := q.registry[property]; ok {
		q.registry[property] = Chain(p, existing)
		return
	}
	q.registry[property] = p
}

func (q *Query) invalidateIfStale() {
	ts := q.m.Timestamp()
	if ts != q.cacheTimestamp {
		q.cache = make(map[cacheKey]interface{})
		q.cacheTimestamp = ts
	}
}

func (q *Query) ask(property string, expr opt.Expr) (interface{}, bool) {
	q.invalidateIfStale()
	key := cacheKey{property: property, fp: expr.Fingerprint()}
	if v, ok := q.cache[key]; ok {
		return v, true
	}
	p, ok := q.registry[property]
	if !ok {
		return nil, false
	}
	v, ok := p(q, expr)
	if ok {
		q.cache[key] = v
	}
	return v, ok
}

// RowCount returns the estimated number of rows expr produces.
func (q *Query) RowCount(expr opt.Expr) float64 {
	if v, ok := q.ask(RowCountProp, expr); ok {
		return v.(float64)
	}
	return 0
}

// MaxRowCount returns a provable upper bound on expr's row count, or
// +Inf if none is known.
func (q *Query) MaxRowCount(expr opt.Expr) float64 {
	if v, ok := q.ask(MaxRowCountProp, expr); ok {
		return v.(float64)
	}
	return posInf
}

// Selectivity returns the fraction of input rows a predicate is estimated
// to keep.
func (q *Query) Selectivity(cond opt.ScalarExpr) float64 {
	return selectivityOf(cond)
}

// DistinctRowCount estimates the number of distinct values expr's column
// col takes.
func (q *Query) DistinctRowCount(expr opt.Expr, col int) float64 {
	if v, ok := q.ask(DistinctRowCountProp, expr); ok {
		if m, ok := v.(map[int]float64); ok {
			if d, ok := m[col]; ok {
				return d
			}
		}
	}
	return q.RowCount(expr)
}

// UniqueKeys returns every set of columns proven to uniquely identify a row
// of expr's output.
func (q *Query) UniqueKeys(expr opt.Expr) [][]int {
	if v, ok := q.ask(UniqueKeysProp, expr); ok {
		return v.([][]int)
	}
	return nil
}

// AreColumnsUnique reports whether cols is known to uniquely identify a row.
func (q *Query) AreColumnsUnique(expr opt.Expr, cols []int) bool {
	for _, key := range q.UniqueKeys(expr) {
		if isSubsetOf(key, cols) {
			return true
		}
	}
	return false
}

// ColumnOrigins traces output column col back to the base-table column(s)
// it reads from.
func (q *Query) ColumnOrigins(expr opt.Expr, col int) []ColumnRef {
	if v, ok := q.ask(ColumnOriginsProp, expr); ok {
		if m, ok := v.(map[int][]ColumnRef); ok {
			return m[col]
		}
	}
	return nil
}

// Collations returns every collation expr's output is known to satisfy.
func (q *Query) Collations(expr opt.Expr) []opt.Collation {
	if v, ok := q.ask(CollationsProp, expr); ok {
		return v.([]opt.Collation)
	}
	return nil
}

// Predicates returns the conjuncts known to hold over every row expr
// produces. A filter reports its own condition plus its child's
// predicates, and a join reports its own condition only; every other
// operator reports none, so predicates below it are not collected.
func (q *Query) Predicates(expr opt.Expr) []opt.ScalarExpr {
	if v, ok := q.ask(PredicatesProp, expr); ok {
		return v.([]opt.ScalarExpr)
	}
	return nil
}

// AverageRowSize estimates the serialized width, in bytes, of one row of
// expr's output.
func (q *Query) AverageRowSize(expr opt.Expr) float64 {
	if v, ok := q.ask(AverageRowSizeProp, expr); ok {
		return v.(float64)
	}
	width := 0.0
	for _, c := range expr.RowType() {
		width += c.Type.DefaultWidth()
	}
	return width
}

// AverageColumnSizes estimates the serialized width, in bytes, of each
// column of expr's output individually — AverageRowSize's per-column
// companion, useful to a caller weighing which columns are worth pruning
// from a project before a wide join.
func (q *Query) AverageColumnSizes(expr opt.Expr) []float64 {
	if v, ok := q.ask(AverageColumnSizesProp, expr); ok {
		return v.([]float64)
	}
	rowType := expr.RowType()
	out := make([]float64, len(rowType))
	for i, c := range rowType {
		out[i] = c.Type.DefaultWidth()
	}
	return out
}

// Memory and Parallelism are stub estimates a real system would refine with
// engine-specific providers; they exist so the property table has a
// concrete home for every named property, even ones this cost model never
// consults.
func (q *Query) Memory(expr opt.Expr) float64      { return q.RowCount(expr) * q.AverageRowSize(expr) }
func (q *Query) Parallelism(expr opt.Expr) int     { return 1 }

// CumulativeCost returns expr's self-cost plus the already-known best cost
// of each child subset. A child subset with no recorded best cost yet makes
// the whole expression Huge, the signal the optimizer's group-costing pass
// uses to defer this candidate until its children are optimized.
func (q *Query) CumulativeCost(expr opt.Expr) opt.Cost {
	total := q.model.SelfCost(q, expr)
	for _, c := range expr.Children() {
		sub := q.m.Subset(memo.SubsetID(c.SubsetKey()))
		_, cost, ok := sub.BestExpr()
		if !ok {
			return opt.Huge()
		}
		total = total.Add(cost)
	}
	return total
}

// RowCountOfSubset returns the row-count estimate for whatever logical
// shape a subset represents, read off any one of its candidate members
// (row count is a logical property shared by every member of a set,
// regardless of which physical alternative a subset picks).
func (q *Query) RowCountOfSubset(sub *memo.Subset) float64 {
	members := sub.CandidateMembers()
	if len(members) == 0 {
		return 0
	}
	return q.RowCount(members[0])
}

func isSubsetOf(key, cols []int) bool {
	set := make(map[int]bool, len(cols))
	for _, c := range cols {
		set[c] = true
	}
	for _, k := range key {
		if !set[k] {
			return false
		}
	}
	return true
}
