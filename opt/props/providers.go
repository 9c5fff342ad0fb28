package props

import (
	"math"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/memo"
	"github.com/cascadedb/optimizer/opt/relnode"
)

var posInf = math.Inf(1)

func installBuiltins(q *Query) {
	q.registry[RowCountProp] = rowCountProvider
	q.registry[MaxRowCountProp] = maxRowCountProvider
	q.registry[UniqueKeysProp] = uniqueKeysProvider
	q.registry[ColumnOriginsProp] = columnOriginsProvider
	q.registry[CollationsProp] = collationsProvider
	q.registry[PredicatesProp] = predicatesProvider
}

// childExpr returns a representative member of expr's i-th child subset —
// logical properties (row count, keys, origins, collation) are shared by
// every member of a set regardless of which physical alternative a subset
// settled on, so any candidate member will do.
func childExpr(q *Query, expr opt.Expr, i int) opt.Expr {
	children := expr.Children()
	if i >= len(children) {
		return nil
	}
	sub := q.m.Subset(memo.SubsetID(children[i].SubsetKey()))
	members := sub.CandidateMembers()
	if len(members) == 0 {
		return nil
	}
	return members[0]
}

func childRowCount(q *Query, expr opt.Expr, i int) float64 {
	c := childExpr(q, expr, i)
	if c == nil {
		return 0
	}
	return q.RowCount(c)
}

// rowCountProvider implements the optimizer's row-count formulas:
// selectivity-scaled filters and joins, pass-through projects/sorts,
// cardinality-bounded group-by, and table statistics at the leaves.
func rowCountProvider(q *Query, expr opt.Expr) (interface{}, bool) {
	switch expr.Op() {
	case opt.LogicalScanOp, opt.PhysicalScanOp:
		return relnode.ScanTable(expr).RowCount(), true

	case opt.LogicalFilterOp, opt.PhysicalFilterOp:
		in := childRowCount(q, expr, 0)
		return in * selectivityOf(relnode.FilterCond(expr)), true

	case opt.LogicalProjectOp, opt.PhysicalProjectOp:
		return childRowCount(q, expr, 0), true

	case opt.LogicalJoinOp, opt.PhysicalJoinOp:
		joinType, cond := relnode.JoinInfo(expr)
		left := childRowCount(q, expr, 0)
		sel := selectivityOf(cond)
		if joinType == opt.SemiJoin || joinType == opt.AntiJoin {
			return left * sel, true
		}
		right := childRowCount(q, expr, 1)
		return left * right * sel, true

	case opt.LogicalAggregateOp, opt.PhysicalAggregateOp:
		groupCols, _ := relnode.AggregateInfo(expr)
		if len(groupCols) == 0 {
			return 1.0, true
		}
		in := childRowCount(q, expr, 0)
		return distinctEstimate(q, expr, groupCols, in), true

	case opt.LogicalSetOp, opt.PhysicalSetOp:
		kind := relnode.GetSetOpKind(expr)
		var total, min float64
		for i := range expr.Children() {
			r := childRowCount(q, expr, i)
			total += r
			if i == 0 || r < min {
				min = r
			}
		}
		if kind == opt.IntersectOp {
			return min, true
		}
		return total, true

	case opt.LogicalSortOp, opt.PhysicalSortOp:
		_, offset, fetch := relnode.SortInfo(expr)
		in := childRowCount(q, expr, 0)
		remaining := in - float64(offset)
		if remaining < 0 {
			remaining = 0
		}
		if fetch >= 0 && float64(fetch) < remaining {
			return float64(fetch), true
		}
		return remaining, true

	case opt.LogicalValuesOp, opt.PhysicalValuesOp:
		return float64(len(relnode.ValuesRows(expr))), true

	case opt.AbstractConvertOp:
		return childRowCount(q, expr, 0), true
	}
	return nil, false
}

// distinctEstimate approximates a group-by's output cardinality from base
// column statistics, falling back to a flat fraction of input rows when no
// catalog cardinality is known for any grouping column.
func distinctEstimate(q *Query, expr opt.Expr, groupCols []int, inRows float64) float64 {
	child := childExpr(q, expr, 0)
	if child == nil {
		return inRows * 0.3
	}
	product := 1.0
	known := false
	for _, gc := range groupCols {
		origins := q.ColumnOrigins(child, gc)
		if len(origins) != 1 {
			continue
		}
		t, ok := q.catalog.Table(origins[0].Table)
		if !ok {
			continue
		}
		card := t.AttributeCardinality(origins[0].Col)
		if card <= 0 {
			continue
		}
		product *= float64(card)
		known = true
	}
	if !known {
		return inRows * 0.3
	}
	if product > inRows {
		return inRows
	}
	return product
}

func maxRowCountProvider(q *Query, expr opt.Expr) (interface{}, bool) {
	switch expr.Op() {
	case opt.LogicalScanOp, opt.PhysicalScanOp:
		return relnode.ScanTable(expr).RowCount(), true

	case opt.LogicalFilterOp, opt.PhysicalFilterOp, opt.LogicalProjectOp, opt.PhysicalProjectOp,
		opt.LogicalSortOp, opt.PhysicalSortOp, opt.AbstractConvertOp:
		child := childExpr(q, expr, 0)
		if child == nil {
			return posInf, true
		}
		return q.MaxRowCount(child), true

	case opt.LogicalJoinOp, opt.PhysicalJoinOp:
		left := childExpr(q, expr, 0)
		right := childExpr(q, expr, 1)
		if left == nil || right == nil {
			return posInf, true
		}
		return q.MaxRowCount(left) * q.MaxRowCount(right), true

	case opt.LogicalValuesOp, opt.PhysicalValuesOp:
		return float64(len(relnode.ValuesRows(expr))), true
	}
	return posInf, true
}

func selectivityOf(cond opt.ScalarExpr) float64 {
	if cond == nil {
		return 1.0
	}
	switch cond.Kind() {
	case "eq":
		return 0.15
	case "ne":
		return 0.85
	case "lt", "le", "gt", "ge":
		return 0.5
	case "and":
		sel := 1.0
		for _, o := range cond.Operands() {
			sel *= selectivityOf(o)
		}
		return sel
	case "or":
		comp := 1.0
		for _, o := range cond.Operands() {
			comp *= 1 - selectivityOf(o)
		}
		return 1 - comp
	case "isNull":
		return 0.1
	case "isNotNull":
		return 0.9
	default:
		return 0.25
	}
}

func uniqueKeysProvider(q *Query, expr opt.Expr) (interface{}, bool) {
	switch expr.Op() {
	case opt.LogicalScanOp, opt.PhysicalScanOp:
		return relnode.ScanTable(expr).UniqueKeys(), true

	case opt.LogicalFilterOp, opt.PhysicalFilterOp:
		child := childExpr(q, expr, 0)
		if child == nil {
			return nil, false
		}
		return q.UniqueKeys(child), true

	case opt.LogicalProjectOp, opt.PhysicalProjectOp:
		child := childExpr(q, expr, 0)
		if child == nil {
			return nil, false
		}
		reverse := make(map[int]int)
		for outIdx, it := range relnode.ProjectItems(expr) {
			if idx, ok := it.Expr.InputIndex(); ok {
				reverse[idx] = outIdx
			}
		}
		var out [][]int
		for _, key := range q.UniqueKeys(child) {
			mapped := make([]int, 0, len(key))
			ok := true
			for _, k := range key {
				outIdx, present := reverse[k]
				if !present {
					ok = false
					break
				}
				mapped = append(mapped, outIdx)
			}
			if ok {
				out = append(out, mapped)
			}
		}
		return out, true

	case opt.LogicalAggregateOp, opt.PhysicalAggregateOp:
		// Post-aggregation, the group-by columns — which occupy the first
		// len(groupCols) output positions (see aggregateRowType) — always
		// uniquely identify a row.
		groupCols, _ := relnode.AggregateInfo(expr)
		key := make([]int, len(groupCols))
		for i := range groupCols {
			key[i] = i
		}
		return [][]int{key}, true
	}
	return nil, false
}

func columnOriginsProvider(q *Query, expr opt.Expr) (interface{}, bool) {
	out := make(map[int][]ColumnRef)
	switch expr.Op() {
	case opt.LogicalScanOp, opt.PhysicalScanOp:
		t := relnode.ScanTable(expr)
		for i := range t.Columns() {
			out[i] = []ColumnRef{{Table: t.Name(), Col: i}}
		}

	case opt.LogicalFilterOp, opt.PhysicalFilterOp, opt.LogicalSortOp, opt.PhysicalSortOp,
		opt.LogicalSetOp, opt.PhysicalSetOp, opt.AbstractConvertOp:
		child := childExpr(q, expr, 0)
		if child == nil {
			return nil, false
		}
		for i := range expr.RowType() {
			out[i] = q.ColumnOrigins(child, i)
		}

	case opt.LogicalProjectOp, opt.PhysicalProjectOp:
		child := childExpr(q, expr, 0)
		for i, it := range relnode.ProjectItems(expr) {
			if idx, ok := it.Expr.InputIndex(); ok && child != nil {
				out[i] = q.ColumnOrigins(child, idx)
			}
		}

	case opt.LogicalJoinOp, opt.PhysicalJoinOp:
		left := childExpr(q, expr, 0)
		right := childExpr(q, expr, 1)
		joinType, _ := relnode.JoinInfo(expr)
		leftWidth := 0
		if left != nil {
			leftWidth = len(left.RowType())
		}
		for i := range expr.RowType() {
			if i < leftWidth {
				if left != nil {
					out[i] = q.ColumnOrigins(left, i)
				}
			} else if joinType != opt.SemiJoin && joinType != opt.AntiJoin && right != nil {
				out[i] = q.ColumnOrigins(right, i-leftWidth)
			}
		}

	case opt.LogicalAggregateOp, opt.PhysicalAggregateOp:
		child := childExpr(q, expr, 0)
		groupCols, _ := relnode.AggregateInfo(expr)
		for i, gc := range groupCols {
			if child != nil {
				out[i] = q.ColumnOrigins(child, gc)
			}
		}

	default:
		return nil, false
	}
	return out, true
}

func collationsProvider(q *Query, expr opt.Expr) (interface{}, bool) {
	switch expr.Op() {
	case opt.LogicalScanOp, opt.PhysicalScanOp:
		t := relnode.ScanTable(expr)
		if len(t.Collation()) == 0 {
			return []opt.Collation{}, true
		}
		keys := make(opt.Collation, len(t.Collation()))
		for i, k := range t.Collation() {
			keys[i] = opt.CollationKey{Col: k.Col, Descending: k.Descending, NullsFirst: k.NullsFirst}
		}
		return []opt.Collation{keys}, true

	case opt.LogicalSortOp, opt.PhysicalSortOp:
		collation, _, _ := relnode.SortInfo(expr)
		return []opt.Collation{collation}, true

	case opt.LogicalFilterOp, opt.PhysicalFilterOp, opt.LogicalProjectOp, opt.PhysicalProjectOp:
		child := childExpr(q, expr, 0)
		if child == nil {
			return []opt.Collation{}, true
		}
		return q.Collations(child), true
	}
	return []opt.Collation{}, true
}

func predicatesProvider(q *Query, expr opt.Expr) (interface{}, bool) {
	switch expr.Op() {
	case opt.LogicalFilterOp, opt.PhysicalFilterOp:
		cond := relnode.FilterCond(expr)
		var preds []opt.ScalarExpr
		if cond != nil {
			preds = append(preds, cond)
		}
		if child := childExpr(q, expr, 0); child != nil {
			preds = append(preds, q.Predicates(child)...)
		}
		return preds, true

	case opt.LogicalJoinOp, opt.PhysicalJoinOp:
		_, cond := relnode.JoinInfo(expr)
		var preds []opt.ScalarExpr
		if cond != nil {
			preds = append(preds, cond)
		}
		return preds, true
	}
	return []opt.ScalarExpr{}, true
}
