package relnode

import (
	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/cat"
)

// rowTypeFromTable adapts a cat.Table's schema to an opt.RowType.
func rowTypeFromTable(t cat.Table) opt.RowType {
	cols := t.Columns()
	out := make(opt.RowType, len(cols))
	for i, c := range cols {
		out[i] = opt.Column{Name: c.Name, Type: opt.SQLType(c.Type), Nullable: c.Nullable}
	}
	return out
}

// NewLogicalScan builds a logical table scan over the given catalog table.
func NewLogicalScan(axes *opt.AxisRegistry, table cat.Table) opt.Expr {
	return &node{
		op:      opt.LogicalScanOp,
		traits:  axes.Default(),
		rowType: rowTypeFromTable(table),
		payload: scanPayload{table: table},
	}
}

// NewPhysicalScan implements a logical scan directly: a table scan has no
// interesting physical alternatives in this model beyond its convention.
func NewPhysicalScan(logical opt.Expr, traits opt.TraitSet) opt.Expr {
	p := logical.Payload().(scanPayload)
	return &node{
		op:      opt.PhysicalScanOp,
		traits:  traits,
		rowType: logical.RowType(),
		payload: p,
	}
}

// NewLogicalFilter builds a logical filter over child with condition cond.
func NewLogicalFilter(axes *opt.AxisRegistry, child opt.ChildRef, rowType opt.RowType, cond opt.ScalarExpr) opt.Expr {
	return &node{
		op:       opt.LogicalFilterOp,
		traits:   axes.Default(),
		rowType:  rowType,
		children: []opt.ChildRef{child},
		payload:  filterPayload{cond: cond},
	}
}

func NewPhysicalFilter(child opt.ChildRef, rowType opt.RowType, cond opt.ScalarExpr, traits opt.TraitSet) opt.Expr {
	return &node{
		op:       opt.PhysicalFilterOp,
		traits:   traits,
		rowType:  rowType,
		children: []opt.ChildRef{child},
		payload:  filterPayload{cond: cond},
	}
}

func projectRowType(input opt.RowType, items []ProjectItem) opt.RowType {
	out := make(opt.RowType, len(items))
	for i, it := range items {
		typ := opt.TypeUnknown
		nullable := true
		if idx, ok := it.Expr.InputIndex(); ok && idx >= 0 && idx < len(input) {
			typ = input[idx].Type
			nullable = input[idx].Nullable
		}
		out[i] = opt.Column{Name: it.Name, Type: typ, Nullable: nullable}
	}
	return out
}

// NewLogicalProject builds a logical project.
func NewLogicalProject(axes *opt.AxisRegistry, child opt.ChildRef, inputRowType opt.RowType, items []ProjectItem) opt.Expr {
	return &node{
		op:       opt.LogicalProjectOp,
		traits:   axes.Default(),
		rowType:  projectRowType(inputRowType, items),
		children: []opt.ChildRef{child},
		payload:  projectPayload{items: items},
	}
}

func NewPhysicalProject(child opt.ChildRef, rowType opt.RowType, items []ProjectItem, traits opt.TraitSet) opt.Expr {
	return &node{
		op:       opt.PhysicalProjectOp,
		traits:   traits,
		rowType:  rowType,
		children: []opt.ChildRef{child},
		payload:  projectPayload{items: items},
	}
}

func joinRowType(left, right opt.RowType, joinType opt.JoinType) opt.RowType {
	if joinType == opt.SemiJoin || joinType == opt.AntiJoin {
		out := make(opt.RowType, len(left))
		copy(out, left)
		return out
	}
	out := make(opt.RowType, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}

// NewLogicalJoin builds a logical join of left and right.
func NewLogicalJoin(axes *opt.AxisRegistry, left, right opt.ChildRef, leftRT, rightRT opt.RowType, joinType opt.JoinType, cond opt.ScalarExpr) opt.Expr {
	return &node{
		op:       opt.LogicalJoinOp,
		traits:   axes.Default(),
		rowType:  joinRowType(leftRT, rightRT, joinType),
		children: []opt.ChildRef{left, right},
		payload:  joinPayload{joinType: joinType, cond: cond},
	}
}

func NewPhysicalJoin(left, right opt.ChildRef, rowType opt.RowType, joinType opt.JoinType, cond opt.ScalarExpr, traits opt.TraitSet) opt.Expr {
	return &node{
		op:       opt.PhysicalJoinOp,
		traits:   traits,
		rowType:  rowType,
		children: []opt.ChildRef{left, right},
		payload:  joinPayload{joinType: joinType, cond: cond},
	}
}

func aggregateRowType(input opt.RowType, groupCols []int, aggs []AggCall) opt.RowType {
	out := make(opt.RowType, 0, len(groupCols)+len(aggs))
	for _, c := range groupCols {
		out = append(out, input[c])
	}
	for _, a := range aggs {
		typ := opt.TypeBigInt
		if a.Func != "count" && a.Arg >= 0 && a.Arg < len(input) {
			typ = input[a.Arg].Type
		}
		out = append(out, opt.Column{Name: a.Name, Type: typ, Nullable: false})
	}
	return out
}

// NewLogicalAggregate builds a logical group-by/aggregate.
func NewLogicalAggregate(axes *opt.AxisRegistry, child opt.ChildRef, inputRowType opt.RowType, groupCols []int, aggs []AggCall) opt.Expr {
	return &node{
		op:       opt.LogicalAggregateOp,
		traits:   axes.Default(),
		rowType:  aggregateRowType(inputRowType, groupCols, aggs),
		children: []opt.ChildRef{child},
		payload:  aggregatePayload{groupCols: sortedCopy(groupCols), aggs: aggs},
	}
}

func NewPhysicalAggregate(child opt.ChildRef, rowType opt.RowType, groupCols []int, aggs []AggCall, traits opt.TraitSet) opt.Expr {
	return &node{
		op:       opt.PhysicalAggregateOp,
		traits:   traits,
		rowType:  rowType,
		children: []opt.ChildRef{child},
		payload:  aggregatePayload{groupCols: sortedCopy(groupCols), aggs: aggs},
	}
}

// NewLogicalSetOp builds a logical union/intersect/except over inputs,
// which must all share rowType.
func NewLogicalSetOp(axes *opt.AxisRegistry, inputs []opt.ChildRef, rowType opt.RowType, kind opt.SetOpKind) opt.Expr {
	return &node{
		op:       opt.LogicalSetOp,
		traits:   axes.Default(),
		rowType:  rowType,
		children: inputs,
		payload:  setOpPayload{kind: kind},
	}
}

func NewPhysicalSetOp(inputs []opt.ChildRef, rowType opt.RowType, kind opt.SetOpKind, traits opt.TraitSet) opt.Expr {
	return &node{
		op:       opt.PhysicalSetOp,
		traits:   traits,
		rowType:  rowType,
		children: inputs,
		payload:  setOpPayload{kind: kind},
	}
}

// NewLogicalSort builds a logical sort with optional offset/fetch (-1 =
// unbounded fetch).
func NewLogicalSort(axes *opt.AxisRegistry, child opt.ChildRef, rowType opt.RowType, collation opt.Collation, offset, fetch int) opt.Expr {
	return &node{
		op:       opt.LogicalSortOp,
		traits:   axes.Default(),
		rowType:  rowType,
		children: []opt.ChildRef{child},
		payload:  sortPayload{collation: collation, offset: offset, fetch: fetch},
	}
}

func NewPhysicalSort(child opt.ChildRef, rowType opt.RowType, collation opt.Collation, offset, fetch int, traits opt.TraitSet) opt.Expr {
	return &node{
		op:       opt.PhysicalSortOp,
		traits:   traits,
		rowType:  rowType,
		children: []opt.ChildRef{child},
		payload:  sortPayload{collation: collation, offset: offset, fetch: fetch},
	}
}

// NewLogicalValues builds a logical inline row-literal relation.
func NewLogicalValues(axes *opt.AxisRegistry, rowType opt.RowType, rows [][]opt.ScalarExpr) opt.Expr {
	return &node{
		op:      opt.LogicalValuesOp,
		traits:  axes.Default(),
		rowType: rowType,
		payload: valuesPayload{rows: rows},
	}
}

func NewPhysicalValues(rowType opt.RowType, rows [][]opt.ScalarExpr, traits opt.TraitSet) opt.Expr {
	return &node{
		op:      opt.PhysicalValuesOp,
		traits:  traits,
		rowType: rowType,
		payload: valuesPayload{rows: rows},
	}
}

// NewAbstractConvert builds the synthetic placeholder Memo.ChangeTraits
// inserts when a subset with the requested traits doesn't exist yet.
func NewAbstractConvert(child opt.ChildRef, rowType opt.RowType, target opt.TraitSet) opt.Expr {
	return &node{
		op:       opt.AbstractConvertOp,
		traits:   target,
		rowType:  rowType,
		children: []opt.ChildRef{child},
		payload:  convertPayload{target: target},
	}
}

// NewSortEnforcer builds a physical Sort used purely as a Collation
// enforcer (fetch/offset unbounded) with the given trait set.
func NewSortEnforcer(child opt.ChildRef, rowType opt.RowType, collation opt.Collation, traits opt.TraitSet) opt.Expr {
	return &node{
		op:       opt.PhysicalSortOp,
		traits:   traits,
		rowType:  rowType,
		children: []opt.ChildRef{child},
		payload:  sortPayload{collation: collation, offset: 0, fetch: -1},
	}
}
