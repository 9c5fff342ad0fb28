package relnode

import (
	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/cat"
)

// ScanTable returns the catalog table behind a (Logical|Physical)Scan.
func ScanTable(e opt.Expr) cat.Table { return e.Payload().(scanPayload).table }

// FilterCond returns the predicate of a (Logical|Physical)Filter.
func FilterCond(e opt.Expr) opt.ScalarExpr { return e.Payload().(filterPayload).cond }

// ProjectItems returns the output expressions of a (Logical|Physical)Project.
func ProjectItems(e opt.Expr) []ProjectItem { return e.Payload().(projectPayload).items }

// JoinInfo returns the join type and condition of a (Logical|Physical)Join.
func JoinInfo(e opt.Expr) (opt.JoinType, opt.ScalarExpr) {
	p := e.Payload().(joinPayload)
	return p.joinType, p.cond
}

// AggregateInfo returns the group-by columns and aggregate calls of a
// (Logical|Physical)Aggregate.
func AggregateInfo(e opt.Expr) ([]int, []AggCall) {
	p := e.Payload().(aggregatePayload)
	return p.groupCols, p.aggs
}

// GetSetOpKind returns the union/intersect/except kind of a
// (Logical|Physical)SetOp.
func GetSetOpKind(e opt.Expr) opt.SetOpKind { return e.Payload().(setOpPayload).kind }

// SortInfo returns the collation, offset, and fetch (-1 = unbounded) of a
// (Logical|Physical)Sort.
func SortInfo(e opt.Expr) (opt.Collation, int, int) {
	p := e.Payload().(sortPayload)
	return p.collation, p.offset, p.fetch
}

// ValuesRows returns the row literals of a (Logical|Physical)Values.
func ValuesRows(e opt.Expr) [][]opt.ScalarExpr { return e.Payload().(valuesPayload).rows }

// ConvertTarget returns the target trait set of an AbstractConvert node.
func ConvertTarget(e opt.Expr) opt.TraitSet { return e.Payload().(convertPayload).target }
