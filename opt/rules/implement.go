// Package rules provides the built-in equivalence-preserving and
// implementation rules: one implementation rule per logical operator
//, plus two illustrative transformation rules (filter
// pushdown through project, join commutativity) grounded on the same
// pattern-and-OnMatch shape opt/xform defines.
package rules

import (
	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/cat"
	"github.com/cascadedb/optimizer/opt/memo"
	"github.com/cascadedb/optimizer/opt/relnode"
	"github.com/cascadedb/optimizer/opt/xform"
)

func physicalTraits(axes *opt.AxisRegistry, conv opt.AxisID) opt.TraitSet {
	return axes.Default().Replace(conv, opt.PhysicalConvention)
}

func convertCollation(keys []cat.CollationKey) opt.Collation {
	out := make(opt.Collation, len(keys))
	for i, k := range keys {
		out[i] = opt.CollationKey{Col: k.Col, Descending: k.Descending, NullsFirst: k.NullsFirst}
	}
	return out
}

func rowTypeOf(m *memo.Memo, ref opt.ChildRef) opt.RowType {
	sub := m.Subset(memo.SubsetID(ref.SubsetKey()))
	set := m.Set(sub.SetID())
	members := set.Members()
	if len(members) == 0 {
		return nil
	}
	return members[0].RowType()
}

// implementScan implements a logical scan directly as a physical scan,
// carrying over the table's natural storage order as the scan's Collation
// trait when the catalog reports one — a base table can already provide a
// useful ordering.
func implementScan(conv, coll opt.AxisID) *xform.Rule {
	return &xform.Rule{
		Name:    "ImplementScan",
		Pattern: xform.Op(opt.LogicalScanOp),
		OnMatch: func(c *xform.RuleContext, matched opt.Expr) ([]opt.Expr, error) {
			table := relnode.ScanTable(matched)
			traits := physicalTraits(c.Axes, conv)
			if order := table.Collation(); len(order) > 0 {
				traits = traits.Replace(coll, convertCollation(order))
			}
			return []opt.Expr{relnode.NewPhysicalScan(matched, traits)}, nil
		},
	}
}

func implementFilter(conv opt.AxisID) *xform.Rule {
	return &xform.Rule{
		Name:    "ImplementFilter",
		Pattern: xform.Op(opt.LogicalFilterOp, xform.Any()),
		OnMatch: func(c *xform.RuleContext, matched opt.Expr) ([]opt.Expr, error) {
			child := matched.Children()[0]
			cond := relnode.FilterCond(matched)
			phys := relnode.NewPhysicalFilter(child, matched.RowType(), cond, physicalTraits(c.Axes, conv))
			return []opt.Expr{phys}, nil
		},
	}
}

// implementProject implements a logical project as a physical project, and
// — when the child set already holds a physical member whose collation
// survives the project's column renumbering — additionally offers a
// variant claiming that remapped collation, so a consumer requiring it can
// avoid an extra Sort enforcer.
func implementProject(conv, coll opt.AxisID) *xform.Rule {
	return &xform.Rule{
		Name:    "ImplementProject",
		Pattern: xform.Op(opt.LogicalProjectOp, xform.Any()),
		OnMatch: func(c *xform.RuleContext, matched opt.Expr) ([]opt.Expr, error) {
			child := matched.Children()[0]
			items := relnode.ProjectItems(matched)
			base := physicalTraits(c.Axes, conv)
			out := []opt.Expr{relnode.NewPhysicalProject(child, matched.RowType(), items, base)}

			reverse := make(map[int]int, len(items))
			for outIdx, it := range items {
				if idx, ok := it.Expr.InputIndex(); ok {
					reverse[idx] = outIdx
				}
			}
			sub := c.Memo.Subset(memo.SubsetID(child.SubsetKey()))
			for _, mem := range c.Memo.Set(sub.SetID()).Members() {
				if mem.Traits().Value(conv) != opt.PhysicalConvention {
					continue
				}
				childCollation, _ := mem.Traits().Value(coll).(opt.Collation)
				if remapped, ok := remapCollation(childCollation, reverse); ok && len(remapped) > 0 {
					variant := base.Replace(coll, remapped)
					out = append(out, relnode.NewPhysicalProject(child, matched.RowType(), items, variant))
				}
			}
			return out, nil
		},
	}
}

// remapCollation translates a collation expressed in input-column positions
// into output-column positions, stopping at the first column the project
// doesn't pass through unchanged — a prefix of the original ordering is all
// that survives.
func remapCollation(in opt.Collation, reverse map[int]int) (opt.Collation, bool) {
	out := make(opt.Collation, 0, len(in))
	for _, k := range in {
		outIdx, ok := reverse[k.Col]
		if !ok {
			break
		}
		out = append(out, opt.CollationKey{Col: outIdx, Descending: k.Descending, NullsFirst: k.NullsFirst})
	}
	return out, true
}

func implementJoin(conv opt.AxisID) *xform.Rule {
	return &xform.Rule{
		Name:    "ImplementJoin",
		Pattern: xform.Op(opt.LogicalJoinOp, xform.Any(), xform.Any()),
		OnMatch: func(c *xform.RuleContext, matched opt.Expr) ([]opt.Expr, error) {
			children := matched.Children()
			joinType, cond := relnode.JoinInfo(matched)
			phys := relnode.NewPhysicalJoin(children[0], children[1], matched.RowType(), joinType, cond, physicalTraits(c.Axes, conv))
			return []opt.Expr{phys}, nil
		},
	}
}

func implementAggregate(conv opt.AxisID) *xform.Rule {
	return &xform.Rule{
		Name:    "ImplementAggregate",
		Pattern: xform.Op(opt.LogicalAggregateOp, xform.Any()),
		OnMatch: func(c *xform.RuleContext, matched opt.Expr) ([]opt.Expr, error) {
			child := matched.Children()[0]
			groupCols, aggs := relnode.AggregateInfo(matched)
			phys := relnode.NewPhysicalAggregate(child, matched.RowType(), groupCols, aggs, physicalTraits(c.Axes, conv))
			return []opt.Expr{phys}, nil
		},
	}
}

func implementSetOp(conv opt.AxisID) *xform.Rule {
	return &xform.Rule{
		Name:    "ImplementSetOp",
		Pattern: xform.Op(opt.LogicalSetOp),
		OnMatch: func(c *xform.RuleContext, matched opt.Expr) ([]opt.Expr, error) {
			kind := relnode.GetSetOpKind(matched)
			phys := relnode.NewPhysicalSetOp(matched.Children(), matched.RowType(), kind, physicalTraits(c.Axes, conv))
			return []opt.Expr{phys}, nil
		},
	}
}

func implementSort(conv, coll opt.AxisID) *xform.Rule {
	return &xform.Rule{
		Name:    "ImplementSort",
		Pattern: xform.Op(opt.LogicalSortOp, xform.Any()),
		OnMatch: func(c *xform.RuleContext, matched opt.Expr) ([]opt.Expr, error) {
			child := matched.Children()[0]
			collation, offset, fetch := relnode.SortInfo(matched)
			traits := physicalTraits(c.Axes, conv).Replace(coll, collation)
			phys := relnode.NewPhysicalSort(child, matched.RowType(), collation, offset, fetch, traits)
			return []opt.Expr{phys}, nil
		},
	}
}

func implementValues(conv opt.AxisID) *xform.Rule {
	return &xform.Rule{
		Name:    "ImplementValues",
		Pattern: xform.Op(opt.LogicalValuesOp),
		OnMatch: func(c *xform.RuleContext, matched opt.Expr) ([]opt.Expr, error) {
			rows := relnode.ValuesRows(matched)
			phys := relnode.NewPhysicalValues(matched.RowType(), rows, physicalTraits(c.Axes, conv))
			return []opt.Expr{phys}, nil
		},
	}
}
