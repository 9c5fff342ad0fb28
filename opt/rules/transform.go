package rules

import (
	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/memo"
	"github.com/cascadedb/optimizer/opt/relnode"
	"github.com/cascadedb/optimizer/opt/scalar"
	"github.com/cascadedb/optimizer/opt/xform"
)

// remapScalar rebuilds e with every column reference translated through
// remap. It understands the default opt/scalar expression language
// (Literal, Var, Call) that every relnode constructor in this module
// builds conditions from; a caller supplying a different ScalarExpr
// implementation to a remapped operator isn't supported here.
func remapScalar(e opt.ScalarExpr, remap func(int) int) opt.ScalarExpr {
	if e == nil {
		return nil
	}
	if idx, ok := e.InputIndex(); ok {
		return scalar.Col(remap(idx))
	}
	if v, ok := e.Literal(); ok {
		return scalar.Lit(v)
	}
	call := e.(scalar.Call)
	args := make([]opt.ScalarExpr, len(call.Args))
	for i, a := range call.Args {
		args[i] = remapScalar(a, remap)
	}
	return scalar.Call{Op: call.Op, Name: call.Name, Args: args}
}

// pushFilterThroughProject rewrites Filter(Project(x)) into Project(Filter(x))
// whenever every column the filter reads is a plain pass-through of one of
// x's columns — a predicate over a computed expression can't commute past
// the project that computes it.
func pushFilterThroughProject() *xform.Rule {
	return &xform.Rule{
		Name:    "PushFilterThroughProject",
		Pattern: xform.Op(opt.LogicalFilterOp, xform.Op(opt.LogicalProjectOp, xform.Any())),
		OnMatch: func(c *xform.RuleContext, matched opt.Expr) ([]opt.Expr, error) {
			cond := relnode.FilterCond(matched)
			childRef := matched.Children()[0]
			sub := c.Memo.Subset(memo.SubsetID(childRef.SubsetKey()))
			set := c.Memo.Set(sub.SetID())

			var proj opt.Expr
			for _, m := range set.Members() {
				if m.Op() == opt.LogicalProjectOp {
					proj = m
					break
				}
			}
			if proj == nil {
				return nil, nil
			}

			items := relnode.ProjectItems(proj)
			reverse := make(map[int]int, len(items))
			for outIdx, it := range items {
				if idx, ok := it.Expr.InputIndex(); ok {
					reverse[outIdx] = idx
				}
			}
			for _, col := range scalar.CollectInputs(cond) {
				if _, ok := reverse[col]; !ok {
					return nil, nil
				}
			}

			projChild := proj.Children()[0]
			projChildRT := rowTypeOf(c.Memo, projChild)
			pushedCond := remapScalar(cond, func(i int) int { return reverse[i] })

			newFilter := relnode.NewLogicalFilter(c.Axes, projChild, projChildRT, pushedCond)
			filterSub, err := c.Memo.EnsureRegistered(newFilter, nil)
			if err != nil {
				return nil, err
			}
			newProj := relnode.NewLogicalProject(c.Axes, filterSub, projChildRT, items)
			return []opt.Expr{newProj}, nil
		},
	}
}

func swapJoinSides(leftWidth, rightWidth int) func(int) int {
	return func(i int) int {
		if i < leftWidth {
			return i + rightWidth
		}
		return i - leftWidth
	}
}

// joinCommute registers the commuted form of an Inner/Left/Right/Full join
// in the same equivalence set, letting the optimizer consider either join
// order — commutativity is the textbook example of an equivalence-preserving
// rule in this family of optimizers.
func joinCommute() *xform.Rule {
	return &xform.Rule{
		Name:    "JoinCommute",
		Pattern: xform.Op(opt.LogicalJoinOp, xform.Any(), xform.Any()),
		OnMatch: func(c *xform.RuleContext, matched opt.Expr) ([]opt.Expr, error) {
			joinType, cond := relnode.JoinInfo(matched)
			var newType opt.JoinType
			switch joinType {
			case opt.InnerJoin:
				newType = opt.InnerJoin
			case opt.LeftJoin:
				newType = opt.RightJoin
			case opt.RightJoin:
				newType = opt.LeftJoin
			case opt.FullJoin:
				newType = opt.FullJoin
			default:
				return nil, nil // Semi/Anti carry output-shape asymmetry; not commuted here
			}

			children := matched.Children()
			left, right := children[0], children[1]
			leftRT := rowTypeOf(c.Memo, left)
			rightRT := rowTypeOf(c.Memo, right)
			remap := swapJoinSides(len(leftRT), len(rightRT))
			newCond := remapScalar(cond, remap)

			newJoin := relnode.NewLogicalJoin(c.Axes, right, left, rightRT, leftRT, newType, newCond)
			newJoinSub, err := c.Memo.EnsureRegistered(newJoin, nil)
			if err != nil {
				return nil, err
			}

			// The commuted join's output has right's columns before left's;
			// wrap it in a Project restoring the original column order so
			// the result is a structurally valid member of matched's set.
			origRT := matched.RowType()
			items := make([]relnode.ProjectItem, len(origRT))
			for o, col := range origRT {
				items[o] = relnode.ProjectItem{Expr: scalar.Col(remap(o)), Name: col.Name}
			}
			reproject := relnode.NewLogicalProject(c.Axes, newJoinSub, newJoin.RowType(), items)
			return []opt.Expr{reproject}, nil
		},
	}
}
