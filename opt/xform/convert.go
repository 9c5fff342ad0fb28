package xform

import (
	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/memo"
	"github.com/cascadedb/optimizer/opt/relnode"
)

// expandConverters scans every live set for AbstractConvert placeholders
// and attempts to resolve each into a concrete physical member. When final
// is false, a placeholder with no eligible physical base
// yet is simply left alone — implementation rules still in the queue may
// produce one; when final is true (the last pass, once the rule queue and
// every earlier expansion attempt are exhausted), a still-unresolved
// placeholder is proven infeasible for good.
func (o *Optimizer) expandConverters(final bool) (bool, error) {
	progressed := false
	for _, set := range o.Memo.Sets() {
		for _, mem := range set.Members() {
			if mem.Op() != opt.AbstractConvertOp {
				continue
			}
			target := relnode.ConvertTarget(mem)
			ok, err := o.tryResolveConvert(set, target, final)
			if err != nil {
				return progressed, err
			}
			if ok {
				progressed = true
			}
		}
	}
	return progressed, nil
}

func (o *Optimizer) tryResolveConvert(set *memo.Set, target opt.TraitSet, final bool) (bool, error) {
	sub, ok := set.Subset(target)
	if !ok || sub.IsInfeasible() {
		return false, nil
	}
	for _, mem := range set.Members() {
		if mem.Op() != opt.AbstractConvertOp && mem.Traits().Satisfies(target) {
			return false, nil
		}
	}

	if target.Value(o.ConventionAxis) != opt.PhysicalConvention {
		// Logical-to-physical has no enforcer; only an implementation rule
		// can ever satisfy this request.
		sub.MarkInfeasible()
		return false, nil
	}

	for _, base := range set.Members() {
		if base.Op() == opt.AbstractConvertOp {
			continue
		}
		if base.Traits().Value(o.ConventionAxis) != opt.PhysicalConvention {
			continue
		}
		if expr, ok := o.bridge(base, target); ok {
			if _, err := o.Memo.Register(expr, set.ID()); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	if final {
		sub.MarkInfeasible()
	}
	return false, nil
}

// bridge closes the single enforceable trait gap between base's own traits
// and target — in this optimizer's two-axis trait model that is always the
// Collation axis, the only one whose Axis.Convert returns a real node
//. A gap spanning more than one enforceable axis at once
// isn't representable by this model and is reported as unbridgeable.
func (o *Optimizer) bridge(base opt.Expr, target opt.TraitSet) (opt.Expr, bool) {
	baseSub, ok := o.Memo.GetSubset(base, base.Traits())
	if !ok {
		return nil, false
	}

	var gap opt.AxisID
	gaps := 0
	for i := 0; i < o.Axes.Len(); i++ {
		id := opt.AxisID(i)
		if id == o.ConventionAxis {
			continue
		}
		axis := o.Axes.Axis(id)
		if !axis.Satisfies(base.Traits().Value(id), target.Value(id)) {
			gap = id
			gaps++
		}
	}
	if gaps != 1 {
		return nil, false
	}

	axis := o.Axes.Axis(gap)
	expr, ok := axis.Convert(o.Factory, baseSub, base.RowType(), target.Value(gap))
	if !ok || !expr.Traits().Equal(target) {
		return nil, false
	}
	return expr, true
}
