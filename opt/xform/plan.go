package xform

import (
	"fmt"
	"strings"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/memo"
	"github.com/cascadedb/optimizer/opterrs"
)

// Plan is a concrete, fully-resolved plan tree extracted from a memo — the
// winning member of a subset, with each child subset resolved to its own
// winning member in turn.
type Plan struct {
	Expr     opt.Expr
	Cost     opt.Cost
	Children []*Plan
}

// ExtractPlan walks sub's best-cost member and recursively resolves its
// children's best plans. Returns opterrs.NoPlanFound if any subset along
// the way never acquired a feasible member.
func (o *Optimizer) ExtractPlan(sub *memo.Subset) (*Plan, error) {
	expr, cost, ok := sub.BestExpr()
	if !ok {
		return nil, opterrs.NoPlanFound.New(sub.Traits())
	}
	children := make([]*Plan, 0, len(expr.Children()))
	for _, c := range expr.Children() {
		childSub := o.Memo.Subset(memo.SubsetID(c.SubsetKey()))
		childPlan, err := o.ExtractPlan(childSub)
		if err != nil {
			return nil, err
		}
		children = append(children, childPlan)
	}
	return &Plan{Expr: expr, Cost: cost, Children: children}, nil
}

// String renders the plan as an indented tree.
func (p *Plan) String() string {
	var sb strings.Builder
	p.write(&sb, 0)
	return sb.String()
}

func (p *Plan) write(sb *strings.Builder, depth int) {
	fmt.Fprintf(sb, "%s%s  cost=%s\n", strings.Repeat("  ", depth), p.Expr, p.Cost)
	for _, c := range p.Children {
		c.write(sb, depth+1)
	}
}
