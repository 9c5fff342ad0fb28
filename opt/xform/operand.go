package xform

import (
	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/memo"
)

// Operand is one node of a rule's pattern tree. A pattern with no
// Children constrains only its own Op (or
// nothing at all, for Any); a pattern with Children requires the matched
// expression to have exactly that many inputs, each satisfied by at least
// one member of the corresponding child subset's owning set.
type Operand struct {
	op       opt.Operator
	anyOp    bool
	children []*Operand
}

// Any matches any operator without inspecting children — the wildcard used
// for "don't care" positions in a pattern.
func Any() *Operand { return &Operand{anyOp: true} }

// Op matches exactly the given operator. With no children given, children
// are unconstrained; otherwise every child position must match.
func Op(op opt.Operator, children ...*Operand) *Operand {
	return &Operand{op: op, children: children}
}

// Match reports whether expr, found in m, satisfies the pattern.
func (o *Operand) Match(m *memo.Memo, expr opt.Expr) bool {
	if !o.anyOp && o.op != expr.Op() {
		return false
	}
	if len(o.children) == 0 {
		return true
	}
	kids := expr.Children()
	if len(kids) != len(o.children) {
		return false
	}
	for i, pattern := range o.children {
		sub := m.Subset(memo.SubsetID(kids[i].SubsetKey()))
		set := m.Set(sub.SetID())
		matched := false
		for _, member := range set.Members() {
			if pattern.Match(m, member) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
