package relnode

import (
	"fmt"
	"strings"

	"github.com/cascadedb/optimizer/opt"
)

// node is the single concrete representation behind every relnode operator
// variant. The variants differ only in Op and Payload; sharing one struct
// keeps WithTraits/WithChildren/Fingerprint implementations in one place,
// the way a single memoExpr struct backs every operator in a Cascades-style
// memo (see opt/xform's grounding notes in DESIGN.md).
type node struct {
	op       opt.Operator
	traits   opt.TraitSet
	rowType  opt.RowType
	children []opt.ChildRef
	payload  interface{}
}

func (n *node) Op() opt.Operator          { return n.op }
func (n *node) Traits() opt.TraitSet      { return n.traits }
func (n *node) RowType() opt.RowType      { return n.rowType }
func (n *node) Children() []opt.ChildRef  { return n.children }
func (n *node) Payload() interface{}      { return n.payload }

func (n *node) WithTraits(t opt.TraitSet) opt.Expr {
	cp := *n
	cp.traits = t
	return &cp
}

func (n *node) WithChildren(children []opt.ChildRef) opt.Expr {
	cp := *n
	cp.children = children
	return &cp
}

func (n *node) Fingerprint() string {
	var sb strings.Builder
	sb.WriteString(n.op.String())
	if n.op.IsPhysical() {
		// A physical expression's identity includes the traits it delivers:
		// two physical nodes that are otherwise identical but deliver
		// different trait sets (e.g. a project claiming a remapped
		// collation versus one claiming none) are genuinely different
		// memoExprs, not the same member registered twice. Logical
		// expressions stay trait-free here; their trait set is just the
		// registry default.
		sb.WriteByte('<')
		sb.WriteString(n.traits.Key())
		sb.WriteByte('>')
	}
	sb.WriteByte('[')
	sb.WriteString(fingerprintChildren(n.children))
	sb.WriteString("]{")

	switch p := n.payload.(type) {
	case scanPayload:
		sb.WriteString(p.table.Name())
	case filterPayload:
		sb.WriteString(condString(p.cond))
	case projectPayload:
		for i, it := range p.items {
			if i > 0 {
				sb.WriteByte(';')
			}
			sb.WriteString(it.Expr.String())
		}
	case joinPayload:
		fmt.Fprintf(&sb, "%s;%s", p.joinType, condString(p.cond))
	case aggregatePayload:
		fmt.Fprintf(&sb, "%s;", fingerprintCols(p.groupCols))
		for i, a := range p.aggs {
			if i > 0 {
				sb.WriteByte(';')
			}
			sb.WriteString(a.String())
		}
	case setOpPayload:
		sb.WriteString(p.kind.String())
	case sortPayload:
		fmt.Fprintf(&sb, "%s;%d;%d", p.collation, p.offset, p.fetch)
	case valuesPayload:
		for i, row := range p.rows {
			if i > 0 {
				sb.WriteByte('|')
			}
			for j, e := range row {
				if j > 0 {
					sb.WriteByte(',')
				}
				sb.WriteString(e.String())
			}
		}
	case convertPayload:
		// The abstract converter's identity IS the (child, target traits)
		// pair: like the physical operators and unlike the logical ones,
		// its digest must include traits, or two converters to different targets over the same
		// child would be mistaken for the same member. See opt.Expr's
		// Fingerprint doc.
		sb.WriteString(p.target.Key())
	}
	sb.WriteByte('}')
	return sb.String()
}

func condString(c opt.ScalarExpr) string {
	if c == nil {
		return "<true>"
	}
	return c.String()
}

func (n *node) String() string {
	switch p := n.payload.(type) {
	case scanPayload:
		return fmt.Sprintf("%s(%s)", n.op, p.table.Name())
	case filterPayload:
		return fmt.Sprintf("%s(%s)", n.op, condString(p.cond))
	case projectPayload:
		names := make([]string, len(p.items))
		for i, it := range p.items {
			names[i] = it.Name
		}
		return fmt.Sprintf("%s(%s)", n.op, strings.Join(names, ", "))
	case joinPayload:
		return fmt.Sprintf("%s[%s](%s)", n.op, p.joinType, condString(p.cond))
	case aggregatePayload:
		return fmt.Sprintf("%s(group=%v, %v)", n.op, p.groupCols, p.aggs)
	case setOpPayload:
		return fmt.Sprintf("%s[%s]", n.op, p.kind)
	case sortPayload:
		return fmt.Sprintf("%s%s", n.op, p.collation)
	case valuesPayload:
		return fmt.Sprintf("%s(%d rows)", n.op, len(p.rows))
	case convertPayload:
		return fmt.Sprintf("%s->%s", n.op, p.target)
	default:
		return n.op.String()
	}
}
