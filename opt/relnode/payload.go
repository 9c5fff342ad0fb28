// Package relnode provides the default, concrete implementations of the
// core relational operator variants: table scan, filter, project, join,
// aggregate, set ops, sort, and values, in both
// their logical and physical forms, plus the Factory the core engine
// needs (opt.Factory). Rules build new expressions during OnMatch by
// calling the New* constructor functions directly.
package relnode

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/cat"
)

// ProjectItem is one output column of a Project: the expression producing
// it and its output name.
type ProjectItem struct {
	Expr opt.ScalarExpr
	Name string
}

// AggCall is one aggregate computed by an Aggregate node. Arg is -1 for
// count(*).
type AggCall struct {
	Func string
	Arg  int
	Name string
}

func (a AggCall) String() string {
	if a.Arg < 0 {
		return fmt.Sprintf("%s(*)", a.Func)
	}
	return fmt.Sprintf("%s($%d)", a.Func, a.Arg)
}

// scanPayload, filterPayload, etc. hold the operator-specific data
// returned by Expr.Payload(). They are unexported; callers type-switch on
// Expr.Op() and use the exported accessor functions below (ScanTable,
// FilterCond, ...) to read them without depending on relnode's internal
// struct layout leaking through opt.Expr.Payload()'s interface{} escape
// hatch.
type scanPayload struct{ table cat.Table }
type filterPayload struct{ cond opt.ScalarExpr }
type projectPayload struct{ items []ProjectItem }
type joinPayload struct {
	joinType opt.JoinType
	cond     opt.ScalarExpr
}
type aggregatePayload struct {
	groupCols []int
	aggs      []AggCall
}
type setOpPayload struct{ kind opt.SetOpKind }
type sortPayload struct {
	collation opt.Collation
	offset    int
	fetch     int // -1 means unbounded
}
type valuesPayload struct{ rows [][]opt.ScalarExpr }
type convertPayload struct{ target opt.TraitSet }

func fingerprintCols(cols []int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	return strings.Join(parts, ",")
}

func fingerprintChildren(children []opt.ChildRef) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = fmt.Sprint(c.SubsetKey())
	}
	return strings.Join(parts, ",")
}

func sortedCopy(xs []int) []int {
	out := make([]int, len(xs))
	copy(out, xs)
	sort.Ints(out)
	return out
}
