// Package scalar provides a minimal, concrete implementation of
// opt.ScalarExpr: literals, column references, and n-ary calls. It plays
// the same role for scalar expressions that opt/relnode plays for
// relational ones — a default "expression language" a caller can use to
// build conditions for Filter/Join/Project without writing their own.
package scalar

import (
	"fmt"
	"strings"

	"github.com/cascadedb/optimizer/opt"
)

// Literal is a constant scalar value.
type Literal struct{ Value interface{} }

func (l Literal) Kind() string                    { return "literal" }
func (l Literal) Operands() []opt.ScalarExpr       { return nil }
func (l Literal) InputIndex() (int, bool)          { return 0, false }
func (l Literal) Literal() (interface{}, bool)     { return l.Value, true }
func (l Literal) String() string                   { return fmt.Sprintf("%v", l.Value) }

// Var is a reference to a column of the enclosing row type, by position.
type Var struct{ Index int }

func (v Var) Kind() string                { return "var" }
func (v Var) Operands() []opt.ScalarExpr  { return nil }
func (v Var) InputIndex() (int, bool)     { return v.Index, true }
func (v Var) Literal() (interface{}, bool) { return nil, false }
func (v Var) String() string              { return fmt.Sprintf("$%d", v.Index) }

// Call is an n-ary operator application: comparisons (eq, ne, lt, le, gt,
// ge), boolean connectives (and, or, not), null tests (isNull,
// isNotNull), and opaque function calls (identified by Name).
type Call struct {
	Op   string
	Name string // set when Op == "call"; the function name
	Args []opt.ScalarExpr
}

func (c Call) Kind() string               { return c.Op }
func (c Call) Operands() []opt.ScalarExpr { return c.Args }
func (c Call) InputIndex() (int, bool)    { return 0, false }
func (c Call) Literal() (interface{}, bool) { return nil, false }

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	name := c.Op
	if c.Op == "call" {
		name = c.Name
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}

// Convenience constructors.

func Lit(v interface{}) opt.ScalarExpr { return Literal{Value: v} }
func Col(i int) opt.ScalarExpr         { return Var{Index: i} }

func Eq(l, r opt.ScalarExpr) opt.ScalarExpr  { return Call{Op: "eq", Args: []opt.ScalarExpr{l, r}} }
func Ne(l, r opt.ScalarExpr) opt.ScalarExpr  { return Call{Op: "ne", Args: []opt.ScalarExpr{l, r}} }
func Lt(l, r opt.ScalarExpr) opt.ScalarExpr  { return Call{Op: "lt", Args: []opt.ScalarExpr{l, r}} }
func Le(l, r opt.ScalarExpr) opt.ScalarExpr  { return Call{Op: "le", Args: []opt.ScalarExpr{l, r}} }
func Gt(l, r opt.ScalarExpr) opt.ScalarExpr  { return Call{Op: "gt", Args: []opt.ScalarExpr{l, r}} }
func Ge(l, r opt.ScalarExpr) opt.ScalarExpr  { return Call{Op: "ge", Args: []opt.ScalarExpr{l, r}} }
func And(args ...opt.ScalarExpr) opt.ScalarExpr { return Call{Op: "and", Args: args} }
func Or(args ...opt.ScalarExpr) opt.ScalarExpr  { return Call{Op: "or", Args: args} }
func Not(e opt.ScalarExpr) opt.ScalarExpr       { return Call{Op: "not", Args: []opt.ScalarExpr{e}} }
func IsNotNull(e opt.ScalarExpr) opt.ScalarExpr { return Call{Op: "isNotNull", Args: []opt.ScalarExpr{e}} }
func IsNull(e opt.ScalarExpr) opt.ScalarExpr    { return Call{Op: "isNull", Args: []opt.ScalarExpr{e}} }
func FuncCall(name string, args ...opt.ScalarExpr) opt.ScalarExpr {
	return Call{Op: "call", Name: name, Args: args}
}

// CollectInputs returns the set of distinct column positions e reads,
// across the whole expression tree, used by rules such as
// pushFilterThroughProject to check which columns a predicate depends on.
func CollectInputs(e opt.ScalarExpr) []int {
	seen := map[int]bool{}
	var out []int
	var walk func(opt.ScalarExpr)
	walk = func(e opt.ScalarExpr) {
		if idx, ok := e.InputIndex(); ok {
			if !seen[idx] {
				seen[idx] = true
				out = append(out, idx)
			}
			return
		}
		for _, op := range e.Operands() {
			walk(op)
		}
	}
	walk(e)
	return out
}
