package opt

import (
	"fmt"
	"strings"
)

// CollationKey orders one column of a Collation: its row-type position, the
// sort direction, and null placement.
type CollationKey struct {
	Col        int
	Descending bool
	NullsFirst bool
}

func (k CollationKey) String() string {
	dir := "asc"
	if k.Descending {
		dir = "desc"
	}
	nulls := "nulls-last"
	if k.NullsFirst {
		nulls = "nulls-first"
	}
	return fmt.Sprintf("%d %s %s", k.Col, dir, nulls)
}

// Collation is an ordered list of CollationKeys: the value space of the
// Collation trait axis.
type Collation []CollationKey

func (c Collation) String() string {
	parts := make([]string, len(c))
	for i, k := range c {
		parts[i] = k.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// IsPrefixedBy reports whether want is a prefix of have — the satisfies
// relation for collations.
func (have Collation) IsPrefixedBy(want Collation) bool {
	if len(want) > len(have) {
		return false
	}
	for i, k := range want {
		if have[i] != k {
			return false
		}
	}
	return true
}

// CollationAxis implements the built-in Collation trait axis. Its
// converter materializes a Sort enforcer over the child subset for any
// non-empty requested collation; it does not check what the child already
// provides, which is left to the caller via Satisfies.
type CollationAxis struct{}

func (CollationAxis) Name() string { return "Collation" }

func (CollationAxis) Default() interface{} { return Collation(nil) }

func (CollationAxis) Satisfies(have, want interface{}) bool {
	h := have.(Collation)
	w := want.(Collation)
	if len(w) == 0 {
		return true
	}
	return h.IsPrefixedBy(w)
}

func (CollationAxis) Convert(f Factory, child ChildRef, childRowType RowType, want interface{}) (Expr, bool) {
	collation := want.(Collation)
	if len(collation) == 0 {
		return nil, false
	}
	if f == nil {
		return nil, false
	}
	return f.CreateSortEnforcer(child, childRowType, collation), true
}

func (CollationAxis) Format(v interface{}) string {
	return v.(Collation).String()
}
