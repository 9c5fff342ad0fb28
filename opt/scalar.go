package opt

// ScalarExpr is the narrow introspection contract the optimizer needs on
// the scalar expression language living inside projects, filters, and join
// conditions — opaque to the optimizer except for the introspection methods
// metadata providers use. The optimizer never evaluates a ScalarExpr; it
// only inspects its shape to estimate selectivity, derive column origins,
// and detect equality/comparison predicates.
type ScalarExpr interface {
	// Kind names the scalar operator: "literal", "var", "and", "or", "not",
	// "eq", "ne", "lt", "le", "gt", "ge", "isNotNull", "call", ...
	Kind() string

	// Operands returns the child scalar expressions, in order. Leaves
	// (literal, var) return nil.
	Operands() []ScalarExpr

	// InputIndex returns the row-type column position this expression reads,
	// if Kind() == "var".
	InputIndex() (int, bool)

	// Literal returns the constant value, if Kind() == "literal".
	Literal() (interface{}, bool)

	// String renders the expression for tracing/diagnostics.
	String() string
}
