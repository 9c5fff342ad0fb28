package opt

// Convention is the value space of the Convention axis: the calling
// convention an expression is implemented in. NoneConvention
// is the logical placeholder; PhysicalConvention marks a concrete,
// executable implementation. A real execution engine with multiple
// physical conventions (e.g. row-at-a-time vs. vectorized) would add more
// values here.
type Convention uint8

const (
	NoneConvention Convention = iota
	PhysicalConvention
)

func (c Convention) String() string {
	switch c {
	case NoneConvention:
		return "NONE"
	case PhysicalConvention:
		return "PHYSICAL"
	default:
		return "Convention(?)"
	}
}

// ConventionAxis implements the built-in Convention trait axis.
// Satisfies: any convention satisfies a NoneConvention request; any other
// request is satisfied only by that same convention, so NoneConvention
// never satisfies a physical request: a logical expression is never itself
// a valid plan.
// There is no enforcer for this axis — going from logical to physical
// requires an implementation rule to produce an alternate member of the
// same set, not a wrapper node. If any axis lacks a converter, the
// abstract converter is left in place and marked infeasible.
type ConventionAxis struct{}

func (ConventionAxis) Name() string { return "Convention" }

func (ConventionAxis) Default() interface{} { return NoneConvention }

func (ConventionAxis) Satisfies(have, want interface{}) bool {
	h := have.(Convention)
	w := want.(Convention)
	if w == NoneConvention {
		return true
	}
	return h == w
}

func (ConventionAxis) Convert(Factory, ChildRef, RowType, interface{}) (Expr, bool) {
	return nil, false
}

func (ConventionAxis) Format(v interface{}) string {
	return v.(Convention).String()
}
