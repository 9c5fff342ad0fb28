package relnode

import "github.com/cascadedb/optimizer/opt"

// Factory implements opt.Factory — the two node constructors the core
// engine needs generically (abstract converters and collation enforcers).
// It needs the axis registry and the ids of the Convention and Collation
// axes so it can stamp the right trait set on the enforcer nodes it
// builds.
type Factory struct {
	Axes           *opt.AxisRegistry
	ConventionAxis opt.AxisID
	CollationAxis  opt.AxisID
}

// NewFactory builds a Factory bound to a session's axis registry.
func NewFactory(axes *opt.AxisRegistry, conventionAxis, collationAxis opt.AxisID) *Factory {
	return &Factory{Axes: axes, ConventionAxis: conventionAxis, CollationAxis: collationAxis}
}

func (f *Factory) CreateAbstractConvert(child opt.ChildRef, rowType opt.RowType, traits opt.TraitSet) opt.Expr {
	return NewAbstractConvert(child, rowType, traits)
}

func (f *Factory) CreateSortEnforcer(child opt.ChildRef, rowType opt.RowType, collation opt.Collation) opt.Expr {
	traits := f.Axes.Default().
		Replace(f.ConventionAxis, opt.PhysicalConvention).
		Replace(f.CollationAxis, collation)
	return NewSortEnforcer(child, rowType, collation, traits)
}
