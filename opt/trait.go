package opt

import (
	"fmt"
	"strings"
)

// AxisID indexes a registered trait axis within an AxisRegistry.
type AxisID int

// Axis is one dimension of physical properties. An
// axis provides a default value, a partial order ("satisfies"), and a way
// to enforce a stronger value on top of an existing subset, if one exists.
//
// Convert is given a Factory so it can build the concrete enforcer node
// (e.g. a Sort for the Collation axis); it returns ok=false when the axis
// has no way to enforce the requested value (e.g. Convention: physical-ness
// can only come from an implementation rule, never from wrapping).
type Axis interface {
	Name() string
	Default() interface{}
	Satisfies(have, want interface{}) bool
	Convert(f Factory, child ChildRef, childRowType RowType, want interface{}) (Expr, bool)
	// Format renders a trait value for tracing.
	Format(value interface{}) string
}

// AxisRegistry holds the fixed, ordered list of trait axes registered for
// an optimization session. A TraitSet is only valid
// relative to the registry that produced it.
type AxisRegistry struct {
	axes []Axis
}

// NewAxisRegistry creates an empty registry.
func NewAxisRegistry() *AxisRegistry {
	return &AxisRegistry{}
}

// Register adds an axis and returns its stable AxisID.
func (r *AxisRegistry) Register(a Axis) AxisID {
	r.axes = append(r.axes, a)
	return AxisID(len(r.axes) - 1)
}

// Len returns the number of registered axes.
func (r *AxisRegistry) Len() int { return len(r.axes) }

// Axis returns the axis registered under id.
func (r *AxisRegistry) Axis(id AxisID) Axis { return r.axes[id] }

// Default builds a TraitSet with every axis at its default value.
func (r *AxisRegistry) Default() TraitSet {
	vals := make([]interface{}, len(r.axes))
	for i, a := range r.axes {
		vals[i] = a.Default()
	}
	return TraitSet{reg: r, values: vals}
}

// TraitSet is an immutable, fixed-length vector carrying one trait value
// per registered axis. The zero value is invalid;
// construct one via AxisRegistry.Default and TraitSet.Replace.
type TraitSet struct {
	reg    *AxisRegistry
	values []interface{}
}

// Replace returns a new TraitSet with axis set to value; the receiver is
// unmodified, since traits are immutable after construction.
func (t TraitSet) Replace(axis AxisID, value interface{}) TraitSet {
	vals := make([]interface{}, len(t.values))
	copy(vals, t.values)
	vals[axis] = value
	return TraitSet{reg: t.reg, values: vals}
}

// Value returns the trait value on the given axis.
func (t TraitSet) Value(axis AxisID) interface{} {
	return t.values[axis]
}

// Satisfies reports whether every axis of t is at least as strong as the
// corresponding axis of other, elementwise.
func (t TraitSet) Satisfies(other TraitSet) bool {
	if t.reg != other.reg {
		return false
	}
	for i, a := range t.reg.axes {
		if !a.Satisfies(t.values[i], other.values[i]) {
			return false
		}
	}
	return true
}

// Equal reports value equality across all axes. Axis values must be
// comparable via Format() equality; this avoids requiring every trait value
// type to support ==, at the cost of relying on canonical formatting.
func (t TraitSet) Equal(other TraitSet) bool {
	if t.reg != other.reg || len(t.values) != len(other.values) {
		return false
	}
	return t.Key() == other.Key()
}

// Key returns a canonical string encoding of the trait set, used as a map
// key by the memo when looking up a set's subset for a given TraitSet.
func (t TraitSet) Key() string {
	var sb strings.Builder
	for i, a := range t.reg.axes {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(a.Format(t.values[i]))
	}
	return sb.String()
}

// Registry returns the AxisRegistry this trait set was built from.
func (t TraitSet) Registry() *AxisRegistry { return t.reg }

func (t TraitSet) String() string {
	parts := make([]string, len(t.reg.axes))
	for i, a := range t.reg.axes {
		parts[i] = fmt.Sprintf("%s=%s", a.Name(), a.Format(t.values[i]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
