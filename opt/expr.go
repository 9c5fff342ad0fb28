package opt

// ChildRef is a reference to a memo subset: every child reference of a
// registered expression is a subset reference, never a raw node. opt stays
// decoupled from opt/memo by only requiring this narrow identity interface;
// opt/memo.Subset implements it.
type ChildRef interface {
	// SubsetKey uniquely identifies the referenced subset within its memo.
	SubsetKey() uint64
}

// Expr is a relational expression node.
// Implementations are immutable after construction; WithTraits and
// WithChildren return modified copies, never mutate the receiver.
//
// Concrete operator variants live in opt/relnode; Expr is deliberately
// narrow so the memo and rule engine can manipulate any variant uniformly.
type Expr interface {
	Op() Operator
	Traits() TraitSet
	RowType() RowType
	Children() []ChildRef

	// Payload exposes the operator-specific data (join condition, project
	// items, sort keys, ...) as an opaque value; metadata providers and
	// rules type-switch on Op() before type-asserting it.
	Payload() interface{}

	// WithTraits returns a copy of the expression with a different trait
	// set. Used by the trait-propagation visitor's transformTo step and by
	// Memo.ChangeTraits.
	WithTraits(TraitSet) Expr

	// WithChildren returns a copy of the expression with a different child
	// list. Used when a rule rewrites an expression's inputs, e.g. a
	// commutative join swap.
	WithChildren([]ChildRef) Expr

	// Fingerprint is the structural digest of (variant, child-subset ids,
	// payload) used for memo deduplication. Two expressions
	// with equal fingerprints are structurally equal and must collapse to
	// the same memo set (invariant 2). Logical operators must NOT
	// incorporate the trait set into the digest: two logical expressions
	// differing only in trait set belong to the same set but different
	// subsets. Physical operators are the opposite: their trait set is part
	// of what they are (the same shape delivering two different orderings
	// is two distinct memoExprs), so their digest includes it. The
	// synthetic AbstractConvert node (opt/relnode) includes its target
	// trait set for the same reason — its entire purpose is to name a
	// (child, target trait set) pair.
	Fingerprint() string

	// String renders the expression (without descending into children) for
	// tracing and memo dumps.
	String() string
}

// Factory is the narrow set of node constructors the core engine itself
// needs — as opposed to the much larger set individual rules use directly
// via the concrete relnode package. Only two are needed by the engine:
// the abstract converter (Memo.ChangeTraits) and the collation enforcer
// (CollationAxis.Convert). This is the "expression factory" external
// collaborator, narrowed to the engine's own requirements.
type Factory interface {
	// CreateAbstractConvert builds a synthetic placeholder expression that
	// carries only a target TraitSet over a single child subset.
	CreateAbstractConvert(child ChildRef, rowType RowType, traits TraitSet) Expr

	// CreateSortEnforcer builds a physical Sort implementing the given
	// collation over a single child subset.
	CreateSortEnforcer(child ChildRef, rowType RowType, collation Collation) Expr
}

// Cluster owns the per-session, monotonically increasing expression id
// counter, factored out of the core state so it can be created once per
// optimization session and never shared across sessions.
type Cluster struct {
	nextID uint64
}

// NewCluster creates a fresh, empty id allocator.
func NewCluster() *Cluster { return &Cluster{} }

// NextID returns a new, session-unique, monotonically increasing id.
// Ids start at 1 so that 0 can mean "unassigned".
func (c *Cluster) NextID() uint64 {
	c.nextID++
	return c.nextID
}
