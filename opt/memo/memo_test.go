package memo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/cat"
	"github.com/cascadedb/optimizer/opt/memo"
	"github.com/cascadedb/optimizer/opt/relnode"
	"github.com/cascadedb/optimizer/opt/scalar"
)

type fixture struct {
	axes           *opt.AxisRegistry
	conventionAxis opt.AxisID
	collationAxis  opt.AxisID
	factory        *relnode.Factory
	m              *memo.Memo
	emp            cat.Table
}

func newFixture() *fixture {
	axes := opt.NewAxisRegistry()
	conv := axes.Register(opt.ConventionAxis{})
	coll := axes.Register(opt.CollationAxis{})
	factory := relnode.NewFactory(axes, conv, coll)

	emp := &cat.MemTable{
		TableName: "emp",
		Cols: []cat.Column{
			{Name: "id", Type: "int"},
			{Name: "name", Type: "string"},
			{Name: "deptId", Type: "int"},
		},
		Rows: 100,
		Keys: [][]int{{0}},
	}

	return &fixture{
		axes:           axes,
		conventionAxis: conv,
		collationAxis:  coll,
		factory:        factory,
		m:              memo.New(opt.NewCluster(), factory),
		emp:            emp,
	}
}

func (f *fixture) physicalTraits() opt.TraitSet {
	return f.axes.Default().Replace(f.conventionAxis, opt.PhysicalConvention)
}

// Registering the same logical scan twice must return the same subset:
// fingerprint-based deduplication (invariant 2).
func TestRegisterDeduplicates(t *testing.T) {
	f := newFixture()

	scan1 := relnode.NewLogicalScan(f.axes, f.emp)
	scan2 := relnode.NewLogicalScan(f.axes, f.emp)

	sub1, err := f.m.Register(scan1, 0)
	require.NoError(t, err)
	sub2, err := f.m.Register(scan2, 0)
	require.NoError(t, err)

	require.Equal(t, sub1.SetID(), sub2.SetID())
	require.Equal(t, sub1.SubsetKey(), sub2.SubsetKey())
	require.Len(t, f.m.Set(sub1.SetID()).Members(), 1)
}

// Registering a physical scan as an alternate member of the same set (via
// targetSet) produces a second subset within one set, not a second set.
func TestRegisterSameSetDistinctSubsets(t *testing.T) {
	f := newFixture()

	logical := relnode.NewLogicalScan(f.axes, f.emp)
	logicalSub, err := f.m.Register(logical, 0)
	require.NoError(t, err)

	physical := relnode.NewPhysicalScan(logical, f.physicalTraits())
	physSub, err := f.m.Register(physical, logicalSub.SetID())
	require.NoError(t, err)

	require.Equal(t, logicalSub.SetID(), physSub.SetID())
	require.NotEqual(t, logicalSub.SubsetKey(), physSub.SubsetKey())

	set := f.m.Set(logicalSub.SetID())
	require.Len(t, set.Members(), 2)
	require.Len(t, set.Subsets(), 2)
}

// ChangeTraits inserts an AbstractConvert placeholder when the set has no
// subset for the requested traits yet, and the conversion node lives in the
// same set as its source.
func TestChangeTraitsInsertsAbstractConvert(t *testing.T) {
	f := newFixture()

	logical := relnode.NewLogicalScan(f.axes, f.emp)
	logicalSub, err := f.m.Register(logical, 0)
	require.NoError(t, err)

	physical := relnode.NewPhysicalScan(logical, f.physicalTraits())
	_, err = f.m.Register(physical, logicalSub.SetID())
	require.NoError(t, err)

	sorted := f.physicalTraits().Replace(f.collationAxis, opt.Collation{{Col: 0}})
	convSub, err := f.m.ChangeTraits(physical, sorted)
	require.NoError(t, err)

	require.Equal(t, logicalSub.SetID(), convSub.SetID())
	require.True(t, convSub.Traits().Equal(sorted))

	again, err := f.m.ChangeTraits(physical, sorted)
	require.NoError(t, err)
	require.Equal(t, convSub.SubsetKey(), again.SubsetKey())
}

// EnsureRegistered folds a structurally new expression into an existing set
// when told the two are equivalent — the mechanism transformTo uses to
// register a rule's output.
func TestEnsureRegisteredMergesSets(t *testing.T) {
	f := newFixture()

	scanA := relnode.NewLogicalScan(f.axes, f.emp)
	subA, err := f.m.Register(scanA, 0)
	require.NoError(t, err)

	deptId := scalar.Col(2)
	filterA := relnode.NewLogicalFilter(f.axes, subA, scanA.RowType(), scalar.Eq(deptId, scalar.Lit(1)))
	subFilterA, err := f.m.Register(filterA, 0)
	require.NoError(t, err)

	// A structurally distinct but logically equivalent rewrite (e.g. the
	// commuted form of an equality a rule might produce) registers as new, then
	// folds into filterA's set via EnsureRegistered.
	filterB := relnode.NewLogicalFilter(f.axes, subA, scanA.RowType(), scalar.Eq(scalar.Lit(1), deptId))
	subFilterB, err := f.m.EnsureRegistered(filterB, subFilterA)
	require.NoError(t, err)

	require.Equal(t, subFilterA.SetID(), subFilterB.SetID())
	require.Len(t, f.m.Set(subFilterA.SetID()).Members(), 2)
}

// A subset's best plan improves only when a cheaper candidate is offered,
// and CandidateMembers only returns members whose own traits satisfy the
// subset being costed.
func TestSubsetBestCost(t *testing.T) {
	f := newFixture()

	logical := relnode.NewLogicalScan(f.axes, f.emp)
	logicalSub, err := f.m.Register(logical, 0)
	require.NoError(t, err)

	physical := relnode.NewPhysicalScan(logical, f.physicalTraits())
	physSub, err := f.m.Register(physical, logicalSub.SetID())
	require.NoError(t, err)

	require.Len(t, physSub.CandidateMembers(), 1)
	require.Len(t, logicalSub.CandidateMembers(), 2) // logical satisfies the logical subset too

	improved := physSub.UpdateBestCost(physical, opt.Cost{Rows: 10, CPU: 10, IO: 10})
	require.True(t, improved)
	improved = physSub.UpdateBestCost(physical, opt.Cost{Rows: 20, CPU: 20, IO: 20})
	require.False(t, improved)

	_, cost, ok := physSub.BestExpr()
	require.True(t, ok)
	require.Equal(t, 10.0, cost.Rows)
}

// Registering an expression whose child references an unknown subset is
// rejected rather than silently accepted.
func TestRegisterRejectsUnknownChild(t *testing.T) {
	f := newFixture()
	logical := relnode.NewLogicalScan(f.axes, f.emp)

	// A subset id minted by a different memo instance is meaningless here.
	foreign := memo.New(opt.NewCluster(), f.factory)
	foreignSub, err := foreign.Register(logical, 0)
	require.NoError(t, err)

	filter := relnode.NewLogicalFilter(f.axes, foreignSub, logical.RowType(), nil)
	_, err = f.m.Register(filter, 0)
	require.Error(t, err)
}

func TestMemoDumpListsLiveSets(t *testing.T) {
	f := newFixture()
	logical := relnode.NewLogicalScan(f.axes, f.emp)
	_, err := f.m.Register(logical, 0)
	require.NoError(t, err)

	dump := f.m.Dump()
	require.Contains(t, dump, "Set 1:")
	require.Contains(t, dump, "LogicalScan(emp)")
}
