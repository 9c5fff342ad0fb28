package cost_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/cat"
	"github.com/cascadedb/optimizer/opt/cost"
	"github.com/cascadedb/optimizer/opt/memo"
	"github.com/cascadedb/optimizer/opt/props"
	"github.com/cascadedb/optimizer/opt/relnode"
)

func newQuery(t *testing.T, rows float64) (*opt.AxisRegistry, opt.AxisID, *relnode.Factory, *memo.Memo, *props.Query, *cat.MemTable) {
	t.Helper()
	axes := opt.NewAxisRegistry()
	conv := axes.Register(opt.ConventionAxis{})
	coll := axes.Register(opt.CollationAxis{})
	factory := relnode.NewFactory(axes, conv, coll)
	emp := &cat.MemTable{TableName: "emp", Cols: []cat.Column{{Name: "id", Type: "int"}}, Rows: rows}
	m := memo.New(opt.NewCluster(), factory)
	q := props.NewQuery(m, cat.NewMemCatalog(emp), cost.DefaultModel{})
	return axes, conv, factory, m, q, emp
}

// A physical scan's self-cost scales linearly with the table's row count.
func TestSelfCostScan(t *testing.T) {
	axes, _, _, _, q, emp := newQuery(t, 100)
	scan := relnode.NewLogicalScan(axes, emp)
	phys := relnode.NewPhysicalScan(scan, axes.Default())

	c := cost.DefaultModel{}.SelfCost(q, phys)
	require.Equal(t, 100.0, c.Rows)
	require.Equal(t, 100.0, c.CPU)
}

// A logical node always costs Huge — only physical members are ever costed.
func TestSelfCostLogicalIsHuge(t *testing.T) {
	axes, _, _, _, q, emp := newQuery(t, 100)
	scan := relnode.NewLogicalScan(axes, emp)

	c := cost.DefaultModel{}.SelfCost(q, scan)
	require.True(t, c.IsHuge())
}

// CumulativeCost is Huge whenever a child subset has no recorded best cost
// yet, the signal the optimizer's relaxation loop uses to defer a candidate.
func TestCumulativeCostHugeWithoutChildCost(t *testing.T) {
	axes, _, _, m, q, emp := newQuery(t, 100)
	scan := relnode.NewLogicalScan(axes, emp)
	scanSub, err := m.Register(scan, 0)
	require.NoError(t, err)

	physScan := relnode.NewPhysicalScan(scan, axes.Default())
	physSub, err := m.Register(physScan, scanSub.SetID())
	require.NoError(t, err)

	filter := relnode.NewLogicalFilter(axes, physSub, scan.RowType(), nil)
	_, err = m.Register(filter, 0)
	require.NoError(t, err)
	physFilter := relnode.NewPhysicalFilter(physSub, scan.RowType(), nil, axes.Default())

	// physSub has no best cost recorded yet (UpdateBestCost never called).
	require.True(t, q.CumulativeCost(physFilter).IsHuge())
}

// Once the child subset's best cost is recorded, cumulative cost adds the
// filter's own self-cost to it.
func TestCumulativeCostAddsChildBestCost(t *testing.T) {
	axes, _, _, m, q, emp := newQuery(t, 100)
	scan := relnode.NewLogicalScan(axes, emp)
	scanSub, err := m.Register(scan, 0)
	require.NoError(t, err)
	physScan := relnode.NewPhysicalScan(scan, axes.Default())
	physSub, err := m.Register(physScan, scanSub.SetID())
	require.NoError(t, err)

	require.True(t, physSub.UpdateBestCost(physScan, opt.Cost{Rows: 100, CPU: 100, IO: 100}))

	physFilter := relnode.NewPhysicalFilter(physSub, scan.RowType(), nil, axes.Default())
	total := q.CumulativeCost(physFilter)
	require.False(t, total.IsHuge())
	require.Equal(t, 100.0, total.IO) // filter adds no IO of its own
}
