package xform_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/cat"
	"github.com/cascadedb/optimizer/opt/cost"
	"github.com/cascadedb/optimizer/opt/memo"
	"github.com/cascadedb/optimizer/opt/props"
	"github.com/cascadedb/optimizer/opt/relnode"
	"github.com/cascadedb/optimizer/opt/rules"
	"github.com/cascadedb/optimizer/opt/scalar"
	"github.com/cascadedb/optimizer/opt/xform"
)

type fixture struct {
	axes    *opt.AxisRegistry
	conv    opt.AxisID
	coll    opt.AxisID
	factory *relnode.Factory
	m       *memo.Memo
	catalog *cat.MemCatalog
	query   *props.Query
	opt     *xform.Optimizer
	emp     *cat.MemTable
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
		Rows:  14,
		Keys:  [][]int{{0}},
		Order: []cat.CollationKey{{Col: 0}},
	}
	catalog := cat.NewMemCatalog(emp)
	m := memo.New(opt.NewCluster(), factory)
	query := props.NewQuery(m, catalog, cost.DefaultModel{})
	o := xform.New(m, factory, axes, conv, query, rules.All(conv, coll), xform.Options{})

	return &fixture{axes: axes, conv: conv, coll: coll, factory: factory, m: m, catalog: catalog, query: query, opt: o, emp: emp}
}

func (f *fixture) physical() opt.TraitSet {
	return f.axes.Default().Replace(f.conv, opt.PhysicalConvention)
}

// Optimizing a bare scan finds the trivial physical scan as the winner, at
// the self-cost the default model assigns a scan.
func TestOptimizeBareScan(t *testing.T) {
	f := newFixture()
	scan := relnode.NewLogicalScan(f.axes, f.emp)

	plan, err := f.opt.Optimize(context.Background(), scan, f.physical())
	require.NoError(t, err)
	require.Equal(t, opt.PhysicalScanOp, plan.Expr.Op())
	require.Equal(t, 14.0, plan.Cost.Rows)
}

// Requiring a collation the child doesn't already provide forces a Sort
// enforcer into the winning plan.
func TestOptimizeRequiresEnforcer(t *testing.T) {
	f := newFixture()
	scan := relnode.NewLogicalScan(f.axes, f.emp)

	required := f.physical().Replace(f.coll, opt.Collation{{Col: 1}})
	plan, err := f.opt.Optimize(context.Background(), scan, required)
	require.NoError(t, err)
	require.Equal(t, opt.PhysicalSortOp, plan.Expr.Op())
	require.Len(t, plan.Children, 1)
	require.Equal(t, opt.PhysicalScanOp, plan.Children[0].Expr.Op())
}

// A project that merely reorders columns the child is already sorted by
// should be satisfiable without an extra Sort enforcer, because
// implementProject offers a remapped-collation variant.
func TestOptimizeProjectPreservesCollationViaRemap(t *testing.T) {
	f := newFixture()
	scan := relnode.NewLogicalScan(f.axes, f.emp)
	scanSub, err := f.m.Register(scan, 0)
	require.NoError(t, err)

	// Project selects id (input col 0) first, name (col 1) second — a pure
	// reorder/pass-through of the scan's own natural ordering on col 0.
	items := []relnode.ProjectItem{
		{Expr: scalar.Col(0), Name: "id"},
		{Expr: scalar.Col(1), Name: "name"},
	}
	project := relnode.NewLogicalProject(f.axes, scanSub, scan.RowType(), items)

	required := f.physical().Replace(f.coll, opt.Collation{{Col: 0}})
	plan, err := f.opt.Optimize(context.Background(), project, required)
	require.NoError(t, err)
	require.Equal(t, opt.PhysicalProjectOp, plan.Expr.Op())
	require.Len(t, plan.Children, 1)
	require.Equal(t, opt.PhysicalScanOp, plan.Children[0].Expr.Op())
}

// With its only implementation rule disabled, a logical scan's set never
// gains a physical member, so a request for a physical plan can never be
// bridged and comes back as NoPlanFound rather than hanging or panicking.
func TestOptimizeInfeasibleConvention(t *testing.T) {
	f := newFixture()
	o := xform.New(f.m, f.factory, f.axes, f.conv, f.query, rules.All(f.conv, f.coll), xform.Options{
		DisabledRule: func(name string) bool { return name == "ImplementScan" },
	})
	scan := relnode.NewLogicalScan(f.axes, f.emp)

	_, err := o.Optimize(context.Background(), scan, f.physical())
	require.Error(t, err)
}

// Cancelling the context aborts an in-flight optimization.
func TestOptimizeRespectsCancellation(t *testing.T) {
	f := newFixture()
	scan := relnode.NewLogicalScan(f.axes, f.emp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.opt.Optimize(ctx, scan, f.physical())
	require.Error(t, err)
}

// MaxRuleFires bounds the number of rule applications without erroring —
// the session returns whatever plan it found within budget.
func TestOptimizeRuleFireBudget(t *testing.T) {
	f := newFixture()
	o := xform.New(f.m, f.factory, f.axes, f.conv, f.query, rules.All(f.conv, f.coll), xform.Options{MaxRuleFires: 1})
	scan := relnode.NewLogicalScan(f.axes, f.emp)

	plan, err := o.Optimize(context.Background(), scan, f.physical())
	require.NoError(t, err)
	require.NotNil(t, plan)
}
