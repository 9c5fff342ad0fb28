package rules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/cat"
	"github.com/cascadedb/optimizer/opt/memo"
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
	emp     *cat.MemTable
	dept    *cat.MemTable
}

func newFixture() *fixture {
	axes := opt.NewAxisRegistry()
	conv := axes.Register(opt.ConventionAxis{})
	coll := axes.Register(opt.CollationAxis{})
	factory := relnode.NewFactory(axes, conv, coll)
	emp := &cat.MemTable{
		TableName: "emp",
		Cols:      []cat.Column{{Name: "id", Type: "int"}, {Name: "name", Type: "string"}, {Name: "deptId", Type: "int"}},
		Rows:      14,
	}
	dept := &cat.MemTable{TableName: "dept", Cols: []cat.Column{{Name: "id", Type: "int"}, {Name: "name", Type: "string"}}, Rows: 3}
	return &fixture{axes: axes, conv: conv, coll: coll, factory: factory, m: memo.New(opt.NewCluster(), factory), emp: emp, dept: dept}
}

func fire(t *testing.T, f *fixture, rule *xform.Rule, matched opt.Expr) []opt.Expr {
	t.Helper()
	outs, err := rule.OnMatch(&xform.RuleContext{Memo: f.m, Factory: f.factory, Axes: f.axes}, matched)
	require.NoError(t, err)
	return outs
}

// pushFilterThroughProject only fires when every filtered column passes
// straight through the project untouched.
func TestPushFilterThroughProjectRewritesPassthroughColumns(t *testing.T) {
	f := newFixture()
	scan := relnode.NewLogicalScan(f.axes, f.emp)
	scanSub, err := f.m.Register(scan, 0)
	require.NoError(t, err)

	items := []relnode.ProjectItem{{Expr: scalar.Col(2), Name: "deptId"}, {Expr: scalar.Col(1), Name: "name"}}
	project := relnode.NewLogicalProject(f.axes, scanSub, scan.RowType(), items)
	projectSub, err := f.m.Register(project, 0)
	require.NoError(t, err)

	cond := scalar.Eq(scalar.Col(0), scalar.Lit(7)) // filters on deptId, project's output col 0
	filter := relnode.NewLogicalFilter(f.axes, projectSub, project.RowType(), cond)

	rule := rules.All(f.conv, f.coll)[8] // pushFilterThroughProject
	outs := fire(t, f, rule, filter)
	require.Len(t, outs, 1)
	require.Equal(t, opt.LogicalProjectOp, outs[0].Op())
}

// pushFilterThroughProject declines when the filtered column is computed
// rather than a pass-through.
func TestPushFilterThroughProjectSkipsComputedColumns(t *testing.T) {
	f := newFixture()
	scan := relnode.NewLogicalScan(f.axes, f.emp)
	scanSub, err := f.m.Register(scan, 0)
	require.NoError(t, err)

	items := []relnode.ProjectItem{{Expr: scalar.FuncCall("upper", scalar.Col(1)), Name: "upperName"}}
	project := relnode.NewLogicalProject(f.axes, scanSub, scan.RowType(), items)
	projectSub, err := f.m.Register(project, 0)
	require.NoError(t, err)

	cond := scalar.Eq(scalar.Col(0), scalar.Lit("X"))
	filter := relnode.NewLogicalFilter(f.axes, projectSub, project.RowType(), cond)

	rule := rules.All(f.conv, f.coll)[8]
	outs := fire(t, f, rule, filter)
	require.Nil(t, outs)
}

// joinCommute swaps an inner join's sides and wraps the result in a Project
// that restores the original column order, so the rewrite stays a
// structurally valid member of the matched join's own set.
func TestJoinCommutePreservesColumnOrder(t *testing.T) {
	f := newFixture()
	empScan := relnode.NewLogicalScan(f.axes, f.emp)
	empSub, err := f.m.Register(empScan, 0)
	require.NoError(t, err)
	deptScan := relnode.NewLogicalScan(f.axes, f.dept)
	deptSub, err := f.m.Register(deptScan, 0)
	require.NoError(t, err)

	cond := scalar.Eq(scalar.Col(2), scalar.Col(3)) // emp.deptId = dept.id
	join := relnode.NewLogicalJoin(f.axes, empSub, deptSub, empScan.RowType(), deptScan.RowType(), opt.InnerJoin, cond)

	rule := rules.All(f.conv, f.coll)[9] // joinCommute
	outs := fire(t, f, rule, join)
	require.Len(t, outs, 1)
	reproject := outs[0]
	require.Equal(t, opt.LogicalProjectOp, reproject.Op())
	require.Equal(t, join.RowType(), reproject.RowType())
}

// joinCommute declines to rewrite Semi/Anti joins.
func TestJoinCommuteSkipsSemiJoin(t *testing.T) {
	f := newFixture()
	empScan := relnode.NewLogicalScan(f.axes, f.emp)
	empSub, err := f.m.Register(empScan, 0)
	require.NoError(t, err)
	deptScan := relnode.NewLogicalScan(f.axes, f.dept)
	deptSub, err := f.m.Register(deptScan, 0)
	require.NoError(t, err)

	cond := scalar.Eq(scalar.Col(2), scalar.Col(3))
	join := relnode.NewLogicalJoin(f.axes, empSub, deptSub, empScan.RowType(), deptScan.RowType(), opt.SemiJoin, cond)

	rule := rules.All(f.conv, f.coll)[9]
	outs := fire(t, f, rule, join)
	require.Nil(t, outs)
}

// implementScan carries the catalog's declared physical ordering onto the
// scan's own Collation trait.
func TestImplementScanCarriesNaturalOrder(t *testing.T) {
	f := newFixture()
	f.emp.Order = []cat.CollationKey{{Col: 0}}
	scan := relnode.NewLogicalScan(f.axes, f.emp)

	rule := rules.All(f.conv, f.coll)[0] // implementScan
	outs := fire(t, f, rule, scan)
	require.Len(t, outs, 1)
	phys := outs[0]
	require.Equal(t, opt.PhysicalScanOp, phys.Op())
	collation := phys.Traits().Value(f.coll).(opt.Collation)
	require.Equal(t, opt.Collation{{Col: 0}}, collation)
}
