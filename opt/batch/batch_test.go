package batch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/batch"
	"github.com/cascadedb/optimizer/opt/cat"
	"github.com/cascadedb/optimizer/opt/cost"
	"github.com/cascadedb/optimizer/opt/memo"
	"github.com/cascadedb/optimizer/opt/props"
	"github.com/cascadedb/optimizer/opt/relnode"
	"github.com/cascadedb/optimizer/opt/rules"
	"github.com/cascadedb/optimizer/opt/xform"
)

func newSession(axes *opt.AxisRegistry, conv, coll opt.AxisID, factory *relnode.Factory, catalog *cat.MemCatalog) batch.Session {
	return func(req batch.Request) (*xform.Optimizer, error) {
		m := memo.New(opt.NewCluster(), factory)
		q := props.NewQuery(m, catalog, cost.DefaultModel{})
		return xform.New(m, factory, axes, conv, q, rules.All(conv, coll), xform.Options{}), nil
	}
}

// Each request gets its own isolated memo — running many scans concurrently
// must not leak sets or subsets between sessions.
func TestPoolRunsIndependentSessions(t *testing.T) {
	axes := opt.NewAxisRegistry()
	conv := axes.Register(opt.ConventionAxis{})
	coll := axes.Register(opt.CollationAxis{})
	factory := relnode.NewFactory(axes, conv, coll)

	tables := []*cat.MemTable{
		{TableName: "emp", Cols: []cat.Column{{Name: "id", Type: "int"}}, Rows: 14},
		{TableName: "dept", Cols: []cat.Column{{Name: "id", Type: "int"}}, Rows: 3},
	}
	catalog := cat.NewMemCatalog(tables...)
	required := axes.Default().Replace(conv, opt.PhysicalConvention)

	var reqs []batch.Request
	for _, tbl := range tables {
		reqs = append(reqs, batch.Request{Root: relnode.NewLogicalScan(axes, tbl), Required: required})
	}

	pool := batch.NewPool(2, newSession(axes, conv, coll, factory, catalog))
	results := pool.Run(context.Background(), reqs)

	require.Len(t, results, 2)
	for _, r := range results {
		require.NoError(t, r.Err)
		require.Equal(t, opt.PhysicalScanOp, r.Plan.Expr.Op())
	}
	require.Equal(t, 14.0, results[0].Plan.Cost.Rows)
	require.Equal(t, 3.0, results[1].Plan.Cost.Rows)
}

// A request whose session constructor fails reports that error without
// aborting the other requests in the batch.
func TestPoolIsolatesFailures(t *testing.T) {
	pool := batch.NewPool(1, func(req batch.Request) (*xform.Optimizer, error) {
		return nil, assertError{}
	})
	results := pool.Run(context.Background(), []batch.Request{{}})
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
}

type assertError struct{}

func (assertError) Error() string { return "session build failed" }
