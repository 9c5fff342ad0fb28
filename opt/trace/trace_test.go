package trace_test

import (
	"bytes"
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
	"github.com/cascadedb/optimizer/opt/trace"
	"github.com/cascadedb/optimizer/opt/xform"
)

func TestTracerRecordsFiresAndMerges(t *testing.T) {
	axes := opt.NewAxisRegistry()
	conv := axes.Register(opt.ConventionAxis{})
	coll := axes.Register(opt.CollationAxis{})
	factory := relnode.NewFactory(axes, conv, coll)
	emp := &cat.MemTable{TableName: "emp", Cols: []cat.Column{{Name: "id", Type: "int"}}, Rows: 10}
	m := memo.New(opt.NewCluster(), factory)
	q := props.NewQuery(m, cat.NewMemCatalog(emp), cost.DefaultModel{})

	tracer := trace.NewTracer(false)
	o := xform.New(m, factory, axes, conv, q, rules.All(conv, coll), xform.Options{})
	o.Listener = tracer

	scan := relnode.NewLogicalScan(axes, emp)
	required := axes.Default().Replace(conv, opt.PhysicalConvention)
	plan, err := o.Optimize(context.Background(), scan, required)
	require.NoError(t, err)
	require.NotEmpty(t, tracer.Log())
	require.Contains(t, tracer.Summary(), "rule attempts")

	var buf bytes.Buffer
	trace.WritePlan(&buf, plan)
	require.Contains(t, buf.String(), "PhysicalScan")
}
