// Command optimize runs a small worked example — the emp/dept join and
// group-by scenario — through the optimizer end to end, printing the rule
// trace and the winning physical plan.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/cat"
	"github.com/cascadedb/optimizer/opt/cost"
	"github.com/cascadedb/optimizer/opt/memo"
	"github.com/cascadedb/optimizer/opt/props"
	"github.com/cascadedb/optimizer/opt/relnode"
	"github.com/cascadedb/optimizer/opt/rules"
	"github.com/cascadedb/optimizer/opt/scalar"
	"github.com/cascadedb/optimizer/opt/trace"
	"github.com/cascadedb/optimizer/opt/xform"
)

func main() {
	var noColor bool
	var verbose bool
	flag.BoolVar(&noColor, "no-color", false, "disable colored trace output")
	flag.BoolVar(&verbose, "verbose", false, "print every rule attempt, not just the summary")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Runs the built-in emp/dept worked example through the optimizer.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

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
		Rows:        14,
		Keys:        [][]int{{0}},
		Order:       []cat.CollationKey{{Col: 0}},
		Cardinality: map[int]int{2: 3},
	}
	dept := &cat.MemTable{
		TableName: "dept",
		Cols: []cat.Column{
			{Name: "id", Type: "int"},
			{Name: "name", Type: "string"},
		},
		Rows: 3,
		Keys: [][]int{{0}},
	}
	catalog := cat.NewMemCatalog(emp, dept)

	m := memo.New(opt.NewCluster(), factory)
	query := props.NewQuery(m, catalog, cost.DefaultModel{})
	tracer := trace.NewTracer(!noColor)
	o := xform.New(m, factory, axes, conv, query, rules.All(conv, coll), xform.Options{})
	o.Listener = tracer

	root := buildQuery(axes, m, emp, dept)
	required := axes.Default().Replace(conv, opt.PhysicalConvention)

	plan, err := o.Optimize(context.Background(), root, required)
	if err != nil {
		log.Fatalf("optimize: %v", err)
	}

	if verbose {
		for _, line := range tracer.Log() {
			fmt.Println(line)
		}
		fmt.Println()
	}
	fmt.Println(tracer.Summary())
	fmt.Println()
	trace.WritePlan(os.Stdout, plan)
}

// buildQuery constructs: select dept.name, count(*) from emp join dept on
// emp.deptId = dept.id where emp.deptId = 1 group by dept.name.
func buildQuery(axes *opt.AxisRegistry, m *memo.Memo, emp, dept *cat.MemTable) opt.Expr {
	empScan := relnode.NewLogicalScan(axes, emp)
	empSub, err := m.Register(empScan, 0)
	if err != nil {
		log.Fatalf("register emp scan: %v", err)
	}

	filterCond := scalar.Eq(scalar.Col(2), scalar.Lit(1))
	filter := relnode.NewLogicalFilter(axes, empSub, empScan.RowType(), filterCond)
	filterSub, err := m.Register(filter, 0)
	if err != nil {
		log.Fatalf("register filter: %v", err)
	}

	deptScan := relnode.NewLogicalScan(axes, dept)
	deptSub, err := m.Register(deptScan, 0)
	if err != nil {
		log.Fatalf("register dept scan: %v", err)
	}

	joinCond := scalar.Eq(scalar.Col(2), scalar.Col(len(empScan.RowType())))
	join := relnode.NewLogicalJoin(axes, filterSub, deptSub, filter.RowType(), deptScan.RowType(), opt.InnerJoin, joinCond)
	joinSub, err := m.Register(join, 0)
	if err != nil {
		log.Fatalf("register join: %v", err)
	}

	deptNameCol := len(filter.RowType()) + 1
	agg := relnode.NewLogicalAggregate(axes, joinSub, join.RowType(), []int{deptNameCol},
		[]relnode.AggCall{{Func: "count", Arg: -1, Name: "n"}})
	return agg
}
