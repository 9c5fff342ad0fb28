// Package trace renders a live optimization session for a human: every
// rule attempt and firing, every set merge, and a final table of the
// winning plan. It implements xform.Listener so an Optimizer can be wired
// straight to a Tracer without the driver knowing anything about rendering.
package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/memo"
	"github.com/cascadedb/optimizer/opt/xform"
)

// Tracer collects and renders the events of one optimization session.
type Tracer struct {
	useColor bool
	attempts int
	fires    int
	merges   int
	log      []string
}

// NewTracer builds a Tracer. useColor controls whether rendered output
// carries ANSI color codes (disable for output piped to a file).
func NewTracer(useColor bool) *Tracer {
	return &Tracer{useColor: useColor}
}

func (t *Tracer) RuleAttempted(rule *xform.Rule, expr opt.Expr) {
	t.attempts++
	t.log = append(t.log, fmt.Sprintf("try   %-24s %s", rule.Name, expr))
}

func (t *Tracer) RuleProduced(rule *xform.Rule, from, to opt.Expr) {
	t.fires++
	line := fmt.Sprintf("fire  %-24s %s -> %s", rule.Name, from, to)
	if t.useColor {
		line = color.GreenString("fire  ") + fmt.Sprintf("%-24s %s -> %s", rule.Name, from, to)
	}
	t.log = append(t.log, line)
}

func (t *Tracer) SetsMerged(survivor, retired memo.SetID) {
	t.merges++
	line := fmt.Sprintf("merge Set %d <- Set %d", survivor, retired)
	if t.useColor {
		line = color.YellowString(line)
	}
	t.log = append(t.log, line)
}

// Log returns every recorded event line, in order.
func (t *Tracer) Log() []string { return t.log }

// Summary reports attempt/fire/merge counts for the whole session.
func (t *Tracer) Summary() string {
	return fmt.Sprintf("%d rule attempts, %d fired, %d set merges", t.attempts, t.fires, t.merges)
}

// WritePlan renders a winning plan as a table of (operator, cost) rows, one
// per node, indented to show tree structure.
func WritePlan(w io.Writer, plan *xform.Plan) {
	table := tablewriter.NewTable(w)
	table.Header([]string{"Plan", "Cost"})

	var walk func(p *xform.Plan, depth int)
	walk = func(p *xform.Plan, depth int) {
		table.Append([]string{strings.Repeat("  ", depth) + p.Expr.String(), p.Cost.String()})
		for _, c := range p.Children {
			walk(c, depth+1)
		}
	}
	walk(plan, 0)
	table.Render()
}
