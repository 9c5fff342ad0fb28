package rules

import (
	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/xform"
)

// All returns the full built-in rule set: one implementation rule per
// logical operator plus the transformation rules, wired against the given
// Convention and Collation axis ids. Callers pass this slice straight into
// xform.New.
func All(conv, coll opt.AxisID) []*xform.Rule {
	return []*xform.Rule{
		implementScan(conv, coll),
		implementFilter(conv),
		implementProject(conv, coll),
		implementJoin(conv),
		implementAggregate(conv),
		implementSetOp(conv),
		implementSort(conv, coll),
		implementValues(conv),
		pushFilterThroughProject(),
		joinCommute(),
	}
}
