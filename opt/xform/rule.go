package xform

import (
	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/memo"
)

// RuleContext is the handle a rule's OnMatch receives: enough of the
// session to build and fold new expressions into the matched expression's
// equivalence set.
type RuleContext struct {
	Memo    *memo.Memo
	Factory opt.Factory
	Axes    *opt.AxisRegistry

	origin *memo.Subset
}

// TransformTo registers expr and folds its set together with the matched
// expression's set, regardless of whether expr turns out to be
// structurally novel — the same folding the driver applies to every
// expression a rule's OnMatch returns.
func (c *RuleContext) TransformTo(expr opt.Expr) (*memo.Subset, error) {
	return c.Memo.EnsureRegistered(expr, c.origin)
}

// Rule is one equivalence-preserving or implementation transformation.
// OnMatch runs when Pattern matches a newly registered
// expression; it returns the replacement expressions to fold into that
// expression's set, or an error to abort the session.
type Rule struct {
	Name    string
	Pattern *Operand
	OnMatch func(c *RuleContext, matched opt.Expr) ([]opt.Expr, error)
}

// Options configures one optimization session — the configuration surface
// a caller tunes per query or per deployment.
type Options struct {
	// MaxRuleFires caps the number of rule applications in a session; zero
	// means unlimited. Exhausting the budget is not itself an error: the
	// session goes on to cost and extract from whatever the memo holds, and
	// returns NoPlanFound only if that holds no feasible plan.
	MaxRuleFires int

	// DisabledRule, if set, suppresses matching for any rule whose name it
	// reports true for — e.g. disabling a broken rule while debugging a
	// regression without recompiling the rule set.
	DisabledRule func(name string) bool
}

// Listener receives notifications during a session, the hook opt/trace
// implements to render a live rule-application trace.
type Listener interface {
	RuleAttempted(rule *Rule, expr opt.Expr)
	RuleProduced(rule *Rule, from, to opt.Expr)
	SetsMerged(survivor, retired memo.SetID)
}
