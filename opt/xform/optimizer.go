package xform

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opt/memo"
	"github.com/cascadedb/optimizer/opt/props"
	"github.com/cascadedb/optimizer/opterrs"
)

// Optimizer drives one top-down optimization session: it matches and fires
// rules against every newly registered expression, expands
// AbstractConvert placeholders into concrete enforcers or proves them
// infeasible, and finally costs the whole memo to extract a
// best plan.
//
// This implementation explores exhaustively before costing, rather than
// pruning mid-search with cost lower bounds the way a production Cascades
// planner does — still guaranteed to find the true optimum over the rule
// set given, just less selective about the work it does to get there. See
// DESIGN.md for the reasoning behind that scope cut.
type Optimizer struct {
	Memo           *memo.Memo
	Factory        opt.Factory
	Axes           *opt.AxisRegistry
	ConventionAxis opt.AxisID
	Query          *props.Query
	Rules          []*Rule
	Options        Options
	Listener       Listener

	// Logger receives Debug-level traces of rule firings, set merges, and
	// memo cache invalidation, and Error-level reports of abort conditions.
	// Defaults to logrus.StandardLogger() when left nil.
	Logger logrus.FieldLogger

	queue        *ruleQueue
	fires        int
	lastSeenTick uint64
}

// New builds an Optimizer and installs it as m's mutation listener.
func New(m *memo.Memo, factory opt.Factory, axes *opt.AxisRegistry, conventionAxis opt.AxisID, query *props.Query, rules []*Rule, opts Options) *Optimizer {
	o := &Optimizer{
		Memo:           m,
		Factory:        factory,
		Axes:           axes,
		ConventionAxis: conventionAxis,
		Query:          query,
		Rules:          rules,
		Options:        opts,
		Logger:         logrus.StandardLogger(),
		queue:          newRuleQueue(),
		lastSeenTick:   m.Timestamp(),
	}
	m.SetListener(o)
	return o
}

// OnRegister implements memo.Listener: every newly registered expression is
// matched against every enabled rule's pattern and queued on a hit.
func (o *Optimizer) OnRegister(expr opt.Expr, sub *memo.Subset) {
	o.noteCacheInvalidation()
	for _, r := range o.Rules {
		if o.Options.DisabledRule != nil && o.Options.DisabledRule(r.Name) {
			continue
		}
		if r.Pattern.Match(o.Memo, expr) {
			o.queue.push(r, expr)
		}
	}
}

// noteCacheInvalidation logs when the memo's mutation counter has advanced
// since it was last observed, which is exactly when Query's per-timestamp
// property cache discards everything it has memoized (props.Query.invalidateIfStale).
func (o *Optimizer) noteCacheInvalidation() {
	ts := o.Memo.Timestamp()
	if ts == o.lastSeenTick {
		return
	}
	o.lastSeenTick = ts
	if o.Logger != nil {
		o.Logger.WithField("timestamp", ts).Debug("memo property cache invalidated")
	}
}

// OnMerge implements memo.Listener.
func (o *Optimizer) OnMerge(survivor, retired memo.SetID) {
	if o.Logger != nil {
		o.Logger.WithFields(logrus.Fields{
			"survivor": survivor,
			"retired":  retired,
		}).Debug("sets merged")
	}
	if o.Listener != nil {
		o.Listener.SetsMerged(survivor, retired)
	}
}

// Optimize registers root, requests a plan satisfying required, runs every
// rule and conversion to a fixed point, costs the resulting memo, and
// extracts the cheapest plan for the requested trait set.
func (o *Optimizer) Optimize(ctx context.Context, root opt.Expr, required opt.TraitSet) (*Plan, error) {
	if _, err := o.Memo.Register(root, 0); err != nil {
		return nil, err
	}
	targetSub, err := o.Memo.ChangeTraits(root, required)
	if err != nil {
		return nil, err
	}

	runErr := o.run(ctx)
	if runErr != nil && !opterrs.Cancelled.Is(runErr) {
		return nil, runErr
	}
	o.costAll()

	if _, _, hasCost := targetSub.BestExpr(); runErr != nil && hasCost {
		// Cancelled mid-search, but the memo already has a feasible plan for
		// the requested trait set — return it rather than discarding
		// whatever work has been done.
		if o.Logger != nil {
			o.Logger.WithField("traits", targetSub.Traits()).Warn("optimization cancelled, returning best plan found so far")
		}
		return o.ExtractPlan(targetSub)
	}
	if runErr != nil {
		return nil, runErr
	}

	if targetSub.IsInfeasible() {
		if o.Logger != nil {
			o.Logger.WithField("traits", targetSub.Traits()).Error("no plan found for requested trait set")
		}
		return nil, opterrs.NoPlanFound.New(targetSub.Traits())
	}
	return o.ExtractPlan(targetSub)
}

func (o *Optimizer) run(ctx context.Context) error {
	for {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		progressed, err := o.drainQueue(ctx)
		if err != nil {
			return err
		}
		expanded, err := o.expandConverters(false)
		if err != nil {
			return err
		}
		if !progressed && !expanded {
			break
		}
	}
	_, err := o.expandConverters(true)
	return err
}

func (o *Optimizer) drainQueue(ctx context.Context) (bool, error) {
	progressed := false
	for {
		call, ok := o.queue.pop()
		if !ok {
			break
		}
		if err := ctxErr(ctx); err != nil {
			return progressed, err
		}
		if o.Options.MaxRuleFires > 0 && o.fires >= o.Options.MaxRuleFires {
			break
		}
		o.fires++
		if o.Logger != nil {
			o.Logger.WithFields(logrus.Fields{
				"rule": call.rule.Name,
				"expr": call.expr.Op(),
			}).Debug("rule fired")
		}
		if o.Listener != nil {
			o.Listener.RuleAttempted(call.rule, call.expr)
		}

		origin, _ := o.Memo.GetSubset(call.expr, call.expr.Traits())
		outs, err := call.rule.OnMatch(&RuleContext{Memo: o.Memo, Factory: o.Factory, Axes: o.Axes, origin: origin}, call.expr)
		if err != nil {
			if o.Logger != nil {
				o.Logger.WithFields(logrus.Fields{
					"rule":  call.rule.Name,
					"error": err,
				}).Error("rule aborted")
			}
			return progressed, opterrs.RuleError.New(call.rule.Name, err)
		}
		for _, out := range outs {
			if _, err := o.Memo.EnsureRegistered(out, origin); err != nil {
				return progressed, err
			}
			if o.Listener != nil {
				o.Listener.RuleProduced(call.rule, call.expr, out)
			}
			progressed = true
		}
	}
	return progressed, nil
}

// costAll computes every physical member's cumulative cost and relaxes it
// into its subset's best plan, repeating until no subset improves. Costs
// only ever decrease, so this terminates.
func (o *Optimizer) costAll() {
	for {
		changed := false
		for _, set := range o.Memo.Sets() {
			for _, sub := range set.Subsets() {
				for _, mem := range sub.CandidateMembers() {
					if !mem.Op().IsPhysical() {
						continue
					}
					cost := o.Query.CumulativeCost(mem)
					if cost.IsHuge() {
						continue
					}
					if sub.UpdateBestCost(mem, cost) {
						changed = true
					}
				}
			}
		}
		if !changed {
			return
		}
	}
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return opterrs.Cancelled.New()
	default:
		return nil
	}
}
