package memo

import "github.com/cascadedb/optimizer/opt"

// parentLink records that expr (a member of some other subset) reads this
// subset as an input, so a later improvement to this subset's best plan can
// cascade a re-costing of expr's own subset.
type parentLink struct {
	expr   opt.Expr
	subset *Subset
}

// Subset is one (set, trait set) pairing — the unit the optimizer searches
// for a best plan over; every member backing a subset must satisfy that
// subset's traits. It implements opt.ChildRef so relnode expressions can
// reference a subset directly as a child.
type Subset struct {
	id   SubsetID
	set  SetID
	memo *Memo

	traits opt.TraitSet

	bestExpr opt.Expr
	bestCost opt.Cost
	hasCost  bool

	infeasible bool

	parents []parentLink
}

// SubsetKey implements opt.ChildRef. It resolves through any merge redirect
// so that ChildRefs captured before a subset-level merge keep pointing at
// the surviving subset.
func (s *Subset) SubsetKey() uint64 { return uint64(s.memo.resolveSubset(s.id)) }

// ID returns the subset's own id (unresolved); prefer SubsetKey for anything
// that must survive a merge.
func (s *Subset) ID() SubsetID { return s.id }

// SetID returns the id of the owning set, resolved past any set-level merge.
func (s *Subset) SetID() SetID { return s.memo.findSet(s.set) }

// Traits returns the trait set this subset is keyed on.
func (s *Subset) Traits() opt.TraitSet { return s.traits }

// CandidateMembers returns every member of the owning set whose own traits
// satisfy this subset's traits — the pool a
// coster must consider when picking this subset's best plan.
func (s *Subset) CandidateMembers() []opt.Expr {
	set := s.memo.Set(s.SetID())
	out := make([]opt.Expr, 0, len(set.members))
	for _, mem := range set.members {
		if mem.Traits().Satisfies(s.traits) {
			out = append(out, mem)
		}
	}
	return out
}

// Parents returns every expression elsewhere in the memo that takes this
// subset as a direct input.
func (s *Subset) Parents() []opt.Expr {
	out := make([]opt.Expr, len(s.parents))
	for i, p := range s.parents {
		out[i] = p.expr
	}
	return out
}

// BestExpr and BestCost return the cheapest plan found for this subset so
// far, and whether any feasible plan has been found at all.
func (s *Subset) BestExpr() (opt.Expr, opt.Cost, bool) { return s.bestExpr, s.bestCost, s.hasCost }

// IsInfeasible reports whether this subset has been proven to admit no
// feasible plan (e.g. an enforcer that could not be constructed).
func (s *Subset) IsInfeasible() bool { return s.infeasible }

// MarkInfeasible records that no feasible plan exists for this subset.
func (s *Subset) MarkInfeasible() { s.infeasible = true }

// UpdateBestCost considers expr as a candidate plan for this subset, and
// replaces the current best if cost is strictly lower. Returns whether the
// subset's best plan changed, which the optimizer's costing pass uses to
// decide whether another relaxation pass over the memo is needed.
func (s *Subset) UpdateBestCost(expr opt.Expr, cost opt.Cost) bool {
	if s.hasCost && !cost.Less(s.bestCost) {
		return false
	}
	s.bestExpr = expr
	s.bestCost = cost
	s.hasCost = true
	return true
}

// String renders the subset for tracing.
func (s *Subset) String() string { return s.traits.String() }
