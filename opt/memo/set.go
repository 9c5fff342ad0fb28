package memo

import "github.com/cascadedb/optimizer/opt"

// Set groups every expression proven structurally equivalent. A set that
// has been folded into another via a merge is
// marked obsolete and its fields cleared; callers should always reach sets
// through Memo.Set/Memo.findSet, never hold a *Set across a mutation.
type Set struct {
	id   SetID
	memo *Memo

	members []opt.Expr

	subsets     map[string]SubsetID // opt.TraitSet.Key() -> subset id
	subsetOrder []SubsetID          // insertion order, for stable Dump output

	parent   SetID // 0 == root; non-zero points toward the surviving set
	obsolete bool
}

// ID returns the set's identifier. Once a set has merged into another,
// Memo.findSet resolves stale ids transparently, so callers don't need to
// re-fetch this value after a merge.
func (s *Set) ID() SetID { return s.id }

// Members returns every distinct expression proven equivalent in this set.
func (s *Set) Members() []opt.Expr { return s.members }

// Subsets returns every subset carved out of this set so far, in the order
// they were first created.
func (s *Set) Subsets() []*Subset {
	out := make([]*Subset, len(s.subsetOrder))
	for i, id := range s.subsetOrder {
		out[i] = s.memo.subsets[id]
	}
	return out
}

// Subset returns the subset for the exact trait set, if one has been
// created, without inserting an AbstractConvert placeholder.
func (s *Set) Subset(traits opt.TraitSet) (*Subset, bool) {
	id, ok := s.subsets[traits.Key()]
	if !ok {
		return nil, false
	}
	return s.memo.subsets[id], true
}
