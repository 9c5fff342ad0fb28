// Package memo implements the equivalence-set structure of the optimizer: a
// Memo owns Sets (groups of structurally-equivalent expressions) and, within
// each Set, Subsets (one per distinct satisfied trait set). Registration
// deduplicates by structural fingerprint; ChangeTraits inserts an
// AbstractConvert placeholder when a set has no subset for exactly the
// requested traits yet.
//
// The memo knows nothing about cost or metadata — opt/cost and opt/props
// read and write Subset.bestCost/bestExpr through the exported accessors
// here, the same layering the root opt package uses to stay ignorant of the
// memo via opt.ChildRef.
package memo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cascadedb/optimizer/opt"
	"github.com/cascadedb/optimizer/opterrs"
)

// SetID identifies an equivalence set. Zero is never a valid id.
type SetID uint64

// SubsetID identifies a (set, trait set) pair. Zero is never a valid id.
type SubsetID uint64

// Listener receives notifications of memo mutations so that an external
// rule engine can enqueue new matches, whether re-parented by a merge or
// newly produced by a rule firing.
type Listener interface {
	// OnRegister fires whenever a new member is added to a set, whether
	// because it is structurally new or because its owning set changed
	// during a merge.
	OnRegister(expr opt.Expr, subset *Subset)
	// OnMerge fires after two sets unify, naming the surviving and the
	// retired set ids.
	OnMerge(survivor, retired SetID)
}

// Memo is the top-down equivalence-set store for one optimization session.
type Memo struct {
	cluster *opt.Cluster
	factory opt.Factory
	listener Listener

	sets    []*Set    // index 0 unused; ids are 1-based
	subsets []*Subset // index 0 unused; ids are 1-based

	fpToSet  map[string]SetID // structural fingerprint -> owning set
	redirect map[SubsetID]SubsetID // retired subset id -> surviving subset id

	timestamp uint64
}

// New builds an empty memo bound to cluster and factory.
func New(cluster *opt.Cluster, factory opt.Factory) *Memo {
	return &Memo{
		cluster:  cluster,
		factory:  factory,
		sets:     make([]*Set, 1, 64),
		subsets:  make([]*Subset, 1, 64),
		fpToSet:  make(map[string]SetID, 64),
		redirect: make(map[SubsetID]SubsetID),
	}
}

// SetListener installs l to receive future mutation notifications.
func (m *Memo) SetListener(l Listener) { m.listener = l }

// Timestamp returns the monotonic counter bumped on every mutation, used by
// opt/props' caching provider to invalidate stale entries.
func (m *Memo) Timestamp() uint64 { return m.timestamp }

func (m *Memo) bump() { m.timestamp++ }

// Set returns the set with the given id, resolving past any merges.
func (m *Memo) Set(id SetID) *Set { return m.sets[m.findSet(id)] }

// Subset returns the subset with the given id, resolving past any merges.
func (m *Memo) Subset(id SubsetID) *Subset { return m.subsets[m.resolveSubset(id)] }

// Sets returns every live (non-retired) set, in creation order.
func (m *Memo) Sets() []*Set {
	out := make([]*Set, 0, len(m.sets))
	for _, s := range m.sets[1:] {
		if !s.obsolete {
			out = append(out, s)
		}
	}
	return out
}

func (m *Memo) findSet(id SetID) SetID {
	s := m.sets[id]
	if s.parent == 0 {
		return id
	}
	root := m.findSet(s.parent)
	s.parent = root
	return root
}

func (m *Memo) resolveSubset(id SubsetID) SubsetID {
	for {
		next, ok := m.redirect[id]
		if !ok {
			return id
		}
		id = next
	}
}

func (m *Memo) newSet() *Set {
	id := SetID(len(m.sets))
	s := &Set{id: id, memo: m, subsets: make(map[string]SubsetID, 2)}
	m.sets = append(m.sets, s)
	return s
}

// subsetFor returns the subset of set for traits, creating it (with no
// member of its own beyond whatever is later registered) if absent.
func (m *Memo) subsetFor(setID SetID, traits opt.TraitSet) *Subset {
	s := m.sets[setID]
	key := traits.Key()
	if id, ok := s.subsets[key]; ok {
		return m.subsets[id]
	}
	id := SubsetID(len(m.subsets))
	sub := &Subset{id: id, set: setID, memo: m, traits: traits}
	m.subsets = append(m.subsets, sub)
	s.subsets[key] = id
	s.subsetOrder = append(s.subsetOrder, id)
	return sub
}

// Register adds expr to the memo, deduplicating by structural fingerprint.
// If targetSet is non-zero, expr is forced into that set (merging it with
// whatever set its fingerprint already maps to, if any) — this is how
// transformTo folds a rule's output back into the originating set, and how
// ChangeTraits attaches a converter to the set it converts.
func (m *Memo) Register(expr opt.Expr, targetSet SetID) (*Subset, error) {
	if err := m.checkChildren(expr); err != nil {
		return nil, err
	}

	fp := expr.Fingerprint()
	if existing, ok := m.fpToSet[fp]; ok {
		existing = m.findSet(existing)
		owner := existing
		if targetSet != 0 {
			target := m.findSet(targetSet)
			if target != existing {
				owner = m.mergeSets(target, existing)
			}
		}
		sub := m.subsetFor(owner, expr.Traits())
		return sub, nil
	}

	var owner *Set
	if targetSet != 0 {
		owner = m.sets[m.findSet(targetSet)]
	} else {
		owner = m.newSet()
	}
	owner.members = append(owner.members, expr)
	m.fpToSet[fp] = owner.id
	m.bump()

	sub := m.subsetFor(owner.id, expr.Traits())
	m.attachParents(expr, sub)
	if m.listener != nil {
		m.listener.OnRegister(expr, sub)
	}
	return sub, nil
}

// EnsureRegistered registers expr and, if equivTo names a subset, folds
// expr's set together with equivTo's set regardless of whether expr turned
// out to be structurally new. Rules call this instead of Register directly.
func (m *Memo) EnsureRegistered(expr opt.Expr, equivTo *Subset) (*Subset, error) {
	var target SetID
	if equivTo != nil {
		target = m.findSet(equivTo.set)
	}
	return m.Register(expr, target)
}

// ChangeTraits returns the subset of expr's set keyed on exactly traits,
// registering expr first if needed and inserting an AbstractConvert
// placeholder when the set has no subset for those traits yet.
func (m *Memo) ChangeTraits(expr opt.Expr, traits opt.TraitSet) (*Subset, error) {
	from, err := m.Register(expr, 0)
	if err != nil {
		return nil, err
	}
	setID := m.findSet(from.set)
	if existing, ok := m.sets[setID].subsets[traits.Key()]; ok {
		return m.subsets[existing], nil
	}
	conv := m.factory.CreateAbstractConvert(from, expr.RowType(), traits)
	return m.Register(conv, setID)
}

// GetSubset looks up the subset already registered for (expr's structural
// shape, traits) without registering anything. Returns nil, false if no
// such member exists yet.
func (m *Memo) GetSubset(expr opt.Expr, traits opt.TraitSet) (*Subset, bool) {
	setID, ok := m.fpToSet[expr.Fingerprint()]
	if !ok {
		return nil, false
	}
	setID = m.findSet(setID)
	id, ok := m.sets[setID].subsets[traits.Key()]
	if !ok {
		return nil, false
	}
	return m.subsets[id], true
}

func (m *Memo) checkChildren(expr opt.Expr) error {
	for _, c := range expr.Children() {
		id := SubsetID(c.SubsetKey())
		if id == 0 || int(id) >= len(m.subsets) {
			return opterrs.InvalidState.New(fmt.Sprintf("expression %s references unknown subset %d\n%s", expr, id, m.Dump()))
		}
	}
	return nil
}

func (m *Memo) attachParents(expr opt.Expr, owner *Subset) {
	for _, c := range expr.Children() {
		child := m.Subset(SubsetID(c.SubsetKey()))
		child.parents = append(child.parents, parentLink{expr: expr, subset: owner})
	}
}

// mergeSets unifies a and b (already resolved to roots is not required; it
// resolves them itself) and returns the surviving SetID. The set with the
// smaller id — the older set — survives; where both sets hold a subset for
// the same traits, the survivor's subset is kept (see mergeSubsets).
func (m *Memo) mergeSets(a, b SetID) SetID {
	a, b = m.findSet(a), m.findSet(b)
	if a == b {
		return a
	}
	survivor, retired := a, b
	if retired < survivor {
		survivor, retired = retired, survivor
	}
	sv := m.sets[survivor]
	lo := m.sets[retired]
	lo.parent = survivor
	lo.obsolete = true

	moved := lo.members
	for _, mem := range moved {
		sv.members = append(sv.members, mem)
		m.fpToSet[mem.Fingerprint()] = survivor
	}
	for key, subID := range lo.subsets {
		if keepID, ok := sv.subsets[key]; ok {
			m.mergeSubsets(keepID, subID)
		} else {
			m.subsets[subID].set = survivor
			sv.subsets[key] = subID
			sv.subsetOrder = append(sv.subsetOrder, subID)
		}
	}
	lo.subsets = nil
	lo.subsetOrder = nil
	lo.members = nil
	m.bump()
	if m.listener != nil {
		m.listener.OnMerge(survivor, retired)
		for _, mem := range moved {
			m.listener.OnRegister(mem, m.subsetFor(survivor, mem.Traits()))
		}
	}
	return survivor
}

// mergeSubsets folds retired into keep: their parent lists concatenate and
// the cheaper of the two best-plans (if either is known) survives. Future
// lookups of retired resolve to keep via the redirect table, so ChildRefs
// captured before the merge stay valid (Subset.SubsetKey follows redirects).
func (m *Memo) mergeSubsets(keep, retired SubsetID) {
	if keep == retired {
		return
	}
	k := m.subsets[keep]
	r := m.subsets[retired]
	k.parents = append(k.parents, r.parents...)
	if r.hasCost && (!k.hasCost || r.bestCost.Less(k.bestCost)) {
		k.bestCost = r.bestCost
		k.bestExpr = r.bestExpr
		k.hasCost = true
	}
	if r.infeasible && !k.hasCost {
		k.infeasible = true
	}
	m.redirect[retired] = keep
}

// Dump renders every live set and subset for diagnostics — appended to the
// opterrs.InvalidState message Register returns for an unknown child subset.
func (m *Memo) Dump() string {
	var sb strings.Builder
	ids := make([]SetID, 0, len(m.sets)-1)
	for i := 1; i < len(m.sets); i++ {
		if !m.sets[i].obsolete {
			ids = append(ids, SetID(i))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		s := m.sets[id]
		fmt.Fprintf(&sb, "Set %d:\n", id)
		for _, mem := range s.members {
			fmt.Fprintf(&sb, "  %s\n", mem)
		}
		for _, subID := range s.subsetOrder {
			sub := m.subsets[subID]
			cost := "?"
			if sub.hasCost {
				cost = sub.bestCost.String()
			}
			fmt.Fprintf(&sb, "  subset[%s] best=%s cost=%s\n", sub.traits, sub.bestExpr, cost)
		}
	}
	return sb.String()
}
