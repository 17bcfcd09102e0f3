package pool

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ckb-go/txpool/txpool/reject"
)

// entryOp distinguishes whether updateDescendantsIndexKey is folding a
// parent's weight in or out of its descendants.
type entryOp int

const (
	opAdd entryOp = iota
	opRemove
)

// PoolMap is the multi-indexed entry store combining Edges and Links (spec
// §4.4). It enforces the ancestor-count cap on Proposed admission and keeps
// the score/evict/status shadow indexes consistent with the primary map on
// every insert and remove.
//
// Grounded throughout on tx-pool/src/component/pool_map.rs.
type PoolMap struct {
	entries map[ShortID]*PoolEntry
	score   *sortedIndex
	evict   *sortedIndex
	status  *insertionIndex

	edges *Edges
	links *Links

	maxAncestorsCount uint64
}

// NewPoolMap returns an empty PoolMap enforcing maxAncestorsCount on
// Proposed admission.
func NewPoolMap(maxAncestorsCount uint64) *PoolMap {
	m := &PoolMap{
		entries: make(map[ShortID]*PoolEntry),
		status:  newInsertionIndex(),
		edges:   NewEdges(),
		links:   NewLinks(),

		maxAncestorsCount: maxAncestorsCount,
	}
	// The comparators close over m so they can look up each id's current
	// Score/EvictKey in m.entries; both are only ever called with ids that
	// are currently present in the index.
	m.score = newSortedIndex(func(a, b ShortID) bool {
		return m.entries[a].Score.Less(m.entries[b].Score)
	})
	m.evict = newSortedIndex(func(a, b ShortID) bool {
		return m.entries[a].EvictKey.Less(m.entries[b].EvictKey)
	})
	return m
}

// Edges exposes the underlying edge index, e.g. for a read-only cell
// provider built on top of the pool (see poolcell.go).
func (m *PoolMap) Edges() *Edges { return m.edges }

// Links exposes the underlying link graph.
func (m *PoolMap) Links() *Links { return m.links }

func (m *PoolMap) Size() int { return len(m.entries) }

func (m *PoolMap) PendingSize() int {
	return m.status.Len(Pending)
}

func (m *PoolMap) ProposedSize() int { return m.status.Len(Proposed) }

func (m *PoolMap) Contains(id ShortID) bool {
	_, ok := m.entries[id]
	return ok
}

func (m *PoolMap) GetByID(id ShortID) (*PoolEntry, bool) {
	e, ok := m.entries[id]
	return e, ok
}

func (m *PoolMap) Get(id ShortID) (*TxEntry, bool) {
	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	return e.Inner, true
}

func (m *PoolMap) GetProposed(id ShortID) (*TxEntry, bool) {
	e, ok := m.entries[id]
	if !ok || e.Status != Proposed {
		return nil, false
	}
	return e.Inner, true
}

// CalcAncestors returns the transitive closure of id's parents.
func (m *PoolMap) CalcAncestors(id ShortID) mapset.Set[ShortID] { return m.links.CalcAncestors(id) }

// CalcDescendants returns the transitive closure of id's children.
func (m *PoolMap) CalcDescendants(id ShortID) mapset.Set[ShortID] {
	return m.links.CalcDescendants(id)
}

// GetOutputWithData resolves out against the pool's own output index,
// returning the ShortID of the pool entry that produced it regardless of
// whether it has since been spent in-pool. Used by PoolCell to answer
// CellProvider/CellChecker queries against in-pool outputs (spec §4.4,
// SPEC_FULL.md §D.1); there is no cell-data payload to return because
// script verification is out of scope, so callers only get the owning id.
func (m *PoolMap) GetOutputWithData(out OutPoint) (ShortID, bool) {
	if _, ok := m.edges.GetOutput(out); ok {
		return ShortIDFromHash(out.TxHash), true
	}
	return ShortID{}, false
}

func (m *PoolMap) updateParentsForRemove(id ShortID) {
	if parents, ok := m.links.GetParents(id); ok {
		for p := range parents.Iter() {
			m.links.RemoveChild(p, id)
		}
	}
}

func (m *PoolMap) updateChildrenForRemove(id ShortID) {
	if children, ok := m.links.GetChildren(id); ok {
		for c := range children.Iter() {
			m.links.RemoveParent(c, id)
		}
	}
}

// updateDescendantsIndexKey folds parent's own weight into (or out of)
// every descendant's aggregates, then re-inserts each descendant so its
// score/evict shadow indexes reflect the new aggregates.
func (m *PoolMap) updateDescendantsIndexKey(parent *TxEntry, op entryOp) {
	descendants := m.links.CalcDescendants(parent.ShortID())
	for descID := range descendants.Iter() {
		entry, ok := m.entries[descID]
		if !ok {
			continue
		}
		switch op {
		case opRemove:
			entry.Inner.SubEntryWeight(parent)
		case opAdd:
			entry.Inner.AddEntryWeight(parent)
		}
		m.reindexEntry(entry)
	}
}

// reindexEntry drops and re-inserts an entry's score/evict shadow index
// positions after its aggregates changed in place.
func (m *PoolMap) reindexEntry(entry *PoolEntry) {
	m.score.Remove(entry.ShortID)
	m.evict.Remove(entry.ShortID)
	entry.Score = entry.Inner.AsScoreKey()
	entry.EvictKey = entry.Inner.AsEvictKey()
	m.score.Insert(entry.ShortID)
	m.evict.Insert(entry.ShortID)
}

// recordEntryRelations updates Edges for a newly-inserted entry and, if any
// in-pool descendant already referenced one of its outputs (the "detached
// descendant" case, e.g. during reorg re-admission), relinks those children.
func (m *PoolMap) recordEntryRelations(entry *TxEntry) {
	shortID := entry.ShortID()

	for _, in := range entry.Tx.Inputs {
		m.edges.SetOutputConsumer(in.PreviousOutput, &shortID)
		m.edges.InsertInput(in.PreviousOutput, shortID)
	}

	for _, dep := range entry.RelatedDepOutPoints() {
		m.edges.InsertDep(dep, shortID)
	}

	children := mapset.NewThreadUnsafeSet[ShortID]()
	for _, out := range entry.Tx.Outputs {
		if depSet, ok := m.edges.GetDeps(out); ok {
			for id := range depSet.Iter() {
				children.Add(id)
			}
		}
		if consumer, ok := m.edges.GetInput(out); ok {
			m.edges.InsertConsumedOutput(out, consumer)
			children.Add(consumer)
		} else {
			m.edges.InsertOutput(out)
		}
	}

	if len(entry.Tx.HeaderDeps) > 0 {
		m.edges.SetHeaderDeps(shortID, entry.Tx.HeaderDeps)
	}

	if children.Cardinality() > 0 {
		m.updateDescendantsFromDetached(shortID, children)
	}
}

func (m *PoolMap) updateDescendantsFromDetached(id ShortID, children mapset.Set[ShortID]) {
	entry, ok := m.entries[id]
	if !ok {
		return
	}
	for child := range children.Iter() {
		m.links.AddParent(child, id)
	}
	for child := range children.Iter() {
		m.links.AddChild(id, child)
	}
	m.updateDescendantsIndexKey(entry.Inner, opAdd)
}

// directParents computes the direct-parent set of tx: any pool entry whose
// output is referenced by one of tx's inputs or cell-deps (spec §4.4,
// "Parent computation detail").
func (m *PoolMap) directParents(tx *Transaction) mapset.Set[ShortID] {
	parents := mapset.NewThreadUnsafeSet[ShortID]()

	for _, in := range tx.Inputs {
		out := in.PreviousOutput
		if deps, ok := m.edges.GetDeps(out); ok {
			for id := range deps.Iter() {
				parents.Add(id)
			}
		}
		parentID := ShortIDFromHash(out.TxHash)
		if m.links.Contains(parentID) {
			parents.Add(parentID)
		}
	}
	for _, dep := range tx.CellDeps {
		parentID := ShortIDFromHash(dep.OutPoint.TxHash)
		if m.links.Contains(parentID) {
			parents.Add(parentID)
		}
	}
	return parents
}

// DirectParents exposes directParents for callers evaluating a not-yet-admitted
// candidate transaction (e.g. RBF ancestor-overlap checks).
func (m *PoolMap) DirectParents(tx *Transaction) mapset.Set[ShortID] { return m.directParents(tx) }

// AncestorsOf returns the full ancestor closure (including direct parents)
// of a not-yet-admitted tx, without mutating the pool.
func (m *PoolMap) AncestorsOf(tx *Transaction) mapset.Set[ShortID] {
	return m.links.CalcRelationIds(m.directParents(tx), true)
}

// ConflictRoots returns every pool entry that is directly conflicted by tx:
// one that consumes one of tx's input outpoints, or cites one as a
// cell-dep. Unlike ResolveConflict, this does not remove anything.
func (m *PoolMap) ConflictRoots(tx *Transaction) mapset.Set[ShortID] {
	roots := mapset.NewThreadUnsafeSet[ShortID]()
	for _, in := range tx.Inputs {
		out := in.PreviousOutput
		if id, ok := m.edges.GetInput(out); ok {
			roots.Add(id)
		}
		if deps, ok := m.edges.GetDeps(out); ok {
			for id := range deps.Iter() {
				roots.Add(id)
			}
		}
	}
	return roots
}

// recordEntryLinks computes entry's direct-parent set (inputs and cell-deps
// resolved against Edges.outputs and Links), folds the full ancestor
// closure's weight into entry, enforces the ancestor cap for Proposed
// admission, and finally installs entry's Links node.
func (m *PoolMap) recordEntryLinks(entry *TxEntry, status Status) *reject.Reject {
	shortID := entry.ShortID()
	parents := m.directParents(&entry.Tx)

	ancestors := m.links.CalcRelationIds(parents, true)
	for ancID := range ancestors.Iter() {
		ancestor, ok := m.entries[ancID]
		if !ok {
			continue
		}
		entry.AddEntryWeight(ancestor.Inner)
	}

	if status == Proposed && entry.AncestorsCount > m.maxAncestorsCount {
		return reject.NewExceededMaximumAncestorsCount()
	}

	// Symmetric to the AddEntryWeight loop above: every ancestor gains entry
	// as a new descendant, which shifts its EvictKey.
	m.updateAncestorsDescendantWeight(ancestors, entry, opAdd)

	for _, dep := range entry.Tx.CellDeps {
		m.edges.InsertDep(dep.OutPoint, shortID)
	}
	for parent := range parents.Iter() {
		m.links.AddChild(parent, shortID)
	}
	m.links.Insert(shortID, parents)
	return nil
}

// AddEntry inserts entry under status. Returns (false, nil) if an entry with
// the same short_id already exists; returns a Reject if the ancestor cap is
// exceeded under Proposed status (spec §4.4).
func (m *PoolMap) AddEntry(entry *TxEntry, status Status) (bool, *reject.Reject) {
	shortID := entry.ShortID()
	if _, ok := m.entries[shortID]; ok {
		return false, nil
	}
	if err := m.recordEntryLinks(entry, status); err != nil {
		return false, err
	}
	m.insertEntry(entry, status)
	m.recordEntryRelations(entry)
	return true, nil
}

func (m *PoolMap) insertEntry(entry *TxEntry, status Status) {
	shortID := entry.ShortID()
	pe := &PoolEntry{
		ShortID:  shortID,
		Score:    entry.AsScoreKey(),
		Status:   status,
		EvictKey: entry.AsEvictKey(),
		Inner:    entry,
	}
	m.entries[shortID] = pe
	m.score.Insert(shortID)
	m.evict.Insert(shortID)
	m.status.Insert(status, shortID)
}

func (m *PoolMap) removeEntryEdges(entry *TxEntry) {
	id := entry.ShortID()
	for _, out := range entry.Tx.Outputs {
		m.edges.RemoveOutput(out)
	}
	for _, in := range entry.Tx.Inputs {
		m.edges.RemoveInput(in.PreviousOutput)
		m.edges.SetOutputConsumer(in.PreviousOutput, nil)
	}
	for _, dep := range entry.RelatedDepOutPoints() {
		m.edges.DeleteTxIDByDep(dep, id)
	}
	m.edges.RemoveHeaderDeps(id)
}

// RemoveEntry removes id from every index, folding its weight out of every
// descendant's ancestor aggregates and detaching it from its parents.
func (m *PoolMap) RemoveEntry(id ShortID) (*TxEntry, bool) {
	pe, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	ancestors := m.links.CalcAncestors(id)

	delete(m.entries, id)
	m.score.Remove(id)
	m.evict.Remove(id)
	m.status.Remove(pe.Status, id)

	m.updateDescendantsIndexKey(pe.Inner, opRemove)
	m.removeEntryEdges(pe.Inner)
	m.updateParentsForRemove(id)
	m.updateChildrenForRemove(id)
	m.links.Remove(id)
	m.updateAncestorsDescendantWeight(ancestors, pe.Inner, opRemove)
	return pe.Inner, true
}

// updateAncestorsDescendantWeight folds child's weight into (or out of) each
// ancestor's descendant aggregates, the mirror image of
// updateDescendantsIndexKey, then reindexes each touched ancestor.
func (m *PoolMap) updateAncestorsDescendantWeight(ancestors mapset.Set[ShortID], child *TxEntry, op entryOp) {
	for aID := range ancestors.Iter() {
		ancestor, ok := m.entries[aID]
		if !ok {
			continue
		}
		switch op {
		case opRemove:
			ancestor.Inner.SubDescendantWeight(child)
		case opAdd:
			ancestor.Inner.AddDescendantWeight(child)
		}
		m.reindexEntry(ancestor)
	}
}

// removeUnchecked removes id from the primary/shadow indexes only, without
// touching descendant aggregates or the full Links graph; used internally
// by RemoveEntryAndDescendants, which fixes up Links/Edges for the whole
// batch afterward instead of per-entry.
func (m *PoolMap) removeUnchecked(id ShortID) (*TxEntry, bool) {
	pe, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	delete(m.entries, id)
	m.score.Remove(id)
	m.evict.Remove(id)
	m.status.Remove(pe.Status, id)

	for _, dep := range pe.Inner.Tx.CellDeps {
		m.edges.DeleteTxIDByDep(dep.OutPoint, id)
	}
	return pe.Inner, true
}

// RemoveEntryAndDescendants removes id and its whole descendant subtree in
// one batch (spec §4.4).
func (m *PoolMap) RemoveEntryAndDescendants(id ShortID) []*TxEntry {
	removedIDs := []ShortID{id}
	descendants := m.links.CalcDescendants(id)
	for d := range descendants.Iter() {
		removedIDs = append(removedIDs, d)
	}

	// id's ancestors lie outside removedIDs (Links is a DAG), and each one
	// counted every entry in removedIDs among its own descendants.
	ancestors := m.links.CalcAncestors(id)

	for _, rid := range removedIDs {
		m.updateParentsForRemove(rid)
		m.updateChildrenForRemove(rid)
	}

	var removed []*TxEntry
	for _, rid := range removedIDs {
		if entry, ok := m.removeUnchecked(rid); ok {
			m.links.Remove(rid)
			removed = append(removed, entry)
		}
	}
	for _, entry := range removed {
		m.removeEntryEdges(entry)
	}
	for _, entry := range removed {
		m.updateAncestorsDescendantWeight(ancestors, entry, opRemove)
	}
	return removed
}

// SetEntry re-indexes id on the status axis only; edges and links are left
// untouched (spec §4.4).
func (m *PoolMap) SetEntry(id ShortID, newStatus Status) {
	pe, ok := m.entries[id]
	if !ok || pe.Status == newStatus {
		return
	}
	m.status.Remove(pe.Status, id)
	pe.Status = newStatus
	m.status.Insert(newStatus, id)
}

type ConflictEntry struct {
	Entry  *TxEntry
	Reject *reject.Reject
}

// ResolveConflict removes every pool entry (and its descendants) that also
// consumes an input of tx, or cites it as a cell-dep (spec §4.4).
func (m *PoolMap) ResolveConflict(tx *Transaction) []ConflictEntry {
	var conflicts []ConflictEntry
	for _, in := range tx.Inputs {
		out := in.PreviousOutput
		if id, ok := m.edges.RemoveInput(out); ok {
			for _, entry := range m.RemoveEntryAndDescendants(id) {
				conflicts = append(conflicts, ConflictEntry{entry, reject.NewResolve(reject.Dead, out.String())})
			}
		}
		if deps, ok := m.edges.RemoveDeps(out); ok {
			for depID := range deps.Iter() {
				for _, entry := range m.RemoveEntryAndDescendants(depID) {
					conflicts = append(conflicts, ConflictEntry{entry, reject.NewResolve(reject.Dead, out.String())})
				}
			}
		}
	}
	return conflicts
}

// ResolveConflictHeaderDep removes every entry whose header-deps intersect
// the detached-header set, along with their descendants (spec §4.4).
func (m *PoolMap) ResolveConflictHeaderDep(headers map[Hash]struct{}) []ConflictEntry {
	var conflicts []ConflictEntry
	type hit struct {
		blockHash Hash
		id        ShortID
	}
	var hits []hit
	m.edges.AllHeaderDeps(func(id ShortID, deps []Hash) bool {
		for _, h := range deps {
			if _, bad := headers[h]; bad {
				hits = append(hits, hit{h, id})
				break
			}
		}
		return true
	})

	for _, h := range hits {
		for _, entry := range m.RemoveEntryAndDescendants(h.id) {
			conflicts = append(conflicts, ConflictEntry{entry, reject.NewResolve(reject.InvalidHeader, h.blockHash.String())})
		}
	}
	return conflicts
}

// FillProposals appends up to limit short_ids in insertion order from the
// status-indexed subset, skipping ids present in exclusion (spec §4.4).
func (m *PoolMap) FillProposals(limit int, exclusion map[ShortID]struct{}, out map[ShortID]struct{}, status Status) {
	m.status.Each(status, func(id ShortID) bool {
		if len(out) >= limit {
			return false
		}
		if _, skip := exclusion[id]; !skip {
			out[id] = struct{}{}
		}
		return true
	})
}

// NextEvictEntry returns the lowest-EvictKey entry among those with the
// given status, if any (spec §4.4).
func (m *PoolMap) NextEvictEntry(status Status) (ShortID, bool) {
	var found ShortID
	ok := false
	m.evict.Ascending(func(id ShortID) bool {
		pe, exists := m.entries[id]
		if exists && pe.Status == status {
			found = id
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// ScoreSortedIter walks Proposed entries from highest to lowest ancestor
// score (spec §4.3; see SPEC_FULL.md §D.2 for why this reverses an
// ascending index rather than maintaining a max-heap).
func (m *PoolMap) ScoreSortedIter(f func(*TxEntry) bool) {
	m.score.Descending(func(id ShortID) bool {
		pe, ok := m.entries[id]
		if !ok || pe.Status != Proposed {
			return true
		}
		return f(pe.Inner)
	})
}

// Iter calls f for every pool entry in unspecified order.
func (m *PoolMap) Iter(f func(*PoolEntry) bool) {
	for _, pe := range m.entries {
		if !f(pe) {
			return
		}
	}
}

// RemoveEntriesByFilter removes and returns every entry for which predicate
// returns true (spec §9, "remove_entries_by_filter", SPEC_FULL.md §D.4).
func (m *PoolMap) RemoveEntriesByFilter(predicate func(id ShortID, entry *TxEntry, status Status) bool) []*TxEntry {
	var toRemove []ShortID
	for id, pe := range m.entries {
		if predicate(id, pe.Inner, pe.Status) {
			toRemove = append(toRemove, id)
		}
	}
	removed := make([]*TxEntry, 0, len(toRemove))
	for _, id := range toRemove {
		if entry, ok := m.RemoveEntry(id); ok {
			removed = append(removed, entry)
		}
	}
	return removed
}

// RemoveByStatus removes and returns every entry with the given status,
// used by TxPool.DrainAll (SPEC_FULL.md §D.5).
func (m *PoolMap) RemoveByStatus(status Status) []*TxEntry {
	return m.RemoveEntriesByFilter(func(_ ShortID, _ *TxEntry, s Status) bool { return s == status })
}

// Clear empties the whole pool.
func (m *PoolMap) Clear() {
	m.entries = make(map[ShortID]*PoolEntry)
	m.score.Clear()
	m.evict.Clear()
	m.status.Clear()
	m.edges.Clear()
	m.links.Clear()
}
