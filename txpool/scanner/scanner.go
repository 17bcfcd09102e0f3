// Package scanner implements the block-template candidate packer that walks
// Proposed pool entries in ancestor-score order and greedily fills a
// size/cycle budget (spec §4.6).
package scanner

import (
	"github.com/ckb-go/txpool/txpool/pool"
	mapset "github.com/deckarep/golang-set/v2"
)

// CommitTxsScanner is a one-shot greedy packer over a PoolMap snapshot. It
// holds no state across calls; callers construct one per packaging attempt.
//
// Grounded on pool.rs's `CommitTxsScanner::new(&self.pool_map).txs_to_commit(...)`
// call sites (package_txs/drain_all_transactions); the scanner's own source
// file was not present in the retrieved original_source, so the packing
// algorithm follows spec.md §4.6's literal description directly.
type CommitTxsScanner struct {
	pool *pool.PoolMap
}

// New returns a scanner over p.
func New(p *pool.PoolMap) *CommitTxsScanner { return &CommitTxsScanner{pool: p} }

// TxsToCommit repeatedly takes the highest-AncestorsScoreSortKey Proposed
// root not yet packed; if the root together with its still-unpacked
// ancestors fits within the remaining size/cycle budget, the whole chain is
// appended in ancestor-first order and the budget is charged. Roots that
// would overflow the budget are skipped (not retried), matching the
// single-pass greedy packer described in spec §4.6.
func (s *CommitTxsScanner) TxsToCommit(sizeLimit, maxCycles uint64) ([]*pool.TxEntry, uint64, uint64) {
	var entries []*pool.TxEntry
	var totalSize, totalCycles uint64
	packed := mapset.NewThreadUnsafeSet[pool.ShortID]()

	s.pool.ScoreSortedIter(func(root *pool.TxEntry) bool {
		rootID := root.ShortID()
		if packed.Contains(rootID) {
			return true
		}

		chain := s.unpackedChain(rootID, packed)
		var chainSize, chainCycles uint64
		for _, id := range chain {
			e, ok := s.pool.Get(id)
			if !ok {
				continue
			}
			chainSize += e.Size
			chainCycles += e.Cycles
		}

		if totalSize+chainSize > sizeLimit || totalCycles+chainCycles > maxCycles {
			return true
		}

		for _, id := range chain {
			e, ok := s.pool.Get(id)
			if !ok {
				continue
			}
			entries = append(entries, e)
			packed.Add(id)
		}
		totalSize += chainSize
		totalCycles += chainCycles
		return true
	})

	return entries, totalSize, totalCycles
}

// unpackedChain returns rootID together with every not-yet-packed ancestor
// of rootID, ordered ancestors-first so a consumer appending them to a
// block template never places a transaction before one of its inputs.
func (s *CommitTxsScanner) unpackedChain(rootID pool.ShortID, packed mapset.Set[pool.ShortID]) []pool.ShortID {
	ancestors := s.pool.CalcAncestors(rootID)
	members := mapset.NewThreadUnsafeSet[pool.ShortID]()
	for id := range ancestors.Iter() {
		if !packed.Contains(id) {
			members.Add(id)
		}
	}
	members.Add(rootID)

	return topoSort(s.pool, members)
}

// topoSort returns members in a parent-before-child order (Kahn's
// algorithm), restricted to the parent/child edges that stay within
// members.
func topoSort(p *pool.PoolMap, members mapset.Set[pool.ShortID]) []pool.ShortID {
	indegree := make(map[pool.ShortID]int, members.Cardinality())
	children := make(map[pool.ShortID][]pool.ShortID, members.Cardinality())

	for id := range members.Iter() {
		indegree[id] = 0
	}
	for id := range members.Iter() {
		parents, ok := p.Links().GetParents(id)
		if !ok {
			continue
		}
		for parent := range parents.Iter() {
			if !members.Contains(parent) {
				continue
			}
			indegree[id]++
			children[parent] = append(children[parent], id)
		}
	}

	var ready []pool.ShortID
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]pool.ShortID, 0, members.Cardinality())
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, child := range children[id] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}
	return order
}
