package txpool

import (
	"fmt"

	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/reject"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"
)

// checkRBF is the RBF admission gate (spec §4.5). It is only meaningful
// when newEntry's inputs actually conflict with something already in the
// pool; a submission with no conflicts returns an empty root set
// immediately without evaluating rules 2-7, since those rules constrain
// whether a *replacement* is valid, not whether ordinary unconfirmed-chain
// spending is allowed (spec.md is silent on this edge case; this is the
// documented resolution — ordinary mempool chaining must keep working
// regardless of RBF being enabled).
//
// Rule order and reject text follow spec.md §4.5 literally.
func (tp *TxPool) checkRBF(tx *pool.Transaction, newEntry *pool.TxEntry) (mapset.Set[pool.ShortID], *reject.Reject) {
	// Rule 1: enabled.
	if !tp.config.RBFEnabled() {
		return nil, reject.NewRBFRejected("RBF is not enabled")
	}

	roots := tp.poolMap.ConflictRoots(tx)
	if roots.Cardinality() == 0 {
		return roots, nil
	}

	fullSet := roots.Clone()
	for rootID := range roots.Iter() {
		fullSet = fullSet.Union(tp.poolMap.CalcDescendants(rootID))
	}

	// Rule 2: no new unconfirmed inputs.
	combinedInputs := mapset.NewThreadUnsafeSet[pool.OutPoint]()
	for rootID := range fullSet.Iter() {
		entry, ok := tp.poolMap.Get(rootID)
		if !ok {
			continue
		}
		for _, in := range entry.Tx.Inputs {
			combinedInputs.Add(in.PreviousOutput)
		}
	}
	for _, in := range tx.Inputs {
		out := in.PreviousOutput
		if combinedInputs.Contains(out) {
			continue
		}
		if _, owned := tp.poolMap.GetOutputWithData(out); owned {
			return nil, reject.NewRBFRejected("new Tx contains unconfirmed inputs not part of the replaced transactions")
		}
	}

	// Rule 3: bounded replacement.
	if fullSet.Cardinality() > tp.config.conflictSetSize() {
		return nil, reject.NewRBFRejected("Tx conflict with too many txs")
	}

	// Rule 4: no ancestor/descendant overlap.
	ancestorsOfNew := tp.poolMap.AncestorsOf(tx)
	descendantsOnly := fullSet.Difference(roots)
	if ancestorsOfNew.Intersect(descendantsOnly).Cardinality() > 0 {
		return nil, reject.NewRBFRejected("Tx ancestors have common with conflict Tx descendants")
	}

	// Rule 5: no descendant-input reuse.
	for _, in := range tx.Inputs {
		owner := pool.ShortIDFromHash(in.PreviousOutput.TxHash)
		if descendantsOnly.Contains(owner) {
			return nil, reject.NewRBFRejected("new Tx contains inputs in descendants of to be replaced Tx")
		}
	}

	// Rule 6: no cell-dep reuse.
	for _, dep := range tx.CellDeps {
		owner := pool.ShortIDFromHash(dep.OutPoint.TxHash)
		if fullSet.Contains(owner) {
			return nil, reject.NewRBFRejected("new Tx contains cell deps from conflicts")
		}
	}

	// Rule 7: fee bound.
	var conflictFee uint64
	for rootID := range roots.Iter() {
		entry, ok := tp.poolMap.Get(rootID)
		if !ok {
			continue
		}
		conflictFee += entry.Fee
	}
	required := addRequiredRBFFee(conflictFee, tp.config.MinRBFRate, newEntry.Size)
	if newEntry.Fee < required {
		return nil, reject.NewRBFRejected(fmt.Sprintf(
			"Tx's current fee is %d, expect it to >= %d to replace old txs", newEntry.Fee, required))
	}

	return roots, nil
}

// addRequiredRBFFee computes conflictFee + minRBFRate*size via uint256 to
// avoid overflow, then truncates back to uint64 (the pool never deals in
// fees anywhere near 2^64).
func addRequiredRBFFee(conflictFee, minRBFRate, size uint64) uint64 {
	rate := new(uint256.Int).Mul(uint256.NewInt(minRBFRate), uint256.NewInt(size))
	total := new(uint256.Int).Add(rate, uint256.NewInt(conflictFee))
	return total.Uint64()
}

// evictConflictRoots removes every root (and its descendants), reporting
// RBFRejected to each.
func (tp *TxPool) evictConflictRoots(roots mapset.Set[pool.ShortID]) {
	for rootID := range roots.Iter() {
		for _, entry := range tp.poolMap.RemoveEntryAndDescendants(rootID) {
			tp.updateStaticsForRemove(entry.Size, entry.Cycles)
			tp.emitRejected(entry, reject.NewRBFRejected("replaced by a higher-fee transaction"))
		}
	}
}
