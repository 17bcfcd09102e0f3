package txpool

import (
	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/scanner"
)

// PackageProposals returns up to limit short_ids drawn from Pending,
// excluding uncles, for inclusion as a block's proposal set (SPEC_FULL.md
// §E: resolved to Pending-only, the conservative reading of
// get_proposals/package_proposals).
func (tp *TxPool) PackageProposals(limit int, uncles map[pool.ShortID]struct{}) map[pool.ShortID]struct{} {
	out := make(map[pool.ShortID]struct{}, limit)
	tp.withLock(func() {
		tp.poolMap.FillProposals(limit, uncles, out, pool.Pending)
	})
	return out
}

// PackageTxs greedily packs Proposed entries within sizeLimit/maxCycles,
// ancestor-first, for a block template (spec §4.6).
func (tp *TxPool) PackageTxs(sizeLimit, maxCycles uint64) ([]*pool.TxEntry, uint64, uint64) {
	var entries []*pool.TxEntry
	var size, cycles uint64
	tp.withLock(func() {
		entries, size, cycles = scanner.New(tp.poolMap).TxsToCommit(sizeLimit, maxCycles)
	})
	return entries, size, cycles
}

// DrainAll removes and returns every entry in the pool regardless of
// status, resetting all statistics (spec §9's drain_all_transactions,
// SPEC_FULL.md §D.5) — used when the pool must be rebuilt wholesale, e.g.
// after a deep reorg.
func (tp *TxPool) DrainAll() []*pool.TxEntry {
	var drained []*pool.TxEntry
	tp.withLock(func() {
		for _, status := range [...]pool.Status{pool.Pending, pool.Gap, pool.Proposed} {
			drained = append(drained, tp.poolMap.RemoveByStatus(status)...)
		}
		tp.totalTxSize = 0
		tp.totalTxCycles = 0
	})
	return drained
}
