package txpool

import (
	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/reject"
)

// RemoveCommittedTxs drops each committed transaction from the pool (not
// cascading to descendants — chain commitment is expected to arrive for a
// whole dependency chain together, and any surviving descendant simply
// re-resolves its now-committed parent against the chain going forward) and
// records its hash in the dedupe cache (spec §4.5's
// remove_committed_tx / committed_txs_hash_cache).
func (tp *TxPool) RemoveCommittedTxs(ids []pool.ShortID, hashes []pool.Hash) {
	tp.withLock(func() {
		for i, id := range ids {
			entry, ok := tp.poolMap.RemoveEntry(id)
			if !ok {
				continue
			}
			tp.updateStaticsForRemove(entry.Size, entry.Cycles)
			if i < len(hashes) {
				tp.committedCache.Add(hashes[i], struct{}{})
			}
			tp.emitCommitted(entry)
		}
	})
}

// RemoveByDetachedProposal handles a reorg that detaches a proposal window:
// each named entry drops back out of Proposed, with its ancestor aggregates
// reset to a self-only state, while any of its descendants are left as-is
// (SPEC_FULL.md §E — the entry itself will re-propose independently; its
// descendants still point at it via Links and re-aggregate the next time
// they're touched).
func (tp *TxPool) RemoveByDetachedProposal(ids []pool.ShortID) {
	tp.withLock(func() {
		for _, id := range ids {
			entry, ok := tp.poolMap.Get(id)
			if !ok {
				continue
			}
			entry.ResetAncestorsState()
			tp.poolMap.SetEntry(id, pool.Pending)
		}
	})
}

// RemoveExpired evicts every entry older than config.ExpiryHours, cascading
// to descendants since an expired ancestor can no longer anchor its chain
// (spec §4.5's remove_expired).
func (tp *TxPool) RemoveExpired() {
	now := pool.NowMillis()
	tp.withLock(func() {
		var expired []pool.ShortID
		tp.poolMap.Iter(func(pe *pool.PoolEntry) bool {
			if now-pe.Inner.Timestamp > tp.config.ExpiryMillis() {
				expired = append(expired, pe.ShortID)
			}
			return true
		})
		for _, id := range expired {
			for _, entry := range tp.poolMap.RemoveEntryAndDescendants(id) {
				tp.updateStaticsForRemove(entry.Size, entry.Cycles)
				tp.emitRejected(entry, reject.NewExpiry(entry.Timestamp))
			}
		}
	})
}

// LimitSize evicts the lowest-EvictKey entries, scanning Pending then Gap
// then Proposed, until total size is back at or under MaxTxPoolSize (spec
// §4.5's limit_size).
func (tp *TxPool) LimitSize() {
	tp.withLock(tp.limitSizeLocked)
}

func (tp *TxPool) limitSizeLocked() {
	for _, status := range [...]pool.Status{pool.Pending, pool.Gap, pool.Proposed} {
		for tp.totalTxSize > tp.config.MaxTxPoolSize {
			id, ok := tp.poolMap.NextEvictEntry(status)
			if !ok {
				break
			}
			for _, entry := range tp.poolMap.RemoveEntryAndDescendants(id) {
				tp.updateStaticsForRemove(entry.Size, entry.Cycles)
				tp.emitRejected(entry, reject.NewExceededTransactionSizeLimit("evicted to satisfy max_tx_pool_size"))
			}
		}
	}
}
