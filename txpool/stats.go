package txpool

import "github.com/ckb-go/txpool/txpool/pool"

// Stats is a point-in-time snapshot of pool totals (spec §9's get_tx_pool_info).
type Stats struct {
	Pending       int
	Gap           int
	Proposed      int
	TotalTxSize   uint64
	TotalTxCycles uint64
}

// GetStats returns the current Stats.
func (tp *TxPool) GetStats() Stats {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return Stats{
		Pending:       tp.poolMap.PendingSize(),
		Gap:           tp.poolMap.Size() - tp.poolMap.PendingSize() - tp.poolMap.ProposedSize(),
		Proposed:      tp.poolMap.ProposedSize(),
		TotalTxSize:   tp.totalTxSize,
		TotalTxCycles: tp.totalTxCycles,
	}
}

// EntryInfo is the per-transaction introspection view (spec §9's
// get_all_entry_info / TxPoolEntryInfo).
type EntryInfo struct {
	ID               pool.ShortID
	Status           pool.Status
	Cycles           uint64
	Size             uint64
	Fee              uint64
	AncestorsCount   uint64
	AncestorsSize    uint64
	AncestorsCycles  uint64
	DescendantsCount uint64
}

// GetAllEntryInfo returns an EntryInfo for every pool entry (spec §9's
// get_all_entry_info).
func (tp *TxPool) GetAllEntryInfo() []EntryInfo {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	infos := make([]EntryInfo, 0, tp.poolMap.Size())
	tp.poolMap.Iter(func(pe *pool.PoolEntry) bool {
		e := pe.Inner
		infos = append(infos, EntryInfo{
			ID:               pe.ShortID,
			Status:           pe.Status,
			Cycles:           e.Cycles,
			Size:             e.Size,
			Fee:              e.Fee,
			AncestorsCount:   e.AncestorsCount,
			AncestorsSize:    e.AncestorsSize,
			AncestorsCycles:  e.AncestorsCycles,
			DescendantsCount: e.DescendantsCount,
		})
		return true
	})
	return infos
}

// GetIds returns the short ids currently pending and proposed, mirroring
// spec §9's get_ids (pending_and_gap, proposed).
func (tp *TxPool) GetIds() (pendingAndGap, proposed []pool.ShortID) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.poolMap.Iter(func(pe *pool.PoolEntry) bool {
		if pe.Status == pool.Proposed {
			proposed = append(proposed, pe.ShortID)
		} else {
			pendingAndGap = append(pendingAndGap, pe.ShortID)
		}
		return true
	})
	return pendingAndGap, proposed
}
