package txpool

import (
	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/snapshot"
)

// Cell implements snapshot.CellProvider by checking the pool's own cells
// (entries of any status) before falling through to the chain snapshot, so a
// transaction spending an unconfirmed pool output resolves as live without
// waiting on commitment (spec §4.5; grounded on pool.rs's bottom-of-file
// CellProvider impl for TxPool, which does the same PoolMap-then-Snapshot
// overlay).
func (tp *TxPool) Cell(out pool.OutPoint, eagerLoad bool) pool.CellStatus {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	status, _ := pool.NewPoolCell(tp.poolMap, false).Cell(out)
	if status != pool.CellUnknown {
		return status
	}
	return tp.snapshot.Cell(out, eagerLoad)
}

// IsLive implements snapshot.CellChecker the same way Cell does.
func (tp *TxPool) IsLive(out pool.OutPoint) (live bool, known bool) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if live, known := pool.NewPoolCell(tp.poolMap, false).IsLive(out); known {
		return live, true
	}
	return tp.snapshot.IsLive(out)
}

var _ snapshot.CellProvider = (*TxPool)(nil)
var _ snapshot.CellChecker = (*TxPool)(nil)
