package txpool

import (
	"fmt"

	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/reject"
	"github.com/ckb-go/txpool/txpool/verify"
)

// Submit resolves, admits (including the RBF gate), and enqueues tx for
// verification. declaredFee is the transaction's fee, computed by the
// caller from resolved cell capacities (the pool carries no cell-value
// data of its own; spec §4.5's resolve_tx folds fee computation into
// resolution, which this simplified Transaction type cannot do internally).
//
// Grounded on tx-pool/src/pool.rs's TxPool::submit_txs /
// resolve_tx_from_proposed and check_rtx_from_pending_and_proposed.
func (tp *TxPool) Submit(tx pool.Transaction, declaredFee uint64) *reject.Reject {
	if tp.submitLimiter != nil && !tp.submitLimiter.Allow() {
		return reject.NewFull("submit rate limit exceeded")
	}

	var result *reject.Reject
	tp.withLock(func() {
		result = tp.submitLocked(tx, declaredFee)
	})
	return result
}

func (tp *TxPool) submitLocked(tx pool.Transaction, declaredFee uint64) *reject.Reject {
	id := tx.ShortID()
	if tp.poolMap.Contains(id) || tp.queue.ContainsKey(id) {
		return reject.NewDuplicated(tx.Hash.String())
	}

	if r := tp.resolveInputs(&tx, tp.config.RBFEnabled()); r != nil {
		return r
	}

	if declaredFee < tp.config.MinFeeRate*tx.Size {
		return reject.NewLowFeeRate(fmt.Sprintf(
			"transaction fee %d is lower than the %d required by min_fee_rate", declaredFee, tp.config.MinFeeRate*tx.Size))
	}

	provisional := pool.NewTxEntry(tx, 0, declaredFee, tx.Size, pool.NowMillis())

	if tp.config.RBFEnabled() {
		roots, r := tp.checkRBF(&tx, provisional)
		if r != nil {
			return r
		}
		if roots.Cardinality() > 0 {
			tp.evictConflictRoots(roots)
		}
	}

	ok, r := tp.queue.AddTx(tx)
	if r != nil {
		return r
	}
	if !ok {
		return reject.NewDuplicated(tx.Hash.String())
	}
	return nil
}

// resolveInputs checks every input and cell-dep against the pool's own
// Pending/Gap/Proposed outputs first, then the chain snapshot, mirroring
// pool.rs's OverlayCellProvider stack (PoolMap over Snapshot). Header-dep
// validity is intentionally not checked here: the Snapshot interface this
// pool is built against exposes no per-header existence query, only
// TipHeader; full header-dep verification is left to the injected Verifier
// (which does have chain access), a simplification over the original's
// resolve_tx which checks header deps at resolution time too.
//
// rbf selects PoolCell's resolution mode (pool_cell.rs): when RBF is
// enabled, an in-pool input already consumed by another entry must still
// resolve as live so a would-be replacement can reach checkRBF at all,
// rather than failing resolution with Dead before RBF ever gets to run.
func (tp *TxPool) resolveInputs(tx *pool.Transaction, rbf bool) *reject.Reject {
	cell := pool.NewPoolCell(tp.poolMap, rbf)
	resolveOne := func(out pool.OutPoint) *reject.Reject {
		status, _ := cell.Cell(out)
		switch status {
		case pool.CellDead:
			return reject.NewResolve(reject.Dead, out.String())
		case pool.CellLive:
			return nil
		}
		switch tp.snapshot.Cell(out, false) {
		case pool.CellLive:
			return nil
		case pool.CellDead:
			return reject.NewResolve(reject.Dead, out.String())
		default:
			return reject.NewResolve(reject.Unknown, out.String())
		}
	}
	for _, in := range tx.Inputs {
		if r := resolveOne(in.PreviousOutput); r != nil {
			return r
		}
	}
	for _, dep := range tx.CellDeps {
		if r := resolveOne(dep.OutPoint); r != nil {
			return r
		}
	}
	return nil
}

// applyVerifyResult folds a completed verification back into the pool. It
// runs on the service loop's goroutine (invoked only from Run) and takes mu
// itself, the same lock withLock takes for caller goroutines.
//
// Grounded on tx-pool/src/verify_mgr.rs's VerifyMgr::process_tx callback
// and pool.rs's TxPool::after_process.
func (tp *TxPool) applyVerifyResult(r verify.Result) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if r.Err != nil {
		failed := pool.NewTxEntry(r.Tx, 0, 0, r.Tx.Size, pool.NowMillis())
		tp.emitRejected(failed, reject.NewVerification(r.Err.Error()))
		return
	}

	entry := pool.NewTxEntry(r.Tx, r.Verify.Cycles, r.Verify.Fee, r.Tx.Size, pool.NowMillis())
	ok, rej := tp.poolMap.AddEntry(entry, pool.Pending)
	if rej != nil {
		tp.emitRejected(entry, rej)
		return
	}
	if !ok {
		tp.emitRejected(entry, reject.NewDuplicated(r.Tx.Hash.String()))
		return
	}

	tp.updateStaticsForAdd(entry.Size, entry.Cycles)
	tp.emitNewTransaction(entry)
	tp.limitSizeLocked()
}
