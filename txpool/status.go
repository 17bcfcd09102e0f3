package txpool

import (
	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/reject"
)

// GapRtx moves id from Pending into Gap, for entries whose proposal window
// has not yet opened (spec §4.5's gap_rtx).
func (tp *TxPool) GapRtx(id pool.ShortID) *reject.Reject {
	var r *reject.Reject
	tp.withLock(func() { r = tp.transition(id, pool.Gap) })
	return r
}

// ProposedRtx moves id into Proposed once its proposal is committed on-chain
// (spec §4.5's proposed_rtx).
func (tp *TxPool) ProposedRtx(id pool.ShortID) *reject.Reject {
	var r *reject.Reject
	tp.withLock(func() { r = tp.transition(id, pool.Proposed) })
	return r
}

func (tp *TxPool) transition(id pool.ShortID, to pool.Status) *reject.Reject {
	pe, ok := tp.poolMap.GetByID(id)
	if !ok {
		return reject.NewMalformed(id.String())
	}
	if pe.Status == to {
		return reject.NewDuplicated(id.String())
	}
	// The ancestor cap is only enforced on entry into Proposed (spec §4.4);
	// Pending/Gap admission never checked it, so it must be rechecked here
	// rather than once at AddEntry time.
	if to == pool.Proposed && pe.Inner.AncestorsCount > tp.config.MaxAncestorsCount {
		return reject.NewExceededMaximumAncestorsCount()
	}
	tp.poolMap.SetEntry(id, to)
	if to == pool.Proposed {
		tp.emitProposed(pe.Inner)
	}
	return nil
}
