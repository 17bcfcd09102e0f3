package pool

import (
	"time"

	"github.com/holiman/uint256"
)

// TxEntry is the pool's unit of accounting (spec §3). Fee/cycle/size
// aggregates are plain uint64 sums; uint256 is used only to widen the
// fee-times-size products of fee-rate comparisons so they cannot wrap.
type TxEntry struct {
	Tx        Transaction
	Cycles    uint64
	Fee       uint64
	Size      uint64
	Timestamp int64 // admission time in ms

	AncestorsCount  uint64
	AncestorsSize   uint64
	AncestorsCycles uint64
	AncestorsFee    uint64

	DescendantsCount uint64
	DescendantsSize  uint64
	DescendantsFee   uint64

	relatedDepOutPoints []OutPoint
}

// NewTxEntry builds a TxEntry with ancestor/descendant aggregates seeded to
// self-only, mirroring TxEntry::new_with_timestamp in the original.
func NewTxEntry(tx Transaction, cycles, fee, size uint64, timestamp int64) *TxEntry {
	deps := make([]OutPoint, len(tx.CellDeps))
	for i, d := range tx.CellDeps {
		deps[i] = d.OutPoint
	}
	return &TxEntry{
		Tx:                  tx,
		Cycles:              cycles,
		Fee:                 fee,
		Size:                size,
		Timestamp:           timestamp,
		AncestorsCount:      1,
		AncestorsSize:       size,
		AncestorsCycles:     cycles,
		AncestorsFee:        fee,
		DescendantsCount:    1,
		DescendantsSize:     size,
		DescendantsFee:      fee,
		relatedDepOutPoints: deps,
	}
}

// NowMillis returns the current time as milliseconds, the unit TxEntry uses
// for Timestamp and TxPool uses for expiry comparisons.
func NowMillis() int64 { return time.Now().UnixMilli() }

// ShortID returns the entry's primary pool key.
func (e *TxEntry) ShortID() ShortID { return e.Tx.ShortID() }

// RelatedDepOutPoints returns the cell-dep outpoints this transaction cites.
func (e *TxEntry) RelatedDepOutPoints() []OutPoint { return e.relatedDepOutPoints }

// AddEntryWeight folds parent's own weight into this entry's ancestor
// aggregates. Called once per ancestor when an entry is admitted.
func (e *TxEntry) AddEntryWeight(parent *TxEntry) {
	e.AncestorsCount += 1
	e.AncestorsSize += parent.Size
	e.AncestorsCycles += parent.Cycles
	e.AncestorsFee += parent.Fee
}

// AddDescendantWeight folds a newly-added descendant's own weight into this
// entry's descendant aggregates.
func (e *TxEntry) AddDescendantWeight(child *TxEntry) {
	e.DescendantsCount += 1
	e.DescendantsSize += child.Size
	e.DescendantsFee += child.Fee
}

// SubEntryWeight reverses AddEntryWeight, used when an ancestor is removed.
func (e *TxEntry) SubEntryWeight(parent *TxEntry) {
	e.AncestorsCount = satSub(e.AncestorsCount, 1)
	e.AncestorsSize = satSub(e.AncestorsSize, parent.Size)
	e.AncestorsCycles = satSub(e.AncestorsCycles, parent.Cycles)
	e.AncestorsFee = satSub(e.AncestorsFee, parent.Fee)
}

// SubDescendantWeight reverses AddDescendantWeight.
func (e *TxEntry) SubDescendantWeight(child *TxEntry) {
	e.DescendantsCount = satSub(e.DescendantsCount, 1)
	e.DescendantsSize = satSub(e.DescendantsSize, child.Size)
	e.DescendantsFee = satSub(e.DescendantsFee, child.Fee)
}

// ResetAncestorsState resets the ancestor aggregates back to self-only,
// leaving descendant aggregates untouched. Used by
// TxPool.RemoveByDetachedProposal (spec §9 open question; see SPEC_FULL.md
// §E for the resolution).
func (e *TxEntry) ResetAncestorsState() {
	e.AncestorsCount = 1
	e.AncestorsSize = e.Size
	e.AncestorsCycles = e.Cycles
	e.AncestorsFee = e.Fee
}

func satSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

// FeeRate returns fee-per-byte as a uint256 ratio numerator (fee) and
// denominator (size), left unreduced so callers can compare two rates via
// cross-multiplication without floating point.
func feeRate(fee, size uint64) (num, den *uint256.Int) {
	num = uint256.NewInt(fee)
	den = uint256.NewInt(size)
	if den.IsZero() {
		den = uint256.NewInt(1)
	}
	return num, den
}

// lessRate reports whether fee1/size1 < fee2/size2, computed by
// cross-multiplication to avoid floating point and division-by-zero.
func lessRate(fee1, size1, fee2, size2 uint64) bool {
	n1, d1 := feeRate(fee1, size1)
	n2, d2 := feeRate(fee2, size2)
	lhs := new(uint256.Int).Mul(n1, d2)
	rhs := new(uint256.Int).Mul(n2, d1)
	return lhs.Lt(rhs)
}

// AncestorsScoreSortKey orders entries by effective ancestor fee rate,
// falling back to raw fee rate and then ShortID for a total order (spec
// §4.3). Its natural Less() is ascending; CommitTxsScanner and
// score-sorted iteration walk it from the high end (see SPEC_FULL.md §D.2).
type AncestorsScoreSortKey struct {
	id              ShortID
	fee             uint64
	size            uint64
	ancestorsFee    uint64
	ancestorsSize   uint64
}

func (e *TxEntry) AsScoreKey() AncestorsScoreSortKey {
	return AncestorsScoreSortKey{
		id:            e.ShortID(),
		fee:           e.Fee,
		size:          e.Size,
		ancestorsFee:  e.AncestorsFee,
		ancestorsSize: e.AncestorsSize,
	}
}

// Less implements the ascending total order described above.
func (k AncestorsScoreSortKey) Less(o AncestorsScoreSortKey) bool {
	if k.ancestorsFee != o.ancestorsFee || k.ancestorsSize != o.ancestorsSize {
		return lessRate(k.ancestorsFee, k.ancestorsSize, o.ancestorsFee, o.ancestorsSize)
	}
	if k.fee != o.fee || k.size != o.size {
		return lessRate(k.fee, k.size, o.fee, o.size)
	}
	return bytesLess(k.id[:], o.id[:])
}

// EvictKey orders ascending by descendant-inclusive fee rate (worst first)
// and, for ties, ascending by timestamp (oldest first) — see spec §4.3.
// The lowest-ranked entry under this
// order is evicted first when the pool is over size.
type EvictKey struct {
	id               ShortID
	descendantsFee   uint64
	descendantsSize  uint64
	timestamp        int64
}

func (e *TxEntry) AsEvictKey() EvictKey {
	return EvictKey{
		id:              e.ShortID(),
		descendantsFee:  e.DescendantsFee,
		descendantsSize: e.DescendantsSize,
		timestamp:       e.Timestamp,
	}
}

func (k EvictKey) Less(o EvictKey) bool {
	if k.descendantsFee != o.descendantsFee || k.descendantsSize != o.descendantsSize {
		return lessRate(k.descendantsFee, k.descendantsSize, o.descendantsFee, o.descendantsSize)
	}
	if k.timestamp != o.timestamp {
		return k.timestamp < o.timestamp
	}
	return bytesLess(k.id[:], o.id[:])
}

func bytesLess(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// FeeRatePerKB returns the entry's own fee rate, scaled to fee-per-1000-bytes,
// for display/logging (mirrors CKB's FeeRate::fee_rate formatting used in
// pool.rs's Reject::Full message).
func (e *TxEntry) FeeRatePerKB() uint64 {
	if e.Size == 0 {
		return 0
	}
	return e.Fee * 1000 / e.Size
}
