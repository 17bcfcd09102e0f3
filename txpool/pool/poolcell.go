package pool

// CellStatus is the pool-local analogue of CKB's CellStatus, restricted to
// the three outcomes PoolCell can ever report: script/cell-data resolution
// is out of scope here, so there is no Live(CellMeta) payload, only the
// owning ShortID.
type CellStatus int

const (
	CellUnknown CellStatus = iota
	CellLive
	CellDead
)

// CellProvider resolves an OutPoint against the pool's own outputs, the way
// ckb_types::core::cell::CellProvider does for the real cell set.
type CellProvider interface {
	Cell(out OutPoint) (CellStatus, ShortID)
}

// CellChecker answers a cheaper is-it-live question without resolving full
// status, mirroring ckb_types::core::cell::CellChecker.
type CellChecker interface {
	IsLive(out OutPoint) (live bool, known bool)
}

// PoolCell resolves outpoints against in-pool transactions only (it never
// consults the chain/snapshot cell set; that composition happens one level
// up, see package txpool's TxPool.Cell and resolveInputs). It has two modes: the plain mode used for
// ordinary resolution treats an in-pool input as Dead (conflicting), while
// rbf mode — used while evaluating a would-be replacement transaction —
// ignores in-pool consumption entirely, since the whole point of RBF
// admission is to resolve against outputs that a conflicting pool entry is
// currently spending.
//
// Grounded on tx-pool/src/pool_cell.rs.
type PoolCell struct {
	pool *PoolMap
	rbf  bool
}

// NewPoolCell returns a CellProvider/CellChecker backed by pool. Pass
// rbf=true when resolving a candidate replacement transaction.
func NewPoolCell(pool *PoolMap, rbf bool) *PoolCell {
	return &PoolCell{pool: pool, rbf: rbf}
}

func (c *PoolCell) cell(out OutPoint) (CellStatus, ShortID) {
	if consumer, dead := c.pool.edges.GetInput(out); dead {
		return CellDead, consumer
	}
	if owner, ok := c.pool.GetOutputWithData(out); ok {
		return CellLive, owner
	}
	return CellUnknown, ShortID{}
}

func (c *PoolCell) cellRBF(out OutPoint) (CellStatus, ShortID) {
	if owner, ok := c.pool.GetOutputWithData(out); ok {
		return CellLive, owner
	}
	return CellUnknown, ShortID{}
}

// Cell implements CellProvider.
func (c *PoolCell) Cell(out OutPoint) (CellStatus, ShortID) {
	if c.rbf {
		return c.cellRBF(out)
	}
	return c.cell(out)
}

func (c *PoolCell) isLive(out OutPoint) (bool, bool) {
	if _, dead := c.pool.edges.GetInput(out); dead {
		return false, true
	}
	if _, ok := c.pool.GetOutputWithData(out); ok {
		return true, true
	}
	return false, false
}

func (c *PoolCell) isLiveRBF(out OutPoint) (bool, bool) {
	if _, ok := c.pool.GetOutputWithData(out); ok {
		return true, true
	}
	return false, false
}

// IsLive implements CellChecker.
func (c *PoolCell) IsLive(out OutPoint) (bool, bool) {
	if c.rbf {
		return c.isLiveRBF(out)
	}
	return c.isLive(out)
}
