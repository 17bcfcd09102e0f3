// Package pool implements the dependency-graph core of the transaction pool:
// the multi-indexed entry map (PoolMap) together with its Edges and Links
// auxiliary indexes, sort keys, and the cell-resolution views built on top of
// them. None of the types here know about verification, RBF policy, or chain
// reorgs; that lives one level up in package txpool.
package pool

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Hash is a 32-byte transaction or header hash, the same shape the teacher
// uses throughout core/txpool for tx/block hashes.
type Hash = common.Hash

// ShortID is the truncated transaction hash used as the pool's primary key.
// The pool derives it from the leading bytes of the hash (ShortIDFromHash)
// and treats it as an opaque comparable key.
type ShortID [10]byte

func (id ShortID) String() string { return hex.EncodeToString(id[:]) }

// ShortIDFromHash truncates a full transaction hash down to a ShortID.
func ShortIDFromHash(h Hash) ShortID {
	var id ShortID
	copy(id[:], h[:len(id)])
	return id
}

// OutPoint identifies a specific output of a transaction.
type OutPoint struct {
	TxHash Hash
	Index  uint32
}

func (o OutPoint) String() string { return fmt.Sprintf("%s:%d", o.TxHash, o.Index) }

// CellDep is a read-only reference to another cell, used by a script.
type CellDep struct {
	OutPoint OutPoint
}

// Input is a transaction input consuming a previous output.
type Input struct {
	PreviousOutput OutPoint
}

// Transaction is the immutable, resolved transaction the pool accounts for.
// Script execution, signatures, and the rest of consensus are out of scope;
// the pool only needs shape enough to compute dependency edges and size.
type Transaction struct {
	Hash       Hash
	Inputs     []Input
	Outputs    []OutPoint // this transaction's own outputs, pre-computed by the caller
	CellDeps   []CellDep
	HeaderDeps []Hash
	Size       uint64
}

// ShortID returns the truncated primary key for this transaction.
func (tx *Transaction) ShortID() ShortID { return ShortIDFromHash(tx.Hash) }

// Status is the lifecycle state of a pool entry.
type Status uint8

const (
	Pending Status = iota
	Gap
	Proposed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Gap:
		return "Gap"
	case Proposed:
		return "Proposed"
	default:
		return "Unknown"
	}
}
