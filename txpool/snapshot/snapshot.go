// Package snapshot defines the pool's external collaborators — the
// read-only chain view and the verifier — at their interface only (spec §6).
// Neither has an implementation here beyond what cmd/txpoold needs for local
// demos; a real node supplies its own Snapshot backed by on-disk stores and
// its own Verifier backed by script/VM execution.
package snapshot

import (
	"context"

	"github.com/ckb-go/txpool/txpool/pool"
)

// CellStatus mirrors pool.CellStatus so Snapshot and PoolCell compose (in
// package txpool's TxPool.Cell and resolveInputs) without either package
// depending on the other's internals beyond this shared vocabulary.
type CellStatus = pool.CellStatus

const (
	CellUnknown = pool.CellUnknown
	CellLive    = pool.CellLive
	CellDead    = pool.CellDead
)

// CellProvider resolves an outpoint to full cell status, the chain-backed
// counterpart of pool.CellProvider.
type CellProvider interface {
	Cell(out pool.OutPoint, eagerLoad bool) CellStatus
}

// CellChecker is the cheaper existence-only counterpart, the chain-backed
// counterpart of pool.CellChecker.
type CellChecker interface {
	IsLive(out pool.OutPoint) (live bool, known bool)
}

// TxRecord is what GetTransaction returns for an already-committed tx.
type TxRecord struct {
	Tx        pool.Transaction
	BlockHash pool.Hash
}

// Header is the minimal tip-header view; the pool passes it through to the
// Verifier in Env and does not read it itself.
type Header struct {
	Number    uint64
	Hash      pool.Hash
	Timestamp int64
}

// Snapshot is the read-only chain view injected into TxPool (spec §6).
// Implementations must be safe for concurrent reads; TxPool never mutates
// through this interface.
type Snapshot interface {
	CellProvider
	CellChecker

	GetTransaction(hash pool.Hash) (TxRecord, bool)
	TransactionExists(hash pool.Hash) bool
	MaxBlockCycles() uint64
	TipHeader() Header
}

// ResolvedTransaction is the minimal resolved-input view passed to Verify.
// Script/cell-data resolution is out of scope (spec §1), so this carries
// only what a verifier needs to report cycles/fee: the transaction itself
// and the outpoints its inputs resolved against.
type ResolvedTransaction struct {
	Transaction pool.Transaction
	ResolvedIns []pool.OutPoint
}

// Env carries the ambient chain context a verifier needs (current tip,
// consensus cycle budget) without exposing the full Snapshot.
type Env struct {
	TipHeader       Header
	MaxBlockCycles  uint64
}

// VerifyResult is the verifier's success outcome (spec §6).
type VerifyResult struct {
	Cycles uint64
	Fee    uint64
}

// PauseSignal lets a long-running Verify call cooperatively check whether
// it should yield, without the snapshot package depending on txpool/verify's
// ChunkCommand type. txpool/verify's Worker adapts its watch receiver to
// satisfy this interface when invoking Verify.
type PauseSignal interface {
	// Suspended reports whether the caller has requested a cooperative
	// pause; a well-behaved Verifier polls this at safe points and blocks
	// until it clears rather than continuing to burn cycles.
	Suspended() bool
	// Stopped reports whether the caller has requested cancellation; a
	// well-behaved Verifier should abandon work and return promptly.
	Stopped() bool
}

// Verifier is the opaque script/VM/signature verification service injected
// into the pool (spec §1, §6). Verify may block on ctx and should check
// pause at its own designated safe points; max_cycles bounds compute cost.
type Verifier interface {
	Verify(ctx context.Context, rtx ResolvedTransaction, env Env, maxCycles uint64, pause PauseSignal) (VerifyResult, error)
}
