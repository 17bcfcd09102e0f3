package main

import (
	"context"
	"sync"
	"time"

	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/snapshot"
)

// demoSnapshot is an in-memory Snapshot for local exercising of the pool:
// every outpoint not pre-seeded as live resolves Unknown, and GetTransaction
// reports only what is in the committed map, which no method of
// demoSnapshot adds to. A real node
// backs Snapshot with its on-disk cell/header/tx stores instead.
type demoSnapshot struct {
	mu        sync.RWMutex
	live      map[pool.OutPoint]struct{}
	committed map[pool.Hash]snapshot.TxRecord
	tip       snapshot.Header
	maxCycles uint64
}

func newDemoSnapshot(maxCycles uint64) *demoSnapshot {
	return &demoSnapshot{
		live:      make(map[pool.OutPoint]struct{}),
		committed: make(map[pool.Hash]snapshot.TxRecord),
		maxCycles: maxCycles,
	}
}

// Seed marks out as a spendable live cell, for demo transactions to consume.
func (s *demoSnapshot) Seed(out pool.OutPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[out] = struct{}{}
}

func (s *demoSnapshot) Cell(out pool.OutPoint, _ bool) pool.CellStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.live[out]; ok {
		return pool.CellLive
	}
	return pool.CellUnknown
}

func (s *demoSnapshot) IsLive(out pool.OutPoint) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.live[out]
	return ok, ok
}

func (s *demoSnapshot) GetTransaction(hash pool.Hash) (snapshot.TxRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.committed[hash]
	return rec, ok
}

func (s *demoSnapshot) TransactionExists(hash pool.Hash) bool {
	_, ok := s.GetTransaction(hash)
	return ok
}

func (s *demoSnapshot) MaxBlockCycles() uint64 { return s.maxCycles }

func (s *demoSnapshot) TipHeader() snapshot.Header {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tip
}

// Advance bumps the demo chain's tip, simulating a new block.
func (s *demoSnapshot) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tip.Number++
	s.tip.Timestamp = time.Now().UnixMilli()
}

// demoVerifier accepts every transaction immediately, charging one cycle per
// byte and a flat per-byte fee — standing in for the real script/VM
// verification service this pool treats as opaque (spec §1).
type demoVerifier struct{}

func (demoVerifier) Verify(ctx context.Context, rtx snapshot.ResolvedTransaction, _ snapshot.Env, maxCycles uint64, pause snapshot.PauseSignal) (snapshot.VerifyResult, error) {
	select {
	case <-ctx.Done():
		return snapshot.VerifyResult{}, ctx.Err()
	default:
	}
	cycles := rtx.Transaction.Size
	if cycles > maxCycles {
		cycles = maxCycles
	}
	return snapshot.VerifyResult{Cycles: cycles, Fee: rtx.Transaction.Size * 10}, nil
}
