package main

import (
	"context"
	"testing"

	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoSnapshotSeedMarksCellLive(t *testing.T) {
	s := newDemoSnapshot(1000)
	out := pool.OutPoint{TxHash: pool.Hash{1}, Index: 0}

	assert.Equal(t, pool.CellUnknown, s.Cell(out, false))

	s.Seed(out)
	assert.Equal(t, pool.CellLive, s.Cell(out, false))
	live, known := s.IsLive(out)
	assert.True(t, live)
	assert.True(t, known)
}

func TestDemoSnapshotAdvanceBumpsTip(t *testing.T) {
	s := newDemoSnapshot(1000)
	before := s.TipHeader().Number
	s.Advance()
	assert.Equal(t, before+1, s.TipHeader().Number)
}

func TestDemoSnapshotTransactionExistsReflectsCommitted(t *testing.T) {
	s := newDemoSnapshot(1000)
	hash := pool.Hash{2}
	assert.False(t, s.TransactionExists(hash))

	s.mu.Lock()
	s.committed[hash] = snapshot.TxRecord{}
	s.mu.Unlock()
	_, ok := s.GetTransaction(hash)
	assert.True(t, ok, "a zero-value TxRecord is still a recorded entry once the key exists")
	assert.True(t, s.TransactionExists(hash))
}

func TestDemoVerifierChargesFlatFeeAndCapsAtMaxCycles(t *testing.T) {
	v := demoVerifier{}
	tx := pool.Transaction{Size: 100}
	rtx := snapshot.ResolvedTransaction{Transaction: tx}

	result, err := v.Verify(context.Background(), rtx, snapshot.Env{}, 1000, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), result.Cycles)
	assert.Equal(t, uint64(1000), result.Fee)

	capped, err := v.Verify(context.Background(), rtx, snapshot.Env{}, 50, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), capped.Cycles, "cycles cap at maxCycles even though size is larger")
}
