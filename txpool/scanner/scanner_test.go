package scanner

import (
	"testing"

	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txHash(b byte) pool.Hash {
	var h pool.Hash
	h[0] = b
	return h
}

func newTx(id byte, size uint64, spends []pool.OutPoint, numOutputs int) pool.Transaction {
	h := txHash(id)
	inputs := make([]pool.Input, len(spends))
	for i, s := range spends {
		inputs[i] = pool.Input{PreviousOutput: s}
	}
	outputs := make([]pool.OutPoint, numOutputs)
	for i := range outputs {
		outputs[i] = pool.OutPoint{TxHash: h, Index: uint32(i)}
	}
	return pool.Transaction{Hash: h, Inputs: inputs, Outputs: outputs, Size: size}
}

func out(tx pool.Transaction, index uint32) pool.OutPoint {
	return pool.OutPoint{TxHash: tx.Hash, Index: index}
}

func addProposed(t *testing.T, m *pool.PoolMap, tx pool.Transaction, fee uint64) {
	t.Helper()
	entry := pool.NewTxEntry(tx, 0, fee, tx.Size, pool.NowMillis())
	ok, rej := m.AddEntry(entry, pool.Proposed)
	require.True(t, ok)
	require.Nil(t, rej)
}

func TestTxsToCommitPacksAncestorsBeforeDescendant(t *testing.T) {
	m := pool.NewPoolMap(125)

	parent := newTx(1, 100, nil, 1)
	addProposed(t, m, parent, 1000)

	child := newTx(2, 100, []pool.OutPoint{out(parent, 0)}, 1)
	addProposed(t, m, child, 10_000) // high score pulls the root to the front

	entries, size, _ := New(m).TxsToCommit(1_000_000, 1_000_000)

	require.Len(t, entries, 2)
	assert.Equal(t, parent.ShortID(), entries[0].ShortID(), "parent must precede its spender")
	assert.Equal(t, child.ShortID(), entries[1].ShortID())
	assert.Equal(t, parent.Size+child.Size, size)
}

func TestTxsToCommitSkipsChainsOverBudget(t *testing.T) {
	m := pool.NewPoolMap(125)

	cheap := newTx(1, 100, nil, 1)
	addProposed(t, m, cheap, 100)

	expensive := newTx(2, 500, nil, 1)
	addProposed(t, m, expensive, 1_000_000) // highest score, but too big to fit

	entries, size, _ := New(m).TxsToCommit(200, 1_000_000)

	require.Len(t, entries, 1)
	assert.Equal(t, cheap.ShortID(), entries[0].ShortID())
	assert.Equal(t, cheap.Size, size)
}

func TestTxsToCommitRespectsCyclesBudget(t *testing.T) {
	m := pool.NewPoolMap(125)

	tx := newTx(1, 100, nil, 1)
	entry := pool.NewTxEntry(tx, 1000, 100, tx.Size, pool.NowMillis())
	ok, rej := m.AddEntry(entry, pool.Proposed)
	require.True(t, ok)
	require.Nil(t, rej)

	entries, _, cycles := New(m).TxsToCommit(1_000_000, 500)
	assert.Empty(t, entries)
	assert.Equal(t, uint64(0), cycles)
}

func TestTxsToCommitIgnoresNonProposedEntries(t *testing.T) {
	m := pool.NewPoolMap(125)

	pending := newTx(1, 100, nil, 1)
	ok, rej := m.AddEntry(pool.NewTxEntry(pending, 0, 100, pending.Size, pool.NowMillis()), pool.Pending)
	require.True(t, ok)
	require.Nil(t, rej)

	entries, size, _ := New(m).TxsToCommit(1_000_000, 1_000_000)
	assert.Empty(t, entries)
	assert.Equal(t, uint64(0), size)
}
