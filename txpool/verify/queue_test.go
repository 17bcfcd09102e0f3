package verify

import (
	"testing"

	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTx(b byte) pool.Transaction {
	var h pool.Hash
	h[0] = b
	return pool.Transaction{Hash: h, Size: 100}
}

func TestVerifyQueueAddAndPop(t *testing.T) {
	q := NewVerifyQueue()
	assert.True(t, q.IsEmpty())

	tx1, tx2 := testTx(1), testTx(2)
	ok, rej := q.AddTx(tx1)
	require.True(t, ok)
	require.Nil(t, rej)

	ok, rej = q.AddTx(tx2)
	require.True(t, ok)
	require.Nil(t, rej)

	assert.Equal(t, 2, q.Len())
	assert.True(t, q.ContainsKey(tx1.ShortID()))

	// Re-adding an already-queued short_id is a silent no-op, not a Reject.
	ok, rej = q.AddTx(tx1)
	assert.False(t, ok)
	assert.Nil(t, rej)

	popped, ok := q.PopFirst()
	require.True(t, ok)
	assert.Equal(t, tx1.Hash, popped.Hash, "FIFO: oldest-added pops first")

	popped, ok = q.PopFirst()
	require.True(t, ok)
	assert.Equal(t, tx2.Hash, popped.Hash)

	_, ok = q.PopFirst()
	assert.False(t, ok)
}

func TestVerifyQueueRemoveTx(t *testing.T) {
	q := NewVerifyQueue()
	tx1, tx2, tx3 := testTx(1), testTx(2), testTx(3)
	for _, tx := range []pool.Transaction{tx1, tx2, tx3} {
		_, _ = q.AddTx(tx)
	}

	removed, ok := q.RemoveTx(tx2.ShortID())
	require.True(t, ok)
	assert.Equal(t, tx2.Hash, removed.Hash)
	assert.Equal(t, 2, q.Len())
	assert.False(t, q.ContainsKey(tx2.ShortID()))

	// Order among the remaining entries is preserved.
	popped, ok := q.PopFirst()
	require.True(t, ok)
	assert.Equal(t, tx1.Hash, popped.Hash)
}

func TestVerifyQueueFullRejectsAdmission(t *testing.T) {
	q := NewVerifyQueue()
	for i := 0; i < DefaultMaxVerifyTransactions; i++ {
		ok, rej := q.AddTx(testTx(byte(i % 256)))
		require.True(t, ok)
		require.Nil(t, rej)
	}
	assert.True(t, q.IsFull())

	overflow := pool.Transaction{Hash: pool.Hash{0: 1, 1: 1}, Size: 100}
	ok, rej := q.AddTx(overflow)
	assert.False(t, ok)
	require.NotNil(t, rej)
}

func TestVerifyQueueSubscribeReceivesLength(t *testing.T) {
	q := NewVerifyQueue()
	ch := q.Subscribe()

	// Pre-loaded with the current length.
	assert.Equal(t, 0, <-ch)

	_, _ = q.AddTx(testTx(1))
	assert.Equal(t, 1, <-ch)

	_, _ = q.RemoveTx(testTx(1).ShortID())
	assert.Equal(t, 0, <-ch)
}

func TestVerifyQueueExpireOlderThanReturnsOldestFirst(t *testing.T) {
	q := NewVerifyQueue()
	tx1, tx2, tx3 := testTx(1), testTx(2), testTx(3)

	_, _ = q.AddTx(tx1)
	q.byID[tx1.ShortID()].addedTime = 100
	_, _ = q.AddTx(tx2)
	q.byID[tx2.ShortID()].addedTime = 200
	_, _ = q.AddTx(tx3)
	q.byID[tx3.ShortID()].addedTime = 300

	stale := q.ExpireOlderThan(250)
	require.Len(t, stale, 2)
	assert.Equal(t, tx1.ShortID(), stale[0])
	assert.Equal(t, tx2.ShortID(), stale[1])

	// tx3 (300) is not stale, and ExpireOlderThan never mutates the queue.
	assert.Equal(t, 3, q.Len())
}
