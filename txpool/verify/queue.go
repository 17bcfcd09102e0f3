package verify

import (
	"fmt"
	"sync"

	"github.com/ckb-go/txpool/internal/metrics"
	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/reject"
	"github.com/ethereum/go-ethereum/common/prque"
)

// DefaultMaxVerifyTransactions caps the queue at 100 entries (spec §4.7,
// verbatim from verify_queue.rs's DEFAULT_MAX_VERIFY_TRANSACTIONS).
const DefaultMaxVerifyTransactions = 100

type queueEntry struct {
	tx        pool.Transaction
	addedTime int64
}

// VerifyQueue is a FIFO-by-arrival queue of transactions awaiting
// verification, indexed by short_id for O(1) membership/removal and kept in
// arrival order for pop_first. Every mutation republishes the current
// length on lenWatch so sleeping Workers can be woken (spec §4.7).
//
// Grounded on tx-pool/src/component/verify_queue.rs; MultiIndexMap's
// (id unique, added_time ordered) pair becomes a plain map plus an
// append-order slice, since arrival order already is added_time order.
type VerifyQueue struct {
	mu    sync.Mutex
	byID  map[pool.ShortID]*queueEntry
	order []pool.ShortID

	lenWatch *Watch[int]
}

// NewVerifyQueue returns an empty queue.
func NewVerifyQueue() *VerifyQueue {
	return &VerifyQueue{
		byID:     make(map[pool.ShortID]*queueEntry),
		lenWatch: NewWatch(0),
	}
}

// Len returns the number of txs currently queued.
func (q *VerifyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// IsEmpty reports whether the queue holds no txs.
func (q *VerifyQueue) IsEmpty() bool { return q.Len() == 0 }

// IsFull reports whether the queue is at DefaultMaxVerifyTransactions.
func (q *VerifyQueue) IsFull() bool { return q.Len() >= DefaultMaxVerifyTransactions }

// ContainsKey reports whether id is currently queued.
func (q *VerifyQueue) ContainsKey(id pool.ShortID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byID[id]
	return ok
}

func (q *VerifyQueue) reportLen(n int) {
	metrics.VerifyQueueDepth.Update(int64(n))
	q.lenWatch.Send(n)
}

// Subscribe returns a channel that receives the queue's length on every
// mutation, pre-loaded with the current length.
func (q *VerifyQueue) Subscribe() <-chan int { return q.lenWatch.Subscribe() }

// AddTx enqueues tx. Returns (false, nil) if short_id is already queued,
// Reject::Full if the queue is saturated, (true, nil) otherwise.
func (q *VerifyQueue) AddTx(tx pool.Transaction) (bool, *reject.Reject) {
	id := tx.ShortID()

	q.mu.Lock()
	if _, ok := q.byID[id]; ok {
		q.mu.Unlock()
		return false, nil
	}
	if len(q.order) >= DefaultMaxVerifyTransactions {
		q.mu.Unlock()
		return false, reject.NewFull(fmt.Sprintf("chunk is full, failed to add tx: %s", tx.Hash))
	}
	q.byID[id] = &queueEntry{tx: tx, addedTime: pool.NowMillis()}
	q.order = append(q.order, id)
	n := len(q.order)
	q.mu.Unlock()

	q.reportLen(n)
	return true, nil
}

// RemoveTx removes id, returning its transaction if present.
func (q *VerifyQueue) RemoveTx(id pool.ShortID) (pool.Transaction, bool) {
	q.mu.Lock()
	entry, ok := q.byID[id]
	if !ok {
		q.mu.Unlock()
		return pool.Transaction{}, false
	}
	delete(q.byID, id)
	for i, v := range q.order {
		if v == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	n := len(q.order)
	q.mu.Unlock()

	q.reportLen(n)
	return entry.tx, true
}

// RemoveTxs removes every id in ids.
func (q *VerifyQueue) RemoveTxs(ids []pool.ShortID) {
	for _, id := range ids {
		q.RemoveTx(id)
	}
}

// Peek returns the oldest queued short_id without removing it.
func (q *VerifyQueue) Peek() (pool.ShortID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		return pool.ShortID{}, false
	}
	return q.order[0], true
}

// PopFirst removes and returns the oldest queued transaction.
func (q *VerifyQueue) PopFirst() (pool.Transaction, bool) {
	id, ok := q.Peek()
	if !ok {
		return pool.Transaction{}, false
	}
	return q.RemoveTx(id)
}

// ExpireOlderThan returns every queued short_id added before cutoff (a
// millisecond timestamp), oldest first, without removing them — the caller
// decides whether to RemoveTxs and how to report the rejection. Uses a
// prque min-heap over added_time rather than a linear scan, the same
// priority-queue staleness-sweep shape go-ethereum's txpool uses for queued
// transactions.
func (q *VerifyQueue) ExpireOlderThan(cutoff int64) []pool.ShortID {
	q.mu.Lock()
	defer q.mu.Unlock()

	// prque is a max-heap on priority; negate added_time so Pop yields the
	// oldest entry first.
	pq := prque.New[int64, pool.ShortID](nil)
	for id, entry := range q.byID {
		pq.Push(id, -entry.addedTime)
	}

	var stale []pool.ShortID
	for !pq.Empty() {
		id, negPriority := pq.Pop()
		addedTime := -negPriority
		if addedTime >= cutoff {
			break
		}
		stale = append(stale, id)
	}
	return stale
}

// Clear empties the queue.
func (q *VerifyQueue) Clear() {
	q.mu.Lock()
	q.byID = make(map[pool.ShortID]*queueEntry)
	q.order = nil
	q.mu.Unlock()
	q.reportLen(0)
}
