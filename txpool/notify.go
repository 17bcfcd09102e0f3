package txpool

import (
	"github.com/ckb-go/txpool/internal/metrics"
	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/reject"
	"github.com/ethereum/go-ethereum/event"
)

// NewTransactionEvent fires once a submitted transaction is admitted to
// Pending (spec §6, on_new_transaction).
type NewTransactionEvent struct{ Entry *pool.TxEntry }

// ProposedEvent fires when an entry transitions into Proposed (on_proposed).
type ProposedEvent struct{ Entry *pool.TxEntry }

// RejectedEvent fires whenever an entry is rejected or evicted (on_rejected).
type RejectedEvent struct {
	Entry  *pool.TxEntry
	Reason *reject.Reject
}

// CommittedEvent fires when an entry is removed because its transaction was
// committed on-chain (on_committed).
type CommittedEvent struct{ Entry *pool.TxEntry }

// feeds groups the pool's four fire-and-forget notification outputs (spec
// §6). Grounded on core/txpool/txpool.go's reorgFeed event.Feed +
// SubscribeNewReorgEvent pattern.
type feeds struct {
	newTx    event.Feed
	proposed event.Feed
	rejected event.Feed
	committed event.Feed
}

// SubscribeNewTransactionEvent registers ch for NewTransactionEvent.
func (tp *TxPool) SubscribeNewTransactionEvent(ch chan<- NewTransactionEvent) event.Subscription {
	return tp.feeds.newTx.Subscribe(ch)
}

// SubscribeProposedEvent registers ch for ProposedEvent.
func (tp *TxPool) SubscribeProposedEvent(ch chan<- ProposedEvent) event.Subscription {
	return tp.feeds.proposed.Subscribe(ch)
}

// SubscribeRejectedEvent registers ch for RejectedEvent.
func (tp *TxPool) SubscribeRejectedEvent(ch chan<- RejectedEvent) event.Subscription {
	return tp.feeds.rejected.Subscribe(ch)
}

// SubscribeCommittedEvent registers ch for CommittedEvent.
func (tp *TxPool) SubscribeCommittedEvent(ch chan<- CommittedEvent) event.Subscription {
	return tp.feeds.committed.Subscribe(ch)
}

func (tp *TxPool) emitNewTransaction(e *pool.TxEntry) { tp.feeds.newTx.Send(NewTransactionEvent{e}) }
func (tp *TxPool) emitProposed(e *pool.TxEntry)        { tp.feeds.proposed.Send(ProposedEvent{e}) }
func (tp *TxPool) emitCommitted(e *pool.TxEntry)       { tp.feeds.committed.Send(CommittedEvent{e}) }

// emitRejected is the reject-callback plumbing (spec §6): it must not call
// back into the pool synchronously, so it only ever publishes to the feed.
func (tp *TxPool) emitRejected(e *pool.TxEntry, r *reject.Reject) {
	metrics.RecordReject(r)
	tp.feeds.rejected.Send(RejectedEvent{Entry: e, Reason: r})
}
