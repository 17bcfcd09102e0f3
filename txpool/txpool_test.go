package txpool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/reject"
	"github.com/ckb-go/txpool/txpool/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testTimeout = 2 * time.Second

// fakeSnapshot is a minimal in-memory Snapshot: every outpoint seeded via
// Seed resolves live, everything else is Unknown.
type fakeSnapshot struct {
	mu        sync.Mutex
	live      map[pool.OutPoint]struct{}
	maxCycles uint64
}

func newFakeSnapshot() *fakeSnapshot {
	return &fakeSnapshot{live: make(map[pool.OutPoint]struct{}), maxCycles: 1_000_000}
}

func (s *fakeSnapshot) Seed(out pool.OutPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[out] = struct{}{}
}

func (s *fakeSnapshot) Cell(out pool.OutPoint, _ bool) pool.CellStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[out]; ok {
		return pool.CellLive
	}
	return pool.CellUnknown
}

func (s *fakeSnapshot) IsLive(out pool.OutPoint) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live[out]
	return ok, ok
}

func (s *fakeSnapshot) GetTransaction(pool.Hash) (snapshot.TxRecord, bool) { return snapshot.TxRecord{}, false }
func (s *fakeSnapshot) TransactionExists(pool.Hash) bool                  { return false }
func (s *fakeSnapshot) MaxBlockCycles() uint64                            { return s.maxCycles }
func (s *fakeSnapshot) TipHeader() snapshot.Header                        { return snapshot.Header{} }

// fakeVerifier reports a fee of feeRatePerByte * size for every transaction
// (or the fee set for its hash in fees, when there is one), and one cycle per
// byte, with no rejection and no delay.
type fakeVerifier struct {
	feeRatePerByte uint64
	fees           map[pool.Hash]uint64
}

func (v fakeVerifier) Verify(ctx context.Context, rtx snapshot.ResolvedTransaction, _ snapshot.Env, maxCycles uint64, _ snapshot.PauseSignal) (snapshot.VerifyResult, error) {
	select {
	case <-ctx.Done():
		return snapshot.VerifyResult{}, ctx.Err()
	default:
	}
	cycles := rtx.Transaction.Size
	if cycles > maxCycles {
		cycles = maxCycles
	}
	fee := v.feeRatePerByte * rtx.Transaction.Size
	if f, ok := v.fees[rtx.Transaction.Hash]; ok {
		fee = f
	}
	return snapshot.VerifyResult{Cycles: cycles, Fee: fee}, nil
}

func txHash(b byte) pool.Hash {
	var h pool.Hash
	h[0] = b
	return h
}

func newTx(id byte, size uint64, spends []pool.OutPoint) pool.Transaction {
	h := txHash(id)
	inputs := make([]pool.Input, len(spends))
	for i, s := range spends {
		inputs[i] = pool.Input{PreviousOutput: s}
	}
	return pool.Transaction{
		Hash:    h,
		Inputs:  inputs,
		Outputs: []pool.OutPoint{{TxHash: h, Index: 0}},
		Size:    size,
	}
}

func out(tx pool.Transaction) pool.OutPoint { return pool.OutPoint{TxHash: tx.Hash, Index: 0} }

// testHarness wires a running TxPool over a fakeSnapshot/fakeVerifier and
// tears itself down at the end of the test.
type testHarness struct {
	t       *testing.T
	tp      *TxPool
	fees    map[pool.Hash]uint64
	newTxCh chan NewTransactionEvent
	rejCh   chan RejectedEvent
	cancel  context.CancelFunc
	done    chan error
}

func newHarness(t *testing.T, cfg Config, feeRatePerByte uint64) *testHarness {
	t.Helper()
	snap := newFakeSnapshot()
	fees := make(map[pool.Hash]uint64)
	tp := New(cfg, snap, fakeVerifier{feeRatePerByte: feeRatePerByte, fees: fees})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tp.Run(ctx) }()

	h := &testHarness{t: t, tp: tp, fees: fees, cancel: cancel, done: done}
	h.newTxCh = make(chan NewTransactionEvent, 16)
	h.rejCh = make(chan RejectedEvent, 16)
	tp.SubscribeNewTransactionEvent(h.newTxCh)
	tp.SubscribeRejectedEvent(h.rejCh)

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(testTimeout):
			t.Fatal("TxPool.Run did not exit after context cancellation")
		}
	})
	return h
}

func (h *testHarness) awaitAdmitted(id pool.ShortID) *pool.TxEntry {
	h.t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case ev := <-h.newTxCh:
			if ev.Entry.ShortID() == id {
				return ev.Entry
			}
		case <-deadline:
			h.t.Fatalf("timed out waiting for admission of %s", id)
			return nil
		}
	}
}

func (h *testHarness) awaitRejected(id pool.ShortID) *RejectedEvent {
	h.t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case ev := <-h.rejCh:
			if ev.Entry.ShortID() == id {
				return &ev
			}
		case <-deadline:
			h.t.Fatalf("timed out waiting for rejection of %s", id)
			return nil
		}
	}
}

func baseConfig() Config {
	return Config{
		MaxTxPoolSize:     1_000_000,
		MaxAncestorsCount: 125,
		MinFeeRate:        1,
		MinRBFRate:        0,
		ExpiryHours:       24,
		Workers:           2,
	}
}

func TestSubmitAdmitsTransactionToPending(t *testing.T) {
	cfg := baseConfig()
	h := newHarness(t, cfg, 10)

	tx := newTx(1, 100, nil)
	rej := h.tp.Submit(tx, 1000)
	require.Nil(t, rej)

	entry := h.awaitAdmitted(tx.ShortID())
	assert.Equal(t, uint64(1000), entry.Fee)
	assert.Equal(t, uint64(100), entry.Cycles)

	stats := h.tp.GetStats()
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, tx.Size, stats.TotalTxSize)
}

func TestSubmitRejectsBelowMinFeeRate(t *testing.T) {
	cfg := baseConfig()
	cfg.MinFeeRate = 100
	h := newHarness(t, cfg, 10)

	tx := newTx(1, 100, nil)
	rej := h.tp.Submit(tx, 500) // needs >= 100*100 = 10000
	require.NotNil(t, rej)
	assert.Equal(t, reject.LowFeeRate, rej.Kind())
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	cfg := baseConfig()
	h := newHarness(t, cfg, 10)

	tx := newTx(1, 100, nil)
	require.Nil(t, h.tp.Submit(tx, 1000))
	h.awaitAdmitted(tx.ShortID())

	rej := h.tp.Submit(tx, 1000)
	require.NotNil(t, rej)
	assert.Equal(t, reject.Duplicated, rej.Kind())
}

func TestSubmitRejectsUnresolvableInput(t *testing.T) {
	cfg := baseConfig()
	h := newHarness(t, cfg, 10)

	phantom := pool.OutPoint{TxHash: txHash(99), Index: 0}
	tx := newTx(1, 100, []pool.OutPoint{phantom})

	rej := h.tp.Submit(tx, 1000)
	require.NotNil(t, rej)
	assert.Equal(t, reject.Resolve, rej.Kind())
}

func TestRBFReplacesConflictingTransaction(t *testing.T) {
	cfg := baseConfig()
	cfg.MinFeeRate = 10
	cfg.MinRBFRate = 20 // RBF enabled since MinRBFRate > MinFeeRate
	h := newHarness(t, cfg, 10)

	seed := newTx(1, 100, nil)
	require.Nil(t, h.tp.Submit(seed, 1000))
	h.awaitAdmitted(seed.ShortID())

	original := newTx(2, 100, []pool.OutPoint{out(seed)})
	require.Nil(t, h.tp.Submit(original, 1000))
	h.awaitAdmitted(original.ShortID())

	// Required fee per rule 7: conflictFee + minRBFRate*size = 1000 + 20*100 = 3000.
	replacement := newTx(3, 100, []pool.OutPoint{out(seed)})
	require.Nil(t, h.tp.Submit(replacement, 3000))

	rejEvent := h.awaitRejected(original.ShortID())
	assert.Equal(t, reject.RBFRejected, rejEvent.Reason.Kind())

	h.awaitAdmitted(replacement.ShortID())
	assert.False(t, h.tp.poolMap.Contains(original.ShortID()))
}

func TestRBFRejectsInsufficientFee(t *testing.T) {
	cfg := baseConfig()
	cfg.MinFeeRate = 10
	cfg.MinRBFRate = 20
	h := newHarness(t, cfg, 10)

	seed := newTx(1, 100, nil)
	require.Nil(t, h.tp.Submit(seed, 1000))
	h.awaitAdmitted(seed.ShortID())

	original := newTx(2, 100, []pool.OutPoint{out(seed)})
	require.Nil(t, h.tp.Submit(original, 1000))
	h.awaitAdmitted(original.ShortID())

	// Required fee is 3000; offer only 2000.
	tooLow := newTx(3, 100, []pool.OutPoint{out(seed)})
	rej := h.tp.Submit(tooLow, 2000)
	require.NotNil(t, rej)
	assert.Equal(t, reject.RBFRejected, rej.Kind())
	assert.Contains(t, rej.Error(), "expect it to >=")
	assert.True(t, h.tp.poolMap.Contains(original.ShortID()), "original survives a failed replacement")
}

func TestRBFDisabledRejectsConflictAtResolution(t *testing.T) {
	cfg := baseConfig()
	cfg.MinFeeRate = 10
	cfg.MinRBFRate = 0 // RBF disabled: MinRBFRate <= MinFeeRate
	h := newHarness(t, cfg, 10)

	seed := newTx(1, 100, nil)
	require.Nil(t, h.tp.Submit(seed, 1000))
	h.awaitAdmitted(seed.ShortID())

	original := newTx(2, 100, []pool.OutPoint{out(seed)})
	require.Nil(t, h.tp.Submit(original, 1000))
	h.awaitAdmitted(original.ShortID())

	// With RBF disabled, checkRBF never runs (submitLocked's RBFEnabled
	// guard); the conflicting outpoint is instead caught earlier by
	// resolveInputs, which sees it as already spent by `original`.
	replacement := newTx(3, 100, []pool.OutPoint{out(seed)})
	rej := h.tp.Submit(replacement, 100_000)
	require.NotNil(t, rej)
	assert.Equal(t, reject.Resolve, rej.Kind())
	opKind, ok := rej.OutPointErrorKind()
	require.True(t, ok)
	assert.Equal(t, reject.Dead, opKind)
	assert.True(t, h.tp.poolMap.Contains(original.ShortID()))
}

func TestLimitSizeEvictsLowestFeeRateEntries(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxTxPoolSize = 150
	h := newHarness(t, cfg, 1)

	cheap := newTx(1, 100, nil)
	require.Nil(t, h.tp.Submit(cheap, 100)) // fee rate 1/byte
	h.awaitAdmitted(cheap.ShortID())

	rich := newTx(2, 100, nil)
	h.fees[rich.Hash] = 10_000
	require.Nil(t, h.tp.Submit(rich, 10_000)) // fee rate 100/byte
	h.awaitAdmitted(rich.ShortID())

	// Admitting rich pushes totalTxSize to 200 > 150, and admission itself
	// runs the size limit, evicting the lowest-EvictKey entry: the cheap one.
	// The explicit LimitSize call then finds the pool under the cap.
	h.tp.LimitSize()

	rejEvent := h.awaitRejected(cheap.ShortID())
	assert.Equal(t, reject.ExceededTransactionSizeLimit, rejEvent.Reason.Kind())
	assert.True(t, h.tp.poolMap.Contains(rich.ShortID()))
}

func TestRemoveByDetachedProposalResetsAncestorsAndReturnsToPending(t *testing.T) {
	cfg := baseConfig()
	h := newHarness(t, cfg, 10)

	parent := newTx(1, 100, nil)
	require.Nil(t, h.tp.Submit(parent, 1000))
	h.awaitAdmitted(parent.ShortID())

	child := newTx(2, 100, []pool.OutPoint{out(parent)})
	require.Nil(t, h.tp.Submit(child, 1000))
	h.awaitAdmitted(child.ShortID())

	require.Nil(t, h.tp.ProposedRtx(parent.ShortID()))
	require.Nil(t, h.tp.ProposedRtx(child.ShortID()))

	childEntry, ok := h.tp.Get(child.ShortID())
	require.True(t, ok)
	require.Equal(t, uint64(2), childEntry.AncestorsCount)

	h.tp.RemoveByDetachedProposal([]pool.ShortID{child.ShortID()})

	childEntry, ok = h.tp.Get(child.ShortID())
	require.True(t, ok)
	assert.Equal(t, uint64(1), childEntry.AncestorsCount, "ancestor aggregates reset to self-only")

	var sawChildPending bool
	h.tp.poolMap.Iter(func(pe *pool.PoolEntry) bool {
		if pe.ShortID == child.ShortID() {
			sawChildPending = pe.Status == pool.Pending
		}
		return true
	})
	assert.True(t, sawChildPending)
}

func TestProposedRtxEnforcesAncestorCap(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxAncestorsCount = 1
	h := newHarness(t, cfg, 10)

	parent := newTx(1, 100, nil)
	require.Nil(t, h.tp.Submit(parent, 1000))
	h.awaitAdmitted(parent.ShortID())

	child := newTx(2, 100, []pool.OutPoint{out(parent)})
	require.Nil(t, h.tp.Submit(child, 1000))
	h.awaitAdmitted(child.ShortID())

	// child has 2 ancestors (itself + parent), exceeding the cap of 1.
	rej := h.tp.ProposedRtx(child.ShortID())
	require.NotNil(t, rej)
	assert.Equal(t, reject.ExceededMaximumAncestorsCount, rej.Kind())
}

func TestRemoveCommittedTxsClearsPoolAndCachesHash(t *testing.T) {
	cfg := baseConfig()
	h := newHarness(t, cfg, 10)

	tx := newTx(1, 100, nil)
	require.Nil(t, h.tp.Submit(tx, 1000))
	h.awaitAdmitted(tx.ShortID())

	committedCh := make(chan CommittedEvent, 1)
	h.tp.SubscribeCommittedEvent(committedCh)

	h.tp.RemoveCommittedTxs([]pool.ShortID{tx.ShortID()}, []pool.Hash{tx.Hash})

	select {
	case <-committedCh:
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for CommittedEvent")
	}
	assert.Equal(t, 0, h.tp.Size())
}
