// Package txpool implements the transaction pool façade: admission,
// removal, RBF, reorg reconciliation, and query (spec §4.5). It composes
// txpool/pool (the dependency-graph core), txpool/verify (the cooperative
// verification worker fleet) and txpool/scanner (block-template packing)
// behind the single entry point a node wires up.
package txpool

import (
	"context"
	"sync"

	"github.com/ckb-go/txpool/internal/metrics"
	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/snapshot"
	"github.com/ckb-go/txpool/txpool/verify"
	lru "github.com/hashicorp/golang-lru"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/time/rate"
)

// CommittedHashCacheSize is the committed_txs_hash_cache bound (spec §4.5),
// verbatim from pool.rs's COMMITTED_HASH_CACHE_SIZE.
const CommittedHashCacheSize = 100_000

// TxPool is the pool's public façade (spec §4.5). Every read and mutation of
// PoolMap happens under mu: exported methods take it on the caller's own
// goroutine, and verification results, which workers forward onto resultCh,
// are applied under mu by Run's service loop.
//
// Grounded on tx-pool/src/pool.rs's TxPool struct.
type TxPool struct {
	config Config

	mu             sync.Mutex
	poolMap        *pool.PoolMap
	totalTxSize    uint64
	totalTxCycles  uint64
	committedCache *lru.Cache

	snapshot snapshot.Snapshot
	verifier snapshot.Verifier

	queue *verify.VerifyQueue
	mgr   *verify.VerifyMgr

	// submitLimiter is nil when SubmitRatePerSecond is 0 (unlimited).
	submitLimiter *rate.Limiter

	feeds feeds
	log   log.Logger

	resultCh chan verify.Result
	adminCh  chan func()
	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New constructs a TxPool over snap/verifier with cfg. Call Run to start
// the verification worker fleet and the service loop.
func New(cfg Config, snap snapshot.Snapshot, verifier snapshot.Verifier) *TxPool {
	cache, err := lru.New(CommittedHashCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which never
		// happens with the constant above.
		panic(err)
	}

	tp := &TxPool{
		config:         cfg,
		poolMap:        pool.NewPoolMap(cfg.MaxAncestorsCount),
		committedCache: cache,
		snapshot:       snap,
		verifier:       verifier,
		queue:          verify.NewVerifyQueue(),
		log:            log.New("component", "txpool"),
		resultCh:       make(chan verify.Result, verify.DefaultMaxVerifyTransactions),
		adminCh:        make(chan func()),
		stopCh:         make(chan struct{}),
	}
	tp.mgr = verify.NewVerifyMgr(tp.queue, verifier, tp.verifyEnv, snap.MaxBlockCycles(), tp.onVerifyResult, cfg.Workers)
	if cfg.SubmitRatePerSecond > 0 {
		tp.submitLimiter = rate.NewLimiter(rate.Limit(cfg.SubmitRatePerSecond), cfg.SubmitBurst)
	}
	return tp
}

func (tp *TxPool) verifyEnv() snapshot.Env {
	return snapshot.Env{TipHeader: tp.snapshot.TipHeader(), MaxBlockCycles: tp.snapshot.MaxBlockCycles()}
}

// onVerifyResult is invoked from a Worker goroutine; it only ever forwards
// onto resultCh, which the service loop started by Run drains under mu,
// keeping PoolMap's sole mutator on one goroutine (spec §5).
func (tp *TxPool) onVerifyResult(r verify.Result) {
	select {
	case tp.resultCh <- r:
	case <-tp.stopCh:
	}
}

// Run starts the verify worker fleet and the service loop; it blocks until
// ctx is cancelled, then stops the fleet and returns.
func (tp *TxPool) Run(ctx context.Context) error {
	tp.wg.Add(1)
	mgrErrCh := make(chan error, 1)
	go func() {
		defer tp.wg.Done()
		mgrErrCh <- tp.mgr.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			close(tp.stopCh)
			tp.wg.Wait()
			return <-mgrErrCh
		case r := <-tp.resultCh:
			tp.applyVerifyResult(r)
		case fn := <-tp.adminCh:
			fn()
		}
	}
}

// Close requests an orderly shutdown without requiring the caller to thread
// a cancellable context through Run; workers stop, but the service loop
// itself only exits when Run's ctx is cancelled.
func (tp *TxPool) Close() {
	tp.stopOnce.Do(func() { tp.mgr.Stop() })
}

// withLock runs fn under mu, the pool's single mutual-exclusion point
// between caller goroutines (Submit, the maintenance/status methods) and
// applyVerifyResult running on Run's service loop. It works identically
// whether or not Run has been started, so tests can drive a TxPool
// synchronously without starting the fleet.
func (tp *TxPool) withLock(fn func()) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	fn()
}

// updateStaticsForAdd folds tx_size/cycles into the running totals.
func (tp *TxPool) updateStaticsForAdd(size, cycles uint64) {
	tp.totalTxSize += size
	tp.totalTxCycles += cycles
	tp.reportSizeMetrics()
}

// updateStaticsForRemove reverses updateStaticsForAdd with saturating
// subtraction, logging at Error on underflow rather than panicking or
// wrapping (spec §9 design note via SPEC_FULL.md §D.3).
func (tp *TxPool) updateStaticsForRemove(size, cycles uint64) {
	if size > tp.totalTxSize {
		tp.log.Error("total_tx_size overflow by sub", "total", tp.totalTxSize, "sub", size)
		tp.totalTxSize = 0
	} else {
		tp.totalTxSize -= size
	}
	if cycles > tp.totalTxCycles {
		tp.log.Error("total_tx_cycles overflow by sub", "total", tp.totalTxCycles, "sub", cycles)
		tp.totalTxCycles = 0
	} else {
		tp.totalTxCycles -= cycles
	}
	tp.reportSizeMetrics()
}

// reportSizeMetrics pushes the current totals onto the go-ethereum metrics
// registry; called under mu by updateStaticsForAdd and
// updateStaticsForRemove.
func (tp *TxPool) reportSizeMetrics() {
	metrics.PoolSize.Update(int64(tp.poolMap.Size()))
	metrics.PendingSize.Update(int64(tp.poolMap.PendingSize()))
	metrics.ProposedSize.Update(int64(tp.poolMap.ProposedSize()))
	metrics.GapSize.Update(int64(tp.poolMap.Size() - tp.poolMap.PendingSize() - tp.poolMap.ProposedSize()))
	metrics.TotalTxSize.Update(int64(tp.totalTxSize))
	metrics.TotalTxCycles.Update(int64(tp.totalTxCycles))
}

// StatusSize returns the number of entries with the given status.
func (tp *TxPool) StatusSize(status pool.Status) int {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	n := 0
	tp.poolMap.Iter(func(pe *pool.PoolEntry) bool {
		if pe.Status == status {
			n++
		}
		return true
	})
	return n
}

// Size returns the total number of entries in the pool.
func (tp *TxPool) Size() int {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.poolMap.Size()
}

// Get returns the entry for id, if present.
func (tp *TxPool) Get(id pool.ShortID) (*pool.TxEntry, bool) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.poolMap.Get(id)
}
