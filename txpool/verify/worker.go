package verify

import (
	"context"

	"github.com/ckb-go/txpool/txpool/pool"
	"github.com/ckb-go/txpool/txpool/snapshot"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/semaphore"
)

// Result carries a completed verification back to the service task, which
// is the pool's sole mutator (spec §5). Workers never touch PoolMap
// directly; they hand Result values back through OnResult.
type Result struct {
	Tx     pool.Transaction
	Verify snapshot.VerifyResult
	Err    error
}

// OnResult is invoked once per processed queue entry, from the worker's own
// goroutine; implementations must perform their own synchronization (the
// txpool façade serializes these onto its own service loop channel rather
// than locking PoolMap directly from here).
type OnResult func(Result)

// Worker pops one entry from a shared VerifyQueue at a time, invokes the
// injected Verifier, and reports the outcome via onResult. Grounded on
// verify_mgr.rs's Worker::start/process_inner.
type Worker struct {
	id       int
	queue    *VerifyQueue
	command  *Watch[ChunkCommand]
	verifier snapshot.Verifier
	envFn    func() snapshot.Env
	maxCycles uint64
	onResult OnResult
	sem      *semaphore.Weighted
}

func newWorker(id int, queue *VerifyQueue, command *Watch[ChunkCommand], verifier snapshot.Verifier, envFn func() snapshot.Env, maxCycles uint64, onResult OnResult, sem *semaphore.Weighted) *Worker {
	return &Worker{
		id:        id,
		queue:     queue,
		command:   command,
		verifier:  verifier,
		envFn:     envFn,
		maxCycles: maxCycles,
		onResult:  onResult,
		sem:       sem,
	}
}

// Run drives the worker's state machine until ctx is cancelled or a Stop
// command is observed (spec §4.8). It returns nil in both cases; callers
// supervise it with errgroup.
func (w *Worker) Run(ctx context.Context) error {
	commandCh := w.command.Subscribe()
	status := <-commandCh
	readyCh := w.queue.Subscribe()

	for {
		switch status {
		case Resume:
			select {
			case status = <-commandCh:
			case n := <-readyCh:
				if n > 0 {
					w.processInner(ctx)
				}
			case <-ctx.Done():
				return nil
			}
		case Suspend:
			select {
			case status = <-commandCh:
			case <-ctx.Done():
				return nil
			}
		case Stop:
			return nil
		}
	}
}

// processInner pops one entry, if any, and runs it through the verifier.
func (w *Worker) processInner(ctx context.Context) {
	if _, ok := w.queue.Peek(); !ok {
		return
	}
	tx, ok := w.queue.PopFirst()
	if !ok {
		return
	}

	if w.sem != nil {
		if err := w.sem.Acquire(ctx, 1); err != nil {
			log.Warn("verify worker: semaphore acquire failed", "worker", w.id, "err", err)
			return
		}
		defer w.sem.Release(1)
	}

	rtx := snapshot.ResolvedTransaction{Transaction: tx, ResolvedIns: inputOutPoints(tx)}
	env := w.envFn()
	pause := pauseAdapter{watch: w.command}

	res, err := w.verifier.Verify(ctx, rtx, env, w.maxCycles, pause)
	w.onResult(Result{Tx: tx, Verify: res, Err: err})
}

func inputOutPoints(tx pool.Transaction) []pool.OutPoint {
	outs := make([]pool.OutPoint, len(tx.Inputs))
	for i, in := range tx.Inputs {
		outs[i] = in.PreviousOutput
	}
	return outs
}
