// Package metrics registers the pool's gauges/counters/timers on
// github.com/ethereum/go-ethereum/metrics (the same registry-and-naming
// pattern core/txpool/txpool.go uses for reservationsGaugeName), and bridges
// them to Prometheus the way the teacher's metrics_adapter.go wraps a
// prometheus.Registry — the teacher's own adapter targets its
// chain-specific luxmetric.Metrics interface, out of scope per this
// module's §1, so the bridge here goes straight through go-ethereum's own
// metrics/prometheus exporter instead.
package metrics

import (
	"net/http"

	gethmetrics "github.com/ethereum/go-ethereum/metrics"
	gethprometheus "github.com/ethereum/go-ethereum/metrics/prometheus"

	"github.com/ckb-go/txpool/txpool/reject"
)

var (
	PoolSize     = gethmetrics.NewRegisteredGauge("txpool/size", nil)
	PendingSize  = gethmetrics.NewRegisteredGauge("txpool/pending", nil)
	GapSize      = gethmetrics.NewRegisteredGauge("txpool/gap", nil)
	ProposedSize = gethmetrics.NewRegisteredGauge("txpool/proposed", nil)

	TotalTxSize   = gethmetrics.NewRegisteredGauge("txpool/total_size_bytes", nil)
	TotalTxCycles = gethmetrics.NewRegisteredGauge("txpool/total_cycles", nil)

	VerifyQueueDepth   = gethmetrics.NewRegisteredGauge("txpool/verify/queue_depth", nil)
	VerifyLatency      = gethmetrics.NewRegisteredTimer("txpool/verify/latency", nil)
	VerifyFailureCount = gethmetrics.NewRegisteredCounter("txpool/verify/failures", nil)

	rejectsByKind = map[reject.Kind]gethmetrics.Counter{
		reject.LowFeeRate:                    gethmetrics.NewRegisteredCounter("txpool/reject/low_fee_rate", nil),
		reject.ExceededTransactionSizeLimit:  gethmetrics.NewRegisteredCounter("txpool/reject/size_limit", nil),
		reject.Full:                          gethmetrics.NewRegisteredCounter("txpool/reject/full", nil),
		reject.Duplicated:                    gethmetrics.NewRegisteredCounter("txpool/reject/duplicated", nil),
		reject.Malformed:                     gethmetrics.NewRegisteredCounter("txpool/reject/malformed", nil),
		reject.Resolve:                       gethmetrics.NewRegisteredCounter("txpool/reject/resolve", nil),
		reject.ExceededMaximumAncestorsCount: gethmetrics.NewRegisteredCounter("txpool/reject/ancestor_cap", nil),
		reject.Expiry:                        gethmetrics.NewRegisteredCounter("txpool/reject/expiry", nil),
		reject.RBFRejected:                   gethmetrics.NewRegisteredCounter("txpool/reject/rbf", nil),
		reject.Verification:                  gethmetrics.NewRegisteredCounter("txpool/reject/verification", nil),
	}
)

// RecordReject increments the counter for r's kind, a no-op for an unknown
// kind (there shouldn't be one, since rejectsByKind is built from the full
// reject.Kind enum above).
func RecordReject(r *reject.Reject) {
	if r == nil {
		return
	}
	if c, ok := rejectsByKind[r.Kind()]; ok {
		c.Inc(1)
	}
}

// Handler exposes gethmetrics.DefaultRegistry in Prometheus text format.
func Handler() http.Handler {
	return gethprometheus.Handler(gethmetrics.DefaultRegistry)
}
