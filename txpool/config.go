package txpool

// Config recognizes the options spec.md §6 names. It has no file/env/flag
// binding itself — internal/config loads one of these via viper and hands
// it to New.
type Config struct {
	// MaxTxPoolSize is the total-size cap in bytes.
	MaxTxPoolSize uint64
	// MaxAncestorsCount bounds an entry's ancestor count (itself included),
	// checked when the entry moves into Proposed. Descendant counts are not
	// bounded.
	MaxAncestorsCount uint64
	// MinFeeRate is the admission floor, fee per byte.
	MinFeeRate uint64
	// MinRBFRate is the RBF floor, fee per byte. RBF is enabled iff
	// MinRBFRate > MinFeeRate.
	MinRBFRate uint64
	// ExpiryHours converts to milliseconds internally.
	ExpiryHours uint64
	// RecentRejectPath, if non-empty, enables the persistent reject-hash
	// ring at that path.
	RecentRejectPath string
	// KeepRejectedTxHashesDays bounds the reject ring's time window.
	KeepRejectedTxHashesDays uint64
	// KeepRejectedTxHashesCount bounds the reject ring's entry count.
	KeepRejectedTxHashesCount uint64
	// MaxConflictSetSize is rule 3's bound on |conflict_set ∪ descendants|,
	// 100 per spec.md §4.5 rule 3.
	MaxConflictSetSize int
	// Workers overrides the verify worker fleet size; 0 means
	// runtime.NumCPU() (spec §4.8).
	Workers int
	// SubmitRatePerSecond throttles Submit, 0 disables limiting. Guards the
	// verify queue's fixed cap against a burst of submissions arriving
	// faster than the worker fleet can drain them.
	SubmitRatePerSecond float64
	// SubmitBurst is the limiter's burst size; ignored when
	// SubmitRatePerSecond is 0.
	SubmitBurst int
}

// DefaultMaxConflictSetSize is spec.md §4.5 rule 3's literal bound.
const DefaultMaxConflictSetSize = 100

// RBFEnabled reports whether MinRBFRate > MinFeeRate (spec.md §6).
func (c Config) RBFEnabled() bool { return c.MinRBFRate > c.MinFeeRate }

// ExpiryMillis converts ExpiryHours to the millisecond unit TxEntry uses.
func (c Config) ExpiryMillis() int64 { return int64(c.ExpiryHours) * 60 * 60 * 1000 }

// conflictSetSize returns MaxConflictSetSize, defaulting when unset.
func (c Config) conflictSetSize() int {
	if c.MaxConflictSetSize > 0 {
		return c.MaxConflictSetSize
	}
	return DefaultMaxConflictSetSize
}
