// Package reject defines the pool's rejection taxonomy (spec §7). It is
// kept separate from both package pool and the txpool facade so that either
// can construct and return a Reject without an import cycle.
package reject

import "fmt"

// Kind discriminates the reason a transaction was rejected or evicted.
type Kind int

const (
	LowFeeRate Kind = iota
	ExceededTransactionSizeLimit
	Full
	Duplicated
	Malformed
	Resolve
	ExceededMaximumAncestorsCount
	Expiry
	RBFRejected
	Verification
)

func (k Kind) String() string {
	switch k {
	case LowFeeRate:
		return "LowFeeRate"
	case ExceededTransactionSizeLimit:
		return "ExceededTransactionSizeLimit"
	case Full:
		return "Full"
	case Duplicated:
		return "Duplicated"
	case Malformed:
		return "Malformed"
	case Resolve:
		return "Resolve"
	case ExceededMaximumAncestorsCount:
		return "ExceededMaximumAncestorsCount"
	case Expiry:
		return "Expiry"
	case RBFRejected:
		return "RBFRejected"
	case Verification:
		return "Verification"
	default:
		return "Unknown"
	}
}

// OutPointErrorKind discriminates cell-resolution failures (spec §7,
// Resolve(OutPointError)).
type OutPointErrorKind int

const (
	Dead OutPointErrorKind = iota
	Unknown
	InvalidHeader
	OutOfOrder
)

func (k OutPointErrorKind) String() string {
	switch k {
	case Dead:
		return "Dead"
	case Unknown:
		return "Unknown"
	case InvalidHeader:
		return "InvalidHeader"
	case OutOfOrder:
		return "OutOfOrder"
	default:
		return "Unknown"
	}
}

// Reject is the closed error type returned to submitters and reject
// callbacks. It implements error so it can be returned/wrapped idiomatically
// while still exposing Kind() for callers that branch on the taxonomy.
type Reject struct {
	kind      Kind
	detail    string
	opKind    OutPointErrorKind
	hasOpKind bool
	timestamp int64
}

func (r *Reject) Error() string {
	if r.detail != "" {
		return fmt.Sprintf("%s: %s", r.kind, r.detail)
	}
	return r.kind.String()
}

// Kind returns the reject taxonomy entry.
func (r *Reject) Kind() Kind { return r.kind }

// OutPointErrorKind returns the resolve-failure sub-kind, valid only when
// Kind() == Resolve.
func (r *Reject) OutPointErrorKind() (OutPointErrorKind, bool) { return r.opKind, r.hasOpKind }

// Timestamp returns the expiry timestamp, valid only when Kind() == Expiry.
func (r *Reject) Timestamp() int64 { return r.timestamp }

func New(kind Kind, detail string) *Reject { return &Reject{kind: kind, detail: detail} }

func NewLowFeeRate(detail string) *Reject { return New(LowFeeRate, detail) }

func NewExceededTransactionSizeLimit(detail string) *Reject {
	return New(ExceededTransactionSizeLimit, detail)
}

func NewFull(detail string) *Reject { return New(Full, detail) }

func NewDuplicated(detail string) *Reject { return New(Duplicated, detail) }

func NewMalformed(detail string) *Reject { return New(Malformed, detail) }

func NewResolve(opKind OutPointErrorKind, detail string) *Reject {
	return &Reject{kind: Resolve, opKind: opKind, hasOpKind: true, detail: detail}
}

func NewExceededMaximumAncestorsCount() *Reject {
	return New(ExceededMaximumAncestorsCount, "exceeded maximum ancestors count")
}

func NewExpiry(timestamp int64) *Reject {
	return &Reject{kind: Expiry, timestamp: timestamp, detail: fmt.Sprintf("expired since %d", timestamp)}
}

func NewRBFRejected(detail string) *Reject { return New(RBFRejected, detail) }

func NewVerification(detail string) *Reject { return New(Verification, detail) }
