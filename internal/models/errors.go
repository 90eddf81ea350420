package models

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable means no quote could be obtained after provider-level
// retries. Callers must treat it as "skip this cycle", never as a zero price.
var ErrDataUnavailable = errors.New("market data unavailable")

// ErrAdvisorUnavailable covers any advisor failure: transport errors, timeouts,
// quota exhaustion, or a malformed response. The executor treats it as HOLD.
var ErrAdvisorUnavailable = errors.New("advisor unavailable")

// ErrLedgerCommit indicates a storage fault during commit. The portfolio is
// left in its pre-trade state; the cycle is retried on the next tick.
var ErrLedgerCommit = errors.New("ledger commit failed")

// RiskDeniedError is an expected business outcome, not a system error. It is
// always recorded as a REJECTED trade.
type RiskDeniedError struct {
	Reason RejectionReason
}

func (e *RiskDeniedError) Error() string {
	return fmt.Sprintf("risk denied: %s", e.Reason)
}

// AsRiskDenied unwraps err into a RiskDeniedError if it is one.
func AsRiskDenied(err error) (*RiskDeniedError, bool) {
	var rd *RiskDeniedError
	if errors.As(err, &rd) {
		return rd, true
	}
	return nil, false
}
