package election

import (
	"fmt"
	"time"
)

// ============================================================================
// Election Error Codes
//
// A leaf error taxonomy with no internal dependencies, matching the
// CS Gateway's Outcome split: VersionMismatch and TransportError are
// not errors of this kind (they are Outcome values), but everything
// that warrants a typed, loggable error before a panic or a quiet
// demotion is represented here.
// ============================================================================

// ErrorCode identifies the class of election failure.
type ErrorCode int

const (
	// ErrSplitBrain means a CAS write to CURRENT was rejected, which
	// can only happen if another replica believed it also held the
	// lease and completed a promotion concurrently.
	ErrSplitBrain ErrorCode = iota
	// ErrEpochRegression means this replica computed a new epoch that
	// does not strictly exceed the epoch it observed, a violation of
	// the CURRENT record's monotonicity invariant.
	ErrEpochRegression
	// ErrParse means a CS record's payload could not be decoded.
	ErrParse
	// ErrSetup means the election core could not be constructed or
	// started (e.g. the CS rejected EnsurePath).
	ErrSetup
	// ErrDrainTimeout means the promotion queue did not drain an
	// in-flight or queued promotion job within its configured budget.
	ErrDrainTimeout
)

func (c ErrorCode) String() string {
	switch c {
	case ErrSplitBrain:
		return "split_brain"
	case ErrEpochRegression:
		return "epoch_regression"
	case ErrParse:
		return "parse_error"
	case ErrSetup:
		return "setup_error"
	case ErrDrainTimeout:
		return "drain_timeout"
	default:
		return "unknown"
	}
}

// Error is the typed error returned by election-core operations.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewSplitBrainError reports a rejected CURRENT write: CURRENT changed
// between this replica's read (which observed prevEpoch) and its CAS
// of attemptedEpoch.
func NewSplitBrainError(prevEpoch, attemptedEpoch int64) *Error {
	return &Error{
		Code:    ErrSplitBrain,
		Message: fmt.Sprintf("CURRENT publish rejected: observed epoch %d, attempted %d", prevEpoch, attemptedEpoch),
	}
}

// NewEpochRegressionError reports that a freshly-read epoch is not
// strictly less than the epoch this replica is about to publish.
func NewEpochRegressionError(prevEpoch, newEpoch int64) *Error {
	return &Error{
		Code:    ErrEpochRegression,
		Message: fmt.Sprintf("epoch did not advance: prev=%d new=%d", prevEpoch, newEpoch),
	}
}

// NewParseError reports a malformed CS record payload.
func NewParseError(detail string) *Error {
	return &Error{Code: ErrParse, Message: detail}
}

// NewSetupError reports a failure to initialise the election core.
func NewSetupError(detail string) *Error {
	return &Error{Code: ErrSetup, Message: detail}
}

// NewDrainTimeoutError reports that the promotion queue failed to
// drain within its budget.
func NewDrainTimeoutError(timeout time.Duration) *Error {
	return &Error{
		Code:    ErrDrainTimeout,
		Message: fmt.Sprintf("promotion queue did not drain within %s", timeout),
	}
}
