package vault

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios. Input and authorization
// errors fail a single operation cleanly with no state mutation; they are
// caller-correctable and never indicate broken accounting.
var (
	// General errors
	ErrNotFound     = errors.New("vault: not found")
	ErrInvalidInput = errors.New("vault: invalid input")
	ErrUnauthorized = errors.New("vault: unauthorized")

	// Input errors
	ErrInvalidAmount      = errors.New("vault: amount must be positive")
	ErrZeroShares         = errors.New("vault: deposit would mint zero shares")
	ErrUserCapExceeded    = errors.New("vault: per-user cap exceeded")
	ErrGlobalCapExceeded  = errors.New("vault: global cap exceeded")
	ErrInsufficientShares = errors.New("vault: insufficient share balance")
	ErrTooManyPending     = errors.New("vault: too many pending withdrawal requests")
	ErrRequestNotFound    = errors.New("vault: withdrawal request not found")
	ErrRequestResolved    = errors.New("vault: withdrawal request already resolved")
	ErrCancelWindowClosed = errors.New("vault: cancellation window has closed")
	ErrAccountNotFound    = errors.New("vault: account not found")

	// Yield and fee errors
	ErrYieldBoundExceeded = errors.New("vault: yield delta exceeds configured bound")
	ErrVaultInsolvent     = errors.New("vault: share supply outstanding against zero assets")

	// Parameter change errors
	ErrUnknownParam       = errors.New("vault: unknown parameter")
	ErrInvalidParamValue  = errors.New("vault: invalid parameter value")
	ErrFeeRateTooHigh     = errors.New("vault: fee rate above maximum")
	ErrChangeNotFound     = errors.New("vault: parameter change not found")
	ErrChangeResolved     = errors.New("vault: parameter change already resolved")
	ErrTimelockNotElapsed = errors.New("vault: timelock delay has not elapsed")

	// Authorization / pause errors
	ErrPaused            = errors.New("vault: operations paused")
	ErrDepositsPaused    = errors.New("vault: deposits paused")
	ErrWithdrawalsPaused = errors.New("vault: withdrawals paused")
	ErrReentrantCall     = errors.New("vault: re-entrant call rejected")

	// Policy errors
	ErrInsufficientLiquidity = errors.New("vault: insufficient liquidity for payout")

	// Store errors
	ErrStateNotInitialized = errors.New("vault: ledger state not initialized")
	ErrStoreClosed         = errors.New("vault: store is closed")
	ErrNotStarted          = errors.New("vault: engine not started")
)

// ErrInvariantViolation is the root of the fatal fault channel. It is never
// returned for caller mistakes; observing it means the accounting logic
// itself is defective and an operator should be paged.
var ErrInvariantViolation = errors.New("vault: invariant violation")

// Fault is the fatal-fault type for invariant violations, distinct from the
// ordinary typed-error channel so tests and operators can distinguish "bad
// input" from "the accounting is broken". A Fault aborts the unit of work
// before anything is committed.
type Fault struct {
	Invariant string // short invariant name, e.g. "escrow-coverage"
	Detail    string
	Operation string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("vault: invariant violation [%s] in %s: %s", f.Invariant, f.Operation, f.Detail)
}

// Unwrap makes errors.Is(err, ErrInvariantViolation) work.
func (f *Fault) Unwrap() error { return ErrInvariantViolation }

// IsFault reports whether err is (or wraps) an invariant violation.
func IsFault(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// IsNotFound reports whether the error is any of the not-found family.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrChangeNotFound) ||
		errors.Is(err, ErrStateNotInitialized)
}

// IsAuthorizationError reports whether the error is a capability or pause
// rejection.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrPaused) ||
		errors.Is(err, ErrDepositsPaused) ||
		errors.Is(err, ErrWithdrawalsPaused) ||
		errors.Is(err, ErrReentrantCall)
}

// IsInputError reports whether the error is caller-correctable.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrZeroShares) ||
		errors.Is(err, ErrUserCapExceeded) ||
		errors.Is(err, ErrGlobalCapExceeded) ||
		errors.Is(err, ErrInsufficientShares) ||
		errors.Is(err, ErrTooManyPending) ||
		errors.Is(err, ErrRequestResolved) ||
		errors.Is(err, ErrCancelWindowClosed) ||
		errors.Is(err, ErrYieldBoundExceeded) ||
		errors.Is(err, ErrInvalidParamValue) ||
		errors.Is(err, ErrUnknownParam) ||
		errors.Is(err, ErrFeeRateTooHigh) ||
		errors.Is(err, ErrChangeResolved) ||
		errors.Is(err, ErrTimelockNotElapsed)
}
