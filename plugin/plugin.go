// Package plugin provides an extensible plugin system for Vault.
// Plugins can hook into ledger lifecycle events to extend functionality:
// metrics, audit trails, notifications, external reconciliation.
package plugin

import (
	"context"
	"time"

	"cosmossdk.io/math"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Event payloads
// ──────────────────────────────────────────────────

// DepositEvent is emitted after a successful deposit.
type DepositEvent struct {
	Depositor string
	Amount    math.Int
	Shares    math.Int
	Price     math.Int
	At        time.Time
}

// WithdrawalRequestedEvent is emitted after shares are escrowed and a
// request is appended to the queue.
type WithdrawalRequestedEvent struct {
	Seq       uint64
	RequestID string
	Requester string
	Shares    math.Int
	At        time.Time
}

// WithdrawalCanceledEvent is emitted when escrowed shares are returned.
type WithdrawalCanceledEvent struct {
	Seq       uint64
	Requester string
	Shares    math.Int
	ByOwner   bool
	At        time.Time
}

// WithdrawalFulfilledEvent is emitted per fulfilled request, both for FIFO
// batch processing and for forced out-of-order processing.
type WithdrawalFulfilledEvent struct {
	Seq       uint64
	Requester string
	Shares    math.Int
	Paid      math.Int
	Price     math.Int
	Forced    bool
	At        time.Time
}

// LiquidityShortfallEvent is emitted when batch fulfillment stops early
// because the buffer and the custody venue together could not cover the
// next payout. This is policy degradation, not an error.
type LiquidityShortfallEvent struct {
	Seq       uint64
	Needed    math.Int
	Available math.Int
	At        time.Time
}

// YieldReportedEvent is emitted after a yield delta is applied.
type YieldReportedEvent struct {
	Delta math.Int
	NAV   math.Int
	Price math.Int
	At    time.Time
}

// FeeCollectedEvent is emitted when performance fee shares are minted.
type FeeCollectedEvent struct {
	Fee       math.Int
	FeeShares math.Int
	Treasury  string
	Price     math.Int
	PriceHWM  math.Int
	At        time.Time
}

// HWMResetEvent is emitted by the owner emergency high-water-mark reset.
type HWMResetEvent struct {
	OldHWM math.Int
	NewHWM math.Int
	At     time.Time
}

// OrphanedSharesSweptEvent is emitted when donated escrow excess is burned.
type OrphanedSharesSweptEvent struct {
	Shares math.Int
	At     time.Time
}

// ParamChangeEvent describes a timelocked parameter change transition.
type ParamChangeEvent struct {
	ChangeID string
	Kind     string
	Value    string
	ETA      time.Time
	At       time.Time
}

// InvariantFaultEvent is emitted when a post-operation invariant check
// fails. This indicates a logic defect, never user error, and should page
// an operator.
type InvariantFaultEvent struct {
	Invariant string
	Detail    string
	Operation string
	At        time.Time
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, vault interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger operation hooks
// ──────────────────────────────────────────────────

// OnDeposit is called after a successful deposit.
type OnDeposit interface {
	Plugin
	OnDeposit(ctx context.Context, evt DepositEvent) error
}

// OnWithdrawalRequested is called after a withdrawal request is enqueued.
type OnWithdrawalRequested interface {
	Plugin
	OnWithdrawalRequested(ctx context.Context, evt WithdrawalRequestedEvent) error
}

// OnWithdrawalCanceled is called after a withdrawal request is canceled.
type OnWithdrawalCanceled interface {
	Plugin
	OnWithdrawalCanceled(ctx context.Context, evt WithdrawalCanceledEvent) error
}

// OnWithdrawalFulfilled is called for each fulfilled request.
type OnWithdrawalFulfilled interface {
	Plugin
	OnWithdrawalFulfilled(ctx context.Context, evt WithdrawalFulfilledEvent) error
}

// OnLiquidityShortfall is called when batch fulfillment degrades gracefully.
type OnLiquidityShortfall interface {
	Plugin
	OnLiquidityShortfall(ctx context.Context, evt LiquidityShortfallEvent) error
}

// OnYieldReported is called after a yield delta is applied.
type OnYieldReported interface {
	Plugin
	OnYieldReported(ctx context.Context, evt YieldReportedEvent) error
}

// OnFeeCollected is called when performance fee shares are minted.
type OnFeeCollected interface {
	Plugin
	OnFeeCollected(ctx context.Context, evt FeeCollectedEvent) error
}

// OnHWMReset is called after an owner high-water-mark reset.
type OnHWMReset interface {
	Plugin
	OnHWMReset(ctx context.Context, evt HWMResetEvent) error
}

// OnOrphanedSharesSwept is called after donated escrow shares are burned.
type OnOrphanedSharesSwept interface {
	Plugin
	OnOrphanedSharesSwept(ctx context.Context, evt OrphanedSharesSweptEvent) error
}

// ──────────────────────────────────────────────────
// Governance hooks
// ──────────────────────────────────────────────────

// OnParamChangeQueued is called when a timelocked change is queued.
type OnParamChangeQueued interface {
	Plugin
	OnParamChangeQueued(ctx context.Context, evt ParamChangeEvent) error
}

// OnParamChangeExecuted is called when a timelocked change takes effect.
type OnParamChangeExecuted interface {
	Plugin
	OnParamChangeExecuted(ctx context.Context, evt ParamChangeEvent) error
}

// OnParamChangeCanceled is called when a queued change is canceled.
type OnParamChangeCanceled interface {
	Plugin
	OnParamChangeCanceled(ctx context.Context, evt ParamChangeEvent) error
}

// ──────────────────────────────────────────────────
// Fault hook
// ──────────────────────────────────────────────────

// OnInvariantFault is called when the accounting is detected broken.
type OnInvariantFault interface {
	Plugin
	OnInvariantFault(ctx context.Context, evt InvariantFaultEvent) error
}
