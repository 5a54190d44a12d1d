// Package observability provides a metrics extension for Vault that records
// lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/vault/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnDeposit             = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalRequested = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalCanceled  = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalFulfilled = (*MetricsExtension)(nil)
	_ plugin.OnLiquidityShortfall  = (*MetricsExtension)(nil)
	_ plugin.OnYieldReported       = (*MetricsExtension)(nil)
	_ plugin.OnFeeCollected        = (*MetricsExtension)(nil)
	_ plugin.OnHWMReset            = (*MetricsExtension)(nil)
	_ plugin.OnOrphanedSharesSwept = (*MetricsExtension)(nil)
	_ plugin.OnParamChangeQueued   = (*MetricsExtension)(nil)
	_ plugin.OnParamChangeExecuted = (*MetricsExtension)(nil)
	_ plugin.OnParamChangeCanceled = (*MetricsExtension)(nil)
	_ plugin.OnInvariantFault      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Vault plugin to automatically track ledger metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Deposit metrics
	Deposits      Counter
	DepositShares Histogram

	// Withdrawal metrics
	WithdrawalsRequested Counter
	WithdrawalsCanceled  Counter
	WithdrawalsFulfilled Counter
	WithdrawalsForced    Counter
	LiquidityShortfalls  Counter

	// Yield and fee metrics
	YieldReports  Counter
	YieldNegative Counter
	FeesCollected Counter
	HWMResets     Counter

	// Governance metrics
	ParamChangesQueued   Counter
	ParamChangesExecuted Counter
	ParamChangesCanceled Counter
	OrphanSweeps         Counter

	// Fault metrics
	InvariantFaults Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Deposit metrics
		Deposits:      factory.Counter("vault.deposit.accepted"),
		DepositShares: factory.Histogram("vault.deposit.shares"),

		// Withdrawal metrics
		WithdrawalsRequested: factory.Counter("vault.withdrawal.requested"),
		WithdrawalsCanceled:  factory.Counter("vault.withdrawal.canceled"),
		WithdrawalsFulfilled: factory.Counter("vault.withdrawal.fulfilled"),
		WithdrawalsForced:    factory.Counter("vault.withdrawal.forced"),
		LiquidityShortfalls:  factory.Counter("vault.liquidity.shortfalls"),

		// Yield and fee metrics
		YieldReports:  factory.Counter("vault.yield.reports"),
		YieldNegative: factory.Counter("vault.yield.reports.negative"),
		FeesCollected: factory.Counter("vault.fee.collected"),
		HWMResets:     factory.Counter("vault.fee.hwm.resets"),

		// Governance metrics
		ParamChangesQueued:   factory.Counter("vault.param.queued"),
		ParamChangesExecuted: factory.Counter("vault.param.executed"),
		ParamChangesCanceled: factory.Counter("vault.param.canceled"),
		OrphanSweeps:         factory.Counter("vault.escrow.orphan_sweeps"),

		// Fault metrics
		InvariantFaults: factory.Counter("vault.invariant.faults"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Deposit hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (m *MetricsExtension) OnDeposit(_ context.Context, evt plugin.DepositEvent) error {
	m.Deposits.Inc()
	f, err := evt.Shares.ToLegacyDec().Float64()
	if err == nil {
		m.DepositShares.Observe(f)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Withdrawal hooks
// ──────────────────────────────────────────────────

// OnWithdrawalRequested implements plugin.OnWithdrawalRequested.
func (m *MetricsExtension) OnWithdrawalRequested(_ context.Context, _ plugin.WithdrawalRequestedEvent) error {
	m.WithdrawalsRequested.Inc()
	return nil
}

// OnWithdrawalCanceled implements plugin.OnWithdrawalCanceled.
func (m *MetricsExtension) OnWithdrawalCanceled(_ context.Context, _ plugin.WithdrawalCanceledEvent) error {
	m.WithdrawalsCanceled.Inc()
	return nil
}

// OnWithdrawalFulfilled implements plugin.OnWithdrawalFulfilled.
func (m *MetricsExtension) OnWithdrawalFulfilled(_ context.Context, evt plugin.WithdrawalFulfilledEvent) error {
	m.WithdrawalsFulfilled.Inc()
	if evt.Forced {
		m.WithdrawalsForced.Inc()
	}
	return nil
}

// OnLiquidityShortfall implements plugin.OnLiquidityShortfall.
func (m *MetricsExtension) OnLiquidityShortfall(_ context.Context, _ plugin.LiquidityShortfallEvent) error {
	m.LiquidityShortfalls.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Yield and fee hooks
// ──────────────────────────────────────────────────

// OnYieldReported implements plugin.OnYieldReported.
func (m *MetricsExtension) OnYieldReported(_ context.Context, evt plugin.YieldReportedEvent) error {
	m.YieldReports.Inc()
	if evt.Delta.IsNegative() {
		m.YieldNegative.Inc()
	}
	return nil
}

// OnFeeCollected implements plugin.OnFeeCollected.
func (m *MetricsExtension) OnFeeCollected(_ context.Context, _ plugin.FeeCollectedEvent) error {
	m.FeesCollected.Inc()
	return nil
}

// OnHWMReset implements plugin.OnHWMReset.
func (m *MetricsExtension) OnHWMReset(_ context.Context, _ plugin.HWMResetEvent) error {
	m.HWMResets.Inc()
	return nil
}

// OnOrphanedSharesSwept implements plugin.OnOrphanedSharesSwept.
func (m *MetricsExtension) OnOrphanedSharesSwept(_ context.Context, _ plugin.OrphanedSharesSweptEvent) error {
	m.OrphanSweeps.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Governance hooks
// ──────────────────────────────────────────────────

// OnParamChangeQueued implements plugin.OnParamChangeQueued.
func (m *MetricsExtension) OnParamChangeQueued(_ context.Context, _ plugin.ParamChangeEvent) error {
	m.ParamChangesQueued.Inc()
	return nil
}

// OnParamChangeExecuted implements plugin.OnParamChangeExecuted.
func (m *MetricsExtension) OnParamChangeExecuted(_ context.Context, _ plugin.ParamChangeEvent) error {
	m.ParamChangesExecuted.Inc()
	return nil
}

// OnParamChangeCanceled implements plugin.OnParamChangeCanceled.
func (m *MetricsExtension) OnParamChangeCanceled(_ context.Context, _ plugin.ParamChangeEvent) error {
	m.ParamChangesCanceled.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Fault hooks
// ──────────────────────────────────────────────────

// OnInvariantFault implements plugin.OnInvariantFault.
func (m *MetricsExtension) OnInvariantFault(_ context.Context, _ plugin.InvariantFaultEvent) error {
	m.InvariantFaults.Inc()
	return nil
}
