// Package audithook bridges Vault lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/vault/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnDeposit             = (*Extension)(nil)
	_ plugin.OnWithdrawalRequested = (*Extension)(nil)
	_ plugin.OnWithdrawalCanceled  = (*Extension)(nil)
	_ plugin.OnWithdrawalFulfilled = (*Extension)(nil)
	_ plugin.OnLiquidityShortfall  = (*Extension)(nil)
	_ plugin.OnYieldReported       = (*Extension)(nil)
	_ plugin.OnFeeCollected        = (*Extension)(nil)
	_ plugin.OnHWMReset            = (*Extension)(nil)
	_ plugin.OnOrphanedSharesSwept = (*Extension)(nil)
	_ plugin.OnParamChangeQueued   = (*Extension)(nil)
	_ plugin.OnParamChangeExecuted = (*Extension)(nil)
	_ plugin.OnParamChangeCanceled = (*Extension)(nil)
	_ plugin.OnInvariantFault      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly; callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Vault lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Deposit hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (e *Extension) OnDeposit(ctx context.Context, evt plugin.DepositEvent) error {
	return e.record(ctx, ActionDepositAccepted, SeverityInfo, OutcomeSuccess,
		ResourceDeposit, evt.Depositor, CategoryAccounting, nil,
		"depositor", evt.Depositor,
		"amount", evt.Amount.String(),
		"shares", evt.Shares.String(),
		"price", evt.Price.String(),
	)
}

// ──────────────────────────────────────────────────
// Withdrawal hooks
// ──────────────────────────────────────────────────

// OnWithdrawalRequested implements plugin.OnWithdrawalRequested.
func (e *Extension) OnWithdrawalRequested(ctx context.Context, evt plugin.WithdrawalRequestedEvent) error {
	return e.record(ctx, ActionWithdrawalRequested, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, evt.RequestID, CategoryAccounting, nil,
		"seq", evt.Seq,
		"requester", evt.Requester,
		"shares", evt.Shares.String(),
	)
}

// OnWithdrawalCanceled implements plugin.OnWithdrawalCanceled.
func (e *Extension) OnWithdrawalCanceled(ctx context.Context, evt plugin.WithdrawalCanceledEvent) error {
	return e.record(ctx, ActionWithdrawalCanceled, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, fmt.Sprintf("%d", evt.Seq), CategoryAccounting, nil,
		"seq", evt.Seq,
		"requester", evt.Requester,
		"shares", evt.Shares.String(),
		"by_owner", evt.ByOwner,
	)
}

// OnWithdrawalFulfilled implements plugin.OnWithdrawalFulfilled.
func (e *Extension) OnWithdrawalFulfilled(ctx context.Context, evt plugin.WithdrawalFulfilledEvent) error {
	action := ActionWithdrawalFulfilled
	if evt.Forced {
		action = ActionWithdrawalForced
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, fmt.Sprintf("%d", evt.Seq), CategoryAccounting, nil,
		"seq", evt.Seq,
		"requester", evt.Requester,
		"shares", evt.Shares.String(),
		"paid", evt.Paid.String(),
		"price", evt.Price.String(),
		"forced", evt.Forced,
	)
}

// OnLiquidityShortfall implements plugin.OnLiquidityShortfall.
func (e *Extension) OnLiquidityShortfall(ctx context.Context, evt plugin.LiquidityShortfallEvent) error {
	return e.record(ctx, ActionLiquidityShortfall, SeverityWarning, OutcomePartial,
		ResourceWithdrawal, fmt.Sprintf("%d", evt.Seq), CategoryLiquidity, nil,
		"seq", evt.Seq,
		"needed", evt.Needed.String(),
		"available", evt.Available.String(),
	)
}

// ──────────────────────────────────────────────────
// Yield and fee hooks
// ──────────────────────────────────────────────────

// OnYieldReported implements plugin.OnYieldReported.
func (e *Extension) OnYieldReported(ctx context.Context, evt plugin.YieldReportedEvent) error {
	severity := SeverityInfo
	if evt.Delta.IsNegative() {
		severity = SeverityWarning
	}
	return e.record(ctx, ActionYieldReported, severity, OutcomeSuccess,
		ResourceYield, "", CategoryAccounting, nil,
		"delta", evt.Delta.String(),
		"nav", evt.NAV.String(),
		"price", evt.Price.String(),
	)
}

// OnFeeCollected implements plugin.OnFeeCollected.
func (e *Extension) OnFeeCollected(ctx context.Context, evt plugin.FeeCollectedEvent) error {
	return e.record(ctx, ActionFeeCollected, SeverityInfo, OutcomeSuccess,
		ResourceFee, evt.Treasury, CategoryAccounting, nil,
		"fee", evt.Fee.String(),
		"fee_shares", evt.FeeShares.String(),
		"treasury", evt.Treasury,
		"price", evt.Price.String(),
		"price_hwm", evt.PriceHWM.String(),
	)
}

// OnHWMReset implements plugin.OnHWMReset.
func (e *Extension) OnHWMReset(ctx context.Context, evt plugin.HWMResetEvent) error {
	return e.record(ctx, ActionHWMReset, SeverityWarning, OutcomeSuccess,
		ResourceFee, "", CategoryGovernance, nil,
		"old_hwm", evt.OldHWM.String(),
		"new_hwm", evt.NewHWM.String(),
	)
}

// OnOrphanedSharesSwept implements plugin.OnOrphanedSharesSwept.
func (e *Extension) OnOrphanedSharesSwept(ctx context.Context, evt plugin.OrphanedSharesSweptEvent) error {
	return e.record(ctx, ActionOrphanSwept, SeverityInfo, OutcomeSuccess,
		ResourceEscrow, "", CategoryAccounting, nil,
		"shares", evt.Shares.String(),
	)
}

// ──────────────────────────────────────────────────
// Governance hooks
// ──────────────────────────────────────────────────

// OnParamChangeQueued implements plugin.OnParamChangeQueued.
func (e *Extension) OnParamChangeQueued(ctx context.Context, evt plugin.ParamChangeEvent) error {
	return e.record(ctx, ActionParamChangeQueued, SeverityInfo, OutcomeSuccess,
		ResourceParamChange, evt.ChangeID, CategoryGovernance, nil,
		"kind", evt.Kind,
		"value", evt.Value,
		"eta", evt.ETA,
	)
}

// OnParamChangeExecuted implements plugin.OnParamChangeExecuted.
func (e *Extension) OnParamChangeExecuted(ctx context.Context, evt plugin.ParamChangeEvent) error {
	return e.record(ctx, ActionParamChangeExecuted, SeverityInfo, OutcomeSuccess,
		ResourceParamChange, evt.ChangeID, CategoryGovernance, nil,
		"kind", evt.Kind,
		"value", evt.Value,
	)
}

// OnParamChangeCanceled implements plugin.OnParamChangeCanceled.
func (e *Extension) OnParamChangeCanceled(ctx context.Context, evt plugin.ParamChangeEvent) error {
	return e.record(ctx, ActionParamChangeCanceled, SeverityInfo, OutcomeSuccess,
		ResourceParamChange, evt.ChangeID, CategoryGovernance, nil,
		"kind", evt.Kind,
	)
}

// ──────────────────────────────────────────────────
// Fault hooks
// ──────────────────────────────────────────────────

// OnInvariantFault implements plugin.OnInvariantFault.
func (e *Extension) OnInvariantFault(ctx context.Context, evt plugin.InvariantFaultEvent) error {
	return e.record(ctx, ActionInvariantFault, SeverityCritical, OutcomeFailure,
		ResourceLedger, "", CategoryFault, nil,
		"invariant", evt.Invariant,
		"detail", evt.Detail,
		"operation", evt.Operation,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
