package audithook

// Action constants for audit events.
const (
	// Deposit actions
	ActionDepositAccepted = "deposit.accepted"

	// Withdrawal actions
	ActionWithdrawalRequested = "withdrawal.requested"
	ActionWithdrawalCanceled  = "withdrawal.canceled"
	ActionWithdrawalFulfilled = "withdrawal.fulfilled"
	ActionWithdrawalForced    = "withdrawal.forced"
	ActionLiquidityShortfall  = "liquidity.shortfall"

	// Yield and fee actions
	ActionYieldReported = "yield.reported"
	ActionFeeCollected  = "fee.collected"
	ActionHWMReset      = "fee.hwm_reset"
	ActionOrphanSwept   = "escrow.orphans_swept"

	// Governance actions
	ActionParamChangeQueued   = "param.queued"
	ActionParamChangeExecuted = "param.executed"
	ActionParamChangeCanceled = "param.canceled"

	// Fault actions
	ActionInvariantFault = "invariant.fault"
)

// Resource constants for audit events.
const (
	ResourceDeposit     = "deposit"
	ResourceWithdrawal  = "withdrawal"
	ResourceYield       = "yield"
	ResourceFee         = "fee"
	ResourceEscrow      = "escrow"
	ResourceParamChange = "param_change"
	ResourceLedger      = "ledger"
)

// Category constants for audit events.
const (
	CategoryAccounting = "accounting"
	CategoryLiquidity  = "liquidity"
	CategoryGovernance = "governance"
	CategoryFault      = "fault"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
