// Package state defines the persisted vault ledger scalars and operational
// parameters. The engine is the sole writer; everything here is plain data
// with derivation helpers that never mutate.
package state

import (
	"time"

	"cosmossdk.io/math"

	"github.com/xraph/vault/types"
)

// State is the complete scalar ledger record. A single row/document persists
// it; every operation reads it, derives a successor, and commits the
// successor atomically with the rest of the unit of work.
type State struct {
	types.Entity

	// Immutable identity, fixed at initialization.
	Denom        string `json:"denom"`
	Treasury     string `json:"treasury"`
	CustodyVenue string `json:"custody_venue"`

	// Accounting accumulators. TotalAssets is derived, never stored.
	TotalDeposited   math.Int `json:"total_deposited"`
	TotalWithdrawn   math.Int `json:"total_withdrawn"`
	AccumulatedYield math.Int `json:"accumulated_yield"` // signed
	TotalShares      math.Int `json:"total_shares"`

	// Withdrawal queue scalars. Head only moves forward; NextSeq is the
	// append cursor, so Head <= NextSeq always.
	Head                    uint64   `json:"head"`
	NextSeq                 uint64   `json:"next_seq"`
	PendingWithdrawalShares math.Int `json:"pending_withdrawal_shares"`

	// Liquidity held locally (not deployed to the custody venue).
	BufferBalance math.Int `json:"buffer_balance"`

	// Fee baseline: highest share price at which fees have been assessed.
	PriceHWM math.Int `json:"price_hwm"`

	// Timestamp of the last accepted yield report.
	LastYieldReport time.Time `json:"last_yield_report"`

	Params Params `json:"params"`
}

// Params are the mutable operational parameters. Caps, the buffer target and
// the yield bound change immediately; FeeRate, CooldownPeriod and the
// identity addresses only change through the timelock pipeline.
type Params struct {
	// FeeRate is the Precision-scaled performance fee fraction.
	FeeRate math.Int `json:"fee_rate"`

	// CooldownPeriod is the minimum wait between a withdrawal request and
	// its eligibility for fulfillment. Fulfillment always checks the
	// current value, not a per-request snapshot.
	CooldownPeriod time.Duration `json:"cooldown_period"`

	// UserCap bounds the value of a single holder's position; zero means
	// unlimited.
	UserCap math.Int `json:"user_cap"`

	// GlobalCap bounds total assets under management; zero means unlimited.
	GlobalCap math.Int `json:"global_cap"`

	// LiquidityBufferTarget is the value amount kept locally instead of
	// being deployed to the custody venue.
	LiquidityBufferTarget math.Int `json:"liquidity_buffer_target"`

	// MaxYieldChange is the Precision-scaled per-report bound on |delta|
	// relative to current NAV; zero disables the bound.
	MaxYieldChange math.Int `json:"max_yield_change"`
}

// New returns an initialized State with zeroed accumulators.
func New(denom, treasury, custodyVenue string, params Params) *State {
	return &State{
		Entity:                  types.NewEntity(),
		Denom:                   denom,
		Treasury:                treasury,
		CustodyVenue:            custodyVenue,
		TotalDeposited:          math.ZeroInt(),
		TotalWithdrawn:          math.ZeroInt(),
		AccumulatedYield:        math.ZeroInt(),
		TotalShares:             math.ZeroInt(),
		PendingWithdrawalShares: math.ZeroInt(),
		BufferBalance:           math.ZeroInt(),
		PriceHWM:                types.Precision,
		Params:                  params,
	}
}

// DefaultParams returns conservative operating parameters: a 10% performance
// fee, 24h cooldown, unlimited caps, no local buffer and a 10% yield bound.
func DefaultParams() Params {
	return Params{
		FeeRate:               types.Rate(1, 1),
		CooldownPeriod:        24 * time.Hour,
		UserCap:               math.ZeroInt(),
		GlobalCap:             math.ZeroInt(),
		LiquidityBufferTarget: math.ZeroInt(),
		MaxYieldChange:        types.Rate(1, 1),
	}
}

// TotalAssets is the NAV backing outstanding shares:
// max(0, deposited - withdrawn + yield). Clamped so deeply negative reported
// yield can never produce a negative NAV.
func (s *State) TotalAssets() math.Int {
	return types.ClampZero(s.TotalDeposited.Sub(s.TotalWithdrawn).Add(s.AccumulatedYield))
}

// QueueLength returns the number of requests ever appended.
func (s *State) QueueLength() uint64 { return s.NextSeq }

// Clone returns a deep copy safe for speculative mutation.
func (s *State) Clone() *State {
	cp := *s
	return &cp
}
