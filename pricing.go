package vault

import (
	"cosmossdk.io/math"

	"github.com/xraph/vault/state"
	"github.com/xraph/vault/types"
)

// Pricing is a pure function of ledger state at call time. Nothing is
// cached, so every deposit, fulfillment and fee operation observes a fully
// up-to-date price.

// sharePrice returns the value of one whole share, Precision-scaled. While
// supply is zero it is the fixed initial price constant.
func sharePrice(st *state.State) math.Int {
	if st.TotalShares.IsZero() {
		return InitialSharePrice
	}
	return types.MulDiv(st.TotalAssets(), Precision, st.TotalShares)
}

// valueToShares converts a value amount to shares, rounding toward zero.
// Flooring always favors the ledger over the counterparty, which blocks
// dust-amplification attacks.
func valueToShares(st *state.State, value math.Int) (math.Int, error) {
	if st.TotalShares.IsZero() {
		return types.MulDiv(value, Precision, InitialSharePrice), nil
	}

	assets := st.TotalAssets()
	if assets.IsZero() {
		// Shares outstanding against zero NAV: any deposit would mint
		// unbounded shares. Refuse rather than corrupt accounting.
		return math.ZeroInt(), ErrVaultInsolvent
	}
	return types.MulDiv(value, st.TotalShares, assets), nil
}

// sharesToValue converts shares to a value amount, rounding toward zero.
func sharesToValue(st *state.State, shares math.Int) math.Int {
	if st.TotalShares.IsZero() {
		return types.MulDiv(shares, InitialSharePrice, Precision)
	}
	return types.MulDiv(shares, st.TotalAssets(), st.TotalShares)
}
