package vault

import (
	"context"

	"cosmossdk.io/math"

	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/types"
)

// ReportYieldAndCollectFees applies a signed yield delta from the custody
// venue and, when the post-yield share price exceeds the high-water mark,
// mints performance fee shares to the treasury. Returns the minted fee
// shares (zero when no fee applied). Owner-only: yield reports reprice every
// holder's shares, so the operator role deliberately cannot call this.
//
// The delta is bounded to MaxYieldChange of pre-report assets per call.
// Fees are charged on the profit above the high-water mark only, and the
// mark advances to the post-yield price so the same gain is never charged
// twice. Losses never mint fees and never move the mark down.
func (v *Vault) ReportYieldAndCollectFees(ctx context.Context, caller string, delta math.Int) (math.Int, error) {
	unlock, err := v.guardEntry()
	if err != nil {
		return math.ZeroInt(), err
	}
	defer unlock()

	if caller != v.auth.Owner() {
		return math.ZeroInt(), ErrUnauthorized
	}
	if v.auth.Paused() {
		return math.ZeroInt(), ErrPaused
	}
	if delta.IsNil() || delta.IsZero() {
		return math.ZeroInt(), ErrInvalidAmount
	}

	u, err := v.begin(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}

	assets := u.st.TotalAssets()
	if u.st.Params.MaxYieldChange.IsPositive() {
		bound := types.MulDiv(assets, u.st.Params.MaxYieldChange, types.Precision)
		if delta.Abs().GT(bound) {
			return math.ZeroInt(), ErrYieldBoundExceeded
		}
	}
	if delta.IsNegative() && delta.Neg().GT(assets) {
		return math.ZeroInt(), ErrVaultInsolvent
	}

	u.st.AccumulatedYield = u.st.AccumulatedYield.Add(delta)
	u.st.LastYieldReport = u.now

	// Post-yield, pre-mint price. Fee share minting dilutes this price back
	// toward the mark; charging against it keeps holders whole on the
	// already-marked portion.
	price := sharePrice(u.st)
	feeShares := math.ZeroInt()
	fee := math.ZeroInt()
	oldHWM := u.st.PriceHWM

	if delta.IsPositive() && price.GT(u.st.PriceHWM) && u.st.TotalShares.IsPositive() {
		markedGain := types.MulDiv(price.Sub(u.st.PriceHWM), u.st.TotalShares, types.Precision)
		profit := types.MinInt(delta, markedGain)
		fee = types.MulDiv(profit, u.st.Params.FeeRate, types.Precision)

		postNAV := u.st.TotalAssets()
		if fee.IsPositive() && fee.LT(postNAV) {
			feeShares = types.MulDiv(fee, u.st.TotalShares, postNAV.Sub(fee))
		} else {
			fee = math.ZeroInt()
		}

		if feeShares.IsPositive() {
			treasury, terr := v.account(ctx, u, u.st.Treasury)
			if terr != nil {
				return math.ZeroInt(), terr
			}
			u.mint(treasury, feeShares)
		}

		u.st.PriceHWM = price
	}

	if err := v.commit(ctx, "ReportYieldAndCollectFees", u); err != nil {
		return math.ZeroInt(), err
	}

	v.plugins.EmitYieldReported(ctx, plugin.YieldReportedEvent{
		Delta: delta,
		NAV:   u.st.TotalAssets(),
		Price: sharePrice(u.st),
		At:    u.now,
	})

	if feeShares.IsPositive() {
		v.plugins.EmitFeeCollected(ctx, plugin.FeeCollectedEvent{
			Fee:       fee,
			FeeShares: feeShares,
			Treasury:  u.st.Treasury,
			Price:     price,
			PriceHWM:  oldHWM,
			At:        u.now,
		})
	}

	v.logger.Debug("yield reported",
		"delta", delta.String(),
		"fee_shares", feeShares.String(),
		"price", sharePrice(u.st).String(),
	)

	return feeShares, nil
}

// ResetPriceHWM lowers (or raises) the high-water mark to the current share
// price. Owner-only escape hatch after a deep drawdown, where the old mark
// would leave the treasury unpaid indefinitely.
func (v *Vault) ResetPriceHWM(ctx context.Context, caller string) error {
	unlock, err := v.guardEntry()
	if err != nil {
		return err
	}
	defer unlock()

	if caller != v.auth.Owner() {
		return ErrUnauthorized
	}

	u, err := v.begin(ctx)
	if err != nil {
		return err
	}

	oldHWM := u.st.PriceHWM
	u.st.PriceHWM = sharePrice(u.st)

	if err := v.commit(ctx, "ResetPriceHWM", u); err != nil {
		return err
	}

	v.plugins.EmitHWMReset(ctx, plugin.HWMResetEvent{
		OldHWM: oldHWM,
		NewHWM: u.st.PriceHWM,
		At:     u.now,
	})

	return nil
}
