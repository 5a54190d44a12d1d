package vault

import (
	"context"

	"cosmossdk.io/math"

	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/types"
)

// Deposit validates the amount against caps, mints shares at the current
// price and routes the incoming value. Ledger state is committed before any
// external custody transfer, so re-entrant calls during the transfer observe
// post-deposit state.
func (v *Vault) Deposit(ctx context.Context, depositor string, amount math.Int) (math.Int, error) {
	unlock, err := v.guardEntry()
	if err != nil {
		return math.ZeroInt(), err
	}
	defer unlock()

	if depositor == "" || depositor == EscrowAddress {
		return math.ZeroInt(), ErrInvalidInput
	}
	if amount.IsNil() || !amount.IsPositive() {
		return math.ZeroInt(), ErrInvalidAmount
	}
	if v.auth.DepositsPaused() {
		return math.ZeroInt(), ErrDepositsPaused
	}

	u, err := v.begin(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}

	price := sharePrice(u.st)

	shares, err := valueToShares(u.st, amount)
	if err != nil {
		return math.ZeroInt(), err
	}
	if shares.IsZero() {
		// Worthless micro-deposits would corrupt accounting.
		return math.ZeroInt(), ErrZeroShares
	}

	if u.st.Params.GlobalCap.IsPositive() {
		if u.st.TotalAssets().Add(amount).GT(u.st.Params.GlobalCap) {
			return math.ZeroInt(), ErrGlobalCapExceeded
		}
	}

	acct, err := v.account(ctx, u, depositor)
	if err != nil {
		return math.ZeroInt(), err
	}

	if u.st.Params.UserCap.IsPositive() {
		assetsAfter := u.st.TotalAssets().Add(amount)
		sharesAfter := u.st.TotalShares.Add(shares)
		holdingValue := types.MulDiv(acct.Shares.Add(shares), assetsAfter, sharesAfter)
		if holdingValue.GT(u.st.Params.UserCap) {
			return math.ZeroInt(), ErrUserCapExceeded
		}
	}

	u.mint(acct, shares)
	u.st.TotalDeposited = u.st.TotalDeposited.Add(amount)
	u.st.BufferBalance = u.st.BufferBalance.Add(amount)

	if err := v.commit(ctx, "Deposit", u); err != nil {
		return math.ZeroInt(), err
	}

	v.plugins.EmitDeposit(ctx, plugin.DepositEvent{
		Depositor: depositor,
		Amount:    amount,
		Shares:    shares,
		Price:     price,
		At:        u.now,
	})

	v.logger.Debug("deposit accepted",
		"depositor", depositor,
		"amount", amount.String(),
		"shares", shares.String(),
	)

	// Forward anything above the liquidity buffer target to the custody
	// venue. The deposit itself is already committed.
	if err := v.deployExcess(ctx); err != nil {
		v.logger.Warn("custody deployment failed, value retained in buffer", "error", err)
	}

	return shares, nil
}

// deployExcess pushes buffer value above the configured target out to the
// custody venue. The buffer decrement is committed before the external call;
// if the venue rejects the deployment the decrement is compensated.
func (v *Vault) deployExcess(ctx context.Context) error {
	u, err := v.begin(ctx)
	if err != nil {
		return err
	}

	excess := u.st.BufferBalance.Sub(u.st.Params.LiquidityBufferTarget)
	if !excess.IsPositive() {
		return nil
	}

	u.st.BufferBalance = u.st.BufferBalance.Sub(excess)
	if err := v.commit(ctx, "DeployExcess", u); err != nil {
		return err
	}

	if err := v.externalCall(func() error { return v.venue.Deploy(ctx, excess) }); err != nil {
		// Put the value back on the books; it never left the buffer.
		cu, berr := v.begin(ctx)
		if berr != nil {
			return berr
		}
		cu.st.BufferBalance = cu.st.BufferBalance.Add(excess)
		if cerr := v.commit(ctx, "DeployExcessCompensate", cu); cerr != nil {
			return cerr
		}
		return err
	}
	return nil
}
