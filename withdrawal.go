package vault

import (
	"context"

	"cosmossdk.io/math"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/types"
	"github.com/xraph/vault/withdrawal"
)

// FulfillResult is the intentionally-partial outcome of batch fulfillment.
type FulfillResult struct {
	Processed int
	Paid      math.Int
}

// RequestWithdrawal escrows the caller's shares and appends a request to
// the FIFO queue. The returned sequence number is the request identifier.
//
// Escrowed shares leave the requester's balance entirely and cannot be
// transferred or reused for a second request.
func (v *Vault) RequestWithdrawal(ctx context.Context, requester string, shares math.Int) (uint64, error) {
	unlock, err := v.guardEntry()
	if err != nil {
		return 0, err
	}
	defer unlock()

	if requester == "" || requester == EscrowAddress {
		return 0, ErrInvalidInput
	}
	if shares.IsNil() || !shares.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if v.auth.WithdrawalsPaused() {
		return 0, ErrWithdrawalsPaused
	}

	u, err := v.begin(ctx)
	if err != nil {
		return 0, err
	}

	acct, err := v.account(ctx, u, requester)
	if err != nil {
		return 0, err
	}
	if acct.Shares.LT(shares) {
		return 0, ErrInsufficientShares
	}

	pending, err := v.store.CountPendingByRequester(ctx, requester)
	if err != nil {
		return 0, err
	}
	if pending >= MaxPendingPerUser {
		return 0, ErrTooManyPending
	}

	esc, err := v.account(ctx, u, EscrowAddress)
	if err != nil {
		return 0, err
	}

	// Transfer-to-self escrow, not a burn: supply is unchanged until
	// fulfillment actually releases value.
	u.transfer(acct, esc, shares)
	u.st.PendingWithdrawalShares = u.st.PendingWithdrawalShares.Add(shares)

	seq := u.st.NextSeq
	u.st.NextSeq++

	req := &withdrawal.Request{
		Entity:      types.NewEntityAt(u.now),
		Seq:         seq,
		ID:          id.NewWithdrawalID(),
		Requester:   requester,
		Shares:      shares,
		Status:      withdrawal.StatusPending,
		RequestedAt: u.now,
		PaidOut:     math.ZeroInt(),
	}
	u.withdrawals[seq] = req

	if err := v.commit(ctx, "RequestWithdrawal", u); err != nil {
		return 0, err
	}

	v.plugins.EmitWithdrawalRequested(ctx, plugin.WithdrawalRequestedEvent{
		Seq:       seq,
		RequestID: req.ID.String(),
		Requester: requester,
		Shares:    shares,
		At:        u.now,
	})

	return seq, nil
}

// CancelWithdrawal returns escrowed shares to the requester. The requester
// may cancel within CancelWindow of the request; the owner may cancel any
// time. Fails if the request already reached a terminal state.
func (v *Vault) CancelWithdrawal(ctx context.Context, caller string, seq uint64) error {
	unlock, err := v.guardEntry()
	if err != nil {
		return err
	}
	defer unlock()

	u, err := v.begin(ctx)
	if err != nil {
		return err
	}

	req, err := v.request(ctx, u, seq)
	if err != nil {
		return err
	}
	if req.Resolved() {
		return ErrRequestResolved
	}

	byOwner := caller == v.auth.Owner()
	if !byOwner {
		if caller != req.Requester {
			return ErrUnauthorized
		}
		if !req.WithinCancelWindow(u.now, CancelWindow) {
			return ErrCancelWindowClosed
		}
	}

	esc, err := v.escrowCoverage(ctx, u, "CancelWithdrawal")
	if err != nil {
		return err
	}

	acct, err := v.account(ctx, u, req.Requester)
	if err != nil {
		return err
	}

	u.transfer(esc, acct, req.Shares)
	u.st.PendingWithdrawalShares = u.st.PendingWithdrawalShares.Sub(req.Shares)

	resolved := u.now
	req.Status = withdrawal.StatusCanceled
	req.ResolvedAt = &resolved
	req.TouchAt(u.now)

	if err := v.commit(ctx, "CancelWithdrawal", u); err != nil {
		return err
	}

	v.plugins.EmitWithdrawalCanceled(ctx, plugin.WithdrawalCanceledEvent{
		Seq:       seq,
		Requester: req.Requester,
		Shares:    req.Shares,
		ByOwner:   byOwner,
		At:        u.now,
	})

	return nil
}

// FulfillWithdrawals processes up to count requests strictly in sequence
// order, burning escrowed shares and paying value at the price current at
// fulfillment time. Restricted to the Operator capability.
//
// The head pointer only moves forward. Already-resolved entries are skipped;
// an unexpired pending entry blocks further progress (FIFO contract).
// Insufficient liquidity never fails the call; it stops early and returns
// the partial (processed, paid) result.
func (v *Vault) FulfillWithdrawals(ctx context.Context, caller string, count int) (*FulfillResult, error) {
	unlock, err := v.guardEntry()
	if err != nil {
		return nil, err
	}
	defer unlock()

	if count <= 0 {
		return nil, ErrInvalidInput
	}
	if !v.auth.IsOperator(caller) {
		return nil, ErrUnauthorized
	}
	if v.auth.WithdrawalsPaused() {
		return nil, ErrWithdrawalsPaused
	}

	u, err := v.begin(ctx)
	if err != nil {
		return nil, err
	}

	esc, err := v.escrowCoverage(ctx, u, "FulfillWithdrawals")
	if err != nil {
		return nil, err
	}

	result := &FulfillResult{Paid: math.ZeroInt()}
	var fulfilled []plugin.WithdrawalFulfilledEvent
	var shortfall *plugin.LiquidityShortfallEvent

	for result.Processed < count && u.st.Head < u.st.NextSeq {
		req, err := v.request(ctx, u, u.st.Head)
		if err != nil {
			return nil, err
		}

		if req.Resolved() {
			// Canceled or force-processed earlier: advance past it.
			u.st.Head++
			continue
		}

		if !req.CooldownElapsed(u.now, u.st.Params.CooldownPeriod) {
			// FIFO contract: an unexpired head blocks progress.
			break
		}

		out := sharesToValue(u.st, req.Shares)

		if out.GT(u.st.BufferBalance) {
			needed := out.Sub(u.st.BufferBalance)
			recalled, rerr := v.recall(ctx, needed)
			if recalled.IsPositive() {
				u.st.BufferBalance = u.st.BufferBalance.Add(recalled)
				// The venue has already released these funds. Commit them to
				// the books now so a failure later in the loop cannot lose
				// the recall.
				if cerr := v.commit(ctx, "FulfillRecall", u); cerr != nil {
					return nil, cerr
				}
			}
			if rerr != nil || out.GT(u.st.BufferBalance) {
				// Graceful degradation: report what was processed.
				shortfall = &plugin.LiquidityShortfallEvent{
					Seq:       req.Seq,
					Needed:    out,
					Available: u.st.BufferBalance,
					At:        u.now,
				}
				break
			}
		}

		price := sharePrice(u.st)

		u.burn(esc, req.Shares)
		u.st.PendingWithdrawalShares = u.st.PendingWithdrawalShares.Sub(req.Shares)
		u.st.TotalWithdrawn = u.st.TotalWithdrawn.Add(out)
		u.st.BufferBalance = u.st.BufferBalance.Sub(out)

		resolved := u.now
		req.Status = withdrawal.StatusFulfilled
		req.PaidOut = out
		req.ResolvedAt = &resolved
		req.TouchAt(u.now)

		u.st.Head++
		result.Processed++
		result.Paid = result.Paid.Add(out)

		fulfilled = append(fulfilled, plugin.WithdrawalFulfilledEvent{
			Seq:       req.Seq,
			Requester: req.Requester,
			Shares:    req.Shares,
			Paid:      out,
			Price:     price,
			At:        u.now,
		})
	}

	if err := v.commit(ctx, "FulfillWithdrawals", u); err != nil {
		return nil, err
	}

	for _, evt := range fulfilled {
		v.plugins.EmitWithdrawalFulfilled(ctx, evt)
	}
	if shortfall != nil {
		v.plugins.EmitLiquidityShortfall(ctx, *shortfall)
		v.logger.Warn("fulfillment stopped on liquidity shortfall",
			"seq", shortfall.Seq,
			"needed", shortfall.Needed.String(),
			"available", shortfall.Available.String(),
			"processed", result.Processed,
		)
	}

	return result, nil
}

// ForceProcessWithdrawal is the owner-only emergency path: it processes one
// specific request out of FIFO order, ignoring cooldown, with the same
// burn-then-pay sequence and escrow coverage guard.
func (v *Vault) ForceProcessWithdrawal(ctx context.Context, caller string, seq uint64) (math.Int, error) {
	unlock, err := v.guardEntry()
	if err != nil {
		return math.ZeroInt(), err
	}
	defer unlock()

	if caller != v.auth.Owner() {
		return math.ZeroInt(), ErrUnauthorized
	}

	u, err := v.begin(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}

	req, err := v.request(ctx, u, seq)
	if err != nil {
		return math.ZeroInt(), err
	}
	if req.Resolved() {
		return math.ZeroInt(), ErrRequestResolved
	}

	esc, err := v.escrowCoverage(ctx, u, "ForceProcessWithdrawal")
	if err != nil {
		return math.ZeroInt(), err
	}

	out := sharesToValue(u.st, req.Shares)

	if out.GT(u.st.BufferBalance) {
		needed := out.Sub(u.st.BufferBalance)
		recalled, rerr := v.recall(ctx, needed)
		if recalled.IsPositive() {
			u.st.BufferBalance = u.st.BufferBalance.Add(recalled)
			if cerr := v.commit(ctx, "ForceProcessRecall", u); cerr != nil {
				return math.ZeroInt(), cerr
			}
		}
		if rerr != nil || out.GT(u.st.BufferBalance) {
			return math.ZeroInt(), ErrInsufficientLiquidity
		}
	}

	price := sharePrice(u.st)

	u.burn(esc, req.Shares)
	u.st.PendingWithdrawalShares = u.st.PendingWithdrawalShares.Sub(req.Shares)
	u.st.TotalWithdrawn = u.st.TotalWithdrawn.Add(out)
	u.st.BufferBalance = u.st.BufferBalance.Sub(out)

	resolved := u.now
	req.Status = withdrawal.StatusFulfilled
	req.PaidOut = out
	req.ResolvedAt = &resolved
	req.Forced = true
	req.TouchAt(u.now)

	if seq == u.st.Head {
		u.st.Head++
	}

	if err := v.commit(ctx, "ForceProcessWithdrawal", u); err != nil {
		return math.ZeroInt(), err
	}

	v.plugins.EmitWithdrawalFulfilled(ctx, plugin.WithdrawalFulfilledEvent{
		Seq:       seq,
		Requester: req.Requester,
		Shares:    req.Shares,
		Paid:      out,
		Price:     price,
		Forced:    true,
		At:        u.now,
	})

	return out, nil
}

// PurgeProcessedWithdrawals reclaims storage for resolved entries behind the
// queue head. Publicly callable housekeeping with no accounting effect.
func (v *Vault) PurgeProcessedWithdrawals(ctx context.Context) (int64, error) {
	unlock, err := v.guardEntry()
	if err != nil {
		return 0, err
	}
	defer unlock()

	st, err := v.store.GetState(ctx)
	if err != nil {
		return 0, err
	}

	return v.store.PurgeWithdrawals(ctx, st.Head)
}

// SweepOrphanedShares burns any escrow balance in excess of pending
// withdrawal shares, meaning shares donated directly into escrow that would
// otherwise sit orphaned forever. Owner-only.
func (v *Vault) SweepOrphanedShares(ctx context.Context, caller string) (math.Int, error) {
	unlock, err := v.guardEntry()
	if err != nil {
		return math.ZeroInt(), err
	}
	defer unlock()

	if caller != v.auth.Owner() {
		return math.ZeroInt(), ErrUnauthorized
	}

	u, err := v.begin(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}

	esc, err := v.account(ctx, u, EscrowAddress)
	if err != nil {
		return math.ZeroInt(), err
	}

	excess := esc.Shares.Sub(u.st.PendingWithdrawalShares)
	if !excess.IsPositive() {
		return math.ZeroInt(), nil
	}

	u.burn(esc, excess)

	if err := v.commit(ctx, "SweepOrphanedShares", u); err != nil {
		return math.ZeroInt(), err
	}

	v.plugins.EmitOrphanedSharesSwept(ctx, plugin.OrphanedSharesSweptEvent{
		Shares: excess,
		At:     u.now,
	})

	return excess, nil
}

// recall pulls value back from the custody venue with the re-entrancy flag
// set. A venue error or partial return is the caller's graceful-degradation
// signal, not a fault.
func (v *Vault) recall(ctx context.Context, amount math.Int) (math.Int, error) {
	recalled := math.ZeroInt()
	err := v.externalCall(func() error {
		r, e := v.venue.Recall(ctx, amount)
		if e != nil {
			return e
		}
		recalled = r
		return nil
	})
	return recalled, err
}
