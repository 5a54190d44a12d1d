package vault

import (
	"context"
	"fmt"

	"github.com/xraph/vault/account"
)

// checkInvariants verifies the ledger invariants that are checkable from a
// single unit of work, before anything is committed. A non-nil result is a
// logic defect in the engine, never user error.
func (v *Vault) checkInvariants(u *uow, op string) *Fault {
	st := u.st

	if st.Head > st.NextSeq {
		return &Fault{
			Invariant: "queue-head",
			Detail:    fmt.Sprintf("head %d beyond queue length %d", st.Head, st.NextSeq),
			Operation: op,
		}
	}

	if st.Params.FeeRate.IsNegative() || st.Params.FeeRate.GT(MaxFeeRate) {
		return &Fault{
			Invariant: "fee-rate-bound",
			Detail:    fmt.Sprintf("fee rate %s outside [0, %s]", st.Params.FeeRate, MaxFeeRate),
			Operation: op,
		}
	}

	if st.TotalShares.IsNegative() {
		return &Fault{
			Invariant: "share-supply",
			Detail:    fmt.Sprintf("total share supply negative: %s", st.TotalShares),
			Operation: op,
		}
	}

	if st.PendingWithdrawalShares.IsNegative() {
		return &Fault{
			Invariant: "pending-shares",
			Detail:    fmt.Sprintf("pending withdrawal shares negative: %s", st.PendingWithdrawalShares),
			Operation: op,
		}
	}

	if st.BufferBalance.IsNegative() {
		return &Fault{
			Invariant: "buffer-balance",
			Detail:    fmt.Sprintf("liquidity buffer negative: %s", st.BufferBalance),
			Operation: op,
		}
	}

	for _, a := range u.accounts {
		if a.Shares.IsNegative() {
			return &Fault{
				Invariant: "account-balance",
				Detail:    fmt.Sprintf("account %s balance negative: %s", a.Address, a.Shares),
				Operation: op,
			}
		}
	}

	// Escrow coverage: the ledger's own balance must cover every pending
	// request. Tolerant >=, so unsolicited share donations into escrow
	// never freeze the withdrawal paths.
	if esc, ok := u.accounts[EscrowAddress]; ok {
		if esc.Shares.LT(st.PendingWithdrawalShares) {
			return &Fault{
				Invariant: "escrow-coverage",
				Detail: fmt.Sprintf("escrow balance %s below pending withdrawal shares %s",
					esc.Shares, st.PendingWithdrawalShares),
				Operation: op,
			}
		}
	}

	return nil
}

// escrowCoverage loads the escrow account into the unit of work and faults
// if its balance does not cover pending withdrawal shares. Every
// fund-releasing operation calls this before moving value.
func (v *Vault) escrowCoverage(ctx context.Context, u *uow, op string) (*account.Account, error) {
	esc, err := v.account(ctx, u, EscrowAddress)
	if err != nil {
		return nil, err
	}

	if esc.Shares.LT(u.st.PendingWithdrawalShares) {
		fault := &Fault{
			Invariant: "escrow-coverage",
			Detail: fmt.Sprintf("escrow balance %s below pending withdrawal shares %s",
				esc.Shares, u.st.PendingWithdrawalShares),
			Operation: op,
		}
		v.logger.Error("escrow coverage check failed", "operation", op, "detail", fault.Detail)
		return nil, fault
	}
	return esc, nil
}

// VerifyConservation is the explicit audit query for share conservation: the sum
// of all account balances (escrow included) must equal total share supply.
// It scans every account, so it is meant for tests and auditors rather than
// the hot path.
func (v *Vault) VerifyConservation(ctx context.Context) error {
	st, err := v.store.GetState(ctx)
	if err != nil {
		return err
	}

	sum, err := v.store.SumAccountShares(ctx)
	if err != nil {
		return err
	}

	if !sum.Equal(st.TotalShares) {
		return &Fault{
			Invariant: "conservation",
			Detail:    fmt.Sprintf("account balances sum to %s but total supply is %s", sum, st.TotalShares),
			Operation: "VerifyConservation",
		}
	}
	return nil
}
