package vault

import (
	"context"
	"time"

	"cosmossdk.io/math"

	"github.com/xraph/vault/account"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/paramchange"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/withdrawal"
)

// Stats is a point-in-time snapshot of the ledger for dashboards and
// reconciliation jobs.
type Stats struct {
	Denom        string `json:"denom"`
	Treasury     string `json:"treasury"`
	CustodyVenue string `json:"custody_venue"`

	TotalAssets             math.Int `json:"total_assets"`
	TotalShares             math.Int `json:"total_shares"`
	SharePrice              math.Int `json:"share_price"`
	PriceHWM                math.Int `json:"price_hwm"`
	BufferBalance           math.Int `json:"buffer_balance"`
	PendingWithdrawalShares math.Int `json:"pending_withdrawal_shares"`

	QueueHead  uint64 `json:"queue_head"`
	QueueNext  uint64 `json:"queue_next"`
	QueueDepth uint64 `json:"queue_depth"`

	LastYieldReport time.Time    `json:"last_yield_report"`
	Params          state.Params `json:"params"`
}

// TotalAssets returns the current NAV backing outstanding shares.
func (v *Vault) TotalAssets(ctx context.Context) (math.Int, error) {
	st, err := v.store.GetState(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}
	return st.TotalAssets(), nil
}

// SharePrice returns the current Precision-scaled value of one share.
func (v *Vault) SharePrice(ctx context.Context) (math.Int, error) {
	st, err := v.store.GetState(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}
	return sharePrice(st), nil
}

// ConvertToShares quotes how many shares a deposit of value would mint at
// the current price. A quote only; the executed conversion happens inside
// Deposit under the writer lock.
func (v *Vault) ConvertToShares(ctx context.Context, value math.Int) (math.Int, error) {
	if value.IsNil() || value.IsNegative() {
		return math.ZeroInt(), ErrInvalidAmount
	}
	st, err := v.store.GetState(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}
	return valueToShares(st, value)
}

// ConvertToValue quotes the redemption value of shares at the current price.
func (v *Vault) ConvertToValue(ctx context.Context, shares math.Int) (math.Int, error) {
	if shares.IsNil() || shares.IsNegative() {
		return math.ZeroInt(), ErrInvalidAmount
	}
	st, err := v.store.GetState(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}
	return sharesToValue(st, shares), nil
}

// GetAccount returns a holder's share account.
func (v *Vault) GetAccount(ctx context.Context, address string) (*account.Account, error) {
	a, err := v.store.GetAccount(ctx, address)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

// GetWithdrawal returns one queue entry by sequence number.
func (v *Vault) GetWithdrawal(ctx context.Context, seq uint64) (*withdrawal.Request, error) {
	r, err := v.store.GetWithdrawal(ctx, seq)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return r, nil
}

// ListWithdrawals returns queue entries matching opts, in sequence order.
func (v *Vault) ListWithdrawals(ctx context.Context, opts withdrawal.ListOpts) ([]*withdrawal.Request, error) {
	return v.store.ListWithdrawals(ctx, opts)
}

// PendingWithdrawals returns a requester's unresolved queue entries.
func (v *Vault) PendingWithdrawals(ctx context.Context, requester string) ([]*withdrawal.Request, error) {
	return v.store.ListWithdrawals(ctx, withdrawal.ListOpts{
		Requester: requester,
		Status:    withdrawal.StatusPending,
	})
}

// GetParamChange returns one timelocked change by ID.
func (v *Vault) GetParamChange(ctx context.Context, changeID id.ParamChangeID) (*paramchange.Change, error) {
	c, err := v.store.GetParamChange(ctx, changeID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrChangeNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListParamChanges returns timelocked changes matching opts.
func (v *Vault) ListParamChanges(ctx context.Context, opts paramchange.ListOpts) ([]*paramchange.Change, error) {
	return v.store.ListParamChanges(ctx, opts)
}

// Params returns the current operational parameters.
func (v *Vault) Params(ctx context.Context) (state.Params, error) {
	st, err := v.store.GetState(ctx)
	if err != nil {
		return state.Params{}, err
	}
	return st.Params, nil
}

// Stats returns a complete ledger snapshot.
func (v *Vault) Stats(ctx context.Context) (*Stats, error) {
	st, err := v.store.GetState(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Denom:                   st.Denom,
		Treasury:                st.Treasury,
		CustodyVenue:            st.CustodyVenue,
		TotalAssets:             st.TotalAssets(),
		TotalShares:             st.TotalShares,
		SharePrice:              sharePrice(st),
		PriceHWM:                st.PriceHWM,
		BufferBalance:           st.BufferBalance,
		PendingWithdrawalShares: st.PendingWithdrawalShares,
		QueueHead:               st.Head,
		QueueNext:               st.NextSeq,
		QueueDepth:              st.NextSeq - st.Head,
		LastYieldReport:         st.LastYieldReport,
		Params:                  st.Params,
	}, nil
}
