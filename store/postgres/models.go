package postgres

import (
	"encoding/json"
	"time"

	"cosmossdk.io/math"
	"github.com/xraph/grove"

	"github.com/xraph/vault/account"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/paramchange"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/types"
	"github.com/xraph/vault/withdrawal"
)

// stateKey is the primary key of the singleton ledger state row.
const stateKey = "vault"

// Share and value quantities are stored as base-10 strings: math.Int exceeds
// int64 at 18-decimal scale, and TEXT round-trips exactly.

// ==================== State model ====================

type stateModel struct {
	grove.BaseModel `grove:"table:vault_state"`

	ID                      string          `grove:"id,pk"`
	Denom                   string          `grove:"denom"`
	Treasury                string          `grove:"treasury"`
	CustodyVenue            string          `grove:"custody_venue"`
	TotalDeposited          string          `grove:"total_deposited"`
	TotalWithdrawn          string          `grove:"total_withdrawn"`
	AccumulatedYield        string          `grove:"accumulated_yield"`
	TotalShares             string          `grove:"total_shares"`
	Head                    int64           `grove:"head"`
	NextSeq                 int64           `grove:"next_seq"`
	PendingWithdrawalShares string          `grove:"pending_withdrawal_shares"`
	BufferBalance           string          `grove:"buffer_balance"`
	PriceHWM                string          `grove:"price_hwm"`
	LastYieldReport         time.Time       `grove:"last_yield_report"`
	Params                  json.RawMessage `grove:"params,type:jsonb"`
	CreatedAt               time.Time       `grove:"created_at"`
	UpdatedAt               time.Time       `grove:"updated_at"`
}

func toStateModel(st *state.State) *stateModel {
	params, _ := json.Marshal(st.Params) //nolint:errcheck // struct of scalars

	return &stateModel{
		ID:                      stateKey,
		Denom:                   st.Denom,
		Treasury:                st.Treasury,
		CustodyVenue:            st.CustodyVenue,
		TotalDeposited:          st.TotalDeposited.String(),
		TotalWithdrawn:          st.TotalWithdrawn.String(),
		AccumulatedYield:        st.AccumulatedYield.String(),
		TotalShares:             st.TotalShares.String(),
		Head:                    int64(st.Head),
		NextSeq:                 int64(st.NextSeq),
		PendingWithdrawalShares: st.PendingWithdrawalShares.String(),
		BufferBalance:           st.BufferBalance.String(),
		PriceHWM:                st.PriceHWM.String(),
		LastYieldReport:         st.LastYieldReport,
		Params:                  params,
		CreatedAt:               st.CreatedAt,
		UpdatedAt:               st.UpdatedAt,
	}
}

func fromStateModel(m *stateModel) (*state.State, error) {
	var params state.Params
	if len(m.Params) > 0 {
		if err := json.Unmarshal(m.Params, &params); err != nil {
			return nil, err
		}
	}

	st := &state.State{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Denom:           m.Denom,
		Treasury:        m.Treasury,
		CustodyVenue:    m.CustodyVenue,
		Head:            uint64(m.Head),
		NextSeq:         uint64(m.NextSeq),
		LastYieldReport: m.LastYieldReport,
		Params:          params,
	}

	var err error
	if st.TotalDeposited, err = parseInt(m.TotalDeposited); err != nil {
		return nil, err
	}
	if st.TotalWithdrawn, err = parseInt(m.TotalWithdrawn); err != nil {
		return nil, err
	}
	if st.AccumulatedYield, err = parseInt(m.AccumulatedYield); err != nil {
		return nil, err
	}
	if st.TotalShares, err = parseInt(m.TotalShares); err != nil {
		return nil, err
	}
	if st.PendingWithdrawalShares, err = parseInt(m.PendingWithdrawalShares); err != nil {
		return nil, err
	}
	if st.BufferBalance, err = parseInt(m.BufferBalance); err != nil {
		return nil, err
	}
	if st.PriceHWM, err = parseInt(m.PriceHWM); err != nil {
		return nil, err
	}
	return st, nil
}

// ==================== Account model ====================

type accountModel struct {
	grove.BaseModel `grove:"table:vault_accounts"`

	Address   string    `grove:"address,pk"`
	Shares    string    `grove:"shares"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	return &accountModel{
		Address:   a.Address,
		Shares:    a.Shares.String(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	shares, err := parseInt(m.Shares)
	if err != nil {
		return nil, err
	}
	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Address: m.Address,
		Shares:  shares,
	}, nil
}

// ==================== Withdrawal model ====================

type withdrawalModel struct {
	grove.BaseModel `grove:"table:vault_withdrawals"`

	Seq         int64      `grove:"seq,pk"`
	ID          string     `grove:"id"`
	Requester   string     `grove:"requester"`
	Shares      string     `grove:"shares"`
	Status      string     `grove:"status"`
	RequestedAt time.Time  `grove:"requested_at"`
	ResolvedAt  *time.Time `grove:"resolved_at"`
	PaidOut     string     `grove:"paid_out"`
	Forced      bool       `grove:"forced"`
	CreatedAt   time.Time  `grove:"created_at"`
	UpdatedAt   time.Time  `grove:"updated_at"`
}

func toWithdrawalModel(r *withdrawal.Request) *withdrawalModel {
	return &withdrawalModel{
		Seq:         int64(r.Seq),
		ID:          r.ID.String(),
		Requester:   r.Requester,
		Shares:      r.Shares.String(),
		Status:      string(r.Status),
		RequestedAt: r.RequestedAt,
		ResolvedAt:  r.ResolvedAt,
		PaidOut:     r.PaidOut.String(),
		Forced:      r.Forced,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromWithdrawalModel(m *withdrawalModel) (*withdrawal.Request, error) {
	reqID, err := id.ParseWithdrawalID(m.ID)
	if err != nil {
		return nil, err
	}
	shares, err := parseInt(m.Shares)
	if err != nil {
		return nil, err
	}
	paidOut, err := parseInt(m.PaidOut)
	if err != nil {
		return nil, err
	}

	return &withdrawal.Request{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Seq:         uint64(m.Seq),
		ID:          reqID,
		Requester:   m.Requester,
		Shares:      shares,
		Status:      withdrawal.Status(m.Status),
		RequestedAt: m.RequestedAt,
		ResolvedAt:  m.ResolvedAt,
		PaidOut:     paidOut,
		Forced:      m.Forced,
	}, nil
}

// ==================== Parameter change model ====================

type paramChangeModel struct {
	grove.BaseModel `grove:"table:vault_param_changes"`

	ID         string     `grove:"id,pk"`
	Kind       string     `grove:"kind"`
	Value      string     `grove:"value"`
	Status     string     `grove:"status"`
	QueuedAt   time.Time  `grove:"queued_at"`
	ETA        time.Time  `grove:"eta"`
	ResolvedAt *time.Time `grove:"resolved_at"`
	CreatedAt  time.Time  `grove:"created_at"`
	UpdatedAt  time.Time  `grove:"updated_at"`
}

func toParamChangeModel(c *paramchange.Change) *paramChangeModel {
	return &paramChangeModel{
		ID:         c.ID.String(),
		Kind:       string(c.Kind),
		Value:      c.Value,
		Status:     string(c.Status),
		QueuedAt:   c.QueuedAt,
		ETA:        c.ETA,
		ResolvedAt: c.ResolvedAt,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromParamChangeModel(m *paramChangeModel) (*paramchange.Change, error) {
	changeID, err := id.ParseParamChangeID(m.ID)
	if err != nil {
		return nil, err
	}

	return &paramchange.Change{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         changeID,
		Kind:       paramchange.Kind(m.Kind),
		Value:      m.Value,
		Status:     paramchange.Status(m.Status),
		QueuedAt:   m.QueuedAt,
		ETA:        m.ETA,
		ResolvedAt: m.ResolvedAt,
	}, nil
}

// parseInt decodes a base-10 quantity column, treating empty as zero.
func parseInt(s string) (math.Int, error) {
	if s == "" {
		return math.ZeroInt(), nil
	}
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.ZeroInt(), errMalformedQuantity(s)
	}
	return v, nil
}
