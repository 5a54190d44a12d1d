package mongo

import (
	"fmt"
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

// stateKey is the _id of the singleton ledger state document.
const stateKey = "vault"

// Quantities are stored as base-10 strings: BSON int64 overflows at
// 18-decimal scale and Decimal128 loses the exact-integer contract.

// ==================== State model ====================

type stateModel struct {
	grove.BaseModel `grove:"table:vault_state"`

	ID                      string      `grove:"id,pk"                     bson:"_id"`
	Denom                   string      `grove:"denom"                     bson:"denom"`
	Treasury                string      `grove:"treasury"                  bson:"treasury"`
	CustodyVenue            string      `grove:"custody_venue"             bson:"custody_venue"`
	TotalDeposited          string      `grove:"total_deposited"           bson:"total_deposited"`
	TotalWithdrawn          string      `grove:"total_withdrawn"           bson:"total_withdrawn"`
	AccumulatedYield        string      `grove:"accumulated_yield"         bson:"accumulated_yield"`
	TotalShares             string      `grove:"total_shares"              bson:"total_shares"`
	Head                    int64       `grove:"head"                      bson:"head"`
	NextSeq                 int64       `grove:"next_seq"                  bson:"next_seq"`
	PendingWithdrawalShares string      `grove:"pending_withdrawal_shares" bson:"pending_withdrawal_shares"`
	BufferBalance           string      `grove:"buffer_balance"            bson:"buffer_balance"`
	PriceHWM                string      `grove:"price_hwm"                 bson:"price_hwm"`
	LastYieldReport         time.Time   `grove:"last_yield_report"         bson:"last_yield_report"`
	Params                  paramsModel `grove:"params"                    bson:"params"`
	CreatedAt               time.Time   `grove:"created_at"                bson:"created_at"`
	UpdatedAt               time.Time   `grove:"updated_at"                bson:"updated_at"`
}

type paramsModel struct {
	FeeRate               string `bson:"fee_rate"`
	CooldownSeconds       int64  `bson:"cooldown_seconds"`
	UserCap               string `bson:"user_cap"`
	GlobalCap             string `bson:"global_cap"`
	LiquidityBufferTarget string `bson:"liquidity_buffer_target"`
	MaxYieldChange        string `bson:"max_yield_change"`
}

func toParamsModel(p state.Params) paramsModel {
	return paramsModel{
		FeeRate:               p.FeeRate.String(),
		CooldownSeconds:       int64(p.CooldownPeriod / time.Second),
		UserCap:               p.UserCap.String(),
		GlobalCap:             p.GlobalCap.String(),
		LiquidityBufferTarget: p.LiquidityBufferTarget.String(),
		MaxYieldChange:        p.MaxYieldChange.String(),
	}
}

func fromParamsModel(m paramsModel) (state.Params, error) {
	p := state.Params{
		CooldownPeriod: time.Duration(m.CooldownSeconds) * time.Second,
	}

	var err error
	if p.FeeRate, err = parseInt(m.FeeRate); err != nil {
		return state.Params{}, err
	}
	if p.UserCap, err = parseInt(m.UserCap); err != nil {
		return state.Params{}, err
	}
	if p.GlobalCap, err = parseInt(m.GlobalCap); err != nil {
		return state.Params{}, err
	}
	if p.LiquidityBufferTarget, err = parseInt(m.LiquidityBufferTarget); err != nil {
		return state.Params{}, err
	}
	if p.MaxYieldChange, err = parseInt(m.MaxYieldChange); err != nil {
		return state.Params{}, err
	}
	return p, nil
}

func toStateModel(st *state.State) *stateModel {
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
		Params:                  toParamsModel(st.Params),
		CreatedAt:               st.CreatedAt,
		UpdatedAt:               st.UpdatedAt,
	}
}

func fromStateModel(m *stateModel) (*state.State, error) {
	params, err := fromParamsModel(m.Params)
	if err != nil {
		return nil, err
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

	Address   string    `grove:"address,pk" bson:"_id"`
	Shares    string    `grove:"shares"     bson:"shares"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
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

	Seq         int64      `grove:"seq,pk"       bson:"_id"`
	ID          string     `grove:"id"           bson:"id"`
	Requester   string     `grove:"requester"    bson:"requester"`
	Shares      string     `grove:"shares"       bson:"shares"`
	Status      string     `grove:"status"       bson:"status"`
	RequestedAt time.Time  `grove:"requested_at" bson:"requested_at"`
	ResolvedAt  *time.Time `grove:"resolved_at"  bson:"resolved_at,omitempty"`
	PaidOut     string     `grove:"paid_out"     bson:"paid_out"`
	Forced      bool       `grove:"forced"       bson:"forced"`
	CreatedAt   time.Time  `grove:"created_at"   bson:"created_at"`
	UpdatedAt   time.Time  `grove:"updated_at"   bson:"updated_at"`
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

	ID         string     `grove:"id,pk"       bson:"_id"`
	Kind       string     `grove:"kind"        bson:"kind"`
	Value      string     `grove:"value"       bson:"value"`
	Status     string     `grove:"status"      bson:"status"`
	QueuedAt   time.Time  `grove:"queued_at"   bson:"queued_at"`
	ETA        time.Time  `grove:"eta"         bson:"eta"`
	ResolvedAt *time.Time `grove:"resolved_at" bson:"resolved_at,omitempty"`
	CreatedAt  time.Time  `grove:"created_at"  bson:"created_at"`
	UpdatedAt  time.Time  `grove:"updated_at"  bson:"updated_at"`
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

// parseInt decodes a base-10 quantity field, treating empty as zero.
func parseInt(s string) (math.Int, error) {
	if s == "" {
		return math.ZeroInt(), nil
	}
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.ZeroInt(), fmt.Errorf("vault/mongo: malformed quantity %q", s)
	}
	return v, nil
}
