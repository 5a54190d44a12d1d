package vault

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"cosmossdk.io/math"

	"github.com/xraph/vault/account"
	"github.com/xraph/vault/authority"
	"github.com/xraph/vault/custody"
	"github.com/xraph/vault/paramchange"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/types"
	"github.com/xraph/vault/withdrawal"
)

// Fixed-point constants shared by every conversion.
var (
	// Precision is the 18-decimal fixed-point scale.
	Precision = types.Precision

	// InitialSharePrice is the price used while share supply is zero:
	// one unit of value per share.
	InitialSharePrice = types.Precision

	// MaxFeeRate caps the performance fee at 20%.
	MaxFeeRate = types.Rate(2, 1)
)

const (
	// EscrowAddress is the reserved internal account holding escrowed
	// shares on behalf of pending withdrawal requests.
	EscrowAddress = "vault:escrow"

	// DefaultTreasury receives minted fee shares unless configured.
	DefaultTreasury = "vault:treasury"

	// DefaultOwner is the fallback Static authority owner.
	DefaultOwner = "vault:owner"

	// CancelWindow is how long a requester may self-cancel a withdrawal.
	CancelWindow = time.Hour

	// MaxPendingPerUser bounds concurrently pending requests per holder.
	MaxPendingPerUser = 10
)

// Clock supplies wall-clock time. Injectable for deterministic tests.
type Clock func() time.Time

// Vault is the custodial accounting engine: NAV/share pricing, the deposit
// path, the FIFO withdrawal queue with share escrow, and the profit-only fee
// mechanism. Every public operation is one atomic unit of work; a single
// writer lock serializes all mutation, so accounting invariants are defined
// across fully-completed operations only.
type Vault struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	auth    authority.Authority
	venue   custody.Venue
	clock   Clock

	// Initial state, used to seed the store on first Start.
	denom      string
	treasury   string
	venueAddr  string
	initParams state.Params

	mu sync.Mutex

	// inTransfer is set while an external custody call is in flight.
	// Engine calls made from inside that call are rejected instead of
	// deadlocking on mu.
	inTransfer atomic.Bool

	started atomic.Bool
}

// New creates a new Vault instance.
func New(s store.Store, opts ...Option) *Vault {
	v := &Vault{
		store:      s,
		plugins:    plugin.NewRegistry(),
		logger:     slog.Default(),
		auth:       authority.NewStatic(DefaultOwner),
		venue:      custody.NewSim(),
		clock:      time.Now,
		denom:      "usdc",
		treasury:   DefaultTreasury,
		venueAddr:  "custody:default",
		initParams: state.DefaultParams(),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Option configures a Vault instance.
type Option func(*Vault)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
		v.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(v *Vault) {
		_ = v.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithAuthority sets the access/pause collaborator.
func WithAuthority(a authority.Authority) Option {
	return func(v *Vault) { v.auth = a }
}

// WithCustodyVenue sets the capital-deployment collaborator and its
// accounting address.
func WithCustodyVenue(venue custody.Venue, address string) Option {
	return func(v *Vault) {
		v.venue = venue
		v.venueAddr = address
	}
}

// WithClock injects the time source.
func WithClock(c Clock) Option {
	return func(v *Vault) { v.clock = c }
}

// WithDenom sets the value token denomination recorded at initialization.
func WithDenom(denom string) Option {
	return func(v *Vault) { v.denom = denom }
}

// WithTreasury sets the fee-share recipient recorded at initialization.
func WithTreasury(address string) Option {
	return func(v *Vault) { v.treasury = address }
}

// WithParams sets the initial operational parameters.
func WithParams(p state.Params) Option {
	return func(v *Vault) { v.initParams = p }
}

// Plugins exposes the plugin registry.
func (v *Vault) Plugins() *plugin.Registry { return v.plugins }

// Store exposes the underlying store for direct access.
func (v *Vault) Store() store.Store { return v.store }

// Start migrates the store, seeds the ledger state if absent, and
// initializes plugins.
func (v *Vault) Start(ctx context.Context) error {
	if err := v.store.Migrate(ctx); err != nil {
		return err
	}

	if _, err := v.store.GetState(ctx); err != nil {
		if !IsNotFound(err) {
			return err
		}
		st := state.New(v.denom, v.treasury, v.venueAddr, v.initParams)
		if err := v.store.Apply(ctx, &store.ChangeSet{State: st}); err != nil {
			return fmt.Errorf("vault: seed ledger state: %w", err)
		}
	}

	v.plugins.EmitInit(ctx, v)
	v.started.Store(true)

	v.logger.Info("vault started",
		"denom", v.denom,
		"treasury", v.treasury,
		"custody_venue", v.venueAddr,
	)

	return nil
}

// Stop shuts down the Vault.
func (v *Vault) Stop() error {
	v.started.Store(false)
	v.plugins.EmitShutdown(context.Background())
	return v.store.Close()
}

// ──────────────────────────────────────────────────
// Unit of work
// ──────────────────────────────────────────────────

// uow is one speculative unit of work: a cloned state snapshot plus every
// entity touched so far. Nothing is visible to readers until commit.
type uow struct {
	st          *state.State
	now         time.Time
	accounts    map[string]*account.Account
	withdrawals map[uint64]*withdrawal.Request
	changes     []*paramchange.Change
}

// begin opens a unit of work. The caller must hold v.mu.
func (v *Vault) begin(ctx context.Context) (*uow, error) {
	if !v.started.Load() {
		return nil, ErrNotStarted
	}

	st, err := v.store.GetState(ctx)
	if err != nil {
		return nil, err
	}

	return &uow{
		st:          st.Clone(),
		now:         v.clock().UTC(),
		accounts:    make(map[string]*account.Account),
		withdrawals: make(map[uint64]*withdrawal.Request),
	}, nil
}

// account returns the unit of work's working copy of an account, creating a
// zero-balance one if the address was never seen.
func (v *Vault) account(ctx context.Context, u *uow, address string) (*account.Account, error) {
	if a, ok := u.accounts[address]; ok {
		return a, nil
	}

	a, err := v.store.GetAccount(ctx, address)
	switch {
	case err == nil:
		a = a.Clone()
	case IsNotFound(err):
		a = account.New(address)
		a.Entity = types.NewEntityAt(u.now)
	default:
		return nil, err
	}

	u.accounts[address] = a
	return a, nil
}

// request returns the unit of work's working copy of a withdrawal request.
func (v *Vault) request(ctx context.Context, u *uow, seq uint64) (*withdrawal.Request, error) {
	if r, ok := u.withdrawals[seq]; ok {
		return r, nil
	}

	r, err := v.store.GetWithdrawal(ctx, seq)
	if err != nil {
		return nil, err
	}

	r = r.Clone()
	u.withdrawals[seq] = r
	return r, nil
}

// mint credits freshly created shares and grows total supply.
func (u *uow) mint(a *account.Account, shares math.Int) {
	a.Shares = a.Shares.Add(shares)
	a.TouchAt(u.now)
	u.st.TotalShares = u.st.TotalShares.Add(shares)
}

// burn destroys shares held by an account and shrinks total supply.
func (u *uow) burn(a *account.Account, shares math.Int) {
	a.Shares = a.Shares.Sub(shares)
	a.TouchAt(u.now)
	u.st.TotalShares = u.st.TotalShares.Sub(shares)
}

// transfer moves shares between accounts; supply is unchanged.
func (u *uow) transfer(from, to *account.Account, shares math.Int) {
	from.Shares = from.Shares.Sub(shares)
	to.Shares = to.Shares.Add(shares)
	from.TouchAt(u.now)
	to.TouchAt(u.now)
}

// commit checks invariants and applies the unit of work atomically. On an
// invariant fault nothing is written; the fault is surfaced as a critical
// error and emitted for operators.
func (v *Vault) commit(ctx context.Context, op string, u *uow) error {
	if fault := v.checkInvariants(u, op); fault != nil {
		v.logger.Error("invariant violation detected, unit of work aborted",
			"operation", op,
			"invariant", fault.Invariant,
			"detail", fault.Detail,
		)
		v.plugins.EmitInvariantFault(ctx, plugin.InvariantFaultEvent{
			Invariant: fault.Invariant,
			Detail:    fault.Detail,
			Operation: op,
			At:        u.now,
		})
		return fault
	}

	u.st.TouchAt(u.now)

	cs := &store.ChangeSet{State: u.st}
	for _, a := range u.accounts {
		cs.Accounts = append(cs.Accounts, a)
	}
	sort.Slice(cs.Accounts, func(i, j int) bool {
		return cs.Accounts[i].Address < cs.Accounts[j].Address
	})
	for _, r := range u.withdrawals {
		cs.Withdrawals = append(cs.Withdrawals, r)
	}
	sort.Slice(cs.Withdrawals, func(i, j int) bool {
		return cs.Withdrawals[i].Seq < cs.Withdrawals[j].Seq
	})
	cs.ParamChanges = append(cs.ParamChanges, u.changes...)

	if err := v.store.Apply(ctx, cs); err != nil {
		return fmt.Errorf("vault: commit %s: %w", op, err)
	}
	return nil
}

// guardEntry rejects calls made from inside an external custody transfer
// and takes the writer lock. Callers must defer the returned unlock.
func (v *Vault) guardEntry() (func(), error) {
	if v.inTransfer.Load() {
		return nil, ErrReentrantCall
	}
	v.mu.Lock()
	return v.mu.Unlock, nil
}

// externalCall runs an external custody venue call with the re-entrancy
// flag set, preserving the state-before-transfer discipline.
func (v *Vault) externalCall(fn func() error) error {
	v.inTransfer.Store(true)
	defer v.inTransfer.Store(false)
	return fn()
}
