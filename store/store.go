// Package store defines the persistence surface for the vault ledger.
//
// Reads are fine-grained; all mutation funnels through Apply, which commits
// one operation's complete ChangeSet. The engine serializes units of work
// behind a single writer lock, so drivers never see concurrent Apply calls;
// a driver's only obligation is that a ChangeSet is applied completely or
// not at all as far as subsequent reads can observe.
package store

import (
	"context"

	"cosmossdk.io/math"

	"github.com/xraph/vault/account"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/paramchange"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/withdrawal"
)

// ChangeSet is the write side of one atomic unit of work. Nil fields are
// untouched; listed entities are upserted by their natural key.
type ChangeSet struct {
	State        *state.State
	Accounts     []*account.Account
	Withdrawals  []*withdrawal.Request
	ParamChanges []*paramchange.Change
}

// Store is the unified storage interface for all Vault entities.
// Instead of embedding sub-interfaces, all methods are declared explicitly
// to avoid naming conflicts.
type Store interface {
	// State methods
	GetState(ctx context.Context) (*state.State, error)

	// Account methods
	GetAccount(ctx context.Context, address string) (*account.Account, error)
	ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error)
	SumAccountShares(ctx context.Context) (math.Int, error)

	// Withdrawal queue methods
	GetWithdrawal(ctx context.Context, seq uint64) (*withdrawal.Request, error)
	ListWithdrawals(ctx context.Context, opts withdrawal.ListOpts) ([]*withdrawal.Request, error)
	CountPendingByRequester(ctx context.Context, requester string) (int, error)
	PurgeWithdrawals(ctx context.Context, beforeSeq uint64) (int64, error)

	// Parameter change methods
	GetParamChange(ctx context.Context, changeID id.ParamChangeID) (*paramchange.Change, error)
	ListParamChanges(ctx context.Context, opts paramchange.ListOpts) ([]*paramchange.Change, error)

	// Apply commits one complete unit of work.
	Apply(ctx context.Context, cs *ChangeSet) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
