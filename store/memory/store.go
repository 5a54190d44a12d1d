// Package memory provides an in-memory store for testing and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"cosmossdk.io/math"

	"github.com/xraph/vault"
	"github.com/xraph/vault/account"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/paramchange"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/withdrawal"
)

type Store struct {
	mu sync.RWMutex

	// Singleton ledger state
	state *state.State

	// Account storage, keyed by address
	accounts map[string]*account.Account

	// Withdrawal queue, keyed by sequence number
	withdrawals map[uint64]*withdrawal.Request

	// Timelocked parameter changes, keyed by ID
	changes map[string]*paramchange.Change

	closed bool
}

func New() *Store {
	return &Store{
		accounts:    make(map[string]*account.Account),
		withdrawals: make(map[uint64]*withdrawal.Request),
		changes:     make(map[string]*paramchange.Change),
	}
}

// State methods

func (s *Store) GetState(_ context.Context) (*state.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, vault.ErrStateNotInitialized
	}
	return s.state, nil
}

// Account methods

func (s *Store) GetAccount(_ context.Context, address string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[address]; ok {
		return a, nil
	}
	return nil, vault.ErrAccountNotFound
}

func (s *Store) ListAccounts(_ context.Context, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*account.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) SumAccountShares(_ context.Context) (math.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := math.ZeroInt()
	for _, a := range s.accounts {
		sum = sum.Add(a.Shares)
	}
	return sum, nil
}

// Withdrawal queue methods

func (s *Store) GetWithdrawal(_ context.Context, seq uint64) (*withdrawal.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.withdrawals[seq]; ok {
		return r, nil
	}
	return nil, vault.ErrRequestNotFound
}

func (s *Store) ListWithdrawals(_ context.Context, opts withdrawal.ListOpts) ([]*withdrawal.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*withdrawal.Request, 0)
	for _, r := range s.withdrawals {
		if opts.Requester != "" && r.Requester != opts.Requester {
			continue
		}
		if opts.Status != "" && r.Status != opts.Status {
			continue
		}
		if r.Seq < opts.FromSeq {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountPendingByRequester(_ context.Context, requester string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.withdrawals {
		if r.Requester == requester && r.Status == withdrawal.StatusPending {
			count++
		}
	}
	return count, nil
}

func (s *Store) PurgeWithdrawals(_ context.Context, beforeSeq uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for seq, r := range s.withdrawals {
		if seq < beforeSeq && r.Resolved() {
			delete(s.withdrawals, seq)
			purged++
		}
	}
	return purged, nil
}

// Parameter change methods

func (s *Store) GetParamChange(_ context.Context, changeID id.ParamChangeID) (*paramchange.Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.changes[changeID.String()]; ok {
		return c, nil
	}
	return nil, vault.ErrChangeNotFound
}

func (s *Store) ListParamChanges(_ context.Context, opts paramchange.ListOpts) ([]*paramchange.Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*paramchange.Change, 0)
	for _, c := range s.changes {
		if opts.Status != "" && c.Status != opts.Status {
			continue
		}
		if opts.Kind != "" && c.Kind != opts.Kind {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].QueuedAt.Before(result[j].QueuedAt)
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Apply commits one complete unit of work. Entities are cloned in so later
// reads never alias the caller's working copies.
func (s *Store) Apply(_ context.Context, cs *store.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return vault.ErrStoreClosed
	}

	if cs.State != nil {
		s.state = cs.State.Clone()
	}
	for _, a := range cs.Accounts {
		s.accounts[a.Address] = a.Clone()
	}
	for _, r := range cs.Withdrawals {
		s.withdrawals[r.Seq] = r.Clone()
	}
	for _, c := range cs.ParamChanges {
		s.changes[c.ID.String()] = c.Clone()
	}
	return nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return vault.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
