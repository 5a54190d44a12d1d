package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cosmossdk.io/math"

	"github.com/xraph/vault"
	"github.com/xraph/vault/account"
	"github.com/xraph/vault/id"
	"github.com/xraph/vault/paramchange"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/types"
	"github.com/xraph/vault/withdrawal"
)

func seedState() *state.State {
	return state.New("uusdc", "addr:treasury", "custody:sim", state.DefaultParams())
}

func seedWithdrawal(seq uint64, requester string, status withdrawal.Status) *withdrawal.Request {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &withdrawal.Request{
		Entity:      types.NewEntityAt(now),
		Seq:         seq,
		ID:          id.NewWithdrawalID(),
		Requester:   requester,
		Shares:      types.Units(10),
		Status:      status,
		RequestedAt: now,
		PaidOut:     math.ZeroInt(),
	}
	if status != withdrawal.StatusPending {
		resolved := now.Add(time.Hour)
		r.ResolvedAt = &resolved
	}
	return r
}

func TestStateNotInitialized(t *testing.T) {
	s := memory.New()
	if _, err := s.GetState(context.Background()); !errors.Is(err, vault.ErrStateNotInitialized) {
		t.Errorf("got %v, want %v", err, vault.ErrStateNotInitialized)
	}
}

func TestApplyRoundTrip(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	st := seedState()
	st.TotalShares = types.Units(100)

	acct := account.New("addr:alice")
	acct.Shares = types.Units(100)

	wdr := seedWithdrawal(0, "addr:alice", withdrawal.StatusPending)

	err := s.Apply(ctx, &store.ChangeSet{
		State:       st,
		Accounts:    []*account.Account{acct},
		Withdrawals: []*withdrawal.Request{wdr},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	gotState, err := s.GetState(ctx)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if !gotState.TotalShares.Equal(types.Units(100)) {
		t.Errorf("total shares: got %s, want %s", gotState.TotalShares, types.Units(100))
	}

	gotAcct, err := s.GetAccount(ctx, "addr:alice")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !gotAcct.Shares.Equal(types.Units(100)) {
		t.Errorf("account shares: got %s, want %s", gotAcct.Shares, types.Units(100))
	}

	gotWdr, err := s.GetWithdrawal(ctx, 0)
	if err != nil {
		t.Fatalf("get withdrawal: %v", err)
	}
	if gotWdr.Requester != "addr:alice" {
		t.Errorf("requester: got %s, want addr:alice", gotWdr.Requester)
	}

	if _, err := s.GetAccount(ctx, "addr:nobody"); !errors.Is(err, vault.ErrAccountNotFound) {
		t.Errorf("missing account: got %v, want %v", err, vault.ErrAccountNotFound)
	}
	if _, err := s.GetWithdrawal(ctx, 99); !errors.Is(err, vault.ErrRequestNotFound) {
		t.Errorf("missing withdrawal: got %v, want %v", err, vault.ErrRequestNotFound)
	}
}

func TestApplyClonesEntities(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	acct := account.New("addr:alice")
	acct.Shares = types.Units(5)

	if err := s.Apply(ctx, &store.ChangeSet{State: seedState(), Accounts: []*account.Account{acct}}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Mutating the caller's copy after Apply must not leak into the store.
	acct.Shares = types.Units(999)

	got, err := s.GetAccount(ctx, "addr:alice")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.Shares.Equal(types.Units(5)) {
		t.Errorf("stored shares aliased the caller's copy: got %s", got.Shares)
	}
}

func TestListWithdrawalsFilters(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	err := s.Apply(ctx, &store.ChangeSet{
		State: seedState(),
		Withdrawals: []*withdrawal.Request{
			seedWithdrawal(0, "addr:alice", withdrawal.StatusFulfilled),
			seedWithdrawal(1, "addr:bob", withdrawal.StatusPending),
			seedWithdrawal(2, "addr:alice", withdrawal.StatusPending),
			seedWithdrawal(3, "addr:alice", withdrawal.StatusCanceled),
		},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	tests := []struct {
		name     string
		opts     withdrawal.ListOpts
		wantSeqs []uint64
	}{
		{"All", withdrawal.ListOpts{}, []uint64{0, 1, 2, 3}},
		{"ByRequester", withdrawal.ListOpts{Requester: "addr:alice"}, []uint64{0, 2, 3}},
		{"ByStatus", withdrawal.ListOpts{Status: withdrawal.StatusPending}, []uint64{1, 2}},
		{"Combined", withdrawal.ListOpts{Requester: "addr:alice", Status: withdrawal.StatusPending}, []uint64{2}},
		{"FromSeq", withdrawal.ListOpts{FromSeq: 2}, []uint64{2, 3}},
		{"Paginated", withdrawal.ListOpts{Offset: 1, Limit: 2}, []uint64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListWithdrawals(ctx, tt.opts)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(tt.wantSeqs) {
				t.Fatalf("count: got %d, want %d", len(got), len(tt.wantSeqs))
			}
			for i, r := range got {
				if r.Seq != tt.wantSeqs[i] {
					t.Errorf("seq[%d]: got %d, want %d", i, r.Seq, tt.wantSeqs[i])
				}
			}
		})
	}
}

func TestCountPendingByRequester(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	err := s.Apply(ctx, &store.ChangeSet{
		State: seedState(),
		Withdrawals: []*withdrawal.Request{
			seedWithdrawal(0, "addr:alice", withdrawal.StatusPending),
			seedWithdrawal(1, "addr:alice", withdrawal.StatusFulfilled),
			seedWithdrawal(2, "addr:alice", withdrawal.StatusPending),
			seedWithdrawal(3, "addr:bob", withdrawal.StatusPending),
		},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	count, err := s.CountPendingByRequester(ctx, "addr:alice")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("count: got %d, want 2", count)
	}
}

func TestPurgeWithdrawals(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	err := s.Apply(ctx, &store.ChangeSet{
		State: seedState(),
		Withdrawals: []*withdrawal.Request{
			seedWithdrawal(0, "addr:alice", withdrawal.StatusFulfilled),
			seedWithdrawal(1, "addr:alice", withdrawal.StatusCanceled),
			seedWithdrawal(2, "addr:alice", withdrawal.StatusPending),
			seedWithdrawal(3, "addr:alice", withdrawal.StatusFulfilled),
		},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Only resolved entries strictly before the head are purged.
	purged, err := s.PurgeWithdrawals(ctx, 3)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 2 {
		t.Errorf("purged: got %d, want 2", purged)
	}

	if _, err := s.GetWithdrawal(ctx, 2); err != nil {
		t.Errorf("pending entry purged: %v", err)
	}
	if _, err := s.GetWithdrawal(ctx, 3); err != nil {
		t.Errorf("entry at head purged: %v", err)
	}
}

func TestParamChangeRoundTrip(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	change := &paramchange.Change{
		Entity:   types.NewEntityAt(now),
		ID:       id.NewParamChangeID(),
		Kind:     paramchange.KindFeeRate,
		Value:    "0",
		Status:   paramchange.StatusQueued,
		QueuedAt: now,
		ETA:      now.Add(24 * time.Hour),
	}

	err := s.Apply(ctx, &store.ChangeSet{
		State:        seedState(),
		ParamChanges: []*paramchange.Change{change},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, err := s.GetParamChange(ctx, change.ID)
	if err != nil {
		t.Fatalf("get change: %v", err)
	}
	if got.Kind != paramchange.KindFeeRate {
		t.Errorf("kind: got %s, want %s", got.Kind, paramchange.KindFeeRate)
	}

	queued, err := s.ListParamChanges(ctx, paramchange.ListOpts{Status: paramchange.StatusQueued})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(queued) != 1 {
		t.Errorf("queued count: got %d, want 1", len(queued))
	}
}

func TestClosedStore(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := s.Ping(ctx); !errors.Is(err, vault.ErrStoreClosed) {
		t.Errorf("ping after close: got %v, want %v", err, vault.ErrStoreClosed)
	}
	if err := s.Apply(ctx, &store.ChangeSet{State: seedState()}); !errors.Is(err, vault.ErrStoreClosed) {
		t.Errorf("apply after close: got %v, want %v", err, vault.ErrStoreClosed)
	}
}
