package vault_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cosmossdk.io/math"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/account"
	"github.com/xraph/vault/store"
	"github.com/xraph/vault/store/memory"
	"github.com/xraph/vault/types"
	"github.com/xraph/vault/withdrawal"
)

func TestRequestWithdrawalEscrowsShares(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	seq, err := h.v.RequestWithdrawal(ctx, alice, types.Units(40))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if seq != 0 {
		t.Errorf("seq: got %d, want 0", seq)
	}

	acct, err := h.v.GetAccount(ctx, alice)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !acct.Shares.Equal(types.Units(60)) {
		t.Errorf("requester shares: got %s, want %s", acct.Shares, types.Units(60))
	}

	esc, err := h.v.GetAccount(ctx, vault.EscrowAddress)
	if err != nil {
		t.Fatalf("get escrow: %v", err)
	}
	if !esc.Shares.Equal(types.Units(40)) {
		t.Errorf("escrow shares: got %s, want %s", esc.Shares, types.Units(40))
	}

	req, err := h.v.GetWithdrawal(ctx, seq)
	if err != nil {
		t.Fatalf("get withdrawal: %v", err)
	}
	if req.Status != withdrawal.StatusPending {
		t.Errorf("status: got %s, want %s", req.Status, withdrawal.StatusPending)
	}
	if !req.Shares.Equal(types.Units(40)) {
		t.Errorf("request shares: got %s, want %s", req.Shares, types.Units(40))
	}
}

func TestRequestWithdrawalValidation(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	tests := []struct {
		name      string
		requester string
		shares    math.Int
		wantErr   error
	}{
		{"EmptyRequester", "", types.Units(1), vault.ErrInvalidInput},
		{"EscrowRequester", vault.EscrowAddress, types.Units(1), vault.ErrInvalidInput},
		{"ZeroShares", alice, math.ZeroInt(), vault.ErrInvalidAmount},
		{"MoreThanBalance", alice, types.Units(11), vault.ErrInsufficientShares},
		{"NoBalance", bob, types.Units(1), vault.ErrInsufficientShares},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.v.RequestWithdrawal(ctx, tt.requester, tt.shares)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestWithdrawalPendingLimit(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	for i := 0; i < vault.MaxPendingPerUser; i++ {
		if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(1)); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}

	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(1)); !errors.Is(err, vault.ErrTooManyPending) {
		t.Errorf("got %v, want %v", err, vault.ErrTooManyPending)
	}
}

func TestEscrowedSharesCannotBeReused(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(10)); err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(1)); !errors.Is(err, vault.ErrInsufficientShares) {
		t.Errorf("got %v, want %v", err, vault.ErrInsufficientShares)
	}
}

func TestCooldownBlocksFulfillment(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(40)); err != nil {
		t.Fatalf("request: %v", err)
	}

	h.clock.Advance(23 * time.Hour)

	res, err := h.v.FulfillWithdrawals(ctx, operator, 10)
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if res.Processed != 0 {
		t.Errorf("processed: got %d, want 0", res.Processed)
	}
	if !res.Paid.IsZero() {
		t.Errorf("paid: got %s, want 0", res.Paid)
	}
}

func TestFulfillAfterCooldown(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(40)); err != nil {
		t.Fatalf("request: %v", err)
	}

	h.clock.Advance(24*time.Hour + time.Minute)

	res, err := h.v.FulfillWithdrawals(ctx, operator, 10)
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if res.Processed != 1 {
		t.Fatalf("processed: got %d, want 1", res.Processed)
	}
	if !res.Paid.Equal(types.Units(40)) {
		t.Errorf("paid: got %s, want %s", res.Paid, types.Units(40))
	}

	req, err := h.v.GetWithdrawal(ctx, 0)
	if err != nil {
		t.Fatalf("get withdrawal: %v", err)
	}
	if req.Status != withdrawal.StatusFulfilled {
		t.Errorf("status: got %s, want %s", req.Status, withdrawal.StatusFulfilled)
	}
	if !req.PaidOut.Equal(types.Units(40)) {
		t.Errorf("paid out: got %s, want %s", req.PaidOut, types.Units(40))
	}

	// Supply shrank with the burn; remaining holders keep 1:1 pricing.
	stats, err := h.v.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !stats.TotalShares.Equal(types.Units(60)) {
		t.Errorf("total shares: got %s, want %s", stats.TotalShares, types.Units(60))
	}
	if !stats.SharePrice.Equal(types.Precision) {
		t.Errorf("price: got %s, want %s", stats.SharePrice, types.Precision)
	}
}

func TestFulfillPaysAtCurrentPrice(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(40)); err != nil {
		t.Fatalf("request: %v", err)
	}

	// Yield doubles the price while the request waits out its cooldown.
	if _, err := h.v.ReportYieldAndCollectFees(ctx, owner, types.Units(100)); err != nil {
		t.Fatalf("yield: %v", err)
	}
	h.venue.Fund(types.Units(100))

	h.clock.Advance(25 * time.Hour)

	res, err := h.v.FulfillWithdrawals(ctx, operator, 10)
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if !res.Paid.Equal(types.Units(80)) {
		t.Errorf("paid: got %s, want %s", res.Paid, types.Units(80))
	}
}

func TestFulfillSkipsResolvedEntries(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(10)); err != nil {
		t.Fatalf("request 0: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(20)); err != nil {
		t.Fatalf("request 1: %v", err)
	}
	if err := h.v.CancelWithdrawal(ctx, alice, 0); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	h.clock.Advance(25 * time.Hour)

	res, err := h.v.FulfillWithdrawals(ctx, operator, 10)
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if res.Processed != 1 {
		t.Errorf("processed: got %d, want 1", res.Processed)
	}
	if !res.Paid.Equal(types.Units(20)) {
		t.Errorf("paid: got %s, want %s", res.Paid, types.Units(20))
	}

	stats, err := h.v.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.QueueHead != 2 {
		t.Errorf("head: got %d, want 2", stats.QueueHead)
	}
}

func TestFulfillAuthorization(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.FulfillWithdrawals(ctx, alice, 1); !errors.Is(err, vault.ErrUnauthorized) {
		t.Errorf("non-operator: got %v, want %v", err, vault.ErrUnauthorized)
	}
	if _, err := h.v.FulfillWithdrawals(ctx, operator, 0); !errors.Is(err, vault.ErrInvalidInput) {
		t.Errorf("zero count: got %v, want %v", err, vault.ErrInvalidInput)
	}

	h.auth.SetWithdrawalsPaused(true)
	if _, err := h.v.FulfillWithdrawals(ctx, operator, 1); !errors.Is(err, vault.ErrWithdrawalsPaused) {
		t.Errorf("paused: got %v, want %v", err, vault.ErrWithdrawalsPaused)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(1)); !errors.Is(err, vault.ErrWithdrawalsPaused) {
		t.Errorf("request while paused: got %v, want %v", err, vault.ErrWithdrawalsPaused)
	}
}

func TestLiquidityShortfallStopsEarly(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(40)); err != nil {
		t.Fatalf("request: %v", err)
	}

	h.clock.Advance(25 * time.Hour)
	h.venue.SetFrozen(true)

	res, err := h.v.FulfillWithdrawals(ctx, operator, 10)
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if res.Processed != 0 {
		t.Errorf("processed: got %d, want 0", res.Processed)
	}

	// The request stays pending and is fulfillable once the venue thaws.
	h.venue.SetFrozen(false)

	res, err = h.v.FulfillWithdrawals(ctx, operator, 10)
	if err != nil {
		t.Fatalf("fulfill after thaw: %v", err)
	}
	if res.Processed != 1 {
		t.Errorf("processed after thaw: got %d, want 1", res.Processed)
	}
}

func TestPartialRecallAccumulates(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(40)); err != nil {
		t.Fatalf("request: %v", err)
	}

	h.clock.Advance(25 * time.Hour)
	h.venue.SetRecallLimit(types.Units(25))

	// First attempt recalls 25, still short of 40: partial result, funds kept.
	res, err := h.v.FulfillWithdrawals(ctx, operator, 10)
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if res.Processed != 0 {
		t.Fatalf("processed: got %d, want 0", res.Processed)
	}

	stats, err := h.v.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !stats.BufferBalance.Equal(types.Units(25)) {
		t.Errorf("buffer: got %s, want %s", stats.BufferBalance, types.Units(25))
	}

	// Second attempt recalls the remaining 15 and pays out.
	res, err = h.v.FulfillWithdrawals(ctx, operator, 10)
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if res.Processed != 1 {
		t.Errorf("processed: got %d, want 1", res.Processed)
	}
}

// brittleStore refuses Apply once armed and out of budget.
type brittleStore struct {
	store.Store
	armed   bool
	allowed int
}

func (s *brittleStore) Arm(allowed int) {
	s.armed = true
	s.allowed = allowed
}

func (s *brittleStore) Disarm() { s.armed = false }

func (s *brittleStore) Apply(ctx context.Context, cs *store.ChangeSet) error {
	if s.armed {
		if s.allowed == 0 {
			return errors.New("store apply refused")
		}
		s.allowed--
	}
	return s.Store.Apply(ctx, cs)
}

func TestRecallSurvivesFailedPayout(t *testing.T) {
	bs := &brittleStore{Store: memory.New()}
	h := newHarnessWithStore(t, plainParams(), bs)
	ctx := context.Background()

	// Zero buffer target: the full deposit is deployed to the venue, so
	// fulfillment must recall before it can pay.
	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(40)); err != nil {
		t.Fatalf("request: %v", err)
	}
	h.clock.Advance(25 * time.Hour)

	// Let the recall commit through, then refuse the payout commit. The
	// venue has already released the funds at that point, so they must be
	// on the books even though the call as a whole fails.
	bs.Arm(1)
	if _, err := h.v.FulfillWithdrawals(ctx, operator, 10); err == nil {
		t.Fatal("fulfill: want error from refused payout commit")
	}
	bs.Disarm()

	stats, err := h.v.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !stats.BufferBalance.Equal(types.Units(40)) {
		t.Errorf("buffer: got %s, want %s", stats.BufferBalance, types.Units(40))
	}
	if !h.venue.Deployed().Equal(types.Units(60)) {
		t.Errorf("deployed: got %s, want %s", h.venue.Deployed(), types.Units(60))
	}

	// The request itself is untouched and pays out normally afterwards.
	req, err := h.v.GetWithdrawal(ctx, 0)
	if err != nil {
		t.Fatalf("get withdrawal: %v", err)
	}
	if req.Status != withdrawal.StatusPending {
		t.Fatalf("status: got %s, want %s", req.Status, withdrawal.StatusPending)
	}
	res, err := h.v.FulfillWithdrawals(ctx, operator, 10)
	if err != nil {
		t.Fatalf("fulfill retry: %v", err)
	}
	if res.Processed != 1 || !res.Paid.Equal(types.Units(40)) {
		t.Errorf("retry result: got (%d, %s), want (1, %s)", res.Processed, res.Paid, types.Units(40))
	}
}

func TestCancelWithdrawalWindow(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	seq1, err := h.v.RequestWithdrawal(ctx, alice, types.Units(10))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	seq2, err := h.v.RequestWithdrawal(ctx, alice, types.Units(10))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	// Within the window the requester may cancel.
	h.clock.Advance(30 * time.Minute)
	if err := h.v.CancelWithdrawal(ctx, alice, seq1); err != nil {
		t.Fatalf("cancel in window: %v", err)
	}

	// After the window only the owner may.
	h.clock.Advance(time.Hour)
	if err := h.v.CancelWithdrawal(ctx, alice, seq2); !errors.Is(err, vault.ErrCancelWindowClosed) {
		t.Errorf("cancel after window: got %v, want %v", err, vault.ErrCancelWindowClosed)
	}
	if err := h.v.CancelWithdrawal(ctx, owner, seq2); err != nil {
		t.Fatalf("owner cancel: %v", err)
	}

	// Shares returned in full.
	acct, err := h.v.GetAccount(ctx, alice)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !acct.Shares.Equal(types.Units(100)) {
		t.Errorf("shares: got %s, want %s", acct.Shares, types.Units(100))
	}

	// A resolved request cannot be canceled again.
	if err := h.v.CancelWithdrawal(ctx, owner, seq1); !errors.Is(err, vault.ErrRequestResolved) {
		t.Errorf("double cancel: got %v, want %v", err, vault.ErrRequestResolved)
	}

	// Strangers never may.
	seq3, err := h.v.RequestWithdrawal(ctx, alice, types.Units(5))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := h.v.CancelWithdrawal(ctx, bob, seq3); !errors.Is(err, vault.ErrUnauthorized) {
		t.Errorf("stranger cancel: got %v, want %v", err, vault.ErrUnauthorized)
	}
}

func TestForceProcessWithdrawal(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(10)); err != nil {
		t.Fatalf("request 0: %v", err)
	}
	seq, err := h.v.RequestWithdrawal(ctx, alice, types.Units(20))
	if err != nil {
		t.Fatalf("request 1: %v", err)
	}

	if _, err := h.v.ForceProcessWithdrawal(ctx, alice, seq); !errors.Is(err, vault.ErrUnauthorized) {
		t.Errorf("non-owner: got %v, want %v", err, vault.ErrUnauthorized)
	}

	// Out of order and without waiting out the cooldown.
	paid, err := h.v.ForceProcessWithdrawal(ctx, owner, seq)
	if err != nil {
		t.Fatalf("force process: %v", err)
	}
	if !paid.Equal(types.Units(20)) {
		t.Errorf("paid: got %s, want %s", paid, types.Units(20))
	}

	req, err := h.v.GetWithdrawal(ctx, seq)
	if err != nil {
		t.Fatalf("get withdrawal: %v", err)
	}
	if !req.Forced {
		t.Error("expected the request to be marked forced")
	}

	// The head did not move past the still-pending first request.
	stats, err := h.v.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.QueueHead != 0 {
		t.Errorf("head: got %d, want 0", stats.QueueHead)
	}

	if _, err := h.v.ForceProcessWithdrawal(ctx, owner, seq); !errors.Is(err, vault.ErrRequestResolved) {
		t.Errorf("double force: got %v, want %v", err, vault.ErrRequestResolved)
	}
}

func TestForceProcessInsufficientLiquidity(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	seq, err := h.v.RequestWithdrawal(ctx, alice, types.Units(40))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	h.venue.SetFrozen(true)

	if _, err := h.v.ForceProcessWithdrawal(ctx, owner, seq); !errors.Is(err, vault.ErrInsufficientLiquidity) {
		t.Errorf("got %v, want %v", err, vault.ErrInsufficientLiquidity)
	}

	// The request is untouched.
	req, err := h.v.GetWithdrawal(ctx, seq)
	if err != nil {
		t.Fatalf("get withdrawal: %v", err)
	}
	if req.Status != withdrawal.StatusPending {
		t.Errorf("status: got %s, want %s", req.Status, withdrawal.StatusPending)
	}
}

func TestPurgeProcessedWithdrawals(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(5)); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}

	h.clock.Advance(25 * time.Hour)
	if _, err := h.v.FulfillWithdrawals(ctx, operator, 2); err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	purged, err := h.v.PurgeProcessedWithdrawals(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 2 {
		t.Errorf("purged: got %d, want 2", purged)
	}

	// The still-pending request behind the head survives.
	if _, err := h.v.GetWithdrawal(ctx, 2); err != nil {
		t.Errorf("pending request purged: %v", err)
	}
	if _, err := h.v.GetWithdrawal(ctx, 0); !errors.Is(err, vault.ErrRequestNotFound) {
		t.Errorf("resolved request kept: got %v, want %v", err, vault.ErrRequestNotFound)
	}
}

func TestSweepOrphanedShares(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(40)); err != nil {
		t.Fatalf("request: %v", err)
	}

	// Nothing orphaned yet.
	swept, err := h.v.SweepOrphanedShares(ctx, owner)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !swept.IsZero() {
		t.Errorf("swept: got %s, want 0", swept)
	}

	// Simulate a donation straight into escrow, bypassing the queue.
	st, err := h.v.Store().GetState(ctx)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	esc, err := h.v.Store().GetAccount(ctx, vault.EscrowAddress)
	if err != nil {
		t.Fatalf("get escrow: %v", err)
	}
	esc.Shares = esc.Shares.Add(types.Units(7))
	st.TotalShares = st.TotalShares.Add(types.Units(7))
	err = h.v.Store().Apply(ctx, &store.ChangeSet{
		State:    st,
		Accounts: []*account.Account{esc},
	})
	if err != nil {
		t.Fatalf("apply donation: %v", err)
	}

	// The donation never blocks withdrawal paths.
	if err := h.v.CancelWithdrawal(ctx, owner, 0); err != nil {
		t.Fatalf("cancel with donation present: %v", err)
	}

	swept, err = h.v.SweepOrphanedShares(ctx, owner)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !swept.Equal(types.Units(7)) {
		t.Errorf("swept: got %s, want %s", swept, types.Units(7))
	}

	if err := h.v.VerifyConservation(ctx); err != nil {
		t.Errorf("conservation after sweep: %v", err)
	}

	if _, err := h.v.SweepOrphanedShares(ctx, alice); !errors.Is(err, vault.ErrUnauthorized) {
		t.Errorf("non-owner sweep: got %v, want %v", err, vault.ErrUnauthorized)
	}
}

func TestPendingWithdrawalsQuery(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.Deposit(ctx, bob, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(10)); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, bob, types.Units(10)); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(10)); err != nil {
		t.Fatalf("request: %v", err)
	}

	pending, err := h.v.PendingWithdrawals(ctx, alice)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending count: got %d, want 2", len(pending))
	}
	for _, r := range pending {
		if r.Requester != alice {
			t.Errorf("requester: got %s, want %s", r.Requester, alice)
		}
	}
}
