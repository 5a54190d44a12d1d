package vault_test

import (
	"context"
	"sync"
	"testing"
	"time"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/types"
)

// recorder captures emitted events for assertions.
type recorder struct {
	mu sync.Mutex

	deposits   []plugin.DepositEvent
	requests   []plugin.WithdrawalRequestedEvent
	cancels    []plugin.WithdrawalCanceledEvent
	fulfills   []plugin.WithdrawalFulfilledEvent
	shortfalls []plugin.LiquidityShortfallEvent
	yields     []plugin.YieldReportedEvent
	fees       []plugin.FeeCollectedEvent
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnDeposit(_ context.Context, evt plugin.DepositEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deposits = append(r.deposits, evt)
	return nil
}

func (r *recorder) OnWithdrawalRequested(_ context.Context, evt plugin.WithdrawalRequestedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, evt)
	return nil
}

func (r *recorder) OnWithdrawalCanceled(_ context.Context, evt plugin.WithdrawalCanceledEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels = append(r.cancels, evt)
	return nil
}

func (r *recorder) OnWithdrawalFulfilled(_ context.Context, evt plugin.WithdrawalFulfilledEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fulfills = append(r.fulfills, evt)
	return nil
}

func (r *recorder) OnLiquidityShortfall(_ context.Context, evt plugin.LiquidityShortfallEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shortfalls = append(r.shortfalls, evt)
	return nil
}

func (r *recorder) OnYieldReported(_ context.Context, evt plugin.YieldReportedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.yields = append(r.yields, evt)
	return nil
}

func (r *recorder) OnFeeCollected(_ context.Context, evt plugin.FeeCollectedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fees = append(r.fees, evt)
	return nil
}

func TestPluginEvents(t *testing.T) {
	rec := &recorder{}
	params := plainParams()
	params.FeeRate = types.Rate(1, 1)
	h := newHarness(t, params, vault.WithPlugin(rec))
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	seq, err := h.v.RequestWithdrawal(ctx, alice, types.Units(30))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := h.v.CancelWithdrawal(ctx, alice, seq); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(10)); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := h.v.ReportYieldAndCollectFees(ctx, owner, types.Units(10)); err != nil {
		t.Fatalf("yield: %v", err)
	}

	h.clock.Advance(25 * time.Hour)
	if _, err := h.v.FulfillWithdrawals(ctx, operator, 10); err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if len(rec.deposits) != 1 {
		t.Errorf("deposits: got %d, want 1", len(rec.deposits))
	}
	if len(rec.requests) != 2 {
		t.Errorf("requests: got %d, want 2", len(rec.requests))
	}
	if len(rec.cancels) != 1 {
		t.Errorf("cancels: got %d, want 1", len(rec.cancels))
	}
	if rec.cancels[0].ByOwner {
		t.Error("self-cancel recorded as owner cancel")
	}
	if len(rec.fulfills) != 1 {
		t.Errorf("fulfills: got %d, want 1", len(rec.fulfills))
	}
	if rec.fulfills[0].Seq != 1 {
		t.Errorf("fulfilled seq: got %d, want 1", rec.fulfills[0].Seq)
	}
	if len(rec.yields) != 1 {
		t.Errorf("yields: got %d, want 1", len(rec.yields))
	}
	if len(rec.fees) != 1 {
		t.Errorf("fees: got %d, want 1", len(rec.fees))
	}
	if len(rec.shortfalls) != 0 {
		t.Errorf("shortfalls: got %d, want 0", len(rec.shortfalls))
	}
}

func TestPluginShortfallEvent(t *testing.T) {
	rec := &recorder{}
	h := newHarness(t, plainParams(), vault.WithPlugin(rec))
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(40)); err != nil {
		t.Fatalf("request: %v", err)
	}

	h.clock.Advance(25 * time.Hour)
	h.venue.SetFrozen(true)

	if _, err := h.v.FulfillWithdrawals(ctx, operator, 10); err != nil {
		t.Fatalf("fulfill: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if len(rec.shortfalls) != 1 {
		t.Fatalf("shortfalls: got %d, want 1", len(rec.shortfalls))
	}
	if !rec.shortfalls[0].Needed.Equal(types.Units(40)) {
		t.Errorf("needed: got %s, want %s", rec.shortfalls[0].Needed, types.Units(40))
	}
}
