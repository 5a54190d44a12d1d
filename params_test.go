package vault_test

import (
	"context"
	"errors"
	"testing"
	"time"

	vault "github.com/xraph/vault"
	"github.com/xraph/vault/paramchange"
	"github.com/xraph/vault/types"
)

func TestImmediateParamSetters(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if err := h.v.SetUserCap(ctx, owner, types.Units(500)); err != nil {
		t.Fatalf("set user cap: %v", err)
	}
	if err := h.v.SetGlobalCap(ctx, owner, types.Units(10_000)); err != nil {
		t.Fatalf("set global cap: %v", err)
	}
	if err := h.v.SetLiquidityBufferTarget(ctx, owner, types.Units(100)); err != nil {
		t.Fatalf("set buffer target: %v", err)
	}
	if err := h.v.SetMaxYieldChange(ctx, owner, types.Rate(5, 2)); err != nil {
		t.Fatalf("set yield bound: %v", err)
	}

	params, err := h.v.Params(ctx)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if !params.UserCap.Equal(types.Units(500)) {
		t.Errorf("user cap: got %s, want %s", params.UserCap, types.Units(500))
	}
	if !params.MaxYieldChange.Equal(types.Rate(5, 2)) {
		t.Errorf("yield bound: got %s, want %s", params.MaxYieldChange, types.Rate(5, 2))
	}

	if err := h.v.SetUserCap(ctx, alice, types.Units(1)); !errors.Is(err, vault.ErrUnauthorized) {
		t.Errorf("non-owner: got %v, want %v", err, vault.ErrUnauthorized)
	}
	if err := h.v.SetUserCap(ctx, owner, types.Units(1).Neg()); !errors.Is(err, vault.ErrInvalidParamValue) {
		t.Errorf("negative cap: got %v, want %v", err, vault.ErrInvalidParamValue)
	}
	if err := h.v.SetMaxYieldChange(ctx, owner, types.Precision.AddRaw(1)); !errors.Is(err, vault.ErrInvalidParamValue) {
		t.Errorf("bound above 100%%: got %v, want %v", err, vault.ErrInvalidParamValue)
	}
}

func TestQueueParamChangeValidation(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  string
		kind    paramchange.Kind
		value   string
		wantErr error
	}{
		{"NonOwner", alice, paramchange.KindFeeRate, "0", vault.ErrUnauthorized},
		{"UnknownKind", owner, paramchange.Kind("bogus"), "0", vault.ErrUnknownParam},
		{"FeeNotANumber", owner, paramchange.KindFeeRate, "ten percent", vault.ErrInvalidParamValue},
		{"FeeNegative", owner, paramchange.KindFeeRate, "-1", vault.ErrInvalidParamValue},
		{"FeeAboveMax", owner, paramchange.KindFeeRate, vault.MaxFeeRate.AddRaw(1).String(), vault.ErrFeeRateTooHigh},
		{"CooldownNegative", owner, paramchange.KindCooldown, "-60", vault.ErrInvalidParamValue},
		{"CooldownNotANumber", owner, paramchange.KindCooldown, "1h", vault.ErrInvalidParamValue},
		{"TreasuryEmpty", owner, paramchange.KindTreasury, "", vault.ErrInvalidParamValue},
		{"TreasuryEscrow", owner, paramchange.KindTreasury, vault.EscrowAddress, vault.ErrInvalidParamValue},
		{"VenueEmpty", owner, paramchange.KindCustodyVenue, "", vault.ErrInvalidParamValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.v.QueueParamChange(ctx, tt.caller, tt.kind, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimelockedFeeRateChange(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	newRate := types.Rate(15, 2) // 15%
	changeID, err := h.v.QueueParamChange(ctx, owner, paramchange.KindFeeRate, newRate.String())
	if err != nil {
		t.Fatalf("queue: %v", err)
	}

	// The delay has not elapsed.
	if err := h.v.ExecuteParamChange(ctx, owner, changeID); !errors.Is(err, vault.ErrTimelockNotElapsed) {
		t.Errorf("early execute: got %v, want %v", err, vault.ErrTimelockNotElapsed)
	}

	// The live parameter is untouched while queued.
	params, err := h.v.Params(ctx)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if !params.FeeRate.IsZero() {
		t.Errorf("fee rate changed while queued: %s", params.FeeRate)
	}

	h.clock.Advance(24*time.Hour + time.Minute)

	if err := h.v.ExecuteParamChange(ctx, alice, changeID); !errors.Is(err, vault.ErrUnauthorized) {
		t.Errorf("non-owner execute: got %v, want %v", err, vault.ErrUnauthorized)
	}
	if err := h.v.ExecuteParamChange(ctx, owner, changeID); err != nil {
		t.Fatalf("execute: %v", err)
	}

	params, err = h.v.Params(ctx)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if !params.FeeRate.Equal(newRate) {
		t.Errorf("fee rate: got %s, want %s", params.FeeRate, newRate)
	}

	if err := h.v.ExecuteParamChange(ctx, owner, changeID); !errors.Is(err, vault.ErrChangeResolved) {
		t.Errorf("double execute: got %v, want %v", err, vault.ErrChangeResolved)
	}
}

func TestIdentityChangesUseLongerDelay(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	changeID, err := h.v.QueueParamChange(ctx, owner, paramchange.KindTreasury, "addr:new-treasury")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}

	// The standard delay is not enough for identity changes.
	h.clock.Advance(25 * time.Hour)
	if err := h.v.ExecuteParamChange(ctx, owner, changeID); !errors.Is(err, vault.ErrTimelockNotElapsed) {
		t.Errorf("after 25h: got %v, want %v", err, vault.ErrTimelockNotElapsed)
	}

	h.clock.Advance(48 * time.Hour)
	if err := h.v.ExecuteParamChange(ctx, owner, changeID); err != nil {
		t.Fatalf("execute: %v", err)
	}

	stats, err := h.v.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Treasury != "addr:new-treasury" {
		t.Errorf("treasury: got %s, want addr:new-treasury", stats.Treasury)
	}
}

func TestCancelParamChange(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	changeID, err := h.v.QueueParamChange(ctx, owner, paramchange.KindCooldown, "3600")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}

	if err := h.v.CancelParamChange(ctx, alice, changeID); !errors.Is(err, vault.ErrUnauthorized) {
		t.Errorf("non-owner cancel: got %v, want %v", err, vault.ErrUnauthorized)
	}
	if err := h.v.CancelParamChange(ctx, owner, changeID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	h.clock.Advance(25 * time.Hour)
	if err := h.v.ExecuteParamChange(ctx, owner, changeID); !errors.Is(err, vault.ErrChangeResolved) {
		t.Errorf("execute canceled: got %v, want %v", err, vault.ErrChangeResolved)
	}

	change, err := h.v.GetParamChange(ctx, changeID)
	if err != nil {
		t.Fatalf("get change: %v", err)
	}
	if change.Status != paramchange.StatusCanceled {
		t.Errorf("status: got %s, want %s", change.Status, paramchange.StatusCanceled)
	}
}

func TestCooldownChangeIsRetroactive(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.Deposit(ctx, alice, types.Units(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// Queue a much longer cooldown, then file a withdrawal request.
	changeID, err := h.v.QueueParamChange(ctx, owner, paramchange.KindCooldown, "360000") // 100h
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if _, err := h.v.RequestWithdrawal(ctx, alice, types.Units(10)); err != nil {
		t.Fatalf("request: %v", err)
	}

	h.clock.Advance(25 * time.Hour)
	if err := h.v.ExecuteParamChange(ctx, owner, changeID); err != nil {
		t.Fatalf("execute: %v", err)
	}

	// 25h have passed, past the original 24h cooldown, but fulfillment
	// checks the current parameter: the request now waits out 100h.
	res, err := h.v.FulfillWithdrawals(ctx, operator, 10)
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if res.Processed != 0 {
		t.Errorf("processed under new cooldown: got %d, want 0", res.Processed)
	}

	h.clock.Advance(80 * time.Hour)
	res, err = h.v.FulfillWithdrawals(ctx, operator, 10)
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if res.Processed != 1 {
		t.Errorf("processed after new cooldown: got %d, want 1", res.Processed)
	}
}

func TestListParamChanges(t *testing.T) {
	h := newHarness(t, plainParams())
	ctx := context.Background()

	if _, err := h.v.QueueParamChange(ctx, owner, paramchange.KindFeeRate, "0"); err != nil {
		t.Fatalf("queue: %v", err)
	}
	if _, err := h.v.QueueParamChange(ctx, owner, paramchange.KindCooldown, "60"); err != nil {
		t.Fatalf("queue: %v", err)
	}

	changes, err := h.v.ListParamChanges(ctx, paramchange.ListOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(changes) != 2 {
		t.Errorf("count: got %d, want 2", len(changes))
	}
}
