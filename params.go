package vault

import (
	"context"
	"strconv"
	"time"

	"cosmossdk.io/math"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/paramchange"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/state"
	"github.com/xraph/vault/types"
)

// ──────────────────────────────────────────────────
// Immediate owner setters
// ──────────────────────────────────────────────────

// SetUserCap bounds the value of a single holder's position. Zero disables
// the cap. Takes effect immediately; owner-only.
func (v *Vault) SetUserCap(ctx context.Context, caller string, limit math.Int) error {
	return v.setParam(ctx, caller, "SetUserCap", limit, func(p *state.Params, val math.Int) {
		p.UserCap = val
	})
}

// SetGlobalCap bounds total assets under management. Zero disables the cap.
// Takes effect immediately; owner-only.
func (v *Vault) SetGlobalCap(ctx context.Context, caller string, limit math.Int) error {
	return v.setParam(ctx, caller, "SetGlobalCap", limit, func(p *state.Params, val math.Int) {
		p.GlobalCap = val
	})
}

// SetLiquidityBufferTarget sets how much value stays local instead of being
// deployed to the custody venue. Takes effect immediately; owner-only.
func (v *Vault) SetLiquidityBufferTarget(ctx context.Context, caller string, target math.Int) error {
	return v.setParam(ctx, caller, "SetLiquidityBufferTarget", target, func(p *state.Params, val math.Int) {
		p.LiquidityBufferTarget = val
	})
}

// SetMaxYieldChange sets the Precision-scaled per-report yield bound. Zero
// disables the bound. Takes effect immediately; owner-only.
func (v *Vault) SetMaxYieldChange(ctx context.Context, caller string, bound math.Int) error {
	if !bound.IsNil() && bound.GT(types.Precision) {
		return ErrInvalidParamValue
	}
	return v.setParam(ctx, caller, "SetMaxYieldChange", bound, func(p *state.Params, val math.Int) {
		p.MaxYieldChange = val
	})
}

func (v *Vault) setParam(ctx context.Context, caller, op string, val math.Int, apply func(*state.Params, math.Int)) error {
	unlock, err := v.guardEntry()
	if err != nil {
		return err
	}
	defer unlock()

	if caller != v.auth.Owner() {
		return ErrUnauthorized
	}
	if val.IsNil() || val.IsNegative() {
		return ErrInvalidParamValue
	}

	u, err := v.begin(ctx)
	if err != nil {
		return err
	}

	apply(&u.st.Params, val)

	if err := v.commit(ctx, op, u); err != nil {
		return err
	}

	v.logger.Info("parameter updated", "operation", op, "value", val.String())
	return nil
}

// ──────────────────────────────────────────────────
// Timelocked changes
// ──────────────────────────────────────────────────

// QueueParamChange queues a timelocked change to a high-blast-radius
// parameter. The value encoding is validated now so execution cannot fail on
// a malformed value later. Owner-only.
func (v *Vault) QueueParamChange(ctx context.Context, caller string, kind paramchange.Kind, value string) (id.ParamChangeID, error) {
	unlock, err := v.guardEntry()
	if err != nil {
		return id.ID{}, err
	}
	defer unlock()

	if caller != v.auth.Owner() {
		return id.ID{}, ErrUnauthorized
	}
	if !kind.Valid() {
		return id.ID{}, ErrUnknownParam
	}
	if err := validateParamValue(kind, value); err != nil {
		return id.ID{}, err
	}

	u, err := v.begin(ctx)
	if err != nil {
		return id.ID{}, err
	}

	change := &paramchange.Change{
		Entity:   types.NewEntityAt(u.now),
		ID:       id.NewParamChangeID(),
		Kind:     kind,
		Value:    value,
		Status:   paramchange.StatusQueued,
		QueuedAt: u.now,
		ETA:      u.now.Add(kind.Delay()),
	}
	u.changes = append(u.changes, change)

	if err := v.commit(ctx, "QueueParamChange", u); err != nil {
		return id.ID{}, err
	}

	v.plugins.EmitParamChangeQueued(ctx, plugin.ParamChangeEvent{
		ChangeID: change.ID.String(),
		Kind:     string(kind),
		Value:    value,
		ETA:      change.ETA,
		At:       u.now,
	})

	v.logger.Info("parameter change queued",
		"change_id", change.ID.String(),
		"kind", string(kind),
		"eta", change.ETA,
	)

	return change.ID, nil
}

// ExecuteParamChange applies a queued change once its timelock has elapsed.
// Owner-only.
func (v *Vault) ExecuteParamChange(ctx context.Context, caller string, changeID id.ParamChangeID) error {
	unlock, err := v.guardEntry()
	if err != nil {
		return err
	}
	defer unlock()

	if caller != v.auth.Owner() {
		return ErrUnauthorized
	}

	u, err := v.begin(ctx)
	if err != nil {
		return err
	}

	change, err := v.store.GetParamChange(ctx, changeID)
	if err != nil {
		if IsNotFound(err) {
			return ErrChangeNotFound
		}
		return err
	}
	change = change.Clone()

	if change.Status != paramchange.StatusQueued {
		return ErrChangeResolved
	}
	if !change.Executable(u.now) {
		return ErrTimelockNotElapsed
	}

	if err := applyParamChange(u, change); err != nil {
		return err
	}

	resolved := u.now
	change.Status = paramchange.StatusExecuted
	change.ResolvedAt = &resolved
	change.TouchAt(u.now)
	u.changes = append(u.changes, change)

	if err := v.commit(ctx, "ExecuteParamChange", u); err != nil {
		return err
	}

	v.plugins.EmitParamChangeExecuted(ctx, plugin.ParamChangeEvent{
		ChangeID: change.ID.String(),
		Kind:     string(change.Kind),
		Value:    change.Value,
		ETA:      change.ETA,
		At:       u.now,
	})

	v.logger.Info("parameter change executed",
		"change_id", change.ID.String(),
		"kind", string(change.Kind),
		"value", change.Value,
	)

	return nil
}

// CancelParamChange cancels a queued change before execution. Owner-only.
func (v *Vault) CancelParamChange(ctx context.Context, caller string, changeID id.ParamChangeID) error {
	unlock, err := v.guardEntry()
	if err != nil {
		return err
	}
	defer unlock()

	if caller != v.auth.Owner() {
		return ErrUnauthorized
	}

	u, err := v.begin(ctx)
	if err != nil {
		return err
	}

	change, err := v.store.GetParamChange(ctx, changeID)
	if err != nil {
		if IsNotFound(err) {
			return ErrChangeNotFound
		}
		return err
	}
	change = change.Clone()

	if change.Status != paramchange.StatusQueued {
		return ErrChangeResolved
	}

	resolved := u.now
	change.Status = paramchange.StatusCanceled
	change.ResolvedAt = &resolved
	change.TouchAt(u.now)
	u.changes = append(u.changes, change)

	if err := v.commit(ctx, "CancelParamChange", u); err != nil {
		return err
	}

	v.plugins.EmitParamChangeCanceled(ctx, plugin.ParamChangeEvent{
		ChangeID: change.ID.String(),
		Kind:     string(change.Kind),
		Value:    change.Value,
		ETA:      change.ETA,
		At:       u.now,
	})

	return nil
}

// validateParamValue checks the string encoding for a change kind:
// a base-10 Precision-scaled integer for fee_rate, whole seconds for
// cooldown, a non-reserved address for the identity kinds.
func validateParamValue(kind paramchange.Kind, value string) error {
	switch kind {
	case paramchange.KindFeeRate:
		rate, ok := math.NewIntFromString(value)
		if !ok || rate.IsNegative() {
			return ErrInvalidParamValue
		}
		if rate.GT(MaxFeeRate) {
			return ErrFeeRateTooHigh
		}
	case paramchange.KindCooldown:
		secs, err := strconv.ParseInt(value, 10, 64)
		if err != nil || secs < 0 {
			return ErrInvalidParamValue
		}
	case paramchange.KindTreasury, paramchange.KindCustodyVenue:
		if value == "" || value == EscrowAddress {
			return ErrInvalidParamValue
		}
	default:
		return ErrUnknownParam
	}
	return nil
}

// applyParamChange writes an executed change into the working state.
// Values were validated at queue time; re-validated here in case MaxFeeRate
// or other bounds tightened between queue and execute.
func applyParamChange(u *uow, change *paramchange.Change) error {
	if err := validateParamValue(change.Kind, change.Value); err != nil {
		return err
	}

	switch change.Kind {
	case paramchange.KindFeeRate:
		rate, _ := math.NewIntFromString(change.Value)
		u.st.Params.FeeRate = rate
	case paramchange.KindCooldown:
		secs, _ := strconv.ParseInt(change.Value, 10, 64)
		u.st.Params.CooldownPeriod = time.Duration(secs) * time.Second
	case paramchange.KindTreasury:
		u.st.Treasury = change.Value
	case paramchange.KindCustodyVenue:
		u.st.CustodyVenue = change.Value
	}
	return nil
}
