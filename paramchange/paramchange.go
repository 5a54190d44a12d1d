// Package paramchange defines the timelocked parameter change pipeline:
// queue → wait a fixed per-parameter delay → execute, with cancellation
// possible any time before execution.
package paramchange

import (
	"time"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Kind identifies which parameter a change targets. Only parameters with
// economic blast radius are timelocked; caps and the buffer target change
// immediately through owner setters.
type Kind string

const (
	KindFeeRate      Kind = "fee_rate"
	KindCooldown     Kind = "cooldown"
	KindTreasury     Kind = "treasury"
	KindCustodyVenue Kind = "custody_venue"
)

// Delay returns the mandatory wait between queueing and execution.
// Identity changes (treasury, custody venue) carry the longer delay.
func (k Kind) Delay() time.Duration {
	switch k {
	case KindTreasury, KindCustodyVenue:
		return 72 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Valid reports whether k names a known timelocked parameter.
func (k Kind) Valid() bool {
	switch k {
	case KindFeeRate, KindCooldown, KindTreasury, KindCustodyVenue:
		return true
	}
	return false
}

// Status is the change lifecycle state.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusExecuted Status = "executed"
	StatusCanceled Status = "canceled"
)

// Change is one queued parameter change. Value carries the new setting in
// string form: a base-10 integer for fee_rate, a duration in seconds for
// cooldown, an address for the identity kinds. The engine validates the
// encoding at queue time so execution cannot fail on a malformed value.
type Change struct {
	types.Entity
	ID       id.ParamChangeID `json:"id"`
	Kind     Kind             `json:"kind"`
	Value    string           `json:"value"`
	Status   Status           `json:"status"`
	QueuedAt time.Time        `json:"queued_at"`
	ETA      time.Time        `json:"eta"`

	// ResolvedAt is set when the change is executed or canceled.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Executable reports whether the timelock has elapsed.
func (c *Change) Executable(now time.Time) bool {
	return c.Status == StatusQueued && !now.Before(c.ETA)
}

// Clone returns a copy safe for speculative mutation.
func (c *Change) Clone() *Change {
	cp := *c
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		cp.ResolvedAt = &t
	}
	return &cp
}

// ListOpts filters change listings.
type ListOpts struct {
	Status Status
	Kind   Kind
	Limit  int
	Offset int
}
