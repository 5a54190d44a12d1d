// Package withdrawal defines the asynchronous withdrawal request log.
//
// Requests form an append-only FIFO queue keyed by a dense sequence number.
// A request is Pending from creation until it reaches one of two terminal
// states: Fulfilled (normal or forced processing) or Canceled. The queue head
// lives in the vault state scalars and only ever moves forward.
package withdrawal

import (
	"time"

	"cosmossdk.io/math"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Status is the request lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusCanceled  Status = "canceled"
)

// Request is a single withdrawal in the queue. Seq is the authoritative FIFO
// key and the identifier returned to callers; ID is a portable external
// handle for audit trails and cross-system references.
type Request struct {
	types.Entity
	Seq       uint64          `json:"seq"`
	ID        id.WithdrawalID `json:"id"`
	Requester string          `json:"requester"`
	Shares    math.Int        `json:"shares"`
	Status    Status          `json:"status"`

	// RequestedAt drives both the self-cancellation window and the
	// cooldown check. Cooldown is evaluated against the parameter value
	// current at fulfillment time, not one captured here.
	RequestedAt time.Time `json:"requested_at"`

	// ResolvedAt is set when the request reaches a terminal state.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	// PaidOut is the value released on fulfillment, priced at the share
	// price current at that moment. Zero for canceled requests.
	PaidOut math.Int `json:"paid_out"`

	// Forced marks out-of-order owner processing.
	Forced bool `json:"forced"`
}

// Pending reports whether the request is still awaiting resolution.
func (r *Request) Pending() bool { return r.Status == StatusPending }

// Resolved reports whether the request reached a terminal state.
func (r *Request) Resolved() bool { return r.Status != StatusPending }

// CooldownElapsed reports whether the request became eligible for
// fulfillment given the current cooldown parameter.
func (r *Request) CooldownElapsed(now time.Time, cooldown time.Duration) bool {
	return !now.Before(r.RequestedAt.Add(cooldown))
}

// WithinCancelWindow reports whether the requester may still self-cancel.
func (r *Request) WithinCancelWindow(now time.Time, window time.Duration) bool {
	return now.Before(r.RequestedAt.Add(window))
}

// Clone returns a copy safe for speculative mutation.
func (r *Request) Clone() *Request {
	cp := *r
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		cp.ResolvedAt = &t
	}
	return &cp
}

// ListOpts filters request listings. Seq ordering is always ascending.
type ListOpts struct {
	Requester string
	Status    Status
	FromSeq   uint64
	Limit     int
	Offset    int
}
