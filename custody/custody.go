// Package custody defines the external capital-deployment venue consumed by
// the vault engine. The venue earns yield off-ledger; the engine only pushes
// value above its liquidity buffer out to it and pulls value back for
// payouts. A venue that cannot return value on demand produces the engine's
// graceful-degradation path, never a ledger fault.
package custody

import (
	"context"
	"errors"
	"sync"

	"cosmossdk.io/math"
)

// ErrInsufficientCapital is returned by Recall when the venue cannot return
// any of the requested value.
var ErrInsufficientCapital = errors.New("custody: insufficient deployed capital")

// Venue accepts deployed value and returns it on demand.
type Venue interface {
	// Deploy forwards value from the vault buffer to the venue.
	Deploy(ctx context.Context, amount math.Int) error

	// Recall returns up to amount of deployed value to the vault buffer.
	// It returns the amount actually recalled, which may be less than
	// requested; zero with a nil error is a valid "try again later".
	Recall(ctx context.Context, amount math.Int) (math.Int, error)
}

// Sim is an in-memory Venue for tests, demos and local development. It
// tracks a deployed balance and can be configured to refuse recalls to
// exercise the graceful-degradation path.
type Sim struct {
	mu       sync.Mutex
	deployed math.Int

	// recallLimit caps each Recall; nil means unlimited.
	recallLimit *math.Int
	frozen      bool
}

var _ Venue = (*Sim)(nil)

// NewSim returns an empty simulated venue.
func NewSim() *Sim {
	return &Sim{deployed: math.ZeroInt()}
}

// Deploy implements Venue.
func (s *Sim) Deploy(_ context.Context, amount math.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployed = s.deployed.Add(amount)
	return nil
}

// Recall implements Venue.
func (s *Sim) Recall(_ context.Context, amount math.Int) (math.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return math.ZeroInt(), nil
	}
	if s.deployed.IsZero() {
		return math.ZeroInt(), ErrInsufficientCapital
	}

	out := amount
	if s.recallLimit != nil && out.GT(*s.recallLimit) {
		out = *s.recallLimit
	}
	if out.GT(s.deployed) {
		out = s.deployed
	}
	s.deployed = s.deployed.Sub(out)
	return out, nil
}

// Deployed returns the venue's current deployed balance.
func (s *Sim) Deployed() math.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deployed
}

// SetRecallLimit caps the value returned per Recall call.
func (s *Sim) SetRecallLimit(limit math.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recallLimit = &limit
}

// SetFrozen makes Recall return zero without error, simulating a venue that
// is alive but temporarily illiquid.
func (s *Sim) SetFrozen(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = v
}

// Fund credits deployed capital directly, representing yield realized at
// the venue. Accounting-wise the vault only learns about it through a yield
// report; this just makes the value recallable in simulations.
func (s *Sim) Fund(amount math.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployed = s.deployed.Add(amount)
}
