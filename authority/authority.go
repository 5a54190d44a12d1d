// Package authority defines the access-control and pause-state collaborator
// consumed by the vault engine. The engine only asks questions; managing
// roles and pause flags is entirely the collaborator's concern.
package authority

import "sync"

// Authority answers capability and pause queries for the vault.
type Authority interface {
	// Owner returns the identity holding the Owner capability.
	Owner() string

	// IsOperator reports whether the identity may fulfill withdrawals.
	IsOperator(identity string) bool

	// Paused reports a global halt of all mutating operations.
	Paused() bool

	// DepositsPaused reports a halt of the deposit path only.
	DepositsPaused() bool

	// WithdrawalsPaused reports a halt of request/fulfillment paths only.
	WithdrawalsPaused() bool
}

// Static is a fixed-owner Authority with runtime-togglable operators and
// pause flags. Suitable for tests, demos and single-tenant embeddings.
type Static struct {
	mu        sync.RWMutex
	owner     string
	operators map[string]bool

	paused            bool
	depositsPaused    bool
	withdrawalsPaused bool
}

var _ Authority = (*Static)(nil)

// NewStatic returns a Static authority with the given owner and operators.
// The owner always holds the Operator capability as well.
func NewStatic(owner string, operators ...string) *Static {
	ops := make(map[string]bool, len(operators))
	for _, op := range operators {
		ops[op] = true
	}
	return &Static{owner: owner, operators: ops}
}

// Owner implements Authority.
func (s *Static) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// IsOperator implements Authority.
func (s *Static) IsOperator(identity string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return identity == s.owner || s.operators[identity]
}

// Paused implements Authority.
func (s *Static) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// DepositsPaused implements Authority.
func (s *Static) DepositsPaused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused || s.depositsPaused
}

// WithdrawalsPaused implements Authority.
func (s *Static) WithdrawalsPaused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused || s.withdrawalsPaused
}

// AddOperator grants the Operator capability.
func (s *Static) AddOperator(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operators[identity] = true
}

// RemoveOperator revokes the Operator capability.
func (s *Static) RemoveOperator(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.operators, identity)
}

// SetPaused toggles the global pause.
func (s *Static) SetPaused(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = v
}

// SetDepositsPaused toggles the deposit-path pause.
func (s *Static) SetDepositsPaused(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depositsPaused = v
}

// SetWithdrawalsPaused toggles the withdrawal-path pause.
func (s *Static) SetWithdrawalsPaused(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawalsPaused = v
}
