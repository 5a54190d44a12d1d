// Package account defines share accounts: identity → claim-token balance.
// The vault engine is the sole authority over balances; they change only
// through mint, burn and transfer operations it issues.
package account

import (
	"cosmossdk.io/math"

	"github.com/xraph/vault/types"
)

// Account maps an external identity to its share balance.
type Account struct {
	types.Entity
	Address string   `json:"address"`
	Shares  math.Int `json:"shares"`
}

// New returns a zero-balance account for the address.
func New(address string) *Account {
	return &Account{
		Entity:  types.NewEntity(),
		Address: address,
		Shares:  math.ZeroInt(),
	}
}

// Clone returns a copy safe for speculative mutation.
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}

// ListOpts filters account listings.
type ListOpts struct {
	Limit  int
	Offset int
}
