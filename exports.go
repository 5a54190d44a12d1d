package vault

import "github.com/xraph/vault/types"

// Re-export common types so users don't have to import the types package.

// Entity is re-exported from the types package.
type Entity = types.Entity

// Re-export fixed-point helpers.
var (
	Units       = types.Units
	Rate        = types.Rate
	MulDiv      = types.MulDiv
	FormatUnits = types.FormatUnits
)

// Re-export Entity constructor.
var NewEntity = types.NewEntity
