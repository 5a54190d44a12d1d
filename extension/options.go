package extension

import (
	vault "github.com/xraph/vault"
	"github.com/xraph/vault/authority"
	"github.com/xraph/vault/custody"
	"github.com/xraph/vault/plugin"
	"github.com/xraph/vault/store"
)

// Option configures the Vault Forge extension.
type Option func(*Extension)

// WithStore sets the store for the vault engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithVaultOption passes a vault.Option through to the underlying engine.
func WithVaultOption(opt vault.Option) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, opt)
	}
}

// WithPlugin registers a vault plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, vault.WithPlugin(p))
	}
}

// WithAuthority sets the access/pause collaborator for the engine.
func WithAuthority(a authority.Authority) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, vault.WithAuthority(a))
	}
}

// WithCustodyVenue sets the capital-deployment collaborator for the engine.
func WithCustodyVenue(venue custody.Venue, address string) Option {
	return func(e *Extension) {
		e.vaultOpts = append(e.vaultOpts, vault.WithCustodyVenue(venue, address))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithDenom sets the value token denomination recorded at initialization.
func WithDenom(denom string) Option {
	return func(e *Extension) { e.config.Denom = denom }
}

// WithTreasury sets the fee-share recipient recorded at initialization.
func WithTreasury(address string) Option {
	return func(e *Extension) { e.config.Treasury = address }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
