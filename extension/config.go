package extension

// Config holds the Vault extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.vault" or "vault" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Denom is the value token denomination recorded at initialization
	// (default: "uusdc").
	Denom string `json:"denom" mapstructure:"denom" yaml:"denom"`

	// Treasury is the fee-share recipient address recorded at initialization.
	Treasury string `json:"treasury" mapstructure:"treasury" yaml:"treasury"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Denom: "uusdc",
	}
}
