package extension

import "time"

// Config holds the Recur extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.recur" or "recur" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableBiller prevents the background billing sweeper from starting.
	// Charges then only happen through explicit ProcessPayment calls.
	DisableBiller bool `json:"disable_biller" mapstructure:"disable_biller" yaml:"disable_biller"`

	// BillInterval is the cadence of the background billing sweep
	// (default: 1m).
	BillInterval time.Duration `json:"bill_interval" mapstructure:"bill_interval" yaml:"bill_interval"`

	// BillBatch caps how many due subscriptions one sweep charges
	// (default: 100).
	BillBatch int `json:"bill_batch" mapstructure:"bill_batch" yaml:"bill_batch"`

	// DelegationCap bounds the allowance granted to each subscription
	// at subscribe time, in the plan's smallest denomination unit.
	// Zero means unlimited (the maximum representable amount).
	DelegationCap int64 `json:"delegation_cap" mapstructure:"delegation_cap" yaml:"delegation_cap"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, the extension resolves this named database and auto-constructs
	// the appropriate store based on the driver type (pg/sqlite/mongo).
	// When empty and WithGroveDatabase was called, the default (unnamed) DB is used.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BillInterval: time.Minute,
		BillBatch:    100,
	}
}
