package extension

import (
	"time"

	recur "github.com/xraph/recur"
	"github.com/xraph/recur/plugin"
	"github.com/xraph/recur/store"
	"github.com/xraph/recur/token"
)

// Option configures the Recur Forge extension.
type Option func(*Extension)

// WithStore sets the store for the billing engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTokenLedger sets the value-transfer substrate. Without it the
// extension falls back to the in-memory reference ledger.
func WithTokenLedger(l token.Ledger) Option {
	return func(e *Extension) {
		e.ledger = l
	}
}

// WithDelegator sets the delegation substrate.
func WithDelegator(d token.Delegator) Option {
	return func(e *Extension) {
		e.delegator = d
	}
}

// WithEngineOption passes a recur.Option through to the underlying engine.
func WithEngineOption(opt recur.Option) Option {
	return func(e *Extension) {
		e.engOpts = append(e.engOpts, opt)
	}
}

// WithPlugin registers a recur plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engOpts = append(e.engOpts, recur.WithPlugin(p))
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

// WithDisableBiller prevents the background billing sweeper from starting.
func WithDisableBiller() Option {
	return func(e *Extension) { e.config.DisableBiller = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithBillInterval sets the cadence of the background billing sweep.
func WithBillInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.BillInterval = d }
}

// WithBillBatch caps how many due subscriptions one sweep charges.
func WithBillBatch(n int) Option {
	return func(e *Extension) { e.config.BillBatch = n }
}

// WithDelegationCap bounds the allowance granted to each subscription.
func WithDelegationCap(amount int64) Option {
	return func(e *Extension) { e.config.DelegationCap = amount }
}

// WithGroveDatabase sets the name of the grove.DB to resolve from the DI container.
// The extension will auto-construct the appropriate store backend (postgres/sqlite/mongo)
// based on the grove driver type. Pass an empty string to use the default (unnamed) grove.DB.
func WithGroveDatabase(name string) Option {
	return func(e *Extension) {
		e.config.GroveDatabase = name
		e.useGrove = true
	}
}
