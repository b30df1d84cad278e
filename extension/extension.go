// Package extension provides the Forge extension adapter for Recur.
//
// It implements the forge.Extension interface to integrate Recur
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.recur" or "recur" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/vessel"

	recur "github.com/xraph/recur"
	"github.com/xraph/recur/store"
	"github.com/xraph/recur/store/memory"
	mongostore "github.com/xraph/recur/store/mongo"
	postgresstore "github.com/xraph/recur/store/postgres"
	sqlitestore "github.com/xraph/recur/store/sqlite"
	"github.com/xraph/recur/token"
	tokenmemory "github.com/xraph/recur/token/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "recur"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Recurring delegated billing engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Recur as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config    Config
	engine    *recur.Engine
	store     store.Store
	ledger    token.Ledger
	delegator token.Delegator
	engOpts   []recur.Option
	useGrove  bool
}

// New creates a new Recur Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Recur instance.
// This is nil until Register is called.
func (e *Extension) Engine() *recur.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the billing engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// A grove_database key in the config file requests the grove-backed
	// store just like WithGroveDatabase does.
	if e.config.GroveDatabase != "" {
		e.useGrove = true
	}

	// Store resolution order: programmatic store, then a grove.DB from
	// the DI container when requested, then the memory fallback.
	if e.store == nil {
		if e.useGrove {
			s, err := e.resolveGroveStore(fapp)
			if err != nil {
				return err
			}
			e.store = s
		} else {
			e.store = memory.New()
		}
	}

	// Use the memory substrate when no token ledger was wired in.
	// Embedders with a real chain adapter provide both halves.
	if e.ledger == nil || e.delegator == nil {
		mem := tokenmemory.New()
		if e.ledger == nil {
			e.ledger = mem
		}
		if e.delegator == nil {
			e.delegator = mem
		}
	}

	// Build engine options from resolved config.
	opts := e.buildEngineOpts()

	e.engine = recur.New(e.store, e.ledger, e.delegator, opts...)

	return vessel.Provide(fapp.Container(), func() (*recur.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("recur: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("recur: store not initialized")
	}
	return e.store.Ping(ctx)
}

// resolveGroveStore resolves the configured grove.DB from the DI
// container and constructs the store backend matching its driver.
func (e *Extension) resolveGroveStore(fapp forge.App) (store.Store, error) {
	var (
		db  *grove.DB
		err error
	)
	if e.config.GroveDatabase != "" {
		db, err = vessel.InjectNamed[*grove.DB](fapp.Container(), e.config.GroveDatabase)
	} else {
		db, err = vessel.Inject[*grove.DB](fapp.Container())
	}
	if err != nil {
		return nil, fmt.Errorf("recur: resolve grove database %q: %w", e.config.GroveDatabase, err)
	}

	switch {
	case mongodriver.Unwrap(db) != nil:
		return mongostore.New(db), nil
	case pgdriver.Unwrap(db) != nil:
		return postgresstore.New(db), nil
	case sqlitedriver.Unwrap(db) != nil:
		return sqlitestore.New(db), nil
	}
	return nil, fmt.Errorf("recur: no store backend for grove database %q", e.config.GroveDatabase)
}

// buildEngineOpts constructs recur.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []recur.Option {
	opts := make([]recur.Option, 0, len(e.engOpts)+4)

	if e.config.BillInterval > 0 {
		opts = append(opts, recur.WithBillInterval(e.config.BillInterval))
	}
	if e.config.BillBatch > 0 {
		opts = append(opts, recur.WithBillBatch(e.config.BillBatch))
	}
	if e.config.DelegationCap > 0 {
		opts = append(opts, recur.WithDelegationCap(e.config.DelegationCap))
	}
	if e.config.DisableBiller {
		opts = append(opts, recur.WithoutBiller())
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("recur: configuration is required but not found in config files; " +
				"ensure 'extensions.recur' or 'recur' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("recur: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("disable_biller", e.config.DisableBiller),
		forge.F("bill_interval", e.config.BillInterval),
		forge.F("bill_batch", e.config.BillBatch),
		forge.F("delegation_cap", e.config.DelegationCap),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.recur" first (namespaced pattern).
	if cm.IsSet("extensions.recur") {
		if err := cm.Bind("extensions.recur", &cfg); err == nil {
			e.Logger().Debug("recur: loaded config from file",
				forge.F("key", "extensions.recur"),
			)
			return cfg, true
		}
		e.Logger().Warn("recur: failed to bind extensions.recur config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "recur" key.
	if cm.IsSet("recur") {
		if err := cm.Bind("recur", &cfg); err == nil {
			e.Logger().Debug("recur: loaded config from file",
				forge.F("key", "recur"),
			)
			return cfg, true
		}
		e.Logger().Warn("recur: failed to bind recur config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BillInterval == 0 {
		cfg.BillInterval = defaults.BillInterval
	}
	if cfg.BillBatch == 0 {
		cfg.BillBatch = defaults.BillBatch
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableBiller {
		yamlConfig.DisableBiller = true
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.BillInterval == 0 && programmaticConfig.BillInterval != 0 {
		yamlConfig.BillInterval = programmaticConfig.BillInterval
	}
	if yamlConfig.BillBatch == 0 && programmaticConfig.BillBatch != 0 {
		yamlConfig.BillBatch = programmaticConfig.BillBatch
	}
	if yamlConfig.DelegationCap == 0 && programmaticConfig.DelegationCap != 0 {
		yamlConfig.DelegationCap = programmaticConfig.DelegationCap
	}
	if yamlConfig.GroveDatabase == "" && programmaticConfig.GroveDatabase != "" {
		yamlConfig.GroveDatabase = programmaticConfig.GroveDatabase
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
