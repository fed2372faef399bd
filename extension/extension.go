// Package extension provides the Forge extension adapter for the invoice ledger.
//
// The extension builds a *ledger.Ledger, registers it in the Forge container
// and ties migrations and shutdown to the application lifecycle.
// Configuration comes from Option functions and, when present, from the
// "extensions.invoiceledger" or "invoiceledger" key of the app config.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/store"
	"github.com/xraph/invoiceledger/store/memory"
)

const (
	// ExtensionName is the name registered with Forge.
	ExtensionName = "invoiceledger"
	// ExtensionDescription is the human-readable description.
	ExtensionDescription = "Multi-tenant invoice ledger"
	// ExtensionVersion is the semantic version.
	ExtensionVersion = "0.2.0"
)

// configKeys are tried in order; the first one present wins.
var configKeys = []string{"extensions.invoiceledger", "invoiceledger"}

var _ forge.Extension = (*Extension)(nil)

// Extension adapts the ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *ledger.Ledger
	store      store.Store
	ledgerOpts []ledger.Option
}

// New creates a new ledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the ledger. It is nil until Register is called.
func (e *Extension) Engine() *ledger.Ledger { return e.engine }

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// Register implements [forge.Extension]. It resolves configuration, builds
// the ledger and provides it to the container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	fileCfg, found := e.fileConfig(e.App().Config())
	if !found && e.config.RequireConfig {
		return errors.New("ledger: configuration is required but neither " +
			"'extensions.invoiceledger' nor 'invoiceledger' is set")
	}
	if found {
		e.config = Merge(fileCfg, e.config)
	} else {
		e.config = e.config.WithDefaults()
	}
	if err := e.config.Validate(); err != nil {
		return err
	}
	e.Logger().Debug("ledger: configuration resolved",
		forge.F("from_file", found),
		forge.F("currency", e.config.Currency),
		forge.F("number_retries", e.config.NumberRetries),
		forge.F("strict_transitions", e.config.StrictTransitions),
		forge.F("disable_migrate", e.config.DisableMigrate),
	)

	if e.store == nil {
		e.store = memory.New()
	}
	e.engine = ledger.New(e.store, append(e.config.LedgerOptions(), e.ledgerOpts...)...)

	return vessel.Provide(fapp.Container(), func() (*ledger.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension]. Starting the ledger migrates the
// store, so it is skipped when migrations are disabled.
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("ledger: extension not initialized")
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
	defer e.MarkStopped()
	if e.engine == nil {
		return nil
	}
	return e.engine.Stop()
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("ledger: extension not initialized")
	}
	return e.engine.Ping(ctx)
}

// configSource is the part of the Forge config manager the extension reads.
type configSource interface {
	IsSet(key string) bool
	Bind(key string, target any) error
}

// fileConfig binds the first configured key.
func (e *Extension) fileConfig(cm configSource) (Config, bool) {
	for _, key := range configKeys {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("ledger: ignoring unreadable config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		return cfg, true
	}
	return Config{}, false
}
