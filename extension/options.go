package extension

import (
	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/plugin"
	"github.com/xraph/invoiceledger/store"
)

// Option configures the Ledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a ledger.Option through to the underlying engine.
func WithLedgerOption(opt ledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, ledger.WithPlugin(p))
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

// WithCurrency sets the invoice currency.
func WithCurrency(code string) Option {
	return func(e *Extension) { e.config.Currency = code }
}

// WithStrictTransitions enforces the nominal status lifecycle.
func WithStrictTransitions() Option {
	return func(e *Extension) { e.config.StrictTransitions = true }
}

// WithNumberRetries bounds automatic renumbering after a collision.
func WithNumberRetries(n int) Option {
	return func(e *Extension) { e.config.NumberRetries = n }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
