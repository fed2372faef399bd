package extension

import (
	"fmt"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/types"
)

// Config holds the ledger extension configuration.
type Config struct {
	// DisableMigrate skips migrations on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Currency is the ISO 4217 code invoices are issued in (default: "eur").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// StrictTransitions rejects status changes outside the nominal
	// draft -> sent -> paid/overdue -> cancelled lifecycle.
	StrictTransitions bool `json:"strict_transitions" mapstructure:"strict_transitions" yaml:"strict_transitions"`

	// NumberRetries bounds how many counter values automatic numbering
	// tries after a collision (default: 3).
	NumberRetries int `json:"number_retries" mapstructure:"number_retries" yaml:"number_retries"`

	// RequireConfig makes Register fail when no config key is present.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Currency:      types.DefaultCurrency,
		NumberRetries: ledger.DefaultNumberRetries,
	}
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Currency == "" {
		c.Currency = d.Currency
	}
	if c.NumberRetries <= 0 {
		c.NumberRetries = d.NumberRetries
	}
	return c
}

// Merge combines file configuration with programmatic options. File values
// win; programmatic values fill gaps, and programmatic flags can only switch
// behaviour on.
func Merge(file, programmatic Config) Config {
	file.DisableMigrate = file.DisableMigrate || programmatic.DisableMigrate
	file.StrictTransitions = file.StrictTransitions || programmatic.StrictTransitions
	if file.Currency == "" {
		file.Currency = programmatic.Currency
	}
	if file.NumberRetries == 0 {
		file.NumberRetries = programmatic.NumberRetries
	}
	file.RequireConfig = programmatic.RequireConfig
	return file.WithDefaults()
}

// LedgerOptions translates the configuration into engine options.
func (c Config) LedgerOptions() []ledger.Option {
	opts := []ledger.Option{
		ledger.WithCurrency(c.Currency),
		ledger.WithNumberRetries(c.NumberRetries),
	}
	if c.StrictTransitions {
		opts = append(opts, ledger.WithStrictTransitions())
	}
	return opts
}

// Validate rejects settings the ledger cannot run with.
func (c Config) Validate() error {
	if types.MinorDigits(c.Currency) != 2 {
		return fmt.Errorf("ledger: currency %q must have a two-digit minor unit", c.Currency)
	}
	return nil
}
