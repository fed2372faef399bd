package extension

import (
	"context"
	"testing"

	ledger "github.com/xraph/invoiceledger"
	"github.com/xraph/invoiceledger/store/memory"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name         string
		file, prog   Config
		wantCurrency string
		wantRetries  int
		wantStrict   bool
		wantNoMigr   bool
	}{
		{
			name:         "file wins",
			file:         Config{Currency: "usd", NumberRetries: 5},
			prog:         Config{Currency: "gbp", NumberRetries: 2},
			wantCurrency: "usd",
			wantRetries:  5,
		},
		{
			name:         "programmatic fills gaps",
			prog:         Config{Currency: "gbp", NumberRetries: 2},
			wantCurrency: "gbp",
			wantRetries:  2,
		},
		{
			name:         "defaults last",
			wantCurrency: "eur",
			wantRetries:  ledger.DefaultNumberRetries,
		},
		{
			name:         "flags switch on from either side",
			file:         Config{StrictTransitions: true},
			prog:         Config{DisableMigrate: true},
			wantCurrency: "eur",
			wantRetries:  ledger.DefaultNumberRetries,
			wantStrict:   true,
			wantNoMigr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.file, tt.prog)
			if got.Currency != tt.wantCurrency {
				t.Errorf("Currency = %q, want %q", got.Currency, tt.wantCurrency)
			}
			if got.NumberRetries != tt.wantRetries {
				t.Errorf("NumberRetries = %d, want %d", got.NumberRetries, tt.wantRetries)
			}
			if got.StrictTransitions != tt.wantStrict {
				t.Errorf("StrictTransitions = %v, want %v", got.StrictTransitions, tt.wantStrict)
			}
			if got.DisableMigrate != tt.wantNoMigr {
				t.Errorf("DisableMigrate = %v, want %v", got.DisableMigrate, tt.wantNoMigr)
			}
		})
	}
}

func TestLedgerOptions(t *testing.T) {
	cfg := Config{Currency: "usd", NumberRetries: 4, StrictTransitions: true}
	l := ledger.New(memory.New(), cfg.LedgerOptions()...)
	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer l.Stop()

	if l.Currency() != "usd" {
		t.Errorf("Currency() = %q, want usd", l.Currency())
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	if err := (Config{Currency: "jpy"}).WithDefaults().Validate(); err == nil {
		t.Fatal("zero-digit currency accepted")
	}
}
